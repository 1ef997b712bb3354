package worker

import "errors"

var (
	ErrConnect     = errors.New("connecting to server failed")
	ErrServerQuery = errors.New("server query failed")
	ErrDropTable   = errors.New("dropping table failed")
)
