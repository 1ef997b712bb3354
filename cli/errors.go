package cli

import "errors"

var (
	ErrBadOption = errors.New("bad option")
	ErrHelp      = errors.New("help requested")
)
