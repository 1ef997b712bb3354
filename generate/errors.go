package generate

import "errors"

var (
	ErrBadPattern  = errors.New("bad pattern")
	ErrBadTemplate = errors.New("bad template")
	ErrCacheIO     = errors.New("cache io error")
	ErrCanceled    = errors.New("cache generation interrupted")
)
