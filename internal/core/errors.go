package core

import (
	"errors"

	"photo-filters/internal/io"
)

var (
	ErrDecode         = io.ErrDecode
	ErrEncode         = io.ErrEncode
	ErrInvalidImage   = errors.New("invalid image")
	ErrNoImage        = errors.New("no image selected")
	ErrStale          = errors.New("session changed while the filter was running")
	ErrQueueFull      = errors.New("request queue is full")
	ErrPipelineClosed = errors.New("pipeline is stopped")
)
