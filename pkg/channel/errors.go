package channel

import "github.com/pkg/errors"

var (
	ErrClosed        = errors.New("channel is closed")
	ErrNoReaders     = errors.New("channel has no remaining readers")
	ErrBufferFull    = errors.New("buffer is full")
	ErrBufferEmpty   = errors.New("buffer is empty")
	ErrBufferSize    = errors.New("buffer size must be greater than 0")
	ErrGuardMismatch = errors.New("guards and channels must have the same length")
)
