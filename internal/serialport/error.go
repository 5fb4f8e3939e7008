package serialport

import "errors"

// ErrClosed is returned by any operation on a Port after Close.
var ErrClosed = errors.New("serialport: port already closed")
