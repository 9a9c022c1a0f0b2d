package loader

import (
	"errors"
	"fmt"
)

// ErrNoHeader is returned for a file without even a header row.
var ErrNoHeader = errors.New("no header row")

// FileReadError reports a file that could not be loaded: missing,
// unreadable, undecodable or malformed. The run skips it and continues.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// DecodeError reports bytes that are not valid UTF-8, with or without a BOM.
type DecodeError struct {
	Offset int // byte offset of the first invalid sequence
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid UTF-8 at byte %d", e.Offset)
}
