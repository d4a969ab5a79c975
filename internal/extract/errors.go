package extract

import "fmt"

// FileError reports a pair that could not be processed: an unknown tier, a
// malformed TextGrid or undecodable audio.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
