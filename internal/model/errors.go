package model

import "fmt"

// DiscoveryError means the input directory could not be listed. Run-fatal.
type DiscoveryError struct {
	Dir string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover images in %s: %v", e.Dir, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// PreparationError is a per-image read/decode/resize/encode failure.
type PreparationError struct {
	Filename string
	Stage    string // read, decode, encode
	Err      error
}

func (e *PreparationError) Error() string {
	return fmt.Sprintf("prepare %s (%s): %v", e.Filename, e.Stage, e.Err)
}

func (e *PreparationError) Unwrap() error { return e.Err }

// RecognitionError is a per-image transport, auth or response failure.
type RecognitionError struct {
	Filename   string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *RecognitionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("recognize %s (status %d): %v", e.Filename, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("recognize %s: %v", e.Filename, e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// SinkWriteError means a record could not be appended to an output file.
type SinkWriteError struct {
	Path string
	Err  error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("append to %s: %v", e.Path, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }
