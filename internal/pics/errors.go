package pics

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a per-file failure.
type ErrorKind int

const (
	// DecodeError means the source could not be read or is not a supported image.
	DecodeError ErrorKind = iota
	// EncodeError means the encoder rejected the image or its options.
	EncodeError
	// FilesystemError means a directory or file operation failed.
	FilesystemError
)

func (k ErrorKind) String() string {
	switch k {
	case DecodeError:
		return "decode"
	case EncodeError:
		return "encode"
	case FilesystemError:
		return "filesystem"
	}
	return "unknown"
}

// CodecError is returned by the codec and the batch driver for per-file failures.
type CodecError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("%s error for %s: %v", e.Kind, e.Path, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

func newCodecError(kind ErrorKind, path string, err error) error {
	return &CodecError{Kind: kind, Path: path, Err: err}
}

// IsKind reports whether err wraps a CodecError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var codecErr *CodecError
	if errors.As(err, &codecErr) {
		return codecErr.Kind == kind
	}
	return false
}
