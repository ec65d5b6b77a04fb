package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction matches every *ExtractionError.
	ErrExtraction = errors.New("content extraction failed")
	// ErrUnsupportedFileType matches every *UnsupportedFileTypeError.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrInvalidImage is returned for inline payloads that are not image data URLs.
	ErrInvalidImage = errors.New("invalid image data url")
)

// Source kinds reported on ExtractionError.
const (
	SourceImage = "image_data_url"
	SourceFile  = "file"
)

// ExtractionError wraps any failure while turning a non-text source into text.
type ExtractionError struct {
	Source string
	Key    string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return "Content extraction failed"
	}
	return "Content extraction failed: " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// UnsupportedFileTypeError reports a stored file whose extension has no extraction path.
type UnsupportedFileTypeError struct {
	Ext string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("Unsupported file type: %s", e.Ext)
}

func (e *UnsupportedFileTypeError) Is(target error) bool { return target == ErrUnsupportedFileType }
