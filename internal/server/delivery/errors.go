package delivery

import "fmt"

// ValidationError reports a malformed send or history request
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MediaUploadError wraps a MediaStore failure. Nothing is persisted when it is returned.
type MediaUploadError struct {
	Err error
}

func (e *MediaUploadError) Error() string {
	return fmt.Sprintf("image upload failed: %v", e.Err)
}

func (e *MediaUploadError) Unwrap() error {
	return e.Err
}
