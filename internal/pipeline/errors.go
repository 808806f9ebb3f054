package pipeline

import "errors"

// ErrNotFound covers a source that does not exist, cannot be opened, or
// cannot be decoded as a known image format.
var ErrNotFound = errors.New("image not found")

// ResizeError covers every failure past load: dimension resolution,
// resampling and encoding. The collaborator's diagnostic text is kept
// verbatim.
type ResizeError struct {
	Message string
}

func (e *ResizeError) Error() string {
	return "failed to resize: " + e.Message
}
