package syncer

import (
	"fmt"
	"strings"
)

// ValidationError reports edit fields that were blank after trimming.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// NoSelectionError reports an edit submitted without a selected record.
type NoSelectionError struct{}

func (e *NoSelectionError) Error() string {
	return "no character selected"
}

// StaleSelectionError reports an edit whose form was filled from a record
// that is no longer selected.
type StaleSelectionError struct {
	FormID     string
	SelectedID string
}

func (e *StaleSelectionError) Error() string {
	return fmt.Sprintf("edit for %q refused: selection is now %q", e.FormID, e.SelectedID)
}

// ImagePrepError reports a failed upload of the edited image.
type ImagePrepError struct {
	Err error
}

func (e *ImagePrepError) Error() string {
	return fmt.Sprintf("prepare image: %v", e.Err)
}

func (e *ImagePrepError) Unwrap() error { return e.Err }

// RemoteUpdateError reports a rejected or failed PATCH. Status is zero when
// no response was received.
type RemoteUpdateError struct {
	Status int
	Body   string
	Err    error
}

func (e *RemoteUpdateError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("update rejected: %s", e.Body)
	}
	return fmt.Sprintf("update failed: %v", e.Err)
}

func (e *RemoteUpdateError) Unwrap() error { return e.Err }
