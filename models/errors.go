package models

import "errors"

// Fatal job-level errors. These abort the whole job and propagate to the
// caller, unlike task-level ProcessingError entries.
var (
	// ErrSourceNotFound is returned by the metadata collaborator when the
	// input path does not exist, distinct from a probe-tool failure.
	ErrSourceNotFound = errors.New("source file does not exist")

	// ErrNoVideoStream marks a non-video input, detected at the end of
	// the analysis phase.
	ErrNoVideoStream = errors.New("source has no decodable video stream")
)
