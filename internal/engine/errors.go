package engine

import "errors"

var (
	// ErrPublishRoot indicates the static root could not be published.
	ErrPublishRoot = errors.New("could not publish static root")

	// ErrOpenLiveDir indicates the live directory could not be enumerated.
	ErrOpenLiveDir = errors.New("could not open live directory")

	// ErrOpenSourceDir indicates the declared source tree could not be enumerated.
	ErrOpenSourceDir = errors.New("could not open source directory")

	// ErrValidation indicates an invalid request.
	ErrValidation = errors.New("validation failed")
)
