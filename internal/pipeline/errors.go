package pipeline

import "errors"

var (
	// ErrTimeout marks jobs whose time budget ran out mid-analysis.
	ErrTimeout = errors.New("processing time budget exceeded")
	// ErrQueueFull surfaces worker-pool backpressure to the submitter.
	ErrQueueFull = errors.New("analysis queue is full")
	// ErrInvalidIndex marks edit requests for a paragraph index that is
	// out of range for the stored sequence.
	ErrInvalidIndex = errors.New("invalid paragraph index")
)
