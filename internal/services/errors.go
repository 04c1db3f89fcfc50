package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientContent means a document is too short to analyze.
	// Never retried; surfaced to the caller immediately.
	ErrInsufficientContent = errors.New("document content too short to analyze")

	// ErrDuplicateRun signals that admission was denied because an identical
	// run is already in flight. This is a no-op, not a failure.
	ErrDuplicateRun = errors.New("duplicate pipeline run skipped")

	// ErrArtifactNotFound is returned by ReadLatest when a company has no
	// artifact of the requested kind.
	ErrArtifactNotFound = errors.New("artifact not found")
)

// ParseError means the completion service kept returning output the parser
// could not recover after the retry budget was exhausted.
type ParseError struct {
	Stage    string
	Attempts int
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unparsable response after %d attempts: %v", e.Stage, e.Attempts, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ServiceError wraps a transport or provider failure from an external
// dependency (completion service, vector store).
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: service failure: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// StageError tags a run-level failure with the pipeline stage it came from,
// so a failed run always reports which stage failed and why.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
