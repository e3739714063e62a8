package diagram

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error checking via errors.Is().
var (
	// ErrMalformedDiagram indicates the input could not be read as diagram markup.
	ErrMalformedDiagram = errors.New("malformed diagram")

	// ErrUnknownRoot indicates the requested root id is not a node of the graph.
	ErrUnknownRoot = errors.New("unknown root")

	// ErrDirectoryCreation indicates a directory could not be created.
	ErrDirectoryCreation = errors.New("directory creation failed")
)

// MalformedDiagramError wraps a markup decoding failure.
type MalformedDiagramError struct {
	Msg string
	Err error
}

func (e *MalformedDiagramError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrMalformedDiagram, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedDiagram, e.Msg)
}

func (e *MalformedDiagramError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedDiagram}
	}
	return []error{ErrMalformedDiagram, e.Err}
}

// UnknownRootError reports a root id that has no node.
type UnknownRootError struct {
	RootID string
}

func (e *UnknownRootError) Error() string {
	return fmt.Sprintf("%s: no node with id %q", ErrUnknownRoot, e.RootID)
}

func (e *UnknownRootError) Unwrap() error { return ErrUnknownRoot }

// DirectoryCreationError reports the directory that failed and why.
type DirectoryCreationError struct {
	Path string
	Err  error
}

func (e *DirectoryCreationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDirectoryCreation, e.Path, e.Err)
}

func (e *DirectoryCreationError) Unwrap() []error {
	return []error{ErrDirectoryCreation, e.Err}
}
