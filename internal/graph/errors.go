package graph

import "fmt"

// DataIntegrityError reports a connection that references a node id the
// graph does not contain. Only that connection is skipped.
type DataIntegrityError struct {
	Connection ConnectionID
	Missing    string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("connection %s references missing node %q", e.Connection, e.Missing)
}

// DuplicateNodeError is returned by New when two nodes share an id.
type DuplicateNodeError struct {
	ID string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate node id: %s", e.ID)
}
