package backend

import "fmt"

// QueryFailedError is a failed historical range query. Detail carries the
// backend's own message when it sent one.
type QueryFailedError struct {
	StatusCode int
	Detail     string
}

func (e *QueryFailedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("range query failed: %s", e.Detail)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("range query failed: backend returned status %d", e.StatusCode)
	}
	return "range query failed"
}

// PersistenceError is a failed snapshot operation against the backend.
type PersistenceError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *PersistenceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("snapshot %s failed: %s", e.Op, e.Detail)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("snapshot %s failed: backend returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("snapshot %s failed", e.Op)
}
