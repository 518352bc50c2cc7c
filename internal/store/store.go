package store

// Store persists sample batches.
// Implementations must be safe for concurrent use.
//
// Error conventions:
//   - ErrNotFound when a batch does not exist (Load/Delete)
//   - ErrValidation when an ID or record is unusable
//   - underlying I/O and serialization errors are wrapped with context
type Store interface {
	// SaveBatch atomically writes the record under id, replacing any
	// existing record with that id.
	SaveBatch(id string, rec *BatchRecord) error

	// LoadBatch reads the record stored under id.
	LoadBatch(id string) (*BatchRecord, error)

	// ListBatches returns the metadata of every readable record, oldest
	// first. Unreadable records are skipped with a warning.
	ListBatches() ([]BatchInfo, error)

	// DeleteBatch removes the record directory and everything in it.
	DeleteBatch(id string) error
}

// ErrNotFound is returned when a requested record does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError reports a missing record.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return "record not found: " + e.ID
	}
	return "record not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
