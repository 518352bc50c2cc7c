package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/hydrocal/internal/sample"
)

// BatchRecord is a persisted sample batch with the provenance needed to
// regenerate it.
type BatchRecord struct {
	// ID is the record identifier and its directory name.
	ID string `json:"id"`

	// Source names where the problem came from: a structure name or the
	// path of a problem file.
	Source string `json:"source,omitempty"`

	// Seed is the random state the batch was drawn with, nil when unseeded.
	Seed *uint64 `json:"seed,omitempty"`

	Created time.Time `json:"created"`

	Batch *sample.Batch `json:"batch"`
}

// BatchInfo is the metadata of a stored batch without its series.
type BatchInfo struct {
	ID        string    `json:"id"`
	Source    string    `json:"source,omitempty"`
	Generator string    `json:"generator"`
	NSample   int       `json:"n_sample"`
	NumVars   int       `json:"num_vars"`
	Created   time.Time `json:"created"`
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// NewBatchRecord wraps b in a record with a fresh ID.
func NewBatchRecord(b *sample.Batch, source string, seed *uint64) *BatchRecord {
	return &BatchRecord{
		ID:      NewID(),
		Source:  source,
		Seed:    seed,
		Created: time.Now(),
		Batch:   b,
	}
}

// ToInfo returns the record metadata.
func (r *BatchRecord) ToInfo() BatchInfo {
	info := BatchInfo{
		ID:      r.ID,
		Source:  r.Source,
		Created: r.Created,
	}
	if r.Batch != nil {
		info.Generator = r.Batch.Generator()
		info.NSample = r.Batch.NSample()
		info.NumVars = r.Batch.Problem().NumVars()
	}
	return info
}

// Validate checks that the record can be stored and read back.
func (r *BatchRecord) Validate() error {
	if err := ValidateID(r.ID); err != nil {
		return err
	}
	if r.Created.IsZero() {
		return &ValidationError{Field: "Created", Reason: "cannot be zero"}
	}
	if r.Batch == nil {
		return &ValidationError{Field: "Batch", Reason: "cannot be nil"}
	}
	if !r.Batch.Problem().Valid() {
		return &ValidationError{Field: "Batch", Reason: "has no valid problem"}
	}
	return nil
}

// ValidateID rejects identifiers that are empty or would escape the store
// directory.
func ValidateID(id string) error {
	switch {
	case id == "":
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	case id == "." || id == "..":
		return &ValidationError{Field: "ID", Reason: fmt.Sprintf("%q is reserved", id)}
	case strings.ContainsAny(id, `/\`):
		return &ValidationError{Field: "ID", Reason: "cannot contain path separators"}
	}
	return nil
}

// ResolveID expands a unique prefix of a stored ID to the full ID.
func ResolveID(s Store, prefix string) (string, error) {
	infos, err := s.ListBatches()
	if err != nil {
		return "", err
	}

	var match []string
	for _, info := range infos {
		if info.ID == prefix {
			return prefix, nil
		}
		if strings.HasPrefix(info.ID, prefix) {
			match = append(match, info.ID)
		}
	}
	switch len(match) {
	case 0:
		return "", &NotFoundError{ID: prefix}
	case 1:
		return match[0], nil
	}
	return "", fmt.Errorf("ambiguous batch id %q matches %d batches", prefix, len(match))
}

// ErrValidation is the sentinel matched by every *ValidationError.
var ErrValidation = &ValidationError{}

// ValidationError reports a record that cannot be stored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}
