package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// FSStore implements Store on the filesystem. Each batch lives in
// <baseDir>/batches/<id>/batch.json; training traces live next to it in
// <baseDir>/runs/<id>/trace.jsonl.
//
// Writes go to a temp file that is renamed into place, so readers never see
// a partial record and no locking is needed.
type FSStore struct {
	baseDir string
}

// NewFSStore creates the base directory if needed and returns a store.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

// BaseDir returns the root directory of the store.
func (fs *FSStore) BaseDir() string {
	return fs.baseDir
}

func (fs *FSStore) batchDir(id string) string {
	return filepath.Join(fs.baseDir, "batches", id)
}

func (fs *FSStore) batchPath(id string) string {
	return filepath.Join(fs.batchDir(id), "batch.json")
}

// SaveBatch implements Store.
func (fs *FSStore) SaveBatch(id string, rec *BatchRecord) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if rec == nil {
		return &ValidationError{Field: "record", Reason: "cannot be nil"}
	}
	if rec.ID != id {
		return &ValidationError{Field: "ID", Reason: fmt.Sprintf("record id %q does not match %q", rec.ID, id)}
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	dir := fs.batchDir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create batch directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize batch: %w", err)
	}

	finalPath := fs.batchPath(id)
	tempPath := finalPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp batch file: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename batch file: %w", err)
	}

	slog.Debug("Batch saved", "id", id, "n_sample", rec.Batch.NSample(), "path", finalPath)
	return nil
}

// LoadBatch implements Store.
func (fs *FSStore) LoadBatch(id string) (*BatchRecord, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	path := fs.batchPath(id)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &NotFoundError{ID: id}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var rec BatchRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to deserialize batch %s: %w", id, err)
	}
	if rec.Batch == nil {
		return nil, fmt.Errorf("failed to deserialize batch %s: missing batch", id)
	}

	slog.Debug("Batch loaded", "id", id, "path", path)
	return &rec, nil
}

// ListBatches implements Store.
func (fs *FSStore) ListBatches() ([]BatchInfo, error) {
	dir := filepath.Join(fs.baseDir, "batches")

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []BatchInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read batches directory: %w", err)
	}

	infos := []BatchInfo{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		id := entry.Name()
		if _, err := os.Stat(fs.batchPath(id)); os.IsNotExist(err) {
			continue
		}

		rec, err := fs.LoadBatch(id)
		if err != nil {
			slog.Warn("Failed to load batch for listing", "id", id, "error", err)
			continue
		}
		infos = append(infos, rec.ToInfo())
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].Created.Before(infos[j].Created)
	})

	slog.Debug("Listed batches", "count", len(infos))
	return infos, nil
}

// DeleteBatch implements Store.
func (fs *FSStore) DeleteBatch(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	dir := fs.batchDir(id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return &NotFoundError{ID: id}
	} else if err != nil {
		return fmt.Errorf("failed to stat batch directory: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove batch directory: %w", err)
	}

	slog.Debug("Batch deleted", "id", id, "path", dir)
	return nil
}
