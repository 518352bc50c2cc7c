package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// TraceEntry is one line of a training trace: the loss after an epoch.
type TraceEntry struct {
	Epoch int     `json:"epoch"`
	Loss  float64 `json:"loss"`

	// Optimizer is the update rule in use, set on every entry so traces
	// from different runs can be concatenated.
	Optimizer string `json:"optimizer,omitempty"`

	Timestamp time.Time `json:"timestamp"`

	// Weights optionally holds the flattened weights after the epoch.
	Weights []float64 `json:"weights,omitempty"`
}

func tracePath(baseDir, runID string) string {
	return filepath.Join(baseDir, "runs", runID, "trace.jsonl")
}

// TraceWriter appends trace entries to a JSONL file through a buffer.
// It is safe for concurrent use.
type TraceWriter struct {
	mu    sync.Mutex
	f     *os.File
	buf   *bufio.Writer
	path  string
	count int
}

// NewTraceWriter opens <baseDir>/runs/<runID>/trace.jsonl. With append the
// existing entries are kept; otherwise the file is truncated.
func NewTraceWriter(baseDir, runID string, append bool) (*TraceWriter, error) {
	if err := ValidateID(runID); err != nil {
		return nil, err
	}

	path := tracePath(baseDir, runID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if append {
		flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace of run %s: %w", runID, err)
	}

	return &TraceWriter{f: f, buf: bufio.NewWriterSize(f, 64*1024), path: path}, nil
}

// Write buffers one entry; it reaches the file on Flush or Close. A zero
// Timestamp is set to the current time.
func (tw *TraceWriter) Write(entry TraceEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode epoch %d: %w", entry.Epoch, err)
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()

	if _, err := tw.buf.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write epoch %d: %w", entry.Epoch, err)
	}
	tw.count++
	return nil
}

// Count returns the number of entries written so far.
func (tw *TraceWriter) Count() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.count
}

// Flush writes any buffered data to the file.
func (tw *TraceWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace: %w", err)
	}
	return tw.f.Sync()
}

// Close flushes buffered data and closes the trace file.
func (tw *TraceWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := errors.Join(tw.buf.Flush(), tw.f.Close()); err != nil {
		return fmt.Errorf("failed to close trace: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the trace file.
func (tw *TraceWriter) Path() string {
	return tw.path
}

// TraceReader reads trace entries from a JSONL file.
type TraceReader struct {
	file    *os.File
	scanner *bufio.Scanner
}

// NewTraceReader opens the trace of runID.
func NewTraceReader(baseDir, runID string) (*TraceReader, error) {
	if err := ValidateID(runID); err != nil {
		return nil, err
	}

	file, err := os.Open(tracePath(baseDir, runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{ID: runID}
		}
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	// Lines carrying weights can be long.
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	return &TraceReader{
		file:    file,
		scanner: scanner,
	}, nil
}

// Read returns the next entry, or io.EOF after the last one.
func (tr *TraceReader) Read() (*TraceEntry, error) {
	if !tr.scanner.Scan() {
		if err := tr.scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan trace line: %w", err)
		}
		return nil, io.EOF
	}

	line := tr.scanner.Bytes()
	var entry TraceEntry
	if err := json.Unmarshal(line, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace entry: %w", err)
	}

	return &entry, nil
}

// ReadAll reads all trace entries from the file.
func (tr *TraceReader) ReadAll() ([]TraceEntry, error) {
	var entries []TraceEntry

	for {
		entry, err := tr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	return entries, nil
}

// Close closes the trace reader.
func (tr *TraceReader) Close() error {
	if err := tr.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}

// ListRuns returns the IDs of runs that have a trace, sorted.
func ListRuns(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(baseDir, "runs"))
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(tracePath(baseDir, entry.Name())); err == nil {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteTrace removes the run directory of runID. A missing run is not an
// error.
func DeleteTrace(baseDir, runID string) error {
	if err := ValidateID(runID); err != nil {
		return err
	}

	if err := os.RemoveAll(filepath.Dir(tracePath(baseDir, runID))); err != nil {
		return fmt.Errorf("failed to delete trace: %w", err)
	}
	return nil
}
