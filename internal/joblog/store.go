// Package joblog keeps the append-only jobs.csv file written by the job search.
package joblog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/jonathan/apply-agent/internal/types"
)

// DefaultPath is the log file used when none is configured.
const DefaultPath = "jobs.csv"

// Columns lists the CSV columns in file order. The file has no header row.
var Columns = []string{"title", "company", "link", "salary", "location"}

// Store appends postings to a CSV file. It is safe for concurrent use; every
// append writes one complete row under the lock.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a store for path. The file is created on first append.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the file location.
func (s *Store) Path() string {
	return s.path
}

// Append validates job and writes it as one row.
func (s *Store) Append(job types.JobPosting) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid job posting: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(job.CSVRecord()); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write job: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write job: %w", err)
	}
	return f.Close()
}

// ReadRaw returns the file content unparsed. A missing file reads as empty.
func (s *Store) ReadRaw() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return string(data), nil
}

// List parses every row. Fit scores are not stored and read back as zero.
func (s *Store) List() ([]types.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []types.JobPosting{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	return parse(f)
}

func parse(r io.Reader) ([]types.JobPosting, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	jobs := []types.JobPosting{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return jobs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse jobs: %w", err)
		}
		jobs = append(jobs, types.JobPosting{
			Title:    rec[0],
			Company:  rec[1],
			Link:     rec[2],
			Salary:   rec[3],
			Location: rec[4],
		})
	}
}
