// Package ingest decodes debate records from their storage format:
// newline-delimited JSON, one record per line. It is the boundary the
// metrics engine trusts; a record that fails validation here is a
// contract violation and aborts the read rather than being silently
// dropped.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-rostrum/internal/domain"
	"github.com/ahrav/go-rostrum/internal/ports"
)

var validate = validator.New()

// maxLineBytes bounds a single NDJSON line. Full transcripts with long
// turns routinely exceed bufio's 64KiB default.
const maxLineBytes = 16 << 20

// ReadRecords decodes and validates every record from r. Blank lines
// are skipped; malformed JSON or an invalid record fails the whole read
// with the offending line number.
func ReadRecords(r io.Reader) ([]domain.DebateRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), maxLineBytes)

	var records []domain.DebateRecord
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec domain.DebateRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: failed to decode record: %w", line, err)
		}
		if err := validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("line %d: record validation failed: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

var _ ports.RecordSource = (*FileSource)(nil)

// FileSource is a RecordSource backed by a local NDJSON file, used by
// the CLI and by tests in place of the object-store source.
type FileSource struct{ path string }

// NewFileSource returns a RecordSource reading from path.
func NewFileSource(path string) *FileSource { return &FileSource{path: path} }

// Records implements ports.RecordSource.
func (s *FileSource) Records(ctx context.Context) ([]domain.DebateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()
	return ReadRecords(f)
}
