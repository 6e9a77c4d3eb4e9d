// Package export moves recordings between the local store and JSONL files.
//
// JSONL is the interchange format for backups and device-to-device moves:
// one recording per line, the same JSON shape the inbox server speaks.
// Import is idempotent; re-importing a file skips recordings whose IDs
// already exist instead of failing.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/voiceinbox/voiceinbox/internal/record"
	"github.com/voiceinbox/voiceinbox/internal/store"
)

// Result contains statistics about an export or import run
type Result struct {
	Exported int
	Imported int
	Skipped  int
	Errors   []string
}

// Export writes every recording in the store to a JSONL file.
//
// The file is written atomically via a temp file so a crash mid-export
// never leaves a half-written backup behind.
func Export(st *store.Store, path string) (*Result, error) {
	recs, err := st.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read recordings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpPath := path + ".tmp"
	// #nosec G304 - controlled path from CLI
	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	result := &Result{}
	encoder := json.NewEncoder(file)
	for _, rec := range recs {
		if err := encoder.Encode(rec); err != nil {
			_ = file.Close()
			_ = os.Remove(tmpPath)
			return nil, fmt.Errorf("failed to encode recording %s: %w", rec.ID, err)
		}
		result.Exported++
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to rename temp file: %w", err)
	}

	return result, nil
}

// Import reads a JSONL file and inserts its recordings into the store.
//
// Recordings whose IDs already exist are counted as skipped. Invalid
// lines are collected in Result.Errors; they do not abort the run.
func Import(st *store.Store, path string) (*Result, error) {
	// #nosec G304 - controlled path from CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL file: %w", err)
	}
	defer file.Close()

	result := &Result{}
	decoder := json.NewDecoder(file)
	lineNum := 0

	for {
		var rec record.Recording
		if err := decoder.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid JSON at line %d: %w", lineNum+1, err)
		}
		lineNum++

		if err := rec.Validate(); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("line %d: invalid recording: %v", lineNum, err))
			continue
		}

		if err := st.Insert(&rec); err != nil {
			if errors.Is(err, store.ErrDuplicateID) {
				result.Skipped++
				continue
			}
			result.Errors = append(result.Errors,
				fmt.Sprintf("line %d: failed to insert %s: %v", lineNum, rec.ID, err))
			continue
		}
		result.Imported++
	}

	return result, nil
}
