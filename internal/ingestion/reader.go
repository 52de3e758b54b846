// Package ingestion reads NLVR dataset files and loads their records into
// a scene store.
package ingestion

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Benny93/nlvr-graph/internal/scene"
	"github.com/Benny93/nlvr-graph/internal/storage"
)

// ErrMalformedRecord indicates a dataset entry that cannot be decoded or
// lacks a required field.
var ErrMalformedRecord = errors.New("ingestion: malformed record")

// maxLineSize bounds a single JSONL record.
const maxLineSize = 4 << 20

// ReadRecords decodes dataset records from r. The input may be JSON Lines,
// a JSON array of records, a single record object, or a bare structured
// representation (an array of panels). A bare representation is given
// fallbackID as its identifier.
func ReadRecords(r io.Reader, fallbackID string) ([]storage.SceneRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		return decodeArray(trimmed, fallbackID)
	case '{':
		// A pretty-printed single record spans several lines.
		if json.Valid(trimmed) {
			rec, err := decodeRecord(trimmed)
			if err != nil {
				return nil, err
			}
			return []storage.SceneRecord{rec}, nil
		}
	}
	return decodeLines(trimmed)
}

// ReadFile reads the dataset file at path. Bare structured representations
// take the file's base name, without extension, as identifier.
func ReadFile(path string) ([]storage.SceneRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	records, err := ReadRecords(f, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func decodeArray(data []byte, fallbackID string) ([]storage.SceneRecord, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	// An empty array reads as a scene with no panels.
	if len(elems) == 0 {
		if fallbackID == "" {
			return nil, nil
		}
		return []storage.SceneRecord{{Identifier: fallbackID, StructuredRep: scene.Description{}}}, nil
	}

	// Panels are arrays; records are objects.
	if first := bytes.TrimSpace(elems[0]); len(first) > 0 && first[0] == '[' {
		var desc scene.Description
		if err := json.Unmarshal(data, &desc); err != nil {
			return nil, fmt.Errorf("%w: structured representation: %v", ErrMalformedRecord, err)
		}
		return []storage.SceneRecord{{Identifier: fallbackID, StructuredRep: desc}}, nil
	}

	records := make([]storage.SceneRecord, 0, len(elems))
	for i, elem := range elems {
		rec, err := decodeRecord(elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeLines(data []byte) ([]storage.SceneRecord, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []storage.SceneRecord
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		rec, err := decodeRecord(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning dataset: %w", err)
	}
	return records, nil
}

func decodeRecord(data []byte) (storage.SceneRecord, error) {
	var rec storage.SceneRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := rec.Validate(); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return rec, nil
}
