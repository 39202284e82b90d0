package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/giantswarm/kernfsenv/internal/sentinel"
	"golang.org/x/sync/errgroup"
)

const (
	// ErrMissingArtifact is returned when no statistics file exists, or none
	// holds a usable record. The service always writes at least one record on
	// a clean shutdown, so this is a protocol violation.
	ErrMissingArtifact = sentinel.Error("no kernfs statistics artifact found")

	// ErrNoRecords is returned, together with ErrMissingArtifact, when files
	// exist but none of them yields a record.
	ErrNoRecords = sentinel.Error("statistics files contain no records")

	// ErrMalformedArtifact is returned when a statistics file is not a JSON
	// array.
	ErrMalformedArtifact = sentinel.Error("statistics file is not a JSON array")
)

// Record is one statistics entry as written by the service. Its schema
// belongs to the service; numbers are kept as json.Number so that values
// pass through to the report tool unchanged.
type Record map[string]any

// maxParallelReads caps concurrent statistics file reads.
const maxParallelReads = 8

// CollectStats reads every statistics file in dir matching pattern and
// returns the last record of the last file, in path order, that has any.
func CollectStats(ctx context.Context, dir, pattern string) (Record, error) {
	files, err := Match(dir, pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s in %s: %w", pattern, dir, ErrMissingArtifact)
	}

	perFile := make([][]Record, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i, f := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			records, err := readRecords(f)
			if err != nil {
				return err
			}
			perFile[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := len(perFile) - 1; i >= 0; i-- {
		if n := len(perFile[i]); n > 0 {
			return perFile[i][n-1], nil
		}
	}
	return nil, fmt.Errorf("%d files matching %s in %s: %w: %w", len(files), pattern, dir, ErrNoRecords, ErrMissingArtifact)
}

// readRecords decodes one statistics file.
func readRecords(path string) ([]Record, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the configured stats glob
	if err != nil {
		return nil, fmt.Errorf("open stats file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	records, err := decodeRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// decodeRecords stream-decodes a JSON array of objects. Elements that are not
// objects are skipped. A decode failure inside the array ends the file but
// keeps what was read so far, since the service may be killed while
// appending its final entry. An empty input has no records.
func decodeRecords(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedArtifact, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("%w: starts with %v", ErrMalformedArtifact, tok)
	}

	var records []Record
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			break
		}
		rec, ok := decodeRecord(raw)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// decodeRecord decodes raw as a JSON object, keeping numbers verbatim.
func decodeRecord(raw json.RawMessage) (Record, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil || rec == nil {
		return nil, false
	}
	return rec, true
}
