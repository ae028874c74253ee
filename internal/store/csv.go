package store

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
)

// maxBadRecords bounds how many unreadable records a file may contain before the
// rest of the file is abandoned
const maxBadRecords = 1000

// CSVSource reads tables from CSV files under a dataset directory
type CSVSource struct {
	dir string
}

// NewCSVSource creates a source rooted at dir
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Resolve finds the file backing a table. It tries the bare name, then name.csv,
// then the first match of name*.csv.
func (s *CSVSource) Resolve(table string) (string, bool) {
	base := filepath.Join(s.dir, table)
	for _, pattern := range []string{base, base + ".csv", base + "*.csv"} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && !info.IsDir() {
				return m, true
			}
		}
	}
	return "", false
}

// Open reads a whole table. Records that cannot be parsed are skipped one by one.
func (s *CSVSource) Open(ctx context.Context, table string) (*RawTable, error) {
	path, ok := s.Resolve(table)
	if !ok {
		return nil, fmt.Errorf("%w: %s under %s", ErrTableNotFound, table, s.dir)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReaderSize(file, 1<<20))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	var rows [][]string
	bad := 0
	for {
		if len(rows)%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			bad++
			if bad > maxBadRecords {
				log.Warn().Str("path", path).Int("bad", bad).Msg("Too many malformed records, truncating table")
				break
			}
			continue
		}
		rows = append(rows, row)
	}

	if bad > 0 {
		log.Warn().Str("path", path).Int("skipped", bad).Msg("Skipped malformed records")
	}
	log.Debug().Str("table", table).Str("path", path).Int("rows", len(rows)).Msg("Read CSV table")
	return NewRawTable(header, rows), nil
}
