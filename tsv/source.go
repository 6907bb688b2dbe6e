// Package tsv reads tab-delimited files with a header line, such as the BLS
// time.series archive files.
package tsv

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/pkg/errors"
)

const maxLineSize = 1 << 20

// Source returns one map per data line, keyed by the header. Header names
// are trimmed of surrounding whitespace since the BLS files pad them to
// align columns. Field values are returned as-is.
type Source struct {
	scan   *bufio.Scanner
	header []string
	line   int
}

// NewSource returns a Source reading from r.
func NewSource(r io.Reader) *Source {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Source{scan: scan}
}

// Header reads and validates the header line if it has not been read yet,
// and returns it.
func (s *Source) Header() ([]string, error) {
	if s.header != nil {
		return s.header, nil
	}
	if !s.scan.Scan() {
		if err := s.scan.Err(); err != nil {
			return nil, errors.Wrap(err, "scanning header")
		}
		return nil, errors.New("empty input: no header line")
	}
	s.line++
	header := strings.Split(s.scan.Text(), "\t")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := validateHeader(header); err != nil {
		return nil, errors.Wrap(err, "validating header")
	}
	s.header = header
	return s.header, nil
}

// Line returns the number of the last line read, starting at 1 for the
// header.
func (s *Source) Line() int {
	return s.line
}

// RecordError is returned by Record for a data line that cannot be mapped
// onto the header. The Source stays usable; the next call moves on to the
// following line.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("parsing line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Record returns the next data line. Empty fields are left out of the map.
// It returns io.EOF after the last line.
func (s *Source) Record() (map[string]string, error) {
	if _, err := s.Header(); err != nil {
		return nil, err
	}
	for s.scan.Scan() {
		s.line++
		txt := s.scan.Text()
		if strings.TrimSpace(txt) == "" {
			continue
		}
		row := strings.Split(txt, "\t")
		rec, err := parseRecord(s.header, row)
		if err != nil {
			return nil, &RecordError{Line: s.line, Err: err}
		}
		return rec, nil
	}
	if err := s.scan.Err(); err != nil {
		return nil, errors.Wrapf(err, "scanning after line %d", s.line)
	}
	return nil, io.EOF
}

func validateHeader(header []string) error {
	fields := make(map[string]int)
	for i, h := range header {
		if h == "" {
			return errors.Errorf("header contains empty string at %d: %v", i, header)
		}
		if pos, exists := fields[h]; exists {
			return errors.Errorf("%s appeared at both %d and %d in header", h, pos, i)
		}
		fields[h] = i
	}
	return nil
}

// parseRecord maps row onto header. Trailing columns missing from row are
// treated as empty, the way a trailing empty footnote column often is.
func parseRecord(header []string, row []string) (map[string]string, error) {
	if len(row) == 1 && len(header) > 1 {
		return nil, errors.Errorf("line has no tab separators: %q", row[0])
	} else if len(row) > len(header) {
		for i := len(header); i < len(row); i++ {
			if strings.TrimSpace(row[i]) != "" {
				log.Printf("data in non headered field: %v, %d", row, i)
			}
		}
	}
	ret := make(map[string]string, len(header))
	for i := 0; i < len(header) && i < len(row); i++ {
		if row[i] == "" {
			continue
		}
		ret[header[i]] = row[i]
	}
	return ret, nil
}
