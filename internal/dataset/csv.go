// Package dataset reads the city, airport and cost-of-living CSV sources.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

type csvFile struct {
	r       *csv.Reader
	idx     map[string]int
	closeFn func() error
	line    int
}

func openCSV(path string, required []string) (*csvFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := stripUTF8BOM(bufio.NewReader(f))

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.ReuseRecord = false

	header, err := readHeader(r)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := requireHeader(header, required); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &csvFile{r: r, idx: headerIndex(header), closeFn: f.Close, line: 1}, nil
}

// next returns the following record, io.EOF at the end.
func (c *csvFile) next() ([]string, error) {
	for {
		rec, err := c.r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidCSV, err)
		}
		c.line, _ = c.r.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		return rec, nil
	}
}

// get returns the trimmed cell for column name, or "" if the row is short.
func (c *csvFile) get(rec []string, name string) string {
	i, ok := c.idx[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (c *csvFile) Close() error {
	return c.closeFn()
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

func readHeader(r *csv.Reader) ([]string, error) {
	h, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header", types.ErrInvalidCSV)
		}
		return nil, err
	}
	for i := range h {
		h[i] = strings.TrimSpace(h[i])
		if !utf8.ValidString(h[i]) {
			return nil, fmt.Errorf("%w: invalid header encoding", types.ErrInvalidCSV)
		}
	}
	return h, nil
}

func headerIndex(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := m[name]; !dup {
			m[name] = i
		}
	}
	return m
}

func requireHeader(header []string, required []string) error {
	hset := make(map[string]struct{}, len(header))
	for _, h := range header {
		hset[h] = struct{}{}
	}
	for _, req := range required {
		if _, ok := hset[req]; !ok {
			return fmt.Errorf("%w: missing required header column: %s", types.ErrInvalidCSV, req)
		}
	}
	return nil
}
