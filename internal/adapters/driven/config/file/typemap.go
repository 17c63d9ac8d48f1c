package file

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/custodia-labs/historycourt/internal/curation"
)

// Type map CSV columns. Other columns are ignored.
const (
	typeMapHostColumn = "url"
	typeMapTypeColumn = "type"
)

// LoadTypeMap reads a host to site-type table from a CSV file with a header
// row containing "url" and "type" columns. Hosts are canonicalised. An empty
// path or a missing file yields an empty table; a malformed file is an error.
func LoadTypeMap(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("open type map: %w", err)
	}
	defer f.Close()

	m, err := ParseTypeMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseTypeMap reads the CSV form described by LoadTypeMap.
func ParseTypeMap(r io.Reader) (map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	hostCol, typeCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case typeMapHostColumn:
			hostCol = i
		case typeMapTypeColumn:
			typeCol = i
		}
	}
	if hostCol < 0 || typeCol < 0 {
		return nil, fmt.Errorf("header must contain %q and %q columns", typeMapHostColumn, typeMapTypeColumn)
	}

	m := make(map[string]string)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if hostCol >= len(record) {
			continue
		}
		host := curation.CanonicalHost(record[hostCol])
		if host == "" {
			continue
		}
		var typ string
		if typeCol < len(record) {
			typ = strings.TrimSpace(record[typeCol])
		}
		m[host] = typ
	}
	return m, nil
}
