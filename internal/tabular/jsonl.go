package tabular

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

// maxJSONLLine bounds a single JSON line.
const maxJSONLLine = 1 << 20

// ReadJSONL reads one JSON object per line into a Table. The header is the
// union of keys in first-seen order. Malformed lines are reported as
// RowErrors wrapping types.ErrMalformedRow and left out of the table;
// Table.Index keeps the line numbers of the rows that remain.
func ReadJSONL(r io.Reader) (Table, []RowError, error) {
	var (
		t       Table
		errs    []RowError
		objects []map[string]string
	)
	pos := map[string]int{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Bytes()
		if n == 1 {
			line = bytes.TrimPrefix(line, utf8BOM)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		keys, vals, err := decodeObject(line)
		if err != nil {
			errs = append(errs, RowError{Row: n, Reason: "invalid JSON object: " + err.Error(), Err: types.ErrMalformedRow})
			continue
		}
		for _, k := range keys {
			if _, ok := pos[k]; !ok {
				pos[k] = len(t.Header)
				t.Header = append(t.Header, k)
			}
		}
		objects = append(objects, vals)
		t.Index = append(t.Index, n)
	}
	if err := scanner.Err(); err != nil {
		return Table{}, nil, fmt.Errorf("scanning jsonl: %w", err)
	}

	for _, obj := range objects {
		row := make([]string, len(t.Header))
		for k, v := range obj {
			row[pos[k]] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, errs, nil
}

// decodeObject decodes a flat JSON object, keeping key order. Scalar values
// are rendered as text; null becomes empty.
func decodeObject(line []byte) ([]string, map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("not an object")
	}

	var keys []string
	vals := map[string]string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		if _, seen := vals[key]; !seen {
			keys = append(keys, key)
		}
		vals[key] = scalarText(raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	if dec.More() {
		return nil, nil, fmt.Errorf("trailing data")
	}
	return keys, vals, nil
}

func scalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}

// WriteJSONL writes one JSON object per movie.
func WriteJSONL(w io.Writer, movies []types.Movie) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, m := range movies {
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("writing movie %d: %w", m.ID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	return nil
}
