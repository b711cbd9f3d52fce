package seed

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dmitrijs2005/catalog/internal/server/models"
)

// Row is one decoded entry. Line is the NDJSON line number or the
// 1-based position in a JSON array.
type Row struct {
	Line   int
	Params models.CreateParams
	Err    error
}

// Decode reads either a JSON array or newline-delimited JSON objects.
// A malformed NDJSON line becomes a Row with Err set. A malformed array
// aborts the whole read.
func Decode(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)

	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if first == '[' {
		return decodeArray(br)
	}
	return decodeLines(br)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func decodeArray(r io.Reader) ([]Row, error) {
	dec := json.NewDecoder(r)
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var rows []Row
	for n := 1; dec.More(); n++ {
		var p models.CreateParams
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("item %d: %w", n, err)
		}
		rows = append(rows, Row{Line: n, Params: p})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return rows, nil
}

func decodeLines(r io.Reader) ([]Row, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var rows []Row
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		row := Row{Line: line}
		if err := json.Unmarshal(raw, &row.Params); err != nil {
			row.Err = fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
