package archive

import (
	"bufio"
	"encoding/json"
	"io"
)

// Reader yields archived Records one at a time, in the order they were
// written. It mirrors the teacher's ArchiveReader interface, generalized
// from protobuf-framed netlink records to JSONL-framed relay frames (see
// DESIGN.md for why JSON replaces protobuf here: the payload has no
// static schema to generate marshalling code from).
type Reader interface {
	// Next returns the next Record, or io.EOF when the stream is
	// exhausted.
	Next() (*Record, error)
}

type jsonlReader struct {
	scanner *bufio.Scanner
}

// NewReader returns a Reader that parses newline-delimited JSON Records
// from r. For a compressed archive, pass the reader returned by
// zstd.NewReader, which opens and decompresses a file by name.
func NewReader(r io.Reader) Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &jsonlReader{scanner: s}
}

func (jr *jsonlReader) Next() (*Record, error) {
	if !jr.scanner.Scan() {
		if err := jr.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	var rec Record
	if err := json.Unmarshal(jr.scanner.Bytes(), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// LoadAll reads every Record from r until io.EOF.
func LoadAll(r Reader) ([]*Record, error) {
	var out []*Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
