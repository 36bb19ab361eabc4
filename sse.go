package grovepwmd

import (
	"bufio"
	"bytes"
	"io"
)

var sseData = []byte("data:")

// WriteSSE writes payload as a single server-sent event.
func WriteSSE(w io.Writer, payload []byte) error {
	buf := make([]byte, 0, len(payload)+len(sseData)+3)
	buf = append(buf, sseData...)
	buf = append(buf, ' ')
	buf = append(buf, payload...)
	buf = append(buf, '\n', '\n')

	_, err := w.Write(buf)
	return err
}

// An SSEReader reads the data of server-sent events sent by grovepwmd.
type SSEReader struct {
	r *bufio.Reader
}

func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		r: bufio.NewReaderSize(r, 64<<10),
	}
}

// Next returns the data of the next event, multiple data lines being joined by '\n'.
func (s *SSEReader) Next() ([]byte, error) {
	var data []byte
	var seen bool

	for {
		line, err := s.r.ReadBytes('\n')
		if err != nil {
			return data, err
		}

		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			if seen {
				return data, nil
			}
			continue // Leading blank lines
		}

		if !bytes.HasPrefix(line, sseData) {
			continue // Comments and other fields are not used by grovepwmd.
		}

		if seen {
			data = append(data, '\n')
		}
		seen = true
		data = append(data, bytes.TrimPrefix(line[len(sseData):], []byte(" "))...)
	}
}
