package provider

import (
	"bytes"
	"io"
	"strings"
)

// forEachDataLine decodes SSE framing from r: bytes accumulate in a rolling
// buffer, each complete \n-terminated line is extracted and trimmed, and only
// lines prefixed "data: " reach fn. fn returns false to stop consumption;
// any buffered remainder is discarded.
func forEachDataLine(r io.Reader, fn func(data string) bool) error {
	buf := make([]byte, 4096)
	var pending []byte

	for {
		n, err := r.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			for {
				i := bytes.IndexByte(pending, '\n')
				if i < 0 {
					break
				}
				line := strings.TrimSpace(string(pending[:i]))
				pending = pending[i+1:]

				data, ok := strings.CutPrefix(line, "data: ")
				if !ok {
					continue
				}
				if !fn(data) {
					return nil
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
