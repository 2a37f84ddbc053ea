package api

import (
	"bytes"
	"encoding/json"
	"io"
)

// jsonFormatter is a httpretty.Formatter that prettifies JSON payloads in
// debug HTTP logs.
type jsonFormatter struct {
	colorize bool
}

func (f *jsonFormatter) Format(w io.Writer, src []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, src, "", "  "); err != nil {
		_, werr := w.Write(src)
		return werr
	}
	_, err := io.Copy(w, &buf)
	return err
}

func (f *jsonFormatter) Match(t string) bool {
	return jsonTypeRE.MatchString(t)
}
