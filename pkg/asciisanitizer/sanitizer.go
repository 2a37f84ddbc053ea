// Package asciisanitizer removes ASCII control characters from API
// responses, mapping them to caret notation so hostile registry metadata
// cannot smuggle terminal escape sequences into audit output.
package asciisanitizer

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/text/transform"
)

// Sanitizer implements transform.Transformer.
type Sanitizer struct {
	// JSON tells the sanitizer to also replace JSON unicode escapes of
	// control characters, keeping the payload valid JSON.
	JSON bool
}

// Transform rewrites C0 control characters in src to caret notation.
// Horizontal tab, line feed, and carriage return pass through unchanged.
func (s *Sanitizer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		b := src[nSrc]

		if s.JSON && b == '\\' {
			// A JSON escape sequence may straddle the chunk boundary.
			if rest := len(src) - nSrc; rest < 6 && !atEOF {
				return nDst, nSrc, transform.ErrShortSrc
			}

			if repl, ok := jsonEscapeReplacement(src[nSrc:]); ok {
				if nDst+len(repl) > len(dst) {
					return nDst, nSrc, transform.ErrShortDst
				}
				nDst += copy(dst[nDst:], repl)
				nSrc += 6
				continue
			}

			// Pass the backslash and the escaped byte through as a
			// unit so a later iteration never misreads the payload.
			if len(src)-nSrc < 2 {
				if atEOF {
					if nDst >= len(dst) {
						return nDst, nSrc, transform.ErrShortDst
					}
					dst[nDst] = b
					nDst++
					nSrc++
					continue
				}
				return nDst, nSrc, transform.ErrShortSrc
			}
			if nDst+2 > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = src[nSrc]
			dst[nDst+1] = src[nSrc+1]
			nDst += 2
			nSrc += 2
			continue
		}

		if isUnsafeControl(b) {
			repl := caretNotation(b, s.JSON)
			if nDst+len(repl) > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			nDst += copy(dst[nDst:], repl)
			nSrc++
			continue
		}

		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		dst[nDst] = b
		nDst++
		nSrc++
	}

	return nDst, nSrc, nil
}

// Reset implements transform.Transformer.
func (s *Sanitizer) Reset() {}

func isUnsafeControl(b byte) bool {
	if b == '\t' || b == '\n' || b == '\r' {
		return false
	}
	return b < 0x20 || b == 0x7F
}

func caretNotation(b byte, json bool) string {
	var c byte
	if b == 0x7F {
		c = '?'
	} else {
		c = b + 0x40
	}
	if json {
		return "\\\\^" + string(c)
	}
	return "^" + string(c)
}

// jsonEscapeReplacement inspects a potential \u00XX escape at the start of
// src and returns the caret replacement when it encodes an unsafe control
// character.
func jsonEscapeReplacement(src []byte) (string, bool) {
	if len(src) < 6 || !bytes.HasPrefix(src, []byte(`\u00`)) {
		return "", false
	}

	v, err := strconv.ParseUint(strings.ToLower(string(src[4:6])), 16, 8)
	if err != nil {
		return "", false
	}

	b := byte(v)
	if !isUnsafeControl(b) {
		return "", false
	}

	return caretNotation(b, true), true
}
