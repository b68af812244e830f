package util

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// EnsureUTF8Bytes decodes non-UTF-8 bytes using the single-byte encodings
// HiOS firmware is known to emit (banner text and port descriptions can
// carry Latin-1 characters) and returns a UTF-8 string. Valid UTF-8 is
// returned as-is; if no decoder produces valid UTF-8, raw bytes win.
func EnsureUTF8Bytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return string(b)
	}
	encs := []encoding.Encoding{
		charmap.Windows1252,
		charmap.ISO8859_1,
		charmap.ISO8859_15,
	}
	for _, enc := range encs {
		if s, ok := tryDecode(enc, b); ok {
			return s
		}
	}
	return string(b)
}

// EnsureUTF8 converts a possibly mojibake string to UTF-8 by decoding its
// bytes with legacy encodings when needed.
func EnsureUTF8(s string) string {
	return EnsureUTF8Bytes([]byte(s))
}

func tryDecode(enc encoding.Encoding, b []byte) (string, bool) {
	reader := transform.NewReader(bytes.NewReader(b), enc.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", false
	}
	if utf8.Valid(decoded) {
		return string(decoded), true
	}
	return "", false
}
