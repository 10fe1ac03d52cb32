// Package encoding decodes the legacy text encodings found in mesh files:
// object and group names in OBJ files and the STL header.
package encoding

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned for encoding names Lookup does not know.
var ErrUnknownEncoding = errors.New("unknown text encoding")

// UTF8 is the name of the pass-through encoding.
const UTF8 = "utf-8"

var encodings = map[string]encoding.Encoding{
	"euc-kr":       korean.EUCKR,
	"cp949":        korean.EUCKR,
	"shift-jis":    japanese.ShiftJIS,
	"sjis":         japanese.ShiftJIS,
	"euc-jp":       japanese.EUCJP,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"cp437":        charmap.CodePage437,
}

// Lookup returns the encoding for name, ignoring case. UTF-8 returns
// encoding.Nop.
func Lookup(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" || n == UTF8 || n == "utf8" {
		return encoding.Nop, nil
	}
	enc, ok := encodings[n]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// Decode converts data in the named encoding to a UTF-8 string.
func Decode(data []byte, name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	if enc == encoding.Nop {
		return string(data), nil
	}
	result, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

// DecodeName decodes a name, falling back to the raw bytes when decoding
// fails. Data that is already valid UTF-8 with non-ASCII runes is kept.
func DecodeName(data []byte, name string) string {
	if isASCII(data) {
		return string(data)
	}
	enc, err := Lookup(name)
	if err != nil || enc == encoding.Nop {
		return string(data)
	}
	s, err := Decode(data, name)
	if err != nil {
		return string(data)
	}
	return s
}

// Encode converts a UTF-8 string to the named encoding.
func Encode(s, name string) ([]byte, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if enc == encoding.Nop {
		return []byte(s), nil
	}
	result, _, err := transform.Bytes(enc.NewEncoder(), []byte(s))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FixedString decodes a null-terminated fixed-size field.
func FixedString(data []byte, name string) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return DecodeName(bytes.TrimRight(data, " "), name)
}

// ToFixedString encodes s into a field of size bytes padded with nulls.
// Text that does not fit is cut at a rune boundary.
func ToFixedString(s string, size int) []byte {
	out := make([]byte, size)
	for len(s) > size {
		_, n := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-n]
	}
	copy(out, s)
	return out
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
