package encoding

import (
	"bytes"
	"errors"
	"testing"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"", "UTF-8", "utf8", "EUC-KR", "shift-jis", "cp1252", "Latin1", "cp437"} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q): %v", name, err)
		}
	}
	if _, err := Lookup("klingon"); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("Lookup(klingon) error = %v", err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		encoding string
		want     string
	}{
		{"ascii", []byte("cube"), "utf-8", "cube"},
		{"euc-kr", []byte{0xc7, 0xd1, 0xb1, 0xdb}, "euc-kr", "한글"},
		{"shift-jis", []byte{0x83, 0x65, 0x83, 0x58, 0x83, 0x67}, "shift-jis", "テスト"},
		{"windows-1252", []byte{'c', 'a', 'f', 0xe9}, "windows-1252", "café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data, tt.encoding)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := Encode("한글", "euc-kr")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte{0xc7, 0xd1, 0xb1, 0xdb}) {
		t.Errorf("Encode = % x", data)
	}
}

func TestDecodeNameFallsBack(t *testing.T) {
	raw := []byte{'a', 0xff, 'b'}
	if got := DecodeName(raw, "klingon"); got != string(raw) {
		t.Errorf("unknown encoding: got %q", got)
	}
	if got := DecodeName([]byte("plain"), "euc-kr"); got != "plain" {
		t.Errorf("ascii: got %q", got)
	}
	if got := DecodeName([]byte("é"), "utf-8"); got != "é" {
		t.Errorf("utf-8: got %q", got)
	}
}

func TestFixedString(t *testing.T) {
	field := ToFixedString("solid cube", 16)
	if len(field) != 16 {
		t.Fatalf("len = %d", len(field))
	}
	if got := FixedString(field, UTF8); got != "solid cube" {
		t.Errorf("FixedString = %q", got)
	}
	if got := FixedString(ToFixedString("héllo", 2), UTF8); got != "h" {
		t.Errorf("cut at rune boundary: got %q", got)
	}
	if got := FixedString([]byte("name   "), UTF8); got != "name" {
		t.Errorf("trailing spaces: got %q", got)
	}
}
