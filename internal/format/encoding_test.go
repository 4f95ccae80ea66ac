package format

import (
	"bytes"
	"testing"
)

func TestEncodeBase64URL_NoPadding(t *testing.T) {
	got := EncodeBase64URL([]byte{0xfb, 0xff, 0xfe})
	if got != "-__-" {
		t.Errorf("expected -__-, got %q", got)
	}
	if EncodeBase64URL([]byte{1}) == "AQ==" {
		t.Error("output must not be padded")
	}
}

func TestDecodeBase64URL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
	}{
		{"unpadded", "AQI", []byte{1, 2}},
		{"padded", "AQI=", []byte{1, 2}},
		{"urlsafe chars", "-__-", []byte{0xfb, 0xff, 0xfe}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBase64URL(tt.input)
			if err != nil {
				t.Fatalf("DecodeBase64URL(%q): %v", tt.input, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeBase64URL_RoundTrip(t *testing.T) {
	in := []byte("round trip payload \x00\xff")
	out, err := DecodeBase64URL(EncodeBase64URL(in))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if !bytes.Equal(in, out) {
		t.Errorf("round trip mismatch: got %v", out)
	}
}

func TestEncodeBase64Std(t *testing.T) {
	if got := EncodeBase64Std([]byte("id:secret")); got != "aWQ6c2VjcmV0" {
		t.Errorf("expected aWQ6c2VjcmV0, got %q", got)
	}
}
