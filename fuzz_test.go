package huffman

import (
	"bytes"
	"errors"
	"testing"
)

const maxFuzzInputBytes = 8 * 1024

func FuzzRoundTrip(f *testing.F) {
	f.Add([]byte("abracadabra"))
	f.Add([]byte("a"))
	f.Add([]byte("aaaaaaaab"))
	f.Add([]byte("null\x00byte\xff\xfe"))
	f.Add(bytes.Repeat([]byte("0123456789abcdef"), 64))

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) == 0 || len(data) > maxFuzzInputBytes {
			t.Skip()
		}

		cases := []struct {
			name string
			opts []Option
		}{
			{name: "default"},
			{name: "raw", opts: []Option{WithBodyFlate(false), WithChecksum(false)}},
			{name: "cached", opts: []Option{WithTreeCache(2), WithWorkers(4)}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				compressed, err := Compress(data, tc.opts...)
				if err != nil {
					t.Fatalf("Compress failed: %v", err)
				}
				got, err := NewDecoder(tc.opts...).Decode(compressed)
				if err != nil {
					t.Fatalf("Decode failed: %v", err)
				}
				if !bytes.Equal(got, data) {
					t.Fatalf("round trip mismatch")
				}
			})
		}
	})
}

func FuzzArchiveCorruption(f *testing.F) {
	f.Add(uint8(0), uint16(0), uint8(0xff))
	f.Add(uint8(1), uint16(9), uint8(0x01))
	f.Add(uint8(2), uint16(30), uint8(0x80))
	f.Add(uint8(3), uint16(12), uint8(0x00))

	base, err := Compress([]byte("the quick brown fox jumps over the lazy dog"))
	if err != nil {
		f.Fatalf("Compress failed: %v", err)
	}

	f.Fuzz(func(t *testing.T, op uint8, idx uint16, value uint8) {
		corrupted := append([]byte(nil), base...)
		i := int(idx) % len(corrupted)
		switch op % 4 {
		case 0:
			corrupted[i] ^= value
		case 1:
			corrupted[i] = value
		case 2:
			corrupted = corrupted[:i]
		case 3:
			corrupted = append(corrupted[:i:i], append([]byte{value}, corrupted[i:]...)...)
		}

		_, err := Decompress(corrupted)
		if err == nil {
			return
		}
		var decErr *DecodingError
		if !errors.As(err, &decErr) {
			t.Fatalf("corrupt archive returned %T, want *DecodingError: %v", err, err)
		}
	})
}
