package deflate

import (
	"bytes"
	"compress/zlib"
	"context"
	"io"
	"testing"
)

func decodeZlib(t *testing.T, data []byte) []byte {
	t.Helper()
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return out
}

func TestZlibDeflateRoundtripSmall(t *testing.T) {
	src := []byte("hello native flate")
	encoded, err := ZlibDeflate(context.Background(), src)
	if err != nil {
		t.Fatalf("ZlibDeflate: %v", err)
	}
	if got := decodeZlib(t, encoded); !bytes.Equal(got, src) {
		t.Fatalf("roundtrip mismatch: got %q want %q", got, src)
	}
}

func TestZlibDeflateRoundtripLargeRepetitive(t *testing.T) {
	src := bytes.Repeat([]byte{0xAB}, 200_000)
	encoded, err := ZlibDeflate(context.Background(), src)
	if err != nil {
		t.Fatalf("ZlibDeflate: %v", err)
	}
	if got := decodeZlib(t, encoded); !bytes.Equal(got, src) {
		t.Fatalf("roundtrip mismatch on large repetitive payload")
	}
}

func TestZlibDeflateRoundtripEmpty(t *testing.T) {
	encoded, err := ZlibDeflate(context.Background(), nil)
	if err != nil {
		t.Fatalf("ZlibDeflate: %v", err)
	}
	if got := decodeZlib(t, encoded); len(got) != 0 {
		t.Fatalf("expected empty roundtrip, got %d bytes", len(got))
	}
}

func TestZlibDeflateBeatsStoredOnRepetitivePayload(t *testing.T) {
	src := bytes.Repeat([]byte("X"), 80_000)
	encoded, err := ZlibDeflate(context.Background(), src)
	if err != nil {
		t.Fatalf("ZlibDeflate: %v", err)
	}
	blocks := (len(src) + 65534) / 65535
	stored := 2 + 4 + len(src) + blocks*5
	if len(encoded) >= stored {
		t.Fatalf("expected compressed(%d) < stored(%d)", len(encoded), stored)
	}
}

func TestZlibDeflateIsDeterministic(t *testing.T) {
	src := make([]byte, 250_000)
	for i := range src {
		src[i] = byte(i % 251)
	}
	a, err := ZlibDeflate(context.Background(), src)
	if err != nil {
		t.Fatalf("ZlibDeflate a: %v", err)
	}
	b, err := ZlibDeflate(context.Background(), src)
	if err != nil {
		t.Fatalf("ZlibDeflate b: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected deterministic output across repeated runs")
	}
}

func TestAdlerCombineMatchesSerial(t *testing.T) {
	data := make([]byte, 200_000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	serial := adlerForBytes(data).value()

	merged := adlerIdentity()
	for _, r := range chunkRanges(len(data), 4096) {
		merged = merged.combine(adlerForBytes(data[r[0]:r[1]]))
	}
	if serial != merged.value() {
		t.Fatalf("adler mismatch: serial=%d combined=%d", serial, merged.value())
	}
}

func TestAdlerParallelMatchesSerial(t *testing.T) {
	data := make([]byte, 200_000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	serial := adlerForBytes(data).value()
	parallel, err := adlerParallel(context.Background(), data)
	if err != nil {
		t.Fatalf("adlerParallel: %v", err)
	}
	if serial != parallel {
		t.Fatalf("adler mismatch: serial=%d parallel=%d", serial, parallel)
	}
}
