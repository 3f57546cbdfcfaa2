/*
NAME
  ves_test.go

DESCRIPTION
  ves_test.go provides testing for VESParser in ves.go.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mpeg2

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/dcp/codec/codecutil"
)

// Headers of a 1920x1080 24 fps main profile high level stream.
var (
	seqHeader = []byte{0x00, 0x00, 0x01, 0xb3, 0x78, 0x04, 0x38, 0x32, 0x09, 0xc4, 0x20, 0x00}
	seqExt    = []byte{0x00, 0x00, 0x01, 0xb5, 0x14, 0x8a, 0x00, 0x01, 0x00, 0x00}
	gopHeader = []byte{0x00, 0x00, 0x01, 0xb8, 0x00, 0x08, 0x00, 0x40}
	picExt    = []byte{0x00, 0x00, 0x01, 0xb5, 0x8f, 0xff, 0xf3, 0x41, 0x80}
	seqEnd    = []byte{0x00, 0x00, 0x01, 0xb7}
)

// picHeader returns a picture header.
func picHeader(tref int, typ FrameType) []byte {
	return []byte{0x00, 0x00, 0x01, 0x00, byte(tref >> 2), byte(tref&3)<<6 | byte(typ)<<3, 0xff, 0xf8}
}

// slice returns a slice with the given start code and n bytes of payload.
func slice(code byte, n int) []byte {
	b := []byte{0x00, 0x00, 0x01, code}
	for i := 0; i < n; i++ {
		v := byte(0x11 + i%0xe0)
		if i%17 == 0 {
			v = 0x00
		}
		b = append(b, v)
	}
	return b
}

// testStream returns a three picture stream and the offsets at which each
// picture begins.
func testStream() ([]byte, []int) {
	var b []byte
	var starts []int
	add := func(p ...[]byte) {
		for _, q := range p {
			b = append(b, q...)
		}
	}

	starts = append(starts, len(b))
	add(seqHeader, seqExt, gopHeader, picHeader(0, FrameI), picExt, slice(0x01, 100), slice(0x02, 90))
	starts = append(starts, len(b))
	add(picHeader(2, FrameB), picExt, slice(0x01, 40))

	// A stuffing zero before the start code stays with the previous picture.
	add([]byte{0x00})
	starts = append(starts, len(b))
	add(picHeader(1, FrameP), picExt, slice(0x01, 60), seqEnd)
	return b, starts
}

// recorder rebuilds the stream from delegate calls and records the headers
// and slice codes it is given.
type recorder struct {
	stream []byte
	calls  []string
	stopAt string
}

func (r *recorder) header(kind string, h []byte) error {
	r.stream = append(r.stream, h...)
	r.calls = append(r.calls, fmt.Sprintf("%s:%x", kind, h))
	if kind == r.stopAt {
		return ErrStop
	}
	return nil
}

func (r *recorder) Sequence(h []byte) error  { return r.header("seq", h) }
func (r *recorder) Picture(h []byte) error   { return r.header("pic", h) }
func (r *recorder) Extension(h []byte) error { return r.header("ext", h) }
func (r *recorder) GOP(h []byte) error       { return r.header("gop", h) }

func (r *recorder) Slice(code byte) error {
	r.calls = append(r.calls, fmt.Sprintf("slice:%02x", code))
	return nil
}

func (r *recorder) Data(p []byte, n int) error {
	if n < 0 {
		if -n > len(r.stream) {
			return fmt.Errorf("retract %d from %d bytes", -n, len(r.stream))
		}
		r.stream = r.stream[:len(r.stream)+n]
		return nil
	}
	if len(p) != n {
		return fmt.Errorf("data length %d does not match n %d", len(p), n)
	}
	r.stream = append(r.stream, p...)
	return nil
}

// parseChunks feeds chunks to a new parser and returns the recorder.
func parseChunks(t *testing.T, chunks ...[]byte) *recorder {
	t.Helper()
	r := &recorder{}
	p := NewVESParser(r)
	for i, c := range chunks {
		err := p.Parse(c)
		if err != nil {
			t.Fatalf("could not parse chunk %d: %v", i, err)
		}
	}
	err := p.Flush()
	if err != nil {
		t.Fatalf("could not flush: %v", err)
	}
	return r
}

func TestVESParserCallbacks(t *testing.T) {
	b, _ := testStream()
	r := parseChunks(t, b)

	if !bytes.Equal(r.stream, b) {
		t.Errorf("reconstructed stream differs from input")
	}

	var kinds []string
	for _, c := range r.calls {
		kind, _, _ := strings.Cut(c, ":")
		kinds = append(kinds, kind)
	}
	want := []string{
		"seq", "ext", "gop", "pic", "ext", "slice", "slice",
		"pic", "ext", "slice",
		"pic", "ext", "slice",
	}
	if !cmp.Equal(kinds, want) {
		t.Errorf("did not get expected callbacks\n%s", cmp.Diff(want, kinds))
	}
	if r.calls[0] != fmt.Sprintf("seq:%x", seqHeader) {
		t.Errorf("unexpected sequence header callback: %s", r.calls[0])
	}
}

func TestVESParserSlices(t *testing.T) {
	var b []byte
	b = append(b, picHeader(0, FrameI)...)
	for _, code := range []byte{0x01, 0x02, 0x03, 0xaf} {
		b = append(b, slice(code, 20)...)
	}
	b = append(b, seqEnd...)
	want := []string{fmt.Sprintf("pic:%x", picHeader(0, FrameI)), "slice:01", "slice:02", "slice:03", "slice:af"}

	for k := 0; k <= len(b); k++ {
		r := parseChunks(t, b[:k], b[k:])
		if !cmp.Equal(r.calls, want) {
			t.Errorf("split at %d: did not get expected callbacks\n%s", k, cmp.Diff(want, r.calls))
		}
		if !bytes.Equal(r.stream, b) {
			t.Errorf("split at %d: reconstructed stream differs from input", k)
		}
	}
}

// TestVESParserChunkBoundaries checks that splitting the stream at any offset
// gives the same callbacks and the same rebuilt stream.
func TestVESParserChunkBoundaries(t *testing.T) {
	b, _ := testStream()
	whole := parseChunks(t, b)

	for k := 0; k <= len(b); k++ {
		r := parseChunks(t, b[:k], b[k:])
		if !cmp.Equal(r.calls, whole.calls) {
			t.Errorf("split at %d: callbacks differ\n%s", k, cmp.Diff(whole.calls, r.calls))
		}
		if !bytes.Equal(r.stream, b) {
			t.Errorf("split at %d: reconstructed stream differs from input", k)
		}
	}

	var bytewise [][]byte
	for i := range b {
		bytewise = append(bytewise, b[i:i+1])
	}
	r := parseChunks(t, bytewise...)
	if !cmp.Equal(r.calls, whole.calls) {
		t.Errorf("byte by byte: callbacks differ\n%s", cmp.Diff(whole.calls, r.calls))
	}
	if !bytes.Equal(r.stream, b) {
		t.Error("byte by byte: reconstructed stream differs from input")
	}
}

func TestVESParserTrailingStartCode(t *testing.T) {
	tests := [][]byte{
		{0x12, 0x00, 0x00, 0x01},
		{0x00, 0x00, 0x01},
		append(append([]byte{}, seqHeader...), 0x00, 0x00, 0x01),
		seqHeader,
	}

	for i, b := range tests {
		for k := 0; k <= len(b); k++ {
			r := parseChunks(t, b[:k], b[k:])
			if !bytes.Equal(r.stream, b) {
				t.Errorf("test %d split at %d: did not get expected stream\nGot: %x\nWant: %x", i, k, r.stream, b)
			}
		}
	}
}

func TestVESParserStop(t *testing.T) {
	b, _ := testStream()
	r := &recorder{stopAt: "pic"}
	p := NewVESParser(r)
	err := p.Parse(b)
	if !errors.Is(err, ErrStop) {
		t.Fatalf("did not get expected error. Got: %v, Want: %v", err, ErrStop)
	}
	want := []string{"seq", "ext", "gop", "pic"}
	if len(r.calls) != len(want) {
		t.Errorf("unexpected calls before stop: %v", r.calls)
	}
}

func TestVESParserHeaderOverflow(t *testing.T) {
	b := append(append([]byte{}, seqHeader...), bytes.Repeat([]byte{0xff}, HeaderBufSize)...)
	p := NewVESParser(&recorder{})
	err := p.Parse(b)
	if !errors.Is(err, codecutil.ErrFormat) {
		t.Errorf("did not get expected error. Got: %v, Want: %v", err, codecutil.ErrFormat)
	}
}
