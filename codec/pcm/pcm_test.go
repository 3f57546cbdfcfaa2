/*
NAME
  pcm_test.go

DESCRIPTION
  pcm_test.go provides testing for frame size calculation and file sources,
  along with helpers for writing WAV and AIFF fixtures.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pcm

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ausocean/dcp/codec/codecutil"
)

var rate48k = codecutil.Rational{Numerator: 48000, Denominator: 1}

// writeWAV writes a PCM WAV file of interleaved samples.
func writeWAV(t *testing.T, path string, rate, bits, chans int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("could not create wav file: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, bits, chans, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: chans, SampleRate: rate},
		Data:           data,
		SourceBitDepth: bits,
	}
	err = enc.Write(buf)
	if err != nil {
		t.Fatalf("could not write wav data: %v", err)
	}
	err = enc.Close()
	if err != nil {
		t.Fatalf("could not close wav encoder: %v", err)
	}
}

// putExtended writes v as an 80 bit extended precision value.
func putExtended(b []byte, v float64) {
	frac, exp := math.Frexp(v)
	binary.BigEndian.PutUint16(b, uint16(exp-1+16383))
	binary.BigEndian.PutUint64(b[2:], uint64(math.Ldexp(frac, 64)))
}

// writeAIFF writes a 16 bit big endian AIFF file of interleaved samples.
func writeAIFF(t *testing.T, path string, rate float64, chans int, data []int16) {
	t.Helper()
	writeAIFFForm(t, path, "AIFF", "", rate, chans, data)
}

// writeAIFFForm writes a 16 bit AIFF or AIFF-C file. For AIFF-C, comp names
// the compression type; "sowt" samples are written little endian.
func writeAIFFForm(t *testing.T, path, form, comp string, rate float64, chans int, data []int16) {
	t.Helper()
	comm := make([]byte, 18)
	binary.BigEndian.PutUint16(comm[0:], uint16(chans))
	binary.BigEndian.PutUint32(comm[2:], uint32(len(data)/chans))
	binary.BigEndian.PutUint16(comm[6:], 16)
	putExtended(comm[8:], rate)
	if form == "AIFC" {
		// Compression type and an empty, padded name.
		comm = append(comm, comp...)
		comm = append(comm, 0, 0)
	}

	var order binary.ByteOrder = binary.BigEndian
	if comp == "sowt" {
		order = binary.LittleEndian
	}
	ssnd := make([]byte, 8+2*len(data))
	for i, v := range data {
		order.PutUint16(ssnd[8+2*i:], uint16(v))
	}

	var b []byte
	chunk := func(id string, body []byte) {
		b = append(b, id...)
		b = binary.BigEndian.AppendUint32(b, uint32(len(body)))
		b = append(b, body...)
	}
	b = append(b, "FORM\x00\x00\x00\x00"+form...)
	if form == "AIFC" {
		chunk("FVER", []byte{0xa2, 0x80, 0x51, 0x40})
	}
	chunk("COMM", comm)
	chunk("SSND", ssnd)
	binary.BigEndian.PutUint32(b[4:], uint32(len(b)-8))

	err := os.WriteFile(path, b, 0644)
	if err != nil {
		t.Fatalf("could not write aiff file: %v", err)
	}
}

// get24 returns the little endian 24 bit sample at b.
func get24(b []byte) int {
	return int(int32(uint32(b[0])|uint32(b[1])<<8|uint32(b[2])<<16) << 8 >> 8)
}

func TestCalcSamplesPerFrame(t *testing.T) {
	tests := []struct {
		rate, edit codecutil.Rational
		want       int
	}{
		{rate: rate48k, edit: codecutil.EditRate24, want: 2000},
		{rate: rate48k, edit: codecutil.EditRate25, want: 1920},
		{rate: rate48k, edit: codecutil.Rational{Numerator: 24000, Denominator: 1001}, want: 2002},
		{rate: codecutil.Rational{Numerator: 44100, Denominator: 1}, edit: codecutil.EditRate24, want: 1838},
		{rate: codecutil.Rational{Numerator: 96000, Denominator: 1}, edit: codecutil.EditRate48, want: 2000},
	}

	for i, test := range tests {
		d := newDescriptor(6, 24, test.rate, test.edit)
		got := CalcSamplesPerFrame(d)
		if got != test.want {
			t.Errorf("did not get expected samples per frame for test %d. Got: %d, Want: %d", i, got, test.want)
		}
		if size := CalcFrameBufferSize(d); size != test.want*18 {
			t.Errorf("did not get expected frame size for test %d. Got: %d, Want: %d", i, size, test.want*18)
		}
	}
}

func TestOpenFileWAV(t *testing.T) {
	const (
		chans = 2
		spf   = 2000
	)
	data := make([]int, (2*spf+500)*chans)
	for i := range data {
		data[i] = i - 1000
	}
	path := filepath.Join(t.TempDir(), "a.wav")
	writeWAV(t, path, 48000, 24, chans, data)

	s, err := OpenFile(path, codecutil.EditRate24)
	if err != nil {
		t.Fatalf("could not open wav: %v", err)
	}
	defer s.Close()

	d := s.Descriptor()
	if d.ChannelCount != chans || d.QuantizationBits != 24 || d.BlockAlign != 6 || d.AvgBps != 288000 {
		t.Errorf("unexpected descriptor: %+v", d)
	}
	if d.ContainerDuration != 3 {
		t.Errorf("unexpected container duration. Got: %d, Want: 3", d.ContainerDuration)
	}

	for pass := 0; pass < 2; pass++ {
		for f := 0; f < 3; f++ {
			err = s.ReadFrame()
			if err != nil {
				t.Fatalf("pass %d: could not read frame %d: %v", pass, f, err)
			}
			b := s.Frame().Bytes()
			if len(b) != spf*6 {
				t.Fatalf("pass %d: unexpected frame size %d", pass, len(b))
			}
			for i := 0; i < spf*chans; i++ {
				want := 0
				if idx := f*spf*chans + i; idx < len(data) {
					want = data[idx]
				}
				if got := get24(b[3*i:]); got != want {
					t.Fatalf("pass %d frame %d: sample %d: got %d, want %d", pass, f, i, got, want)
				}
			}
		}
		err = s.ReadFrame()
		if !errors.Is(err, codecutil.ErrEndOfStream) {
			t.Errorf("pass %d: did not get end of stream. Got: %v", pass, err)
		}
		err = s.Reset()
		if err != nil {
			t.Fatalf("could not reset: %v", err)
		}
	}
}

func TestOpenFileAIFF(t *testing.T) {
	data := make([]int16, 2000*2)
	for i := range data {
		data[i] = int16(i*13 - 20000)
	}
	path := filepath.Join(t.TempDir(), "a.aif")
	writeAIFF(t, path, 48000, 2, data)

	s, err := OpenFile(path, codecutil.EditRate24)
	if err != nil {
		t.Fatalf("could not open aiff: %v", err)
	}
	defer s.Close()

	d := s.Descriptor()
	if d.AudioSamplingRate != rate48k || d.ChannelCount != 2 || d.QuantizationBits != 16 || d.ContainerDuration != 1 {
		t.Errorf("unexpected descriptor: %+v", d)
	}

	err = s.ReadFrame()
	if err != nil {
		t.Fatalf("could not read frame: %v", err)
	}
	b := s.Frame().Bytes()
	for i, want := range data {
		got := int16(binary.LittleEndian.Uint16(b[2*i:]))
		if got != want {
			t.Fatalf("sample %d: got %d, want %d", i, got, want)
		}
	}
}

func TestOpenFileAIFC(t *testing.T) {
	data := make([]int16, 2000)
	for i := range data {
		data[i] = int16(i*29 - 30000)
	}

	tests := []struct {
		name string
		comp string
	}{
		{name: "none", comp: "NONE"},
		{name: "sowt", comp: "sowt"},
	}

	for _, test := range tests {
		path := filepath.Join(t.TempDir(), test.name+".aifc")
		writeAIFFForm(t, path, "AIFC", test.comp, 48000, 1, data)

		s, err := OpenFile(path, codecutil.EditRate24)
		if err != nil {
			t.Fatalf("%s: could not open aiff-c: %v", test.name, err)
		}
		err = s.ReadFrame()
		if err != nil {
			t.Fatalf("%s: could not read frame: %v", test.name, err)
		}
		b := s.Frame().Bytes()
		for i, want := range data {
			got := int16(binary.LittleEndian.Uint16(b[2*i:]))
			if got != want {
				t.Errorf("%s: sample %d: got %d, want %d", test.name, i, got, want)
				break
			}
		}
		s.Close()
	}
}

func TestOpenFileAIFFBadSizes(t *testing.T) {
	comm := make([]byte, 18)
	binary.BigEndian.PutUint16(comm[0:], 2)
	binary.BigEndian.PutUint16(comm[6:], 16)
	putExtended(comm[8:], 48000)

	tests := []struct {
		name string
		id   string
		size uint32
	}{
		{name: "comm", id: "COMM", size: 0x7ffffff0},
		{name: "comm max", id: "COMM", size: 0xffffffff},
	}

	for _, test := range tests {
		b := []byte("FORM\x00\x00\x00\x1eAIFF" + test.id)
		b = binary.BigEndian.AppendUint32(b, test.size)
		b = append(b, comm...)
		path := filepath.Join(t.TempDir(), "bad.aif")
		err := os.WriteFile(path, b, 0644)
		if err != nil {
			t.Fatalf("could not write file: %v", err)
		}

		var before, after runtime.MemStats
		runtime.ReadMemStats(&before)
		_, err = OpenFile(path, codecutil.EditRate24)
		runtime.ReadMemStats(&after)
		if !errors.Is(err, codecutil.ErrFormat) && !errors.Is(err, codecutil.ErrRawEssence) {
			t.Errorf("%s: did not get expected error. Got: %v", test.name, err)
		}
		if n := after.TotalAlloc - before.TotalAlloc; n > 16<<20 {
			t.Errorf("%s: opening a %d byte file allocated %d bytes", test.name, len(b), n)
		}
	}
}

func TestOpenFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := OpenFile(filepath.Join(dir, "missing.wav"), codecutil.EditRate24)
	if !errors.Is(err, codecutil.ErrNotFound) {
		t.Errorf("did not get expected error for missing file. Got: %v", err)
	}

	junk := filepath.Join(dir, "junk.wav")
	err = os.WriteFile(junk, []byte("this is neither a wav nor an aiff file"), 0644)
	if err != nil {
		t.Fatalf("could not write file: %v", err)
	}
	_, err = OpenFile(junk, codecutil.EditRate24)
	if !errors.Is(err, codecutil.ErrRawEssence) {
		t.Errorf("did not get expected error for junk file. Got: %v", err)
	}
}

func TestSwapBytes(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5, 6, 7}
	swapBytes(b, 3)
	want := []byte{3, 2, 1, 6, 5, 4, 7}
	if string(b) != string(want) {
		t.Errorf("did not get expected bytes. Got: %v, Want: %v", b, want)
	}
}
