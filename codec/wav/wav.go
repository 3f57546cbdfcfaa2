/*
NAME
  wav.go

DESCRIPTION
  wav.go contains functions for writing PCM WAV headers and files.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package wav provides functions for writing wav audio.
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ConvertFormat converts the common name for a format in a string type to the specific
// integer required by the wav encoder.
var ConvertFormat = map[string]int{"pcm": PCMFormat}

const PCMFormat = 1 // PCMFormat defines the value for pcm audio as defined by the wav std.

// HeaderSize is the size of the canonical header written before the audio.
const HeaderSize = 44

var (
	errInvalidFormat   = fmt.Errorf("invalid or no format defined")
	errInvalidRate     = fmt.Errorf("invalid or no sample rate defined")
	errInvalidChannels = fmt.Errorf("invalid or no number of channels defined")
	errInvalidBitDepth = fmt.Errorf("invalid or no bit depth defined")
)

// Metadata defines the format of the audio file.
type Metadata struct {
	AudioFormat int
	Channels    int
	SampleRate  int
	BitDepth    int
}

// BlockAlign returns the size in bytes of one sample frame.
func (md Metadata) BlockAlign() int {
	return md.Channels * ((md.BitDepth + 7) / 8)
}

// validate returns an error if md cannot be written as a PCM header.
func (md Metadata) validate() error {
	switch {
	case md.AudioFormat != PCMFormat:
		return errInvalidFormat
	case md.Channels <= 0:
		return errInvalidChannels
	case md.SampleRate <= 0:
		return errInvalidRate
	case md.BitDepth <= 0 || md.BitDepth%8 != 0:
		return errInvalidBitDepth
	}
	return nil
}

// Header returns the 44 byte header of a PCM WAV file holding dataLen bytes
// of audio.
func Header(md Metadata, dataLen int) ([]byte, error) {
	err := md.validate()
	if err != nil {
		return nil, err
	}

	h := make([]byte, HeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(dataLen+HeaderSize-8))
	copy(h[8:12], "WAVE")

	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], uint16(md.AudioFormat))
	binary.LittleEndian.PutUint16(h[22:24], uint16(md.Channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(md.SampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(md.SampleRate*md.BlockAlign()))
	binary.LittleEndian.PutUint16(h[32:34], uint16(md.BlockAlign()))
	binary.LittleEndian.PutUint16(h[34:36], uint16(md.BitDepth))

	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataLen))
	return h, nil
}

// WAV holds a complete in-memory WAV file.
type WAV struct {
	Metadata Metadata
	Audio    []byte
}

// Write replaces the content of the WAV with a header and the given audio.
func (w *WAV) Write(p []byte) (n int, err error) {
	h, err := Header(w.Metadata, len(p))
	if err != nil {
		return 0, err
	}
	w.Audio = append(h, p...)
	return len(p) + HeaderSize, nil
}

// Writer streams audio to a WAV file whose length is not known in advance.
// The header sizes are filled in by Close.
type Writer struct {
	ws  io.WriteSeeker
	md  Metadata
	len int
}

// NewWriter writes a provisional header for md to ws and returns a Writer
// for the audio that follows.
func NewWriter(ws io.WriteSeeker, md Metadata) (*Writer, error) {
	h, err := Header(md, 0)
	if err != nil {
		return nil, err
	}
	_, err = ws.Write(h)
	if err != nil {
		return nil, fmt.Errorf("could not write wav header: %w", err)
	}
	return &Writer{ws: ws, md: md}, nil
}

// Write writes audio bytes, which must be whole sample frames.
func (w *Writer) Write(p []byte) (int, error) {
	if len(p)%w.md.BlockAlign() != 0 {
		return 0, fmt.Errorf("%d bytes is not a whole number of %d byte sample frames", len(p), w.md.BlockAlign())
	}
	n, err := w.ws.Write(p)
	w.len += n
	return n, err
}

// Len returns the number of audio bytes written.
func (w *Writer) Len() int { return w.len }

// Close rewrites the header with the final sizes and leaves the writer
// positioned at the end of the audio. It does not close the underlying
// writer.
func (w *Writer) Close() error {
	h, err := Header(w.md, w.len)
	if err != nil {
		return err
	}
	_, err = w.ws.Seek(0, io.SeekStart)
	if err != nil {
		return fmt.Errorf("could not seek to wav header: %w", err)
	}
	_, err = w.ws.Write(h)
	if err != nil {
		return fmt.Errorf("could not rewrite wav header: %w", err)
	}
	_, err = w.ws.Seek(0, io.SeekEnd)
	return err
}
