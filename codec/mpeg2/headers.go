/*
NAME
  headers.go

DESCRIPTION
  headers.go provides field access for MPEG-2 sequence, GOP, picture and
  extension headers, and the VideoDescriptor filled from them.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mpeg2

import (
	"bufio"
	"bytes"

	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
	"github.com/ausocean/dcp/codec/codecutil/bits"
)

// FrameType is the picture coding type of a frame.
type FrameType uint8

// Picture coding types, ISO/IEC 13818-2 Table 6-12.
const (
	FrameUnknown FrameType = 0
	FrameI       FrameType = 1
	FrameP       FrameType = 2
	FrameB       FrameType = 3
)

func (t FrameType) String() string {
	switch t {
	case FrameI:
		return "I"
	case FrameP:
		return "P"
	case FrameB:
		return "B"
	default:
		return "?"
	}
}

// Extension start code identifiers.
const (
	extSequence       = 0x1
	extPictureCoding  = 0x8
	sequenceHeaderLen = 12
	sequenceExtLen    = 10
	gopHeaderLen      = 8
	pictureHeaderLen  = 6
)

// frameRates maps frame_rate_code to a rate, ISO/IEC 13818-2 Table 6-4.
var frameRates = [...]codecutil.Rational{
	1: {Numerator: 24000, Denominator: 1001},
	2: {Numerator: 24, Denominator: 1},
	3: {Numerator: 25, Denominator: 1},
	4: {Numerator: 30000, Denominator: 1001},
	5: {Numerator: 30, Denominator: 1},
	6: {Numerator: 50, Denominator: 1},
	7: {Numerator: 60000, Denominator: 1001},
	8: {Numerator: 60, Denominator: 1},
}

// VideoDescriptor describes an MPEG-2 video elementary stream.
type VideoDescriptor struct {
	EditRate          codecutil.Rational
	FrameRate         codecutil.Rational
	ContainerDuration int

	BitRate         int // bits per second
	HorizontalSize  int
	VerticalSize    int
	AspectRatio     uint8 // aspect_ratio_information code.
	ProfileAndLevel uint8
	ChromaFormat    uint8
	Progressive     bool
	LowDelay        bool
}

// fieldReader reads consecutive header fields, holding the first error seen
// so that a run of reads can be checked once.
type fieldReader struct {
	e  error
	br *bits.BitReader
}

// newFieldReader returns a fieldReader positioned after the start code of h.
func newFieldReader(h []byte) *fieldReader {
	return &fieldReader{br: bits.NewBitReader(bufio.NewReaderSize(bytes.NewReader(h[4:]), 16))}
}

func (r *fieldReader) readBits(n int) int {
	if r.e != nil {
		return 0
	}
	var b uint64
	b, r.e = r.br.ReadBits(n)
	return int(b)
}

func (r *fieldReader) readFlag() bool {
	return r.readBits(1) == 1
}

func (r *fieldReader) skip(n int) {
	if r.e != nil {
		return
	}
	r.e = r.br.SkipBits(n)
}

func (r *fieldReader) err() error {
	if r.e != nil {
		return errors.Wrap(codecutil.ErrFormat, r.e.Error())
	}
	return nil
}

// parseSequence fills d from a sequence header.
func (d *VideoDescriptor) parseSequence(h []byte) error {
	if len(h) < sequenceHeaderLen {
		return errors.Wrapf(codecutil.ErrFormat, "short sequence header: %d bytes", len(h))
	}
	r := newFieldReader(h)
	hsize := r.readBits(12)
	vsize := r.readBits(12)
	aspect := r.readBits(4)
	code := r.readBits(4)
	rate := r.readBits(18)
	if err := r.err(); err != nil {
		return errors.Wrap(err, "could not read sequence header")
	}
	if code == 0 || code >= len(frameRates) {
		return errors.Wrapf(codecutil.ErrFormat, "reserved frame rate code %d", code)
	}
	d.HorizontalSize = hsize
	d.VerticalSize = vsize
	d.AspectRatio = uint8(aspect)
	d.FrameRate = frameRates[code]
	d.EditRate = d.FrameRate
	d.BitRate = rate * 400
	return nil
}

// parseSequenceExtension refines d from a sequence extension.
func (d *VideoDescriptor) parseSequenceExtension(h []byte) error {
	if len(h) < sequenceExtLen {
		return errors.Wrapf(codecutil.ErrFormat, "short sequence extension: %d bytes", len(h))
	}
	r := newFieldReader(h)
	r.skip(4) // extension_start_code_identifier
	profile := r.readBits(8)
	progressive := r.readFlag()
	chroma := r.readBits(2)
	hext := r.readBits(2)
	vext := r.readBits(2)
	rateExt := r.readBits(12)
	r.skip(1) // marker_bit
	r.skip(8) // vbv_buffer_size_extension
	lowDelay := r.readFlag()
	n := r.readBits(2) + 1
	m := r.readBits(5) + 1
	if err := r.err(); err != nil {
		return errors.Wrap(err, "could not read sequence extension")
	}
	d.ProfileAndLevel = uint8(profile)
	d.Progressive = progressive
	d.ChromaFormat = uint8(chroma)
	d.HorizontalSize |= hext << 12
	d.VerticalSize |= vext << 12
	d.BitRate += rateExt << 18 * 400
	d.LowDelay = lowDelay
	d.FrameRate.Numerator *= n
	d.FrameRate.Denominator *= m
	d.EditRate = d.FrameRate
	return nil
}

// extensionID returns the extension_start_code_identifier of h.
func extensionID(h []byte) uint8 {
	if len(h) < 5 {
		return 0
	}
	return h[4] >> 4
}

// pictureType returns the coding type and temporal reference of a picture
// header.
func pictureType(h []byte) (FrameType, int, error) {
	if len(h) < pictureHeaderLen {
		return FrameUnknown, 0, errors.Wrapf(codecutil.ErrFormat, "short picture header: %d bytes", len(h))
	}
	r := newFieldReader(h)
	tref := r.readBits(10)
	typ := r.readBits(3)
	if err := r.err(); err != nil {
		return FrameUnknown, 0, errors.Wrap(err, "could not read picture header")
	}
	return FrameType(typ), tref, nil
}

// closedGOP reports the closed_gop flag of a GOP header.
func closedGOP(h []byte) bool {
	if len(h) < gopHeaderLen {
		return false
	}
	r := newFieldReader(h)
	r.skip(25) // time_code
	closed := r.readFlag()
	return r.err() == nil && closed
}
