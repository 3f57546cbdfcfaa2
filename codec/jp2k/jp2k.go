/*
NAME
  jp2k.go

DESCRIPTION
  jp2k.go provides the JPEG 2000 picture descriptor and parsing of codestream
  main headers into it.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package jp2k provides parsing of JPEG 2000 codestreams, both single files
// and directories of files forming a picture sequence.
package jp2k

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
)

// Limits on the raw parameter blocks copied from the codestream.
const (
	MaxComponents      = 3
	MaxPrecincts       = 32 // ISO 15444-1 Annex A.6.1 Table A.21
	MaxCodingStyleSize = 10 + MaxPrecincts
	MaxDefaults        = 256

	// minQCDSize is the smallest QCD payload accepted; smaller segments
	// signal no usable quantization.
	minQCDSize = 16
)

// SIZ segment field offsets, relative to the start of the segment payload.
const (
	sizRsiz       = 0
	sizXsiz       = 2
	sizYsiz       = 6
	sizXOsiz      = 10
	sizYOsiz      = 14
	sizXTsiz      = 18
	sizYTsiz      = 22
	sizXTOsiz     = 26
	sizYTOsiz     = 30
	sizCsiz       = 34
	sizComponents = 36
	sizCompLen    = 3
)

// ImageComponent holds the SIZ parameters of one component.
type ImageComponent struct {
	Ssize  uint8 // Precision and sign.
	XRsize uint8 // Horizontal sub-sampling.
	YRsize uint8 // Vertical sub-sampling.
}

// CodingStyleDefault is the COD segment payload, copied verbatim.
type CodingStyleDefault struct {
	Data [MaxCodingStyleSize]byte
	Len  int
}

// Scod returns the coding style flags.
func (c CodingStyleDefault) Scod() uint8 { return c.Data[0] }

// ProgressionOrder returns the SGcod progression order.
func (c CodingStyleDefault) ProgressionOrder() uint8 { return c.Data[1] }

// Layers returns the SGcod number of quality layers.
func (c CodingStyleDefault) Layers() int { return int(binary.BigEndian.Uint16(c.Data[2:])) }

// MultiCompTransform returns the SGcod multiple component transform flag.
func (c CodingStyleDefault) MultiCompTransform() uint8 { return c.Data[4] }

// DecompositionLevels returns the SPcod number of decomposition levels.
func (c CodingStyleDefault) DecompositionLevels() int { return int(c.Data[5]) }

// CodeblockWidth returns the code-block width in samples.
func (c CodingStyleDefault) CodeblockWidth() int { return 1 << (c.Data[6] + 2) }

// CodeblockHeight returns the code-block height in samples.
func (c CodingStyleDefault) CodeblockHeight() int { return 1 << (c.Data[7] + 2) }

// CodeblockStyle returns the code-block style flags.
func (c CodingStyleDefault) CodeblockStyle() uint8 { return c.Data[8] }

// Transformation returns the wavelet transformation (0 = 9-7 irreversible, 1 = 5-3 reversible).
func (c CodingStyleDefault) Transformation() uint8 { return c.Data[9] }

// QuantizationDefault is the QCD segment payload, copied verbatim.
type QuantizationDefault struct {
	Sqcd        uint8
	SPqcd       [MaxDefaults]byte
	SPqcdLength int
}

// PictureDescriptor describes a JPEG 2000 picture stream.
type PictureDescriptor struct {
	EditRate          codecutil.Rational
	SampleRate        codecutil.Rational
	ContainerDuration int

	StoredWidth   uint32
	StoredHeight  uint32
	DisplayWidth  uint32
	DisplayHeight uint32
	AspectRatio   codecutil.Rational

	Rsize   uint16
	Xsize   uint32
	Ysize   uint32
	XOsize  uint32
	YOsize  uint32
	XTsize  uint32
	YTsize  uint32
	XTOsize uint32
	YTOsize uint32
	Csize   uint16

	ImageComponents     [MaxComponents]ImageComponent
	CodingStyleDefault  CodingStyleDefault
	QuantizationDefault QuantizationDefault
}

// SameCoding reports whether d and o describe identically coded pictures.
// Rates and duration are not compared.
func (d PictureDescriptor) SameCoding(o PictureDescriptor) bool {
	d.EditRate, d.SampleRate, d.ContainerDuration = o.EditRate, o.SampleRate, o.ContainerDuration
	return d == o
}

// ParseMetadataIntoDesc walks the main header markers of the codestream in p
// and fills desc. It returns the offset of the first byte after the SOD
// marker, or 0 if p ends before SOD. Rates and duration in desc are left
// untouched.
func ParseMetadataIntoDesc(p []byte, desc *PictureDescriptor) (int, error) {
	var sawSIZ bool
	for off := 0; off < len(p); {
		m, n, err := NextMarker(p[off:])
		if err != nil {
			return 0, errors.Wrapf(err, "at offset %d", off)
		}
		off += n

		switch m.Type {
		case SOD:
			if !sawSIZ {
				return 0, errors.Wrap(codecutil.ErrFormat, "SOD before SIZ")
			}
			return off, nil

		case SIZ:
			err = parseSIZ(m, desc)
			if err != nil {
				return 0, err
			}
			sawSIZ = true

		case COD:
			if m.DataSize > MaxCodingStyleSize {
				return 0, errors.Wrapf(codecutil.ErrFormat, "unexpectedly large coding style data: %d", m.DataSize)
			}
			desc.CodingStyleDefault = CodingStyleDefault{Len: m.DataSize}
			copy(desc.CodingStyleDefault.Data[:], m.Data)

		case QCD:
			if m.DataSize < minQCDSize {
				return 0, errors.Wrapf(codecutil.ErrFormat, "no quantization signaled: %d bytes", m.DataSize)
			}
			if m.DataSize > MaxDefaults {
				return 0, errors.Wrapf(codecutil.ErrFormat, "quantization default length %d exceeds maximum %d", m.DataSize, MaxDefaults)
			}
			desc.QuantizationDefault = QuantizationDefault{Sqcd: m.Data[0], SPqcdLength: m.DataSize - 1}
			copy(desc.QuantizationDefault.SPqcd[:], m.Data[1:])
		}
	}
	if !sawSIZ {
		return 0, errors.Wrap(codecutil.ErrFormat, "no SIZ segment")
	}
	return 0, nil
}

// parseSIZ fills the geometry fields of desc from a SIZ segment.
func parseSIZ(m Marker, desc *PictureDescriptor) error {
	if m.DataSize < sizComponents {
		return errors.Wrapf(codecutil.ErrFormat, "short SIZ segment: %d bytes", m.DataSize)
	}
	d := m.Data
	desc.Rsize = binary.BigEndian.Uint16(d[sizRsiz:])
	desc.Xsize = binary.BigEndian.Uint32(d[sizXsiz:])
	desc.Ysize = binary.BigEndian.Uint32(d[sizYsiz:])
	desc.XOsize = binary.BigEndian.Uint32(d[sizXOsiz:])
	desc.YOsize = binary.BigEndian.Uint32(d[sizYOsiz:])
	desc.XTsize = binary.BigEndian.Uint32(d[sizXTsiz:])
	desc.YTsize = binary.BigEndian.Uint32(d[sizYTsiz:])
	desc.XTOsize = binary.BigEndian.Uint32(d[sizXTOsiz:])
	desc.YTOsize = binary.BigEndian.Uint32(d[sizYTOsiz:])
	desc.Csize = binary.BigEndian.Uint16(d[sizCsiz:])

	// Only three component (RGB or XYZ) images are carried.
	if desc.Csize != MaxComponents {
		return errors.Wrapf(codecutil.ErrFormat, "unexpected number of components: %d", desc.Csize)
	}
	if m.DataSize < sizComponents+sizCompLen*int(desc.Csize) {
		return errors.Wrapf(codecutil.ErrFormat, "SIZ segment too short for %d components", desc.Csize)
	}
	for i := range desc.ImageComponents {
		c := d[sizComponents+sizCompLen*i:]
		desc.ImageComponents[i] = ImageComponent{Ssize: c[0], XRsize: c[1], YRsize: c[2]}
	}

	desc.StoredWidth = desc.Xsize
	desc.StoredHeight = desc.Ysize
	desc.DisplayWidth = desc.Xsize - desc.XOsize
	desc.DisplayHeight = desc.Ysize - desc.YOsize
	desc.AspectRatio = codecutil.Rational{Numerator: int(desc.Xsize), Denominator: int(desc.Ysize)}
	return nil
}
