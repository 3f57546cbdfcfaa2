/*
NAME
  aiff.go

DESCRIPTION
  aiff.go provides parsing of AIFF and AIFF-C headers for FileSource.

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
	"io"

	"github.com/go-audio/aiff"
	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
)

// AIFF-C compression types carrying uncompressed PCM.
var (
	aifcNone = [4]byte{'N', 'O', 'N', 'E'}
	aifcSowt = [4]byte{'s', 'o', 'w', 't'} // Little endian samples.
)

const (
	aiffHeaderLen = 12
	chunkHeadLen  = 8
	ssndHeadLen   = 8 // offset and blockSize.
)

// parseAIFF reads an AIFF or AIFF-C header from the start of the file,
// leaving the file at the start of the sample data.
func (s *FileSource) parseAIFF(editRate codecutil.Rational) error {
	d := aiff.NewDecoder(s.f)
	d.ReadInfo()
	if d.Err() != nil {
		return errors.Wrap(codecutil.ErrRawEssence, d.Err().Error())
	}
	if d.NumChans == 0 || d.BitDepth == 0 || d.SampleRate <= 0 {
		return errors.Wrap(codecutil.ErrFormat, "incomplete COMM chunk")
	}
	bigEndian := true
	switch d.Encoding {
	case [4]byte{}, aifcNone:
	case aifcSowt:
		bigEndian = false
	default:
		return errors.Wrapf(codecutil.ErrFormat, "unsupported AIFF-C compression %q", d.Encoding[:])
	}

	err := s.findSSND()
	if err != nil {
		return err
	}
	s.bigEndian = bigEndian
	s.desc = newDescriptor(int(d.NumChans), int(d.BitDepth), codecutil.Rational{Numerator: d.SampleRate, Denominator: 1}, editRate)
	s.dataLen -= s.dataLen % int64(s.desc.BlockAlign)

	_, err = s.f.Seek(s.dataStart, io.SeekStart)
	if err != nil {
		return errors.Wrap(err, "could not seek to AIFF data")
	}
	return nil
}

// findSSND walks the chunks of the file to the SSND chunk and sets the data
// start and length. Chunks are skipped by seeking, and a data length running
// past the end of the file is cut short.
func (s *FileSource) findSSND() error {
	end, err := s.f.Seek(0, io.SeekEnd)
	if err != nil {
		return errors.Wrap(err, "could not find end of AIFF file")
	}
	off := int64(aiffHeaderLen)
	for {
		_, err = s.f.Seek(off, io.SeekStart)
		if err != nil {
			return errors.Wrap(err, "could not seek to next AIFF chunk")
		}
		var ch [chunkHeadLen + ssndHeadLen]byte
		_, err = io.ReadFull(s.f, ch[:chunkHeadLen])
		if err != nil {
			return errors.Wrap(codecutil.ErrFormat, "AIFF file has no SSND chunk")
		}
		size := int64(binary.BigEndian.Uint32(ch[4:]))
		body := off + chunkHeadLen
		if string(ch[0:4]) != "SSND" {
			off = body + size + size&1 // Chunks are padded to even length.
			continue
		}

		if size < ssndHeadLen {
			return errors.Wrapf(codecutil.ErrFormat, "short SSND chunk: %d bytes", size)
		}
		_, err = io.ReadFull(s.f, ch[chunkHeadLen:])
		if err != nil {
			return errors.Wrap(codecutil.ErrFormat, "truncated SSND chunk")
		}
		dataOff := int64(binary.BigEndian.Uint32(ch[chunkHeadLen:]))
		s.dataStart = body + ssndHeadLen + dataOff
		s.dataLen = min(size-ssndHeadLen-dataOff, end-s.dataStart)
		if s.dataLen < 0 {
			return errors.Wrapf(codecutil.ErrFormat, "SSND offset %d exceeds chunk", dataOff)
		}
		return nil
	}
}
