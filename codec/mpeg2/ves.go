/*
NAME
  ves.go

DESCRIPTION
  ves.go provides VESParser, a streaming start code scanner for MPEG-2 video
  elementary streams that hands headers and opaque data runs to a delegate.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mpeg2 provides parsing of MPEG-2 video elementary streams.
package mpeg2

import (
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
)

// Start codes.
const (
	PictureStart   = 0x00
	FirstSlice     = 0x01
	LastSlice      = 0xaf
	UserDataStart  = 0xb2
	SequenceStart  = 0xb3
	SequenceError  = 0xb4
	ExtensionStart = 0xb5
	SequenceEnd    = 0xb7
	GOPStart       = 0xb8
)

// HeaderBufSize is the largest header the parser will accumulate.
const HeaderBufSize = 32 << 10

// ErrStop may be returned by a Delegate to end parsing without error.
// Parse returns it to the caller unchanged.
var ErrStop = errors.New("stop parsing")

// Delegate receives the content of a video elementary stream from a
// VESParser. Headers are passed with their 00 00 01 xx start code and are
// only valid for the duration of the call.
//
// Slice is called as each slice start code is seen. The start code bytes
// themselves are passed to Data with the run they begin.
//
// Data receives the runs of bytes between headers. When n is non-negative p
// holds n bytes of the stream. A negative n means the last -n bytes passed to
// Data were the start of a start code and now form part of a header; the
// delegate should discard them.
type Delegate interface {
	Sequence(hdr []byte) error
	Picture(hdr []byte) error
	Extension(hdr []byte) error
	GOP(hdr []byte) error
	Slice(code byte) error
	Data(p []byte, n int) error
}

// parser states.
const (
	stateIdle        = iota // Scanning for a 00 00 01 prefix.
	stateStartHeader        // Prefix matched; the next byte is the start code.
	stateInHeader           // Accumulating a header of interest.
)

// VESParser scans a video elementary stream fed in arbitrarily sized chunks.
// State carries across calls to Parse, so start codes and headers may
// straddle chunk boundaries.
type VESParser struct {
	d      Delegate
	state  int
	zeros  int // Consecutive zero bytes seen.
	hbuf   [HeaderBufSize]byte
	hbufN  int
	offset int64 // Stream offset of the next byte, for error reporting.
}

// NewVESParser returns a VESParser reporting to d.
func NewVESParser(d Delegate) *VESParser {
	return &VESParser{d: d}
}

// wanted reports whether headers with start code c are accumulated.
func wanted(c byte) bool {
	return c == PictureStart || c == SequenceStart || c == ExtensionStart || c == GOPStart
}

// setStartCode puts 00 00 01 c at the head of the header buffer.
func (p *VESParser) setStartCode(c byte) {
	p.hbuf[0], p.hbuf[1], p.hbuf[2], p.hbuf[3] = 0, 0, 1, c
}

// Parse scans buf, calling the delegate for each header and data run found.
// A delegate error stops the parse and is returned; ErrStop is returned
// as is and the parser may be fed again after Reset.
func (p *VESParser) Parse(buf []byte) error {
	var (
		runPos int // Start of the current run of uninteresting data.
		runLen int
	)

	for i, b := range buf {
		if p.state == stateInHeader {
			if p.hbufN == len(p.hbuf) {
				return pkgerrors.Wrapf(codecutil.ErrFormat, "header exceeds %d bytes at offset %d", HeaderBufSize, p.offset+int64(i))
			}
			p.hbuf[p.hbufN] = b
			p.hbufN++
		} else {
			runLen++
		}

		switch {
		case p.state == stateStartHeader && p.hbufN == 0:
			// b is a start code and no header is being collected.
			p.setStartCode(b)
			if wanted(b) {
				p.hbufN = 4
				p.state = stateInHeader

				// Withhold the start code prefix from the run.
				var err error
				switch runLen {
				case 1: // The prefix was withheld at the end of the last call.
				case 4: // The run is exactly 00 00 01 b.
				case 2: // 01 b here, 00 00 passed to Data last call.
					err = p.d.Data(nil, -2)
				case 3: // 00 01 b here, 00 passed to Data last call.
					err = p.d.Data(nil, -1)
				default:
					err = p.d.Data(buf[runPos:runPos+runLen-4], runLen-4)
				}
				if err != nil {
					return err
				}
				runLen = 0
				break
			}

			p.state = stateIdle
			if b >= FirstSlice && b <= LastSlice {
				err := p.d.Slice(b)
				if err != nil {
					return err
				}
			}
			if runLen == 1 {
				// Restore the prefix withheld at the end of the last call.
				err := p.d.Data(p.hbuf[:4], 4)
				if err != nil {
					return err
				}
				runLen = 0
				runPos = i + 1
			}

		case p.state == stateStartHeader:
			// b is a start code ending the header being collected.
			p.hbufN -= 3
			hdr := p.hbuf[:p.hbufN]
			var err error
			switch p.hbuf[3] {
			case PictureStart:
				err = p.d.Picture(hdr)
			case ExtensionStart:
				err = p.d.Extension(hdr)
			case SequenceStart:
				err = p.d.Sequence(hdr)
			case GOPStart:
				err = p.d.GOP(hdr)
			default:
				err = pkgerrors.Wrapf(codecutil.ErrFormat, "unexpected start code %#02x at offset %d", p.hbuf[3], p.offset+int64(i))
			}
			if err != nil {
				p.state = stateIdle
				p.hbufN = 0
				return err
			}

			p.setStartCode(b)
			runLen = 0
			if wanted(b) {
				p.hbufN = 4
				p.state = stateInHeader
				break
			}

			p.hbufN = 0
			p.state = stateIdle
			if b >= FirstSlice && b <= LastSlice {
				err = p.d.Slice(b)
				if err != nil {
					return err
				}
			}
			err = p.d.Data(p.hbuf[:4], 4)
			if err != nil {
				return err
			}
			runPos = i + 1

		case b == 0:
			p.zeros++

		default:
			if b == 1 && p.zeros > 1 {
				p.state = stateStartHeader
			}
			p.zeros = 0
		}
	}
	p.offset += int64(len(buf))

	if runLen > 0 {
		if p.state == stateStartHeader {
			// Withhold the 00 00 01 just seen until its start code is known.
			// If the prefix began in an earlier call runLen goes negative,
			// retracting the bytes already passed on.
			runLen -= 3
		}
		if runLen < 0 {
			return p.d.Data(nil, runLen)
		}
		return p.d.Data(buf[runPos:runPos+runLen], runLen)
	}
	return nil
}

// Flush passes any withheld start code prefix or partial header to the
// delegate as data. It should be called once the stream is exhausted.
func (p *VESParser) Flush() error {
	var err error
	switch {
	case p.state == stateInHeader || (p.state == stateStartHeader && p.hbufN != 0):
		err = p.d.Data(p.hbuf[:p.hbufN], p.hbufN)
	case p.state == stateStartHeader:
		p.setStartCode(0)
		err = p.d.Data(p.hbuf[:3], 3)
	}
	p.Reset()
	return err
}

// Reset returns the parser to its initial state.
func (p *VESParser) Reset() {
	p.state = stateIdle
	p.zeros = 0
	p.hbufN = 0
	p.offset = 0
}
