/*
NAME
  frame.go

DESCRIPTION
  frame.go provides FrameParser, which reads an MPEG-2 video elementary
  stream, either raw or carried in an MPEG transport stream, one picture at a
  time.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mpeg2

import (
	"io"
	"os"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
	"github.com/ausocean/dcp/container/mts"
)

// vesWriter feeds everything written to it to a VESParser.
type vesWriter struct{ p *VESParser }

func (w vesWriter) Write(b []byte) (int, error) {
	err := w.p.Parse(b)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// descDelegate fills a VideoDescriptor and stops at the first picture.
type descDelegate struct {
	desc    *VideoDescriptor
	seenSeq bool
}

func (d *descDelegate) Sequence(h []byte) error {
	d.seenSeq = true
	return d.desc.parseSequence(h)
}

func (d *descDelegate) Extension(h []byte) error {
	if d.seenSeq && extensionID(h) == extSequence {
		return d.desc.parseSequenceExtension(h)
	}
	return nil
}

func (d *descDelegate) Picture([]byte) error   { return ErrStop }
func (d *descDelegate) GOP([]byte) error       { return nil }
func (d *descDelegate) Slice(byte) error       { return nil }
func (d *descDelegate) Data([]byte, int) error { return nil }

// ReadDescriptor reads from r until the first picture and returns the
// descriptor given by the sequence header and extension before it.
func ReadDescriptor(r io.Reader) (VideoDescriptor, error) {
	var desc VideoDescriptor
	dd := &descDelegate{desc: &desc}
	lex, err := codecutil.NewByteLexer(codecutil.DefaultChunkSize)
	if err != nil {
		return desc, err
	}
	err = lex.Lex(vesWriter{NewVESParser(dd)}, r)
	if err != nil && !errors.Is(err, ErrStop) && !errors.Is(err, io.EOF) {
		return desc, err
	}
	if !dd.seenSeq {
		return desc, errors.Wrap(codecutil.ErrFormat, "no sequence header before first picture")
	}
	return desc, nil
}

// frame is a complete picture collected by frameDelegate.
type frame struct {
	data      []byte
	typ       FrameType
	tref      int
	gopStart  bool
	closedGOP bool
	slices    int
}

// frameDelegate rebuilds the stream and cuts it into frames. A frame begins
// at the sequence header, GOP header or picture header that follows the
// previous frame's picture.
type frameDelegate struct {
	cur     frame
	havePic bool
	done    []frame
}

func (d *frameDelegate) cut() {
	if !d.havePic {
		return
	}
	d.done = append(d.done, d.cur)
	d.cur = frame{}
	d.havePic = false
}

func (d *frameDelegate) Sequence(h []byte) error {
	d.cut()
	d.cur.data = append(d.cur.data, h...)
	return nil
}

func (d *frameDelegate) GOP(h []byte) error {
	d.cut()
	d.cur.gopStart = true
	d.cur.closedGOP = closedGOP(h)
	d.cur.data = append(d.cur.data, h...)
	return nil
}

func (d *frameDelegate) Picture(h []byte) error {
	d.cut()
	typ, tref, err := pictureType(h)
	if err != nil {
		return err
	}
	d.havePic = true
	d.cur.typ, d.cur.tref = typ, tref
	d.cur.data = append(d.cur.data, h...)
	return nil
}

func (d *frameDelegate) Extension(h []byte) error {
	d.cur.data = append(d.cur.data, h...)
	return nil
}

func (d *frameDelegate) Slice(byte) error {
	d.cur.slices++
	return nil
}

func (d *frameDelegate) Data(p []byte, n int) error {
	if n >= 0 {
		d.cur.data = append(d.cur.data, p[:n]...)
		return nil
	}
	if -n > len(d.cur.data) {
		return errors.Wrapf(codecutil.ErrFormat, "cannot retract %d bytes from %d byte frame", -n, len(d.cur.data))
	}
	d.cur.data = d.cur.data[:len(d.cur.data)+n]
	return nil
}

// FrameParser reads pictures from an MPEG-2 video elementary stream file.
type FrameParser struct {
	log   logging.Logger
	f     *os.File
	ts    bool
	r     io.Reader
	ves   *VESParser
	fd    *frameDelegate
	buf   []byte
	eof   bool
	desc  VideoDescriptor
	count int

	last frame
}

// NewFrameParser returns a FrameParser logging to l.
func NewFrameParser(l logging.Logger) *FrameParser {
	return &FrameParser{log: l}
}

// OpenRead opens the elementary stream at path, which may be a raw VES or an
// MPEG transport stream carrying one, and reads its descriptor.
func (p *FrameParser) OpenRead(path string) error {
	typ, err := codecutil.SniffFile(path)
	if err != nil {
		return err
	}
	switch typ {
	case codecutil.MPEG2:
	case codecutil.MPEGTS:
		p.ts = true
	default:
		return errors.Wrapf(codecutil.ErrRawEssence, "%s is not an MPEG-2 video stream", path)
	}

	p.f, err = os.Open(path)
	if err != nil {
		return errors.Wrapf(codecutil.ErrNotFound, "%s: %v", path, err)
	}
	err = p.rewind()
	if err != nil {
		p.f.Close()
		return err
	}
	p.desc, err = ReadDescriptor(p.r)
	if err != nil {
		p.f.Close()
		return errors.Wrapf(err, "could not read descriptor from %s", path)
	}
	p.log.Info("opened mpeg2 stream", "path", path, "transport", p.ts,
		"width", p.desc.HorizontalSize, "height", p.desc.VerticalSize, "rate", p.desc.FrameRate.String())
	return p.Reset()
}

// rewind seeks the file back to the start and rebuilds the reader over it.
func (p *FrameParser) rewind() error {
	_, err := p.f.Seek(0, io.SeekStart)
	if err != nil {
		return errors.Wrap(err, "could not seek to start of stream")
	}
	p.r = p.f
	if p.ts {
		p.r = mts.NewESReader(p.f)
	}
	return nil
}

// VideoDescriptor returns the descriptor read when the stream was opened.
func (p *FrameParser) VideoDescriptor() VideoDescriptor { return p.desc }

// ReadFrame reads the next picture into fb. If fb is too small
// codecutil.ErrSmallBuffer is returned and the picture is kept for the next
// call. codecutil.ErrEndOfStream is returned after the last picture.
func (p *FrameParser) ReadFrame(fb *codecutil.FrameBuffer) error {
	if p.f == nil {
		return codecutil.ErrUninitialized
	}
	for len(p.fd.done) == 0 {
		if p.eof {
			return codecutil.ErrEndOfStream
		}
		err := p.fill()
		if err != nil {
			return err
		}
	}

	fr := p.fd.done[0]
	if len(fr.data) > fb.Capacity() {
		return errors.Wrapf(codecutil.ErrSmallBuffer, "picture of %d bytes, capacity %d", len(fr.data), fb.Capacity())
	}
	copy(fb.Data(), fr.data)
	err := fb.SetSize(len(fr.data))
	if err != nil {
		return err
	}
	p.fd.done = p.fd.done[1:]
	fb.PlaintextOffset = 0
	fb.FrameNumber = p.count
	p.count++
	p.last = fr
	p.log.Debug("read picture", "frame", fb.FrameNumber, "type", fr.typ.String(), "size", fb.Size())
	return nil
}

// fill parses the next chunk of the stream.
func (p *FrameParser) fill() error {
	n, err := p.r.Read(p.buf)
	if n > 0 {
		perr := p.ves.Parse(p.buf[:n])
		if perr != nil {
			return perr
		}
	}
	if err == io.EOF {
		p.eof = true
		err = p.ves.Flush()
		if err != nil {
			return err
		}
		// The last picture runs to the end of the stream.
		p.fd.cut()
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "could not read stream")
	}
	return nil
}

// FrameType returns the coding type of the last picture read.
func (p *FrameParser) FrameType() FrameType { return p.last.typ }

// TemporalRef returns the temporal reference of the last picture read.
func (p *FrameParser) TemporalRef() int { return p.last.tref }

// GOPStart reports whether the last picture read began a group of pictures.
func (p *FrameParser) GOPStart() bool { return p.last.gopStart }

// ClosedGOP reports whether the group of pictures begun by the last picture
// read is closed.
func (p *FrameParser) ClosedGOP() bool { return p.last.closedGOP }

// Slices returns the number of slices in the last picture read.
func (p *FrameParser) Slices() int { return p.last.slices }

// Reset rewinds the stream to its first picture.
func (p *FrameParser) Reset() error {
	if p.f == nil {
		return codecutil.ErrUninitialized
	}
	err := p.rewind()
	if err != nil {
		return err
	}
	p.fd = &frameDelegate{}
	p.ves = NewVESParser(p.fd)
	if p.buf == nil {
		p.buf = make([]byte, codecutil.DefaultChunkSize)
	}
	p.eof = false
	p.count = 0
	p.last = frame{}
	return nil
}

// Close closes the underlying file.
func (p *FrameParser) Close() error {
	if p.f == nil {
		return nil
	}
	err := p.f.Close()
	p.f = nil
	return err
}
