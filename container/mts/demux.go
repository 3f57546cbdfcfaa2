/*
NAME
  demux.go

DESCRIPTION
  demux.go provides ESReader, which reads the payload of one video
  elementary stream out of an MPEG transport stream.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mts

import (
	"io"

	"github.com/Comcast/gots/packet"
	"github.com/Comcast/gots/pes"
	"github.com/pkg/errors"
)

// ESReader is an io.Reader giving the elementary stream carried by one PID
// of a transport stream. Unless a PID is chosen with SetPID, the video PID
// is taken from the PMT if one is found, or else from the first PES packet
// with a video stream_id.
type ESReader struct {
	r       io.Reader
	pkt     packet.Packet
	pid     uint16
	havePID bool
	pmtPIDs map[uint16]bool
	pending []byte
	err     error
	packets int
	cc      *ContinuityChecker
	breaks  int
}

// NewESReader returns an ESReader reading transport stream packets from r.
func NewESReader(r io.Reader) *ESReader {
	return &ESReader{r: r, pmtPIDs: make(map[uint16]bool), cc: NewContinuityChecker()}
}

// SetPID fixes the PID to be read.
func (e *ESReader) SetPID(pid uint16) {
	e.pid = pid
	e.havePID = true
}

// PID returns the PID being read and whether it has been chosen yet.
func (e *ESReader) PID() (uint16, bool) { return e.pid, e.havePID }

// Discontinuities returns the number of continuity counter breaks seen on
// the PID being read. Elementary stream data around a break is not repaired.
func (e *ESReader) Discontinuities() int { return e.breaks }

// Read implements io.Reader.
func (e *ESReader) Read(p []byte) (int, error) {
	for len(e.pending) == 0 {
		if e.err != nil {
			return 0, e.err
		}
		e.err = e.next()
	}
	n := copy(p, e.pending)
	e.pending = e.pending[n:]
	return n, nil
}

// next reads one packet, leaving any elementary stream data in e.pending.
func (e *ESReader) next() error {
	_, err := io.ReadFull(e.r, e.pkt[:])
	switch {
	case err == io.EOF:
		return io.EOF
	case err == io.ErrUnexpectedEOF:
		return errors.Wrapf(ErrShortPacket, "after packet %d", e.packets)
	case err != nil:
		return errors.Wrap(err, "could not read packet")
	}
	if e.pkt[0] != SyncByte {
		return errors.Wrapf(ErrNoSync, "at packet %d", e.packets)
	}
	e.packets++

	pid := uint16(e.pkt.PID())
	switch {
	case pid == NullPid:
		return nil
	case pid == PatPid:
		if !e.havePID {
			progs, err := Programs(&e.pkt)
			if err == nil {
				for _, pmt := range progs {
					e.pmtPIDs[pmt] = true
				}
			}
		}
		return nil
	case e.pmtPIDs[pid]:
		if !e.havePID {
			v, ok, err := VideoPID(&e.pkt)
			if err == nil && ok {
				e.SetPID(v)
			}
		}
		return nil
	case e.havePID && pid != e.pid:
		return nil
	}

	if !e.cc.Check(&e.pkt) && e.havePID && pid == e.pid {
		e.breaks++
	}

	payload, err := e.pkt.Payload()
	if err != nil {
		// Adaptation field only.
		return nil
	}

	if !e.pkt.PayloadUnitStartIndicator() {
		if e.havePID {
			e.pending = payload
		}
		return nil
	}

	hdr, err := pes.NewPESHeader(payload)
	if err != nil {
		if !e.havePID {
			return nil
		}
		return errors.Wrapf(err, "could not parse PES header in packet %d", e.packets)
	}
	if !e.havePID {
		if !isVideoStreamID(hdr.StreamId()) {
			return nil
		}
		e.SetPID(pid)
	}
	e.pending = hdr.Data()
	return nil
}
