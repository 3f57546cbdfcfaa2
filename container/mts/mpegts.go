/*
NAME
  mpegts.go

DESCRIPTION
  mpegts.go provides MPEG-TS constants and packet helpers used when reading
  elementary streams out of transport streams.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mts provides demultiplexing of MPEG transport streams (mts).
package mts

import (
	"github.com/Comcast/gots/packet"
	gotspsi "github.com/Comcast/gots/psi"
	"github.com/pkg/errors"
)

// PacketSize is the size of an MPEG-TS packet.
const PacketSize = 188

// SyncByte begins every MPEG-TS packet.
const SyncByte = 0x47

// Standard program IDs.
const (
	PatPid  = 0
	NullPid = 0x1fff
)

// Stream types of interest, ISO/IEC 13818-1 Table 2-34.
const (
	StreamTypeMPEG1Video = 0x01
	StreamTypeMPEG2Video = 0x02
)

// isVideoStreamID reports whether a PES stream_id belongs to a video stream.
func isVideoStreamID(id uint8) bool { return id&0xf0 == 0xe0 }

// Errors returned by the demuxer.
var (
	ErrNoSync      = errors.New("lost MPEG-TS sync")
	ErrShortPacket = errors.New("truncated MPEG-TS packet")
)

// Programs returns a map of program numbers and corresponding PMT PIDs for a
// given MPEG-TS PAT packet.
func Programs(p *packet.Packet) (map[uint16]uint16, error) {
	pat, err := gotspsi.NewPAT(p[:])
	if err != nil {
		return nil, err
	}
	m := make(map[uint16]uint16)
	for k, v := range pat.ProgramMap() {
		m[uint16(k)] = uint16(v)
	}
	return m, nil
}

// VideoPID returns the PID of the first MPEG-1 or MPEG-2 video stream listed
// in a PMT packet.
func VideoPID(p *packet.Packet) (uint16, bool, error) {
	payload, err := p.Payload()
	if err != nil {
		return 0, false, errors.Wrap(err, "cannot get packet payload")
	}
	pmt, err := gotspsi.NewPMT(payload)
	if err != nil {
		return 0, false, err
	}
	for _, s := range pmt.ElementaryStreams() {
		switch s.StreamType() {
		case StreamTypeMPEG1Video, StreamTypeMPEG2Video:
			return uint16(s.ElementaryPid()), true, nil
		}
	}
	return 0, false, nil
}
