/*
NAME
  demux_test.go

DESCRIPTION
  demux_test.go provides testing for ESReader in demux.go.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mts

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// packetize wraps es in a single PES packet with the given stream ID and
// splits it into transport stream packets on pid.
func packetize(pid uint16, streamID byte, es []byte) []byte {
	// PES header with a zero PTS.
	pesPkt := []byte{0x00, 0x00, 0x01, streamID, 0x00, 0x00, 0x80, 0x80, 0x05, 0x21, 0x00, 0x01, 0x00, 0x01}
	pesPkt = append(pesPkt, es...)

	const payloadSize = PacketSize - 4
	var out []byte
	for i, cc := 0, byte(0); i < len(pesPkt); i, cc = i+payloadSize, (cc+1)&0x0f {
		chunk := pesPkt[i:min(i+payloadSize, len(pesPkt))]
		var pusi byte
		if i == 0 {
			pusi = 0x40
		}
		hdr := []byte{SyncByte, pusi | byte(pid>>8), byte(pid), 0x10 | cc}
		if len(chunk) < payloadSize {
			// Pad with adaptation field stuffing.
			hdr[3] = 0x30 | cc
			afl := payloadSize - len(chunk) - 1
			hdr = append(hdr, byte(afl))
			if afl > 0 {
				hdr = append(hdr, 0x00)
				hdr = append(hdr, bytes.Repeat([]byte{0xff}, afl-1)...)
			}
		}
		out = append(out, hdr...)
		out = append(out, chunk...)
	}
	return out
}

// nullPacket returns a stuffing packet.
func nullPacket() []byte {
	p := make([]byte, PacketSize)
	p[0], p[1], p[2], p[3] = SyncByte, 0x1f, 0xff, 0x10
	return p
}

func TestESReader(t *testing.T) {
	es := make([]byte, 1000)
	for i := range es {
		es[i] = byte(i * 7)
	}
	audio := bytes.Repeat([]byte{0xaa}, 300)

	var ts []byte
	ts = append(ts, packetize(0x102, 0xc0, audio)...)
	ts = append(ts, nullPacket()...)
	ts = append(ts, packetize(0x100, 0xe0, es[:500])...)
	ts = append(ts, packetize(0x102, 0xc0, audio)...)
	ts = append(ts, packetize(0x100, 0xe0, es[500:])...)

	r := NewESReader(bytes.NewReader(ts))
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, es) {
		t.Errorf("did not get expected elementary stream\nGot len: %d\nWant len: %d", len(got), len(es))
	}
	pid, ok := r.PID()
	if !ok || pid != 0x100 {
		t.Errorf("did not get expected PID. Got: %#x (%v), Want: 0x100", pid, ok)
	}
}

func TestESReaderSetPID(t *testing.T) {
	audio := bytes.Repeat([]byte{0x55}, 400)
	var ts []byte
	ts = append(ts, packetize(0x100, 0xe0, []byte{0, 0, 1, 0xb3})...)
	ts = append(ts, packetize(0x102, 0xc0, audio)...)

	r := NewESReader(bytes.NewReader(ts))
	r.SetPID(0x102)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, audio) {
		t.Errorf("did not get expected stream for chosen PID")
	}
}

func TestESReaderErrors(t *testing.T) {
	good := packetize(0x100, 0xe0, []byte{1, 2, 3})

	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{name: "truncated", in: append(append([]byte{}, good...), good[:100]...), want: ErrShortPacket},
		{name: "sync", in: append(append([]byte{}, good...), make([]byte, PacketSize)...), want: ErrNoSync},
	}

	for _, test := range tests {
		_, err := io.ReadAll(NewESReader(bytes.NewReader(test.in)))
		if !errors.Is(err, test.want) {
			t.Errorf("did not get expected error for %s\nGot: %v\nWant: %v", test.name, err, test.want)
		}
	}
}

func TestESReaderDiscontinuity(t *testing.T) {
	es := bytes.Repeat([]byte{0x11}, 1000)
	ts := packetize(0x100, 0xe0, es)

	tests := []struct {
		name string
		in   []byte
		want int
	}{
		{name: "intact", in: ts, want: 0},
		{name: "dropped", in: append(append([]byte{}, ts[:2*PacketSize]...), ts[3*PacketSize:]...), want: 1},
	}

	for _, test := range tests {
		r := NewESReader(bytes.NewReader(test.in))
		_, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", test.name, err)
		}
		if r.Discontinuities() != test.want {
			t.Errorf("%s: unexpected discontinuities. Got: %d, Want: %d", test.name, r.Discontinuities(), test.want)
		}
	}
}

// crc32MPEG computes the CRC used by PSI sections.
func crc32MPEG(b []byte) uint32 {
	crc := uint32(0xffffffff)
	for _, v := range b {
		crc ^= uint32(v) << 24
		for i := 0; i < 8; i++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ 0x04c11db7
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// psiPacket wraps a section, less its CRC, in a packet on pid.
func psiPacket(pid uint16, section []byte) []byte {
	crc := crc32MPEG(section)
	p := []byte{SyncByte, 0x40 | byte(pid>>8), byte(pid), 0x10, 0x00}
	p = append(p, section...)
	p = append(p, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
	return append(p, bytes.Repeat([]byte{0xff}, PacketSize-len(p))...)
}

func TestESReaderPMT(t *testing.T) {
	const pmtPID, videoPID = 0x1000, 0x101
	pat := []byte{0x00, 0xb0, 13, 0x00, 0x01, 0xc1, 0x00, 0x00, 0x00, 0x01, 0xe0 | pmtPID>>8, pmtPID & 0xff}
	pmt := []byte{
		0x02, 0xb0, 18, 0x00, 0x01, 0xc1, 0x00, 0x00,
		0xe0 | videoPID>>8, videoPID & 0xff, 0xf0, 0x00,
		StreamTypeMPEG2Video, 0xe0 | videoPID>>8, videoPID & 0xff, 0xf0, 0x00,
	}
	es := bytes.Repeat([]byte{0x42}, 400)

	var ts []byte
	ts = append(ts, psiPacket(PatPid, pat)...)
	ts = append(ts, psiPacket(pmtPID, pmt)...)
	ts = append(ts, packetize(0x100, 0xe0, []byte{0, 0, 1, 0xb3})...)
	ts = append(ts, packetize(videoPID, 0xe0, es)...)

	r := NewESReader(bytes.NewReader(ts))
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, es) {
		t.Errorf("did not get stream of PID listed in PMT")
	}
	pid, ok := r.PID()
	if !ok || pid != videoPID {
		t.Errorf("did not get expected PID. Got: %#x (%v), Want: %#x", pid, ok, videoPID)
	}
}
