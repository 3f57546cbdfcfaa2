/*
NAME
  marker.go

DESCRIPTION
  marker.go provides a walker for JPEG 2000 codestream markers and marker
  segments as defined in ISO/IEC 15444-1 Annex A.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package jp2k

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
)

// Marker codes.
const (
	// Delimiting markers and marker segments.
	SOC = 0xff4f // Start of codestream.
	SOT = 0xff90 // Start of tile-part.
	SOD = 0xff93 // Start of data.
	EOC = 0xffd9 // End of codestream.

	// Fixed information.
	SIZ = 0xff51 // Image and tile size.
	CAP = 0xff50 // Extended capabilities.

	// Functional marker segments.
	COD = 0xff52 // Coding style default.
	COC = 0xff53 // Coding style component.
	RGN = 0xff5e // Region of interest.
	QCD = 0xff5c // Quantization default.
	QCC = 0xff5d // Quantization component.
	POC = 0xff5f // Progression order change.

	// Pointer marker segments.
	TLM = 0xff55 // Tile-part lengths.
	PLM = 0xff57 // Packet length, main header.
	PLT = 0xff58 // Packet length, tile-part header.
	PPM = 0xff60 // Packed packet headers, main header.
	PPT = 0xff61 // Packed packet headers, tile-part header.

	// In bit stream markers.
	SOP = 0xff91 // Start of packet.
	EPH = 0xff92 // End of packet header.

	// Informational marker segments.
	CRG = 0xff63 // Component registration.
	COM = 0xff64 // Comment.
)

var markerNames = map[uint16]string{
	SOC: "SOC", SOT: "SOT", SOD: "SOD", EOC: "EOC", SIZ: "SIZ", CAP: "CAP",
	COD: "COD", COC: "COC", RGN: "RGN", QCD: "QCD", QCC: "QCC", POC: "POC",
	TLM: "TLM", PLM: "PLM", PLT: "PLT", PPM: "PPM", PPT: "PPT", SOP: "SOP",
	EPH: "EPH", CRG: "CRG", COM: "COM",
}

// MarkerName returns the short name of marker type t.
func MarkerName(t uint16) string {
	if n, ok := markerNames[t]; ok {
		return n
	}
	return fmt.Sprintf("%#04x", t)
}

// isSegment is indexed by the second byte of a marker and reports whether the
// marker is followed by a length and payload.
var isSegment = func() (t [256]bool) {
	for i := range t {
		t[i] = true
	}
	// 0xff30 to 0xff3f are reserved delimiters with no parameters.
	for i := 0x30; i <= 0x3f; i++ {
		t[i] = false
	}
	for _, m := range []uint16{SOC, SOD, EOC, EPH} {
		t[m&0xff] = false
	}
	return t
}()

// Marker is a marker or marker segment found in a codestream. Data is a
// sub-slice of the buffer it was parsed from and is only valid while that
// buffer is.
type Marker struct {
	Type      uint16
	IsSegment bool
	DataSize  int
	Data      []byte
}

func (m Marker) String() string { return MarkerName(m.Type) }

// minSegmentLen is the smallest legal segment length: the two length bytes
// plus at least one byte of payload.
const minSegmentLen = 3

// NextMarker parses the marker at the start of p and returns it along with
// the number of bytes it occupies. Data that does not begin with a marker
// gives codecutil.ErrRawEssence; a bad segment length gives codecutil.ErrFormat.
func NextMarker(p []byte) (Marker, int, error) {
	var m Marker
	if len(p) < 2 {
		return m, 0, errors.Wrap(codecutil.ErrRawEssence, "truncated marker")
	}
	if p[0] != 0xff {
		return m, 0, errors.Wrapf(codecutil.ErrRawEssence, "expected marker prefix, got %#02x", p[0])
	}
	m.Type = 0xff00 | uint16(p[1])
	m.IsSegment = isSegment[p[1]]
	if !m.IsSegment {
		return m, 2, nil
	}

	if len(p) < 4 {
		return m, 0, errors.Wrapf(codecutil.ErrFormat, "truncated %v segment", m)
	}
	l := int(binary.BigEndian.Uint16(p[2:]))
	if l < minSegmentLen {
		return m, 0, errors.Wrapf(codecutil.ErrFormat, "illegal %v segment size %d", m, l)
	}
	if 2+l > len(p) {
		return m, 0, errors.Wrapf(codecutil.ErrFormat, "%v segment of %d bytes overruns buffer", m, l)
	}
	m.DataSize = l - 2
	m.Data = p[4 : 2+l]
	return m, 2 + l, nil
}

// ScanMarkers returns the markers of the main header in p, up to and
// including SOD.
func ScanMarkers(p []byte) ([]Marker, error) {
	var ms []Marker
	for off := 0; off < len(p); {
		m, n, err := NextMarker(p[off:])
		if err != nil {
			return ms, errors.Wrapf(err, "at offset %d", off)
		}
		ms = append(ms, m)
		off += n
		if m.Type == SOD {
			break
		}
	}
	return ms, nil
}
