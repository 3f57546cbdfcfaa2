/*
NAME
  sync.go

DESCRIPTION
  sync.go provides SyncGenerator, a single channel PCM source carrying a
  bi-phase mark coded sync signal that identifies the asset and frame.

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
	"hash/crc32"

	"github.com/google/uuid"

	"github.com/ausocean/dcp/codec/codecutil"
)

// Sync packet layout. Each frame carries one packet of syncPacketLen bytes:
// sync word, frame index, UUID segment index, UUID segment and CRC-32.
const (
	syncWord       = 0x5ac3
	syncSegments   = 4 // The UUID is sent four bytes per frame.
	syncPacketLen  = 2 + 4 + 1 + 4 + 4
	syncPacketBits = syncPacketLen * 8

	// SyncBits is the only sample size the signal is generated for.
	SyncBits = 24

	// syncAmplitude is the peak sample value, about -20 dBFS.
	syncAmplitude = 0x0ccccc
)

// SyncGenerator is a Source producing one sync channel. The samples of a
// frame depend only on the UUID and the frame's index, so the same stream
// is rendered every time. Bit depths other than 24 give silence.
type SyncGenerator struct {
	id      uuid.UUID
	desc    AudioDescriptor
	samples []byte
	pos     int
	frame   uint32
}

// NewSyncGenerator returns a SyncGenerator for the asset identified by id.
func NewSyncGenerator(id uuid.UUID, bits int, sampleRate, editRate codecutil.Rational) *SyncGenerator {
	g := &SyncGenerator{id: id, desc: newDescriptor(1, bits, sampleRate, editRate)}
	g.desc.ChannelFormat = ChannelFormatAtmos
	g.samples = make([]byte, CalcFrameBufferSize(g.desc))
	return g
}

// Descriptor implements Source.
func (g *SyncGenerator) Descriptor() AudioDescriptor { return g.desc }

// UUID returns the identifier carried by the signal.
func (g *SyncGenerator) UUID() uuid.UUID { return g.id }

// FrameIndex returns the index of the next frame to be generated.
func (g *SyncGenerator) FrameIndex() uint32 { return g.frame }

// ReadFrame implements Source. It renders the next frame and advances the
// frame counter.
func (g *SyncGenerator) ReadFrame() error {
	g.render(g.frame)
	g.frame++
	g.pos = 0
	return nil
}

// PutSample implements Source.
func (g *SyncGenerator) PutSample(n int, dst []byte) (int, error) {
	return putBytes(g.samples, &g.pos, n, g.desc.BytesPerSample(), dst)
}

// Reset implements Source. It is the only way to rewind the frame counter.
func (g *SyncGenerator) Reset() error {
	g.frame = 0
	g.pos = 0
	return nil
}

// Close implements Source.
func (g *SyncGenerator) Close() error { return nil }

// packet returns the sync packet for frame n.
func (g *SyncGenerator) packet(n uint32) [syncPacketLen]byte {
	var p [syncPacketLen]byte
	seg := n % syncSegments
	binary.BigEndian.PutUint16(p[0:], syncWord)
	binary.BigEndian.PutUint32(p[2:], n)
	p[6] = byte(seg)
	copy(p[7:11], g.id[seg*4:seg*4+4])
	binary.BigEndian.PutUint32(p[11:], crc32.ChecksumIEEE(p[:11]))
	return p
}

// render writes the samples of frame n into g.samples.
func (g *SyncGenerator) render(n uint32) {
	clear(g.samples)
	if g.desc.QuantizationBits != SyncBits {
		return
	}

	spf := CalcSamplesPerFrame(g.desc)
	cell := spf / syncPacketBits // Samples per bit.
	if cell < 2 {
		return
	}
	half := cell / 2

	p := g.packet(n)
	level := int32(syncAmplitude)
	s := 0
	for i := 0; i < syncPacketBits; i++ {
		bit := p[i/8]>>(7-i%8)&1 == 1

		// Bi-phase mark: the level flips at every bit boundary, and again
		// mid-bit for a one.
		level = -level
		for j := 0; j < cell; j++ {
			if bit && j == half {
				level = -level
			}
			put24(g.samples[s*3:], level)
			s++
		}
	}
}

// put24 writes v as a little endian 24 bit sample.
func put24(b []byte, v int32) {
	u := uint32(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
}
