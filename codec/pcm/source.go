/*
NAME
  source.go

DESCRIPTION
  source.go defines the Source interface implemented by file backed and
  synthetic PCM sources, and the interleaving of sources into one frame.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pcm

import (
	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
)

// Source is a provider of PCM frames. A Source is owned by exactly one
// ParserList or Mixer, which closes it.
type Source interface {
	// Descriptor describes the audio provided by the source.
	Descriptor() AudioDescriptor

	// ReadFrame loads the next edit unit into the source.
	ReadFrame() error

	// PutSample writes the next n channels of the loaded frame into dst and
	// returns the number of bytes written.
	PutSample(n int, dst []byte) (int, error)

	// Reset rewinds the source to its first frame.
	Reset() error

	// Close releases any resources held by the source.
	Close() error
}

// output is one contribution of channels to an interleaved sample frame.
type output struct {
	src      Source
	channels int
}

// interleave fills dst by taking each output's channels in turn, one sample
// frame at a time. Every byte of dst must be written exactly once.
func interleave(outputs []output, dst []byte) error {
	var w int
	for w < len(dst) {
		start := w
		for _, o := range outputs {
			n, err := o.src.PutSample(o.channels, dst[w:])
			if err != nil {
				return errors.Wrapf(codecutil.ErrFormat, "source over-production at byte %d of %d: %v", w, len(dst), err)
			}
			w += n
		}
		if w == start {
			return errors.Wrapf(codecutil.ErrFormat, "sources under-produced: %d of %d bytes", w, len(dst))
		}
	}
	if w != len(dst) {
		return errors.Wrapf(codecutil.ErrFormat, "sources wrote %d bytes, expected %d", w, len(dst))
	}
	return nil
}

// putBytes copies n channels of sample data from a loaded frame at *pos into
// dst.
func putBytes(frame []byte, pos *int, n, bytesPerSample int, dst []byte) (int, error) {
	size := n * bytesPerSample
	if *pos+size > len(frame) {
		return 0, errors.Wrapf(codecutil.ErrEndOfStream, "frame exhausted at byte %d", *pos)
	}
	if size > len(dst) {
		return 0, errors.Wrapf(codecutil.ErrSmallBuffer, "need %d bytes, have %d", size, len(dst))
	}
	copy(dst, frame[*pos:*pos+size])
	*pos += size
	return size, nil
}

// checkCompatible returns an error if d cannot be multiplexed with first.
func checkCompatible(first, d AudioDescriptor) error {
	if d.AudioSamplingRate != first.AudioSamplingRate {
		return errors.Wrapf(codecutil.ErrFormat, "sample rate %v does not match %v", d.AudioSamplingRate, first.AudioSamplingRate)
	}
	if d.QuantizationBits != first.QuantizationBits {
		return errors.Wrapf(codecutil.ErrFormat, "quantization bits %d do not match %d", d.QuantizationBits, first.QuantizationBits)
	}
	return nil
}

// closeAll closes every source, returning the first error.
func closeAll(srcs []Source) error {
	var first error
	for _, s := range srcs {
		err := s.Close()
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}
