/*
NAME
  silence.go

DESCRIPTION
  silence.go provides Silence, a PCM source of zero samples.

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

// Silence is a Source of silent channels. It never runs out.
type Silence struct {
	desc AudioDescriptor
}

// NewSilence returns a Silence source of the given shape.
func NewSilence(channels, bits int, sampleRate, editRate codecutil.Rational) *Silence {
	return &Silence{desc: newDescriptor(channels, bits, sampleRate, editRate)}
}

// Descriptor implements Source.
func (s *Silence) Descriptor() AudioDescriptor { return s.desc }

// ReadFrame implements Source. There is nothing to fetch.
func (s *Silence) ReadFrame() error { return nil }

// PutSample implements Source by zero filling n channels.
func (s *Silence) PutSample(n int, dst []byte) (int, error) {
	size := n * s.desc.BytesPerSample()
	if size > len(dst) {
		return 0, errors.Wrapf(codecutil.ErrSmallBuffer, "need %d bytes, have %d", size, len(dst))
	}
	clear(dst[:size])
	return size, nil
}

// Reset implements Source.
func (s *Silence) Reset() error { return nil }

// Close implements Source.
func (s *Silence) Close() error { return nil }
