/*
NAME
  mixer.go

DESCRIPTION
  mixer.go provides Mixer, which multiplexes PCM sources into a fixed
  immersive channel layout with a sync channel and silent padding.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pcm

import (
	"github.com/ausocean/utils/logging"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
)

// Mixer defaults.
const (
	DefaultTargetChannels = 16
)

// Mixer lays the channels of its sources out in a fixed number of output
// channels. Channels before the sync channel are filled from the sources in
// order, with a source that spans the sync channel split around it. Unused
// channels are silent.
type Mixer struct {
	log         logging.Logger
	target      int
	syncChannel int // 1-based.
	syncID      uuid.UUID

	sources []Source
	outputs []output
	desc    AudioDescriptor
	frames  int
}

// TargetChannels is an option for NewMixer setting the number of output
// channels. The default is DefaultTargetChannels.
func TargetChannels(n int) func(*Mixer) error {
	return func(m *Mixer) error {
		if n < 1 {
			return errors.Wrapf(codecutil.ErrConfig, "invalid target channel count %d", n)
		}
		m.target = n
		return nil
	}
}

// SyncChannel is an option for NewMixer setting the 1-based output channel
// carrying the sync signal. The default is the last channel.
func SyncChannel(n int) func(*Mixer) error {
	return func(m *Mixer) error {
		if n < 1 {
			return errors.Wrapf(codecutil.ErrConfig, "invalid sync channel %d", n)
		}
		m.syncChannel = n
		return nil
	}
}

// SyncUUID is an option for NewMixer setting the asset identifier carried by
// the sync signal. By default a random identifier is used.
func SyncUUID(id uuid.UUID) func(*Mixer) error {
	return func(m *Mixer) error {
		m.syncID = id
		return nil
	}
}

// NewMixer returns a Mixer configured by options.
func NewMixer(l logging.Logger, options ...func(*Mixer) error) (*Mixer, error) {
	m := &Mixer{log: l, target: DefaultTargetChannels}
	for _, o := range options {
		err := o(m)
		if err != nil {
			return nil, err
		}
	}
	if m.syncChannel == 0 {
		m.syncChannel = m.target
	}
	if m.syncChannel > m.target {
		return nil, errors.Wrapf(codecutil.ErrConfig, "sync channel %d beyond %d channels", m.syncChannel, m.target)
	}
	if m.syncID == uuid.Nil {
		m.syncID = uuid.New()
	}
	return m, nil
}

// OpenRead opens the WAV or AIFF files named by paths, or the files of a
// single directory, at the given edit rate.
func (m *Mixer) OpenRead(paths []string, editRate codecutil.Rational) error {
	srcs, err := openFiles(paths, editRate)
	if err != nil {
		return err
	}
	return m.OpenSources(srcs)
}

// OpenSources takes ownership of srcs and plans the output channel layout.
// On failure every source is closed.
func (m *Mixer) OpenSources(srcs []Source) error {
	if len(srcs) == 0 {
		return errors.Wrap(codecutil.ErrNotFound, "no sources")
	}
	first := srcs[0].Descriptor()
	for i, s := range srcs {
		err := checkCompatible(first, s.Descriptor())
		if err != nil {
			closeAll(srcs)
			return errors.Wrapf(err, "source %d", i)
		}
	}

	sync := NewSyncGenerator(m.syncID, first.QuantizationBits, first.AudioSamplingRate, first.EditRate)
	outputs, silent, err := m.plan(srcs, sync)
	if err != nil {
		closeAll(srcs)
		return err
	}

	owned := append([]Source{}, srcs...)
	owned = append(owned, sync)
	if silent != nil {
		owned = append(owned, silent)
	}

	desc := newDescriptor(m.target, first.QuantizationBits, first.AudioSamplingRate, first.EditRate)
	desc.ChannelFormat = ChannelFormatAtmos
	for _, s := range srcs {
		d := s.Descriptor().ContainerDuration
		if d > 0 && (desc.ContainerDuration == 0 || d < desc.ContainerDuration) {
			desc.ContainerDuration = d
		}
	}

	m.sources = owned
	m.outputs = outputs
	m.desc = desc
	m.frames = 0
	m.log.Info("opened atmos mixer", "sources", len(srcs), "channels", m.target, "sync", m.syncChannel, "uuid", m.syncID.String())
	return nil
}

// plan returns the ordered output contributions filling m.target channels.
// Silent channels share one Silence source, which is returned if used.
func (m *Mixer) plan(srcs []Source, sync *SyncGenerator) ([]output, *Silence, error) {
	var (
		outputs []output
		count   int
		synced  bool
	)
	for i, s := range srcs {
		c := s.Descriptor().ChannelCount
		need := count + c
		if !synced {
			need++
		}
		if need > m.target {
			return nil, nil, errors.Wrapf(codecutil.ErrConfig, "source %d brings channel count to %d, more than %d", i, need, m.target)
		}

		before := m.syncChannel - 1 - count
		if synced || c <= before {
			outputs = append(outputs, output{src: s, channels: c})
			count += c
			continue
		}

		// This source reaches the sync channel. Only one source can, since
		// every later source follows the sync channel.
		if before > 0 {
			outputs = append(outputs, output{src: s, channels: before})
		}
		outputs = append(outputs, output{src: sync, channels: 1})
		if after := c - before; after > 0 {
			outputs = append(outputs, output{src: s, channels: after})
		}
		m.log.Debug("sync channel placed within source", "source", i, "before", before, "after", c-before)
		count += c + 1
		synced = true
	}

	var silent *Silence
	silence := func(n int) {
		if n <= 0 {
			return
		}
		if silent == nil {
			d := sync.Descriptor()
			silent = NewSilence(1, d.QuantizationBits, d.AudioSamplingRate, d.EditRate)
		}
		outputs = append(outputs, output{src: silent, channels: n})
		count += n
	}

	if !synced {
		silence(m.syncChannel - 1 - count)
		outputs = append(outputs, output{src: sync, channels: 1})
		count++
	}
	silence(m.target - count)

	if count != m.target {
		return nil, nil, errors.Wrapf(codecutil.ErrConfig, "planned %d channels, want %d", count, m.target)
	}
	return outputs, silent, nil
}

// Descriptor returns the descriptor of the mixed stream.
func (m *Mixer) Descriptor() AudioDescriptor { return m.desc }

// Layout returns the kind of source feeding each output channel: "source",
// "sync" or "silence".
func (m *Mixer) Layout() []string {
	var l []string
	for _, o := range m.outputs {
		var kind string
		switch o.src.(type) {
		case *SyncGenerator:
			kind = "sync"
		case *Silence:
			kind = "silence"
		default:
			kind = "source"
		}
		for i := 0; i < o.channels; i++ {
			l = append(l, kind)
		}
	}
	return l
}

// ReadFrame reads one frame from every source and lays their channels out
// in fb. If fb cannot hold a frame codecutil.ErrSmallBuffer is returned and
// nothing is read or written.
func (m *Mixer) ReadFrame(fb *codecutil.FrameBuffer) error {
	if m.sources == nil {
		return codecutil.ErrUninitialized
	}
	return readFrame(m.sources, m.outputs, m.desc, &m.frames, fb)
}

// Reset rewinds every source, including the sync signal.
func (m *Mixer) Reset() error {
	for i, s := range m.sources {
		err := s.Reset()
		if err != nil {
			return errors.Wrapf(err, "could not reset source %d", i)
		}
	}
	m.frames = 0
	return nil
}

// Close closes every source.
func (m *Mixer) Close() error {
	err := closeAll(m.sources)
	m.sources = nil
	m.outputs = nil
	return err
}
