/*
NAME
  list.go

DESCRIPTION
  list.go provides ParserList, which reads a set of PCM sources in lock step
  and interleaves them into one multichannel stream.

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
	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
)

// ParserList multiplexes PCM sources frame by frame. Sources must share a
// sample rate and sample size; their channels are laid side by side in the
// order the sources are given.
type ParserList struct {
	log     logging.Logger
	sources []Source
	outputs []output
	desc    AudioDescriptor
	frames  int
}

// NewParserList returns a ParserList logging to l.
func NewParserList(l logging.Logger) *ParserList {
	return &ParserList{log: l}
}

// ExpandPaths returns the files of paths. A single directory is replaced by
// its non-hidden files in lexicographic order.
func ExpandPaths(paths []string) ([]string, error) {
	if len(paths) == 1 && codecutil.IsDir(paths[0]) {
		return codecutil.ListDir(paths[0])
	}
	return paths, nil
}

// openFiles opens each file as a FileSource. On failure every file opened is
// closed.
func openFiles(paths []string, editRate codecutil.Rational) ([]Source, error) {
	paths, err := ExpandPaths(paths)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.Wrap(codecutil.ErrNotFound, "no audio files")
	}
	var srcs []Source
	for _, p := range paths {
		s, err := OpenFile(p, editRate)
		if err != nil {
			closeAll(srcs)
			return nil, err
		}
		srcs = append(srcs, s)
	}
	return srcs, nil
}

// OpenRead opens the WAV or AIFF files named by paths, or the files of a
// single directory, at the given edit rate.
func (l *ParserList) OpenRead(paths []string, editRate codecutil.Rational) error {
	srcs, err := openFiles(paths, editRate)
	if err != nil {
		return err
	}
	return l.OpenSources(srcs)
}

// OpenSources takes ownership of srcs. The first source seeds the
// descriptor; the rest must match its sample rate and sample size. On
// failure every source is closed.
func (l *ParserList) OpenSources(srcs []Source) error {
	if len(srcs) == 0 {
		return errors.Wrap(codecutil.ErrNotFound, "no sources")
	}

	first := srcs[0].Descriptor()
	desc := newDescriptor(0, first.QuantizationBits, first.AudioSamplingRate, first.EditRate)
	var outputs []output
	for i, s := range srcs {
		d := s.Descriptor()
		err := checkCompatible(first, d)
		if err != nil {
			closeAll(srcs)
			return errors.Wrapf(err, "source %d", i)
		}
		desc.ChannelCount += d.ChannelCount
		desc.BlockAlign += d.BlockAlign
		if d.ContainerDuration > 0 && (desc.ContainerDuration == 0 || d.ContainerDuration < desc.ContainerDuration) {
			desc.ContainerDuration = d.ContainerDuration
		}
		outputs = append(outputs, output{src: s, channels: d.ChannelCount})
	}
	desc.AvgBps = ceilRate(desc.AudioSamplingRate) * desc.BlockAlign

	l.sources = srcs
	l.outputs = outputs
	l.desc = desc
	l.frames = 0
	l.log.Info("opened pcm sources", "sources", len(srcs), "channels", desc.ChannelCount, "format", desc.String(), "duration", desc.ContainerDuration)
	return nil
}

// Descriptor returns the descriptor of the multiplexed stream.
func (l *ParserList) Descriptor() AudioDescriptor { return l.desc }

// ReadFrame reads one frame from every source and interleaves them into fb.
// If fb cannot hold a frame codecutil.ErrSmallBuffer is returned and nothing
// is read or written.
func (l *ParserList) ReadFrame(fb *codecutil.FrameBuffer) error {
	if l.sources == nil {
		return codecutil.ErrUninitialized
	}
	return readFrame(l.sources, l.outputs, l.desc, &l.frames, fb)
}

// readFrame advances every source and interleaves outputs into fb.
func readFrame(srcs []Source, outputs []output, desc AudioDescriptor, frames *int, fb *codecutil.FrameBuffer) error {
	size := CalcFrameBufferSize(desc)
	if fb.Capacity() < size {
		return errors.Wrapf(codecutil.ErrSmallBuffer, "frame of %d bytes, capacity %d", size, fb.Capacity())
	}
	for i, s := range srcs {
		err := s.ReadFrame()
		if errors.Is(err, codecutil.ErrEndOfStream) {
			return codecutil.ErrEndOfStream
		}
		if err != nil {
			return errors.Wrapf(err, "could not read source %d", i)
		}
	}
	err := interleave(outputs, fb.Data()[:size])
	if err != nil {
		return err
	}
	fb.PlaintextOffset = 0
	fb.FrameNumber = *frames
	*frames++
	return fb.SetSize(size)
}

// Reset rewinds every source.
func (l *ParserList) Reset() error {
	for i, s := range l.sources {
		err := s.Reset()
		if err != nil {
			return errors.Wrapf(err, "could not reset source %d", i)
		}
	}
	l.frames = 0
	return nil
}

// Close closes every source.
func (l *ParserList) Close() error {
	err := closeAll(l.sources)
	l.sources = nil
	l.outputs = nil
	return err
}
