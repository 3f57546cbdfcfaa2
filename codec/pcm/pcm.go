/*
NAME
  pcm.go

DESCRIPTION
  pcm.go provides the audio descriptor shared by PCM sources and the frame
  size calculations derived from it.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pcm provides reading of WAV and AIFF PCM audio, synthetic silence
// and sync tone sources, and frame synchronous multiplexing of many sources
// into one stream.
package pcm

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
)

// SampleFormat is the format of the samples in a frame.
type SampleFormat int

// Used to represent an unknown format.
const (
	Unknown SampleFormat = -1
)

// Sample formats produced by the sources. Samples are always little endian
// once read.
const (
	S16_LE SampleFormat = iota
	S24_LE
	S32_LE
)

// String returns the string representation of a SampleFormat.
func (f SampleFormat) String() string {
	switch f {
	case S16_LE:
		return "S16_LE"
	case S24_LE:
		return "S24_LE"
	case S32_LE:
		return "S32_LE"
	default:
		return "Unknown"
	}
}

// SFFromString takes a string representing a sample format and returns the corresponding SampleFormat.
func SFFromString(s string) (SampleFormat, error) {
	switch s {
	case "S16_LE":
		return S16_LE, nil
	case "S24_LE":
		return S24_LE, nil
	case "S32_LE":
		return S32_LE, nil
	default:
		return Unknown, errors.Errorf("unknown sample format (%s)", s)
	}
}

// ChannelFormat describes the layout of the channels in a stream.
type ChannelFormat int

// Channel layouts.
const (
	ChannelFormatNone ChannelFormat = iota
	ChannelFormat51
	ChannelFormat61
	ChannelFormat71
	ChannelFormat71DS
	ChannelFormatAtmos
)

// AudioDescriptor describes a PCM stream.
type AudioDescriptor struct {
	EditRate          codecutil.Rational
	AudioSamplingRate codecutil.Rational
	Locked            bool
	ChannelCount      int
	QuantizationBits  int
	BlockAlign        int // Bytes per sample frame across all channels.
	AvgBps            int
	LinkedTrackID     int
	ContainerDuration int // Frames. Zero for unbounded sources.
	ChannelFormat     ChannelFormat
}

// SampleFormat returns the format of the samples described by d.
func (d AudioDescriptor) SampleFormat() SampleFormat {
	switch d.QuantizationBits {
	case 16:
		return S16_LE
	case 24:
		return S24_LE
	case 32:
		return S32_LE
	default:
		return Unknown
	}
}

// BytesPerSample returns the size of one channel's sample.
func (d AudioDescriptor) BytesPerSample() int { return (d.QuantizationBits + 7) / 8 }

func (d AudioDescriptor) String() string {
	return fmt.Sprintf("%d ch %s @ %v Hz, %v fps", d.ChannelCount, d.SampleFormat(), d.AudioSamplingRate, d.EditRate)
}

// newDescriptor returns a descriptor for a stream of the given shape.
func newDescriptor(channels, bits int, sampleRate, editRate codecutil.Rational) AudioDescriptor {
	d := AudioDescriptor{
		EditRate:          editRate,
		AudioSamplingRate: sampleRate,
		Locked:            true,
		ChannelCount:      channels,
		QuantizationBits:  bits,
	}
	d.BlockAlign = channels * d.BytesPerSample()
	d.AvgBps = ceilRate(sampleRate) * d.BlockAlign
	return d
}

// ceilRate returns the sample rate rounded up to a whole number.
func ceilRate(r codecutil.Rational) int {
	if r.Denominator == 0 {
		return 0
	}
	return (r.Numerator + r.Denominator - 1) / r.Denominator
}

// CalcSamplesPerFrame returns the number of sample frames in one edit unit,
// rounded up.
func CalcSamplesPerFrame(d AudioDescriptor) int {
	num := int64(d.AudioSamplingRate.Numerator) * int64(d.EditRate.Denominator)
	den := int64(d.AudioSamplingRate.Denominator) * int64(d.EditRate.Numerator)
	if den == 0 {
		return 0
	}
	return int((num + den - 1) / den)
}

// CalcFrameBufferSize returns the size in bytes of one edit unit of audio.
func CalcFrameBufferSize(d AudioDescriptor) int {
	return CalcSamplesPerFrame(d) * d.BlockAlign
}
