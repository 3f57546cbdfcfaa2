/*
NAME
  file.go

DESCRIPTION
  file.go provides FileSource, a PCM source reading WAV or AIFF files.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pcm

import (
	"io"
	"io/fs"
	"os"

	"github.com/go-audio/wav"
	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
)

// WAV format tags accepted.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xfffe
)

// FileSource is a Source reading the PCM data of a WAV or AIFF file.
type FileSource struct {
	path      string
	f         *os.File
	desc      AudioDescriptor
	dataStart int64
	dataLen   int64
	remaining int64
	bigEndian bool
	frame     *codecutil.FrameBuffer
	pos       int
	eof       bool
	frames    int
}

// OpenFile opens the WAV or AIFF file at path, to be read in edit units of
// editRate. The header format is detected: WAV is tried first, then AIFF.
func OpenFile(path string, editRate codecutil.Rational) (*FileSource, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(codecutil.ErrNotFound, "%s", path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "could not open audio file")
	}

	s := &FileSource{path: path, f: f}
	err = s.parseWAV(editRate)
	if err != nil {
		_, serr := f.Seek(0, io.SeekStart)
		if serr != nil {
			f.Close()
			return nil, errors.Wrap(serr, "could not rewind audio file")
		}
		aerr := s.parseAIFF(editRate)
		if aerr != nil {
			f.Close()
			return nil, errors.Wrapf(aerr, "%s is neither WAV (%v) nor AIFF", path, err)
		}
	}

	frameSize := CalcFrameBufferSize(s.desc)
	if frameSize <= 0 {
		f.Close()
		return nil, errors.Wrapf(codecutil.ErrFormat, "%s: zero frame size for %v", path, s.desc)
	}
	s.desc.ContainerDuration = int((s.dataLen + int64(frameSize) - 1) / int64(frameSize))
	s.frame = codecutil.NewFrameBuffer(frameSize)
	err = s.Reset()
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// parseWAV reads a RIFF WAVE header, leaving the file at the start of the
// sample data.
func (s *FileSource) parseWAV(editRate codecutil.Rational) error {
	d := wav.NewDecoder(s.f)
	d.ReadInfo()
	if d.Err() != nil {
		return errors.Wrap(codecutil.ErrRawEssence, d.Err().Error())
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return errors.Wrapf(codecutil.ErrFormat, "unsupported WAV format tag %#x", d.WavAudioFormat)
	}
	if d.NumChans == 0 || d.BitDepth == 0 || d.SampleRate == 0 {
		return errors.Wrap(codecutil.ErrFormat, "incomplete WAV format chunk")
	}
	err := d.FwdToPCM()
	if err != nil {
		return errors.Wrapf(codecutil.ErrFormat, "no WAV data chunk: %v", err)
	}
	s.dataStart, err = s.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.Wrap(err, "could not find start of WAV data")
	}
	s.dataLen = d.PCMLen()
	s.bigEndian = false
	s.desc = newDescriptor(int(d.NumChans), int(d.BitDepth), codecutil.Rational{Numerator: int(d.SampleRate), Denominator: 1}, editRate)
	return nil
}

// Descriptor implements Source.
func (s *FileSource) Descriptor() AudioDescriptor { return s.desc }

// Path returns the path of the file being read.
func (s *FileSource) Path() string { return s.path }

// Frame returns the buffer holding the last frame read.
func (s *FileSource) Frame() *codecutil.FrameBuffer { return s.frame }

// ReadFrame implements Source. Exactly one frame is read; a short read at
// the end of the data is zero filled and succeeds, after which
// codecutil.ErrEndOfStream is returned.
func (s *FileSource) ReadFrame() error {
	if s.f == nil {
		return codecutil.ErrUninitialized
	}
	if s.eof || s.remaining == 0 {
		s.eof = true
		return codecutil.ErrEndOfStream
	}

	buf := s.frame.Data()[:s.frame.Capacity()]
	want := int64(len(buf))
	if s.remaining < want {
		want = s.remaining
	}
	n, err := io.ReadFull(s.f, buf[:want])
	if err != nil && err != io.ErrUnexpectedEOF {
		return errors.Wrapf(err, "could not read %s", s.path)
	}
	s.remaining -= int64(n)
	if n < len(buf) {
		clear(buf[n:])
		s.eof = true
	}
	if s.bigEndian {
		swapBytes(buf[:n], s.desc.BytesPerSample())
	}

	s.pos = 0
	s.frame.FrameNumber = s.frames
	s.frames++
	return s.frame.SetSize(len(buf))
}

// PutSample implements Source.
func (s *FileSource) PutSample(n int, dst []byte) (int, error) {
	return putBytes(s.frame.Bytes(), &s.pos, n, s.desc.BytesPerSample(), dst)
}

// Reset implements Source.
func (s *FileSource) Reset() error {
	if s.f == nil {
		return codecutil.ErrUninitialized
	}
	_, err := s.f.Seek(s.dataStart, io.SeekStart)
	if err != nil {
		return errors.Wrapf(err, "could not seek to data in %s", s.path)
	}
	s.remaining = s.dataLen
	s.eof = false
	s.pos = 0
	s.frames = 0
	s.frame.Reset()
	return nil
}

// Close implements Source.
func (s *FileSource) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// swapBytes reverses the byte order of each sample in b.
func swapBytes(b []byte, sampleSize int) {
	for i := 0; i+sampleSize <= len(b); i += sampleSize {
		s := b[i : i+sampleSize]
		for l, r := 0, sampleSize-1; l < r; l, r = l+1, r-1 {
			s[l], s[r] = s[r], s[l]
		}
	}
}
