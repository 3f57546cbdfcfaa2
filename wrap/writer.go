/*
NAME
  writer.go

DESCRIPTION
  writer.go provides Writers for wrapped frames: a file of length prefixed
  frame records, and a WAV file for PCM essence.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package wrap

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
	"github.com/ausocean/dcp/codec/pcm"
	"github.com/ausocean/dcp/codec/wav"
	"github.com/ausocean/dcp/wrap/config"
)

// Frame record layout. Each record is a header of frame number (8 bytes),
// frame size (4), plaintext offset (4) and integrity value size (1),
// followed by the frame and the integrity value. Integers are big endian.
const recordHeaderLen = 8 + 4 + 4 + 1

// FileWriter writes frame records to a file.
type FileWriter struct {
	f   *os.File
	buf *bufio.Writer
}

// NewFileWriter creates the file at path.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not create output file")
	}
	return &FileWriter{f: f, buf: bufio.NewWriter(f)}, nil
}

// WriteFrame implements Writer.
func (w *FileWriter) WriteFrame(fb *codecutil.FrameBuffer, mic []byte) error {
	if len(mic) > 0xff {
		return errors.Errorf("integrity value of %d bytes too long", len(mic))
	}
	var h [recordHeaderLen]byte
	binary.BigEndian.PutUint64(h[0:], uint64(fb.FrameNumber))
	binary.BigEndian.PutUint32(h[8:], uint32(fb.Size()))
	binary.BigEndian.PutUint32(h[12:], uint32(fb.PlaintextOffset))
	h[16] = byte(len(mic))
	for _, b := range [][]byte{h[:], fb.Bytes(), mic} {
		_, err := w.buf.Write(b)
		if err != nil {
			return errors.Wrap(err, "could not write frame record")
		}
	}
	return nil
}

// Close implements Writer.
func (w *FileWriter) Close() error {
	err := w.buf.Flush()
	if err != nil {
		w.f.Close()
		return errors.Wrap(err, "could not flush output file")
	}
	return w.f.Close()
}

// ReadRecord reads the next frame record from r into fb, growing fb as
// needed up to maxSize bytes, and returns its integrity value. io.EOF is
// returned at a clean end of input.
func ReadRecord(r io.Reader, fb *codecutil.FrameBuffer, maxSize int) ([]byte, error) {
	var h [recordHeaderLen]byte
	_, err := io.ReadFull(r, h[:])
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errors.Wrap(codecutil.ErrFormat, "truncated record header")
	}
	size := int(binary.BigEndian.Uint32(h[8:]))
	if size > maxSize {
		return nil, errors.Wrapf(codecutil.ErrFormat, "frame size %d exceeds limit %d", size, maxSize)
	}
	fb.SetCapacity(size)
	_, err = io.ReadFull(r, fb.Data()[:size])
	if err != nil {
		return nil, errors.Wrap(codecutil.ErrFormat, "truncated frame")
	}
	err = fb.SetSize(size)
	if err != nil {
		return nil, err
	}
	fb.FrameNumber = int(binary.BigEndian.Uint64(h[0:]))
	fb.PlaintextOffset = int(binary.BigEndian.Uint32(h[12:]))

	var mic []byte
	if n := int(h[16]); n > 0 {
		mic = make([]byte, n)
		_, err = io.ReadFull(r, mic)
		if err != nil {
			return nil, errors.Wrap(codecutil.ErrFormat, "truncated integrity value")
		}
	}
	return mic, nil
}

// WAVWriter writes plain PCM frames to a WAV file.
type WAVWriter struct {
	f *os.File
	w *wav.Writer
}

// NewWAVWriter creates a WAV file at path for audio described by d.
func NewWAVWriter(path string, d pcm.AudioDescriptor) (*WAVWriter, error) {
	if d.AudioSamplingRate.Denominator != 1 {
		return nil, errors.Wrapf(codecutil.ErrConfig, "sample rate %v is not whole", d.AudioSamplingRate)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not create output file")
	}
	w, err := wav.NewWriter(f, wav.Metadata{
		AudioFormat: wav.PCMFormat,
		Channels:    d.ChannelCount,
		SampleRate:  d.AudioSamplingRate.Numerator,
		BitDepth:    d.QuantizationBits,
	})
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "could not write WAV header")
	}
	return &WAVWriter{f: f, w: w}, nil
}

// WriteFrame implements Writer. Encrypted frames are refused.
func (w *WAVWriter) WriteFrame(fb *codecutil.FrameBuffer, mic []byte) error {
	if mic != nil {
		return errors.Wrap(codecutil.ErrConfig, "WAV output cannot hold encrypted frames")
	}
	_, err := w.w.Write(fb.Bytes())
	return err
}

// Close implements Writer, completing the WAV header.
func (w *WAVWriter) Close() error {
	err := w.w.Close()
	if err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// NewOutput creates the Writer selected by the config the Wrapper was built
// from.
func (w *Wrapper) NewOutput() (Writer, error) {
	switch w.cfg.OutputFormat {
	case config.OutputWAV:
		d, ok := w.AudioDescriptor()
		if !ok {
			return nil, errors.Wrapf(codecutil.ErrConfig, "WAV output needs PCM essence, have %s", w.essence)
		}
		return NewWAVWriter(w.cfg.OutputPath, d)
	default:
		return NewFileWriter(w.cfg.OutputPath)
	}
}
