/*
NAME
  wrap.go

DESCRIPTION
  wrap.go provides the Wrapper, which reads essence frame by frame,
  optionally encrypts and signs each frame, and hands the frames to a Writer.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package wrap reads JPEG 2000, PCM and MPEG-2 essence one frame at a time
// and passes plain or encrypted frames to a Writer.
package wrap

import (
	"context"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
	"github.com/ausocean/dcp/codec/jp2k"
	"github.com/ausocean/dcp/codec/mpeg2"
	"github.com/ausocean/dcp/codec/pcm"
	"github.com/ausocean/dcp/crypt"
	"github.com/ausocean/dcp/wrap/config"
)

// defaultPictureSize is the initial frame buffer size for MPEG-2 pictures,
// whose size is not known until they are read. The buffer grows as needed.
const defaultPictureSize = 1 << 20

// frameReader is implemented by every essence parser.
type frameReader interface {
	ReadFrame(fb *codecutil.FrameBuffer) error
	Close() error
}

// Writer receives the frames of a wrap job. mic is the integrity value of
// an encrypted frame, or nil.
type Writer interface {
	WriteFrame(fb *codecutil.FrameBuffer, mic []byte) error
	Close() error
}

// Wrapper reads the essence named by a Config and writes its frames.
type Wrapper struct {
	cfg       config.Config
	log       logging.Logger
	essence   string
	r         frameReader
	frameSize int
	audio     *pcm.AudioDescriptor
	enc       *crypt.AESEncContext
	mic       *crypt.HMACContext
	frames    int
}

// New validates cfg and opens its essence. The essence type is detected
// from the first input file if the config does not name one. PCM is mixed
// as Atmos whenever the config asks for it.
func New(cfg config.Config) (*Wrapper, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	w := &Wrapper{cfg: cfg, log: cfg.Logger, essence: cfg.EssenceType}

	if w.essence == codecutil.Unknown {
		w.essence, err = codecutil.SniffFile(cfg.InputPaths[0])
		if err != nil {
			return nil, err
		}
		if w.essence == codecutil.Unknown {
			return nil, errors.Wrapf(codecutil.ErrRawEssence, "could not detect essence type of %s", cfg.InputPaths[0])
		}
		w.log.Info("detected essence type", "type", w.essence, "path", cfg.InputPaths[0])
	}
	if w.essence == codecutil.PCM && cfg.MixAtmos {
		w.essence = codecutil.Atmos
	}

	err = w.open()
	if err != nil {
		return nil, err
	}

	if cfg.Encrypt {
		err = w.initCrypto()
		if err != nil {
			w.r.Close()
			return nil, err
		}
	}
	return w, nil
}

// open opens the parser for the essence type.
func (w *Wrapper) open() error {
	switch w.essence {
	case codecutil.JP2K:
		p := jp2k.NewSequenceParser(w.log)
		var err error
		if len(w.cfg.InputPaths) == 1 {
			err = p.OpenRead(w.cfg.InputPaths[0], w.cfg.Pedantic)
		} else {
			err = p.OpenReadList(w.cfg.InputPaths, w.cfg.Pedantic)
		}
		if err != nil {
			return errors.Wrap(err, "could not open codestreams")
		}
		w.frameSize, err = p.MaxFrameSize()
		if err != nil {
			p.Close()
			return err
		}
		w.r = p

	case codecutil.PCM:
		l := pcm.NewParserList(w.log)
		err := l.OpenRead(w.cfg.InputPaths, w.cfg.EditRate)
		if err != nil {
			return errors.Wrap(err, "could not open audio")
		}
		d := l.Descriptor()
		w.audio = &d
		w.frameSize = pcm.CalcFrameBufferSize(d)
		w.r = l

	case codecutil.Atmos:
		options := []func(*pcm.Mixer) error{
			pcm.TargetChannels(int(w.cfg.TargetChannels)),
			pcm.SyncUUID(w.cfg.SyncUUID),
		}
		if w.cfg.SyncChannel != 0 {
			options = append(options, pcm.SyncChannel(int(w.cfg.SyncChannel)))
		}
		m, err := pcm.NewMixer(w.log, options...)
		if err != nil {
			return err
		}
		err = m.OpenRead(w.cfg.InputPaths, w.cfg.EditRate)
		if err != nil {
			return errors.Wrap(err, "could not open audio for mixing")
		}
		d := m.Descriptor()
		w.audio = &d
		w.frameSize = pcm.CalcFrameBufferSize(d)
		w.r = m

	case codecutil.MPEG2, codecutil.MPEGTS:
		if len(w.cfg.InputPaths) != 1 {
			return errors.Wrapf(codecutil.ErrConfig, "MPEG-2 essence takes one input, have %d", len(w.cfg.InputPaths))
		}
		p := mpeg2.NewFrameParser(w.log)
		err := p.OpenRead(w.cfg.InputPaths[0])
		if err != nil {
			return errors.Wrap(err, "could not open video")
		}
		w.frameSize = defaultPictureSize
		w.r = p

	default:
		return errors.Wrapf(codecutil.ErrConfig, "unsupported essence type %q", w.essence)
	}
	return nil
}

// initCrypto sets up the encryption and integrity contexts from the key.
func (w *Wrapper) initCrypto() error {
	w.enc = &crypt.AESEncContext{}
	err := w.enc.InitKey(w.cfg.Key)
	if err != nil {
		return err
	}
	w.mic = &crypt.HMACContext{}
	err = w.mic.InitKey(w.cfg.Key, w.cfg.LabelSet)
	if err != nil {
		return err
	}
	w.log.Info("encryption enabled", "labelset", w.cfg.LabelSet.String())
	return nil
}

// Essence returns the type of essence being wrapped.
func (w *Wrapper) Essence() string { return w.essence }

// AudioDescriptor returns the descriptor of PCM essence. ok is false for
// other essence types.
func (w *Wrapper) AudioDescriptor() (d pcm.AudioDescriptor, ok bool) {
	if w.audio == nil {
		return pcm.AudioDescriptor{}, false
	}
	return *w.audio, true
}

// Frames returns the number of frames written.
func (w *Wrapper) Frames() int { return w.frames }

// Run reads every frame and writes it to out. Cancellation of ctx is
// checked between frames.
func (w *Wrapper) Run(ctx context.Context, out Writer) error {
	if w.r == nil {
		return codecutil.ErrUninitialized
	}
	fb := codecutil.NewFrameBuffer(w.frameSize)
	var esv *codecutil.FrameBuffer
	if w.enc != nil {
		esv = codecutil.NewFrameBuffer(crypt.CalcESVLength(w.frameSize, 0))
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Warning("wrap cancelled", "frames", w.frames)
			return ctx.Err()
		default:
		}

		err := w.r.ReadFrame(fb)
		switch {
		case errors.Is(err, codecutil.ErrEndOfStream):
			w.log.Info("wrap complete", "essence", w.essence, "frames", w.frames)
			return nil
		case errors.Is(err, codecutil.ErrSmallBuffer):
			n := max(2*fb.Capacity(), codecutil.DefaultChunkSize)
			w.log.Debug("growing frame buffer", "capacity", n)
			fb.SetCapacity(n)
			continue
		case err != nil:
			return errors.Wrapf(err, "could not read frame %d", w.frames)
		}

		frame, mic := fb, []byte(nil)
		if w.enc != nil {
			frame, mic, err = w.encrypt(fb, esv)
			if err != nil {
				return errors.Wrapf(err, "could not encrypt frame %d", fb.FrameNumber)
			}
		}

		err = out.WriteFrame(frame, mic)
		if err != nil {
			return errors.Wrapf(err, "could not write frame %d", fb.FrameNumber)
		}
		w.frames++
	}
}

// encrypt encrypts fb into esv under a fresh random IV.
func (w *Wrapper) encrypt(fb, esv *codecutil.FrameBuffer) (*codecutil.FrameBuffer, []byte, error) {
	esv.SetCapacity(crypt.CalcESVLength(fb.Size(), fb.PlaintextOffset))
	var iv [crypt.BlockSize]byte
	err := crypt.FillRandom(iv[:])
	if err != nil {
		return nil, nil, err
	}
	err = w.enc.SetIVec(iv[:])
	if err != nil {
		return nil, nil, err
	}
	mic, err := crypt.EncryptFrameBuffer(fb, esv, w.enc, w.mic)
	if err != nil {
		return nil, nil, err
	}
	return esv, mic, nil
}

// Close closes the essence parser.
func (w *Wrapper) Close() error {
	if w.r == nil {
		return nil
	}
	err := w.r.Close()
	w.r = nil
	return err
}
