/*
NAME
  codestream.go

DESCRIPTION
  codestream.go provides CodestreamParser, which reads a single JPEG 2000
  codestream file into a frame buffer.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package jp2k

import (
	"io"
	"io/fs"
	"os"

	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
)

// CodestreamParser reads whole codestream files and parses their main header.
// The zero value is ready to use.
type CodestreamParser struct {
	desc PictureDescriptor
}

// OpenReadFrame reads the codestream file at path into fb and parses its
// header. On success fb holds the whole file and fb.PlaintextOffset marks the
// first byte of tile data.
func (c *CodestreamParser) OpenReadFrame(path string, fb *codecutil.FrameBuffer) error {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(codecutil.ErrNotFound, "%s", path)
	}
	if err != nil {
		return errors.Wrap(err, "could not stat codestream")
	}
	size := fi.Size()
	if int64(fb.Capacity()) < size {
		return errors.Wrapf(codecutil.ErrSmallBuffer, "%s needs %d bytes, have %d", path, size, fb.Capacity())
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "could not open codestream")
	}
	defer f.Close()

	n, err := io.ReadFull(f, fb.Data()[:size])
	if err != nil {
		return errors.Wrapf(err, "could not read %s", path)
	}
	err = fb.SetSize(n)
	if err != nil {
		return err
	}

	c.desc = PictureDescriptor{
		EditRate:   codecutil.EditRate24,
		SampleRate: codecutil.EditRate24,
	}
	start, err := ParseMetadataIntoDesc(fb.Bytes(), &c.desc)
	if err != nil {
		return errors.Wrapf(err, "could not parse %s", path)
	}
	fb.PlaintextOffset = start
	return nil
}

// PictureDescriptor returns the descriptor of the last codestream read.
func (c *CodestreamParser) PictureDescriptor() PictureDescriptor { return c.desc }
