/*
NAME
  sequence.go

DESCRIPTION
  sequence.go provides SequenceParser, which presents a directory or list of
  JPEG 2000 codestream files as a single picture stream.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package jp2k

import (
	"os"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
)

// SequenceParser reads a sequence of codestream files, one frame per file.
type SequenceParser struct {
	log      logging.Logger
	paths    []string
	next     int
	pedantic bool
	desc     PictureDescriptor
	parser   CodestreamParser
}

// NewSequenceParser returns a SequenceParser logging to l.
func NewSequenceParser(l logging.Logger) *SequenceParser {
	return &SequenceParser{log: l}
}

// OpenRead opens the codestreams at path, which is either a directory, whose
// non-hidden files are read in lexicographic order, or a single file. In
// pedantic mode each frame read must be coded identically to the first.
func (s *SequenceParser) OpenRead(path string, pedantic bool) error {
	fi, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(codecutil.ErrNotFound, "%s: %v", path, err)
	}
	paths := []string{path}
	if fi.IsDir() {
		paths, err = codecutil.ListDir(path)
		if err != nil {
			return err
		}
	}
	return s.OpenReadList(paths, pedantic)
}

// OpenReadList opens the codestreams named by paths, in the order given. The
// first file is parsed to seed the picture descriptor.
func (s *SequenceParser) OpenReadList(paths []string, pedantic bool) error {
	if len(paths) == 0 {
		return errors.Wrap(codecutil.ErrNotFound, "empty codestream list")
	}

	// Read the first frame into a scratch buffer sized for it.
	fi, err := os.Stat(paths[0])
	if err != nil {
		return errors.Wrapf(codecutil.ErrNotFound, "%s: %v", paths[0], err)
	}
	fb := codecutil.NewFrameBuffer(int(fi.Size()))
	var p CodestreamParser
	err = p.OpenReadFrame(paths[0], fb)
	if err != nil {
		return err
	}

	s.paths = paths
	s.next = 0
	s.pedantic = pedantic
	s.desc = p.PictureDescriptor()
	s.desc.ContainerDuration = len(paths)
	s.log.Info("opened codestream sequence", "frames", len(paths), "width", s.desc.StoredWidth, "height", s.desc.StoredHeight, "pedantic", pedantic)
	return nil
}

// PictureDescriptor returns the descriptor seeded from the first frame.
func (s *SequenceParser) PictureDescriptor() PictureDescriptor { return s.desc }

// ReadFrame reads the next codestream into fb. Once every file has been read
// codecutil.ErrEndOfStream is returned.
func (s *SequenceParser) ReadFrame(fb *codecutil.FrameBuffer) error {
	if s.paths == nil {
		return codecutil.ErrUninitialized
	}
	if s.next >= len(s.paths) {
		return codecutil.ErrEndOfStream
	}

	path := s.paths[s.next]
	err := s.parser.OpenReadFrame(path, fb)
	if err != nil {
		return err
	}
	if s.pedantic && !s.parser.PictureDescriptor().SameCoding(s.desc) {
		s.log.Warning("frame descriptor differs from first frame", "frame", s.next, "path", path)
		return errors.Wrapf(codecutil.ErrFormat, "descriptor mismatch at frame %d (%s)", s.next, path)
	}
	fb.FrameNumber = s.next
	s.next++
	s.log.Debug("read codestream", "frame", fb.FrameNumber, "size", fb.Size())
	return nil
}

// MaxFrameSize returns the size of the largest file in the sequence, which
// is the capacity a FrameBuffer needs to read every frame.
func (s *SequenceParser) MaxFrameSize() (int, error) {
	var largest int64
	for _, p := range s.paths {
		fi, err := os.Stat(p)
		if err != nil {
			return 0, errors.Wrapf(codecutil.ErrNotFound, "%s: %v", p, err)
		}
		if fi.Size() > largest {
			largest = fi.Size()
		}
	}
	return int(largest), nil
}

// Reset rewinds the sequence to its first frame.
func (s *SequenceParser) Reset() error {
	if s.paths == nil {
		return codecutil.ErrUninitialized
	}
	s.next = 0
	return nil
}

// Close releases the file list.
func (s *SequenceParser) Close() error {
	s.paths = nil
	s.next = 0
	return nil
}
