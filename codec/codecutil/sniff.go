/*
NAME
  sniff.go

DESCRIPTION
  sniff.go provides essence type detection from leading bytes, and directory
  listing for frame sequences.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package codecutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// sniffLen is the number of leading bytes read by SniffFile.
const sniffLen = 512

const tsPacketSize = 188

// Sniff returns the essence type of the data beginning with p, or Unknown.
func Sniff(p []byte) string {
	switch {
	case len(p) >= 4 && p[0] == 0xff && p[1] == 0x4f && p[2] == 0xff && p[3] == 0x51:
		return JP2K // SOC followed by SIZ.
	case len(p) >= 12 && bytes.Equal(p[0:4], []byte("RIFF")) && bytes.Equal(p[8:12], []byte("WAVE")):
		return PCM
	case len(p) >= 12 && bytes.Equal(p[0:4], []byte("FORM")) &&
		(bytes.Equal(p[8:12], []byte("AIFF")) || bytes.Equal(p[8:12], []byte("AIFC"))):
		return PCM
	case len(p) >= 4 && p[0] == 0 && p[1] == 0 && p[2] == 1 && p[3] == 0xb3:
		return MPEG2 // Sequence header.
	case len(p) > 0 && p[0] == 0x47 && (len(p) <= tsPacketSize || p[tsPacketSize] == 0x47):
		return MPEGTS
	default:
		return Unknown
	}
}

// SniffFile returns the essence type of the file at path. If path is a
// directory, the first file in ListDir order is examined.
func SniffFile(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Unknown, errors.Wrapf(ErrNotFound, "%s: %v", path, err)
	}
	if fi.IsDir() {
		names, err := ListDir(path)
		if err != nil {
			return Unknown, err
		}
		if len(names) == 0 {
			return Unknown, errors.Wrapf(ErrNotFound, "no files in %s", path)
		}
		path = names[0]
	}

	f, err := os.Open(path)
	if err != nil {
		return Unknown, errors.Wrapf(ErrNotFound, "%s: %v", path, err)
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Unknown, errors.Wrapf(err, "could not read %s", path)
	}
	return Sniff(buf[:n]), nil
}

// ListDir returns the paths of the non-hidden regular entries of dir in
// lexicographic order.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "%s", dir)
		}
		return nil, errors.Wrapf(err, "could not read directory %s", dir)
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") || e.IsDir() {
			continue
		}
		names = append(names, filepath.Join(dir, e.Name()))
	}
	sort.Strings(names)
	return names, nil
}

// IsDir reports whether path names an existing directory.
func IsDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
