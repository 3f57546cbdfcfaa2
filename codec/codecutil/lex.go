/*
NAME
  lex.go

DESCRIPTION
  lex.go provides ByteLexer, which feeds a stream to a writer in fixed size
  chunks. Stream parsers that keep state between calls implement io.Writer
  and are driven by a ByteLexer.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package codecutil

import (
	"fmt"
	"io"
)

// DefaultChunkSize is a typical file read size.
const DefaultChunkSize = 4 << 10

// ByteLexer is used to lex bytes using a buffer size which is configured upon construction.
type ByteLexer struct {
	bufSize int
}

// NewByteLexer returns a pointer to a ByteLexer with the given buffer size.
func NewByteLexer(s int) (*ByteLexer, error) {
	if s <= 0 {
		return nil, fmt.Errorf("invalid buffer size: %v", s)
	}
	return &ByteLexer{bufSize: s}, nil
}

// Lex reads l.bufSize bytes at a time from src and writes them to dst until
// src is exhausted, at which point io.EOF is returned. An error from dst is
// returned unwrapped so that callers can match sentinel values.
func (l *ByteLexer) Lex(dst io.Writer, src io.Reader) error {
	buf := make([]byte, l.bufSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			_, werr := dst.Write(buf[:n])
			if werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return io.EOF
		}
		if err != nil {
			return fmt.Errorf("could not read source: %w", err)
		}
	}
}
