/*
NAME
  bitreader.go

DESCRIPTION
  bitreader.go provides a bit reader that can read, peek or skip bits from an
  io.Reader data source, most significant bit first.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bits provides a bit reader for the fixed length fields of video
// headers.
package bits

import (
	"bufio"
	"io"
)

// maxBits is the most bits a single read or peek may return.
const maxBits = 57

type bytePeeker interface {
	io.ByteReader
	Peek(int) ([]byte, error)
}

// BitReader reads bits from an io.Reader source.
type BitReader struct {
	r     bytePeeker
	n     uint64 // Buffered bits, right aligned.
	bits  int    // Number of valid bits in n.
	nRead int
}

// NewBitReader returns a new BitReader.
func NewBitReader(r io.Reader) *BitReader {
	byter, ok := r.(bytePeeker)
	if !ok {
		byter = bufio.NewReader(r)
	}
	return &BitReader{r: byter}
}

// ReadBits reads n bits, n at most 57, from the source and returns them in
// the least significant part of a uint64.
// For example, with a source of []byte{0x8f, 0xe3} (1000 1111, 1110 0011),
// consecutive reads of 4, 2, 4 and 6 bits give 0x8, 0x3, 0xf and 0x23.
func (br *BitReader) ReadBits(n int) (uint64, error) {
	if n > maxBits {
		return 0, io.ErrShortBuffer
	}
	for n > br.bits {
		b, err := br.r.ReadByte()
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		if err != nil {
			return 0, err
		}
		br.nRead++
		br.n = br.n<<8 | uint64(b)
		br.bits += 8
	}
	r := (br.n >> uint(br.bits-n)) & (1<<uint(n) - 1)
	br.bits -= n
	br.n &= 1<<uint(br.bits) - 1
	return r, nil
}

// ReadFlag reads a single bit as a bool.
func (br *BitReader) ReadFlag() (bool, error) {
	b, err := br.ReadBits(1)
	return b == 1, err
}

// SkipBits discards n bits.
func (br *BitReader) SkipBits(n int) error {
	for n > 0 {
		k := min(n, maxBits)
		_, err := br.ReadBits(k)
		if err != nil {
			return err
		}
		n -= k
	}
	return nil
}

// PeekBits returns the next n bits, n at most 57, in the least significant
// part of a uint64 without advancing through the source.
// For example, with a source of []byte{0x8f, 0xe3}, peeks of 4, 8 and 16
// bits give 0x8, 0x8f and 0x8fe3.
func (br *BitReader) PeekBits(n int) (uint64, error) {
	if n > maxBits {
		return 0, io.ErrShortBuffer
	}
	v, bits := br.n, br.bits
	if n > bits {
		byt, err := br.r.Peek((n - bits + 7) / 8)
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		if err != nil {
			return 0, err
		}
		for _, b := range byt {
			v = v<<8 | uint64(b)
			bits += 8
		}
	}
	return (v >> uint(bits-n)) & (1<<uint(n) - 1), nil
}

// ByteAligned returns true if the reader position is at the start of a byte,
// and false otherwise.
func (br *BitReader) ByteAligned() bool {
	return br.bits == 0
}

// Off returns the number of bits left unread in the current byte.
func (br *BitReader) Off() int {
	return br.bits
}

// BytesRead returns the number of bytes that have been read by the BitReader.
func (br *BitReader) BytesRead() int {
	return br.nRead
}
