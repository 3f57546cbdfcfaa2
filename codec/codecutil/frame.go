/*
NAME
  frame.go

DESCRIPTION
  frame.go provides FrameBuffer, a reusable buffer holding a single frame of
  essence, and Rational for edit and sample rates.

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

	"github.com/pkg/errors"
)

// Rational is a ratio used for edit rates and sample rates.
type Rational struct {
	Numerator   int
	Denominator int
}

// Common edit rates.
var (
	EditRate24 = Rational{24, 1}
	EditRate25 = Rational{25, 1}
	EditRate48 = Rational{48, 1}
)

// Quotient returns the value of the ratio, or 0 if the denominator is 0.
func (r Rational) Quotient() float64 {
	if r.Denominator == 0 {
		return 0
	}
	return float64(r.Numerator) / float64(r.Denominator)
}

func (r Rational) String() string { return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator) }

// FrameBuffer holds one frame of essence. The backing array is allocated once
// and reused by successive reads; Size never exceeds Capacity.
type FrameBuffer struct {
	buf  []byte
	size int

	// PlaintextOffset is the offset into the frame at which encryption starts.
	// Bytes before it (e.g. a codestream header) are left in the clear.
	PlaintextOffset int

	// FrameNumber is assigned by the parser that last filled the buffer.
	FrameNumber int
}

// NewFrameBuffer returns a FrameBuffer with the given capacity.
func NewFrameBuffer(capacity int) *FrameBuffer {
	return &FrameBuffer{buf: make([]byte, capacity)}
}

// Capacity returns the allocated size of the buffer.
func (fb *FrameBuffer) Capacity() int { return len(fb.buf) }

// SetCapacity grows the buffer to hold at least n bytes. Existing content is
// preserved; the buffer never shrinks.
func (fb *FrameBuffer) SetCapacity(n int) {
	if n <= len(fb.buf) {
		return
	}
	b := make([]byte, n)
	copy(b, fb.buf[:fb.size])
	fb.buf = b
}

// Size returns the length of valid data in the buffer.
func (fb *FrameBuffer) Size() int { return fb.size }

// SetSize sets the length of valid data. Sizes past capacity are refused.
func (fb *FrameBuffer) SetSize(n int) error {
	if n < 0 || n > len(fb.buf) {
		return errors.Wrapf(ErrSmallBuffer, "size %d exceeds capacity %d", n, len(fb.buf))
	}
	fb.size = n
	return nil
}

// Bytes returns the valid data in the buffer.
func (fb *FrameBuffer) Bytes() []byte { return fb.buf[:fb.size] }

// Data returns the whole backing array for writing. Callers must follow a
// write with SetSize.
func (fb *FrameBuffer) Data() []byte { return fb.buf }

// Reset clears the size, plaintext offset and frame number.
func (fb *FrameBuffer) Reset() {
	fb.size = 0
	fb.PlaintextOffset = 0
	fb.FrameNumber = 0
}
