/*
NAME
  frame_test.go

DESCRIPTION
  frame_test.go provides testing for frame buffer encryption.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package crypt

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ausocean/dcp/codec/codecutil"
)

func TestCalcESVLength(t *testing.T) {
	tests := []struct {
		size, offset, want int
	}{
		{size: 0, offset: 0, want: 48},
		{size: 15, offset: 0, want: 48},
		{size: 16, offset: 0, want: 64},
		{size: 100, offset: 20, want: 20 + 80 + 48},
		{size: 20, offset: 20, want: 68},
	}
	for _, test := range tests {
		if got := CalcESVLength(test.size, test.offset); got != test.want {
			t.Errorf("CalcESVLength(%d, %d) = %d, want %d", test.size, test.offset, got, test.want)
		}
	}
}

// frame returns a FrameBuffer holding size patterned bytes.
func frame(t *testing.T, size, offset, number int) *codecutil.FrameBuffer {
	t.Helper()
	fb := codecutil.NewFrameBuffer(size)
	for i := range fb.Data() {
		fb.Data()[i] = byte(i*31 + 5)
	}
	err := fb.SetSize(size)
	if err != nil {
		t.Fatalf("could not set size: %v", err)
	}
	fb.PlaintextOffset = offset
	fb.FrameNumber = number
	return fb
}

func TestFrameBufferRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeyLen)
	tests := []struct {
		size, offset int
	}{
		{size: 0, offset: 0},
		{size: 1, offset: 0},
		{size: 16, offset: 0},
		{size: 1000, offset: 0},
		{size: 1000, offset: 37},
		{size: 37, offset: 37},
	}

	for _, test := range tests {
		var enc AESEncContext
		var dec AESDecContext
		var encMIC, decMIC HMACContext
		enc.InitKey(key)
		dec.InitKey(key)
		encMIC.InitKey(key, LabelSetSMPTE)
		decMIC.InitKey(key, LabelSetSMPTE)
		enc.SetIVec(bytes.Repeat([]byte{0x11}, BlockSize))

		in := frame(t, test.size, test.offset, 9)
		esv := codecutil.NewFrameBuffer(CalcESVLength(test.size, test.offset))
		mic, err := EncryptFrameBuffer(in, esv, &enc, &encMIC)
		if err != nil {
			t.Fatalf("size %d: could not encrypt: %v", test.size, err)
		}
		if esv.Size() != CalcESVLength(test.size, test.offset) || len(mic) != HMACSize {
			t.Errorf("size %d: unexpected sizes %d and %d", test.size, esv.Size(), len(mic))
		}
		if !bytes.Equal(esv.Bytes()[2*BlockSize:2*BlockSize+test.offset], in.Bytes()[:test.offset]) {
			t.Errorf("size %d: plaintext region not in the clear", test.size)
		}

		out := codecutil.NewFrameBuffer(test.size + 1)
		got, err := DecryptFrameBuffer(esv, out, &dec, &decMIC)
		if err != nil {
			t.Fatalf("size %d: could not decrypt: %v", test.size, err)
		}
		if !bytes.Equal(out.Bytes(), in.Bytes()) {
			t.Errorf("size %d: round trip failed", test.size)
		}
		if out.FrameNumber != 9 || out.PlaintextOffset != test.offset {
			t.Errorf("size %d: frame metadata not carried: %d, %d", test.size, out.FrameNumber, out.PlaintextOffset)
		}
		if !bytes.Equal(got, mic) {
			t.Errorf("size %d: integrity values differ", test.size)
		}
	}
}

func TestFrameBufferChained(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeyLen)
	var enc AESEncContext
	enc.InitKey(key)

	var ivs [][]byte
	for i := 0; i < 2; i++ {
		in := frame(t, 50, 0, i)
		esv := codecutil.NewFrameBuffer(CalcESVLength(50, 0))
		_, err := EncryptFrameBuffer(in, esv, &enc, nil)
		if err != nil {
			t.Fatalf("could not encrypt frame %d: %v", i, err)
		}
		b := esv.Bytes()
		ivs = append(ivs, append([]byte(nil), b[:BlockSize]...))
		if i == 0 {
			next := make([]byte, BlockSize)
			enc.GetIVec(next)
			if !bytes.Equal(next, b[len(b)-BlockSize:]) {
				t.Errorf("chain state is not the last ciphertext block")
			}
		}
	}
	if bytes.Equal(ivs[0], ivs[1]) {
		t.Errorf("chained frames share an IV")
	}
}

func TestFrameBufferErrors(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeyLen)
	var enc AESEncContext
	var dec AESDecContext
	enc.InitKey(key)
	dec.InitKey(bytes.Repeat([]byte{0x43}, KeyLen))

	in := frame(t, 100, 0, 0)
	_, err := EncryptFrameBuffer(in, codecutil.NewFrameBuffer(50), &enc, nil)
	if !errors.Is(err, codecutil.ErrSmallBuffer) {
		t.Errorf("did not get small buffer error. Got: %v", err)
	}

	esv := codecutil.NewFrameBuffer(CalcESVLength(100, 0))
	_, err = EncryptFrameBuffer(in, esv, &enc, nil)
	if err != nil {
		t.Fatalf("could not encrypt: %v", err)
	}
	_, err = DecryptFrameBuffer(esv, codecutil.NewFrameBuffer(100), &dec, nil)
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("did not get integrity error for wrong key. Got: %v", err)
	}

	short := frame(t, 40, 0, 0)
	_, err = DecryptFrameBuffer(short, codecutil.NewFrameBuffer(100), &dec, nil)
	if !errors.Is(err, codecutil.ErrFormat) {
		t.Errorf("did not get format error for short value. Got: %v", err)
	}
}
