/*
NAME
  frame.go

DESCRIPTION
  frame.go provides encryption and decryption of frame buffers in the
  encrypted source value layout, with an optional message integrity check.

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
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
)

// checkValue is encrypted after the IV so a wrong key can be detected.
var checkValue = []byte("CHUKCHUKCHUKCHUK")

// CalcESVLength returns the size of the encrypted source value for a frame
// of size bytes whose first plaintextOffset bytes are left in the clear.
// The value is the IV, the check value, the plaintext, and the remainder
// padded to a whole number of blocks with at least one byte of padding.
func CalcESVLength(size, plaintextOffset int) int {
	ct := size - plaintextOffset
	return plaintextOffset + ct - ct%BlockSize + 3*BlockSize
}

// EncryptFrameBuffer encrypts in into out starting from the current IV of
// enc. If mic is not nil the integrity check over the encrypted value and
// frame number is computed and returned.
func EncryptFrameBuffer(in, out *codecutil.FrameBuffer, enc *AESEncContext, mic *HMACContext) ([]byte, error) {
	if enc == nil {
		return nil, errors.Wrap(codecutil.ErrUninitialized, "no encryption context")
	}
	off := in.PlaintextOffset
	if off < 0 || off > in.Size() {
		return nil, errors.Wrapf(codecutil.ErrFormat, "plaintext offset %d outside frame of %d bytes", off, in.Size())
	}
	size := CalcESVLength(in.Size(), off)
	if out.Capacity() < size {
		return nil, errors.Wrapf(codecutil.ErrSmallBuffer, "encrypted frame needs %d bytes, have %d", size, out.Capacity())
	}

	src := in.Bytes()
	p := out.Data()[:size]
	err := enc.GetIVec(p)
	if err != nil {
		return nil, err
	}
	w := BlockSize
	err = enc.EncryptBlock(checkValue, p[w:w+BlockSize])
	if err != nil {
		return nil, err
	}
	w += BlockSize
	w += copy(p[w:], src[:off])

	ct := src[off:]
	whole := len(ct) - len(ct)%BlockSize
	err = enc.EncryptBlock(ct[:whole], p[w:w+whole])
	if err != nil {
		return nil, err
	}
	w += whole

	// Pad with 0, 1, 2... to a whole block.
	var last [BlockSize]byte
	n := copy(last[:], ct[whole:])
	for i := 0; n+i < BlockSize; i++ {
		last[n+i] = byte(i)
	}
	err = enc.EncryptBlock(last[:], p[w:w+BlockSize])
	if err != nil {
		return nil, err
	}

	err = out.SetSize(size)
	if err != nil {
		return nil, err
	}
	out.PlaintextOffset = off
	out.FrameNumber = in.FrameNumber
	return sign(mic, out)
}

// DecryptFrameBuffer decrypts the encrypted source value in into out. The
// IV is read from the value. A wrong key gives ErrIntegrity. If mic is not
// nil the integrity check over in is computed and returned for the caller
// to compare.
func DecryptFrameBuffer(in, out *codecutil.FrameBuffer, dec *AESDecContext, mic *HMACContext) ([]byte, error) {
	if dec == nil {
		return nil, errors.Wrap(codecutil.ErrUninitialized, "no decryption context")
	}
	src := in.Bytes()
	off := in.PlaintextOffset
	if off < 0 || len(src) < off+3*BlockSize || (len(src)-off)%BlockSize != 0 {
		return nil, errors.Wrapf(codecutil.ErrFormat, "bad encrypted frame of %d bytes with plaintext offset %d", len(src), off)
	}

	err := dec.SetIVec(src[:BlockSize])
	if err != nil {
		return nil, err
	}
	var check [BlockSize]byte
	err = dec.DecryptBlock(src[BlockSize:2*BlockSize], check[:])
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(check[:], checkValue) {
		return nil, errors.Wrap(ErrIntegrity, "check value mismatch")
	}

	// The padded final block is decrypted first to find the payload size.
	ct := src[2*BlockSize+off:]
	whole := len(ct) - BlockSize
	prev := src[BlockSize : 2*BlockSize]
	if whole > 0 {
		prev = ct[whole-BlockSize : whole]
	}
	err = dec.SetIVec(prev)
	if err != nil {
		return nil, err
	}
	var last [BlockSize]byte
	err = dec.DecryptBlock(ct[whole:], last[:])
	if err != nil {
		return nil, err
	}
	pad := int(last[BlockSize-1]) + 1
	if pad > BlockSize {
		return nil, errors.Wrapf(ErrIntegrity, "bad padding %d", last[BlockSize-1])
	}
	rem := BlockSize - pad // Payload bytes in the last block.
	for i := rem; i < BlockSize; i++ {
		if last[i] != byte(i-rem) {
			return nil, errors.Wrap(ErrIntegrity, "bad padding")
		}
	}

	size := off + whole + rem
	if out.Capacity() < size {
		return nil, errors.Wrapf(codecutil.ErrSmallBuffer, "decrypted frame needs %d bytes, have %d", size, out.Capacity())
	}

	err = dec.SetIVec(src[BlockSize : 2*BlockSize])
	if err != nil {
		return nil, err
	}
	p := out.Data()[:size]
	copy(p, src[2*BlockSize:2*BlockSize+off])
	err = dec.DecryptBlock(ct[:whole], p[off:off+whole])
	if err != nil {
		return nil, err
	}
	copy(p[off+whole:], last[:rem])
	err = dec.SetIVec(ct[whole:])
	if err != nil {
		return nil, err
	}

	err = out.SetSize(size)
	if err != nil {
		return nil, err
	}
	out.PlaintextOffset = off
	out.FrameNumber = in.FrameNumber
	return sign(mic, in)
}

// sign computes the integrity check over an encrypted frame and its frame
// number. A nil mic gives a nil value.
func sign(mic *HMACContext, esv *codecutil.FrameBuffer) ([]byte, error) {
	if mic == nil {
		return nil, nil
	}
	mic.Reset()
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], uint64(esv.FrameNumber))
	err := mic.Update(esv.Bytes())
	if err != nil {
		return nil, err
	}
	err = mic.Update(seq[:])
	if err != nil {
		return nil, err
	}
	err = mic.Finalize()
	if err != nil {
		return nil, err
	}
	return mic.Value()
}
