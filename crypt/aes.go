/*
NAME
  aes.go

DESCRIPTION
  aes.go provides AES-128 CBC encryption and decryption contexts whose chain
  state may be saved and restored between frames.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package crypt provides the cryptographic primitives used for encrypted
// essence: AES-CBC contexts, the HMAC-SHA1 message integrity check, a
// Fortuna style random generator and the FIPS 186-2 value generator.
//
// Contexts are not safe for concurrent use. Each belongs to a single
// encryption or signing session. The package random generator is safe for
// concurrent use.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
)

// Sizes in bytes.
const (
	KeyLen    = 16 // AES-128 key.
	BlockSize = aes.BlockSize
	HMACSize  = 20 // SHA-1 digest.
)

// Error kinds returned by this package.
var (
	ErrCryptInit = errors.New("crypto initialisation failed")
	ErrIntegrity = errors.New("integrity check failed")
	ErrBlockSize = errors.New("length is not a multiple of the block size")
	ErrState     = errors.New("operation not valid in current state")
)

// AESEncContext encrypts with AES-128 in CBC mode. The IV is advanced by
// every call to EncryptBlock, so consecutive calls form one chain.
type AESEncContext struct {
	block cipher.Block
	iv    [BlockSize]byte
}

// InitKey sets the key. The IV is zeroed.
func (c *AESEncContext) InitKey(key []byte) error {
	b, err := newCipher(key)
	if err != nil {
		return err
	}
	c.block = b
	c.iv = [BlockSize]byte{}
	return nil
}

// SetIVec sets the chain state.
func (c *AESEncContext) SetIVec(iv []byte) error {
	if c.block == nil {
		return codecutil.ErrUninitialized
	}
	return setIV(c.iv[:], iv)
}

// GetIVec copies the chain state into dst.
func (c *AESEncContext) GetIVec(dst []byte) error {
	if c.block == nil {
		return codecutil.ErrUninitialized
	}
	return getIV(dst, c.iv[:])
}

// EncryptBlock encrypts pt into ct, which may be the same slice. The length
// of pt must be a multiple of BlockSize.
func (c *AESEncContext) EncryptBlock(pt, ct []byte) error {
	err := checkLengths(c.block, pt, ct)
	if err != nil {
		return err
	}
	if len(pt) == 0 {
		return nil
	}
	cipher.NewCBCEncrypter(c.block, c.iv[:]).CryptBlocks(ct[:len(pt)], pt)
	copy(c.iv[:], ct[len(pt)-BlockSize:len(pt)])
	return nil
}

// AESDecContext decrypts with AES-128 in CBC mode. The IV is advanced by
// every call to DecryptBlock.
type AESDecContext struct {
	block cipher.Block
	iv    [BlockSize]byte
}

// InitKey sets the key. The IV is zeroed.
func (c *AESDecContext) InitKey(key []byte) error {
	b, err := newCipher(key)
	if err != nil {
		return err
	}
	c.block = b
	c.iv = [BlockSize]byte{}
	return nil
}

// SetIVec sets the chain state.
func (c *AESDecContext) SetIVec(iv []byte) error {
	if c.block == nil {
		return codecutil.ErrUninitialized
	}
	return setIV(c.iv[:], iv)
}

// GetIVec copies the chain state into dst.
func (c *AESDecContext) GetIVec(dst []byte) error {
	if c.block == nil {
		return codecutil.ErrUninitialized
	}
	return getIV(dst, c.iv[:])
}

// DecryptBlock decrypts ct into pt, which may be the same slice. The length
// of ct must be a multiple of BlockSize.
func (c *AESDecContext) DecryptBlock(ct, pt []byte) error {
	err := checkLengths(c.block, ct, pt)
	if err != nil {
		return err
	}
	if len(ct) == 0 {
		return nil
	}

	// The last ciphertext block is the next IV; keep it before pt may
	// overwrite it.
	var next [BlockSize]byte
	copy(next[:], ct[len(ct)-BlockSize:])
	cipher.NewCBCDecrypter(c.block, c.iv[:]).CryptBlocks(pt[:len(ct)], ct)
	c.iv = next
	return nil
}

func newCipher(key []byte) (cipher.Block, error) {
	if len(key) != KeyLen {
		return nil, pkgerrors.Wrapf(ErrCryptInit, "key is %d bytes, want %d", len(key), KeyLen)
	}
	b, err := aes.NewCipher(key)
	if err != nil {
		return nil, pkgerrors.Wrap(ErrCryptInit, err.Error())
	}
	return b, nil
}

func setIV(dst, iv []byte) error {
	if len(iv) != BlockSize {
		return pkgerrors.Wrapf(ErrBlockSize, "IV is %d bytes", len(iv))
	}
	copy(dst, iv)
	return nil
}

func getIV(dst, iv []byte) error {
	if len(dst) < BlockSize {
		return pkgerrors.Wrapf(codecutil.ErrSmallBuffer, "IV needs %d bytes, have %d", BlockSize, len(dst))
	}
	copy(dst, iv)
	return nil
}

// checkLengths validates the arguments of a CBC operation.
func checkLengths(b cipher.Block, in, out []byte) error {
	if b == nil {
		return codecutil.ErrUninitialized
	}
	if len(in)%BlockSize != 0 {
		return pkgerrors.Wrapf(ErrBlockSize, "%d bytes", len(in))
	}
	if len(out) < len(in) {
		return pkgerrors.Wrapf(codecutil.ErrSmallBuffer, "need %d bytes, have %d", len(in), len(out))
	}
	return nil
}
