/*
NAME
  fortuna.go

DESCRIPTION
  fortuna.go provides a Fortuna style random generator built on AES-256 in
  counter mode, rekeyed from its own output after every chunk.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"
	"sync"

	"github.com/pkg/errors"
)

const (
	rngKeyLen      = 32      // AES-256.
	rngSeedLen     = 64      // Bytes of entropy or output per rekey.
	maxSequenceLen = 1 << 19 // Bytes generated per key.
)

// FortunaRNG is a cryptographically secure random generator. It is safe for
// concurrent use.
type FortunaRNG struct {
	mu     sync.Mutex
	key    [rngKeyLen]byte
	stream cipher.Stream
}

// NewFortunaRNG returns a generator seeded from the operating system.
func NewFortunaRNG() (*FortunaRNG, error) {
	return newFortunaRNG(rand.Reader)
}

func newFortunaRNG(entropy io.Reader) (*FortunaRNG, error) {
	var seed [rngSeedLen]byte
	_, err := io.ReadFull(entropy, seed[:])
	if err != nil {
		return nil, errors.Wrap(ErrCryptInit, "could not read entropy: "+err.Error())
	}
	r := &FortunaRNG{}
	r.setKey(seed[:])
	return r, nil
}

// setKey replaces the key with a hash of the current key and fodder, and
// restarts the counter.
func (r *FortunaRNG) setKey(fodder []byte) {
	h := sha256.New()
	h.Write(r.key[:])
	h.Write(fodder)
	copy(r.key[:], h.Sum(nil))

	b, err := aes.NewCipher(r.key[:])
	if err != nil {
		panic("crypt: invalid rng key: " + err.Error())
	}
	var ctr [BlockSize]byte
	ctr[BlockSize-1] = 1
	r.stream = cipher.NewCTR(b, ctr[:])
}

// generate fills p with the next bytes of the key stream.
func (r *FortunaRNG) generate(p []byte) {
	clear(p)
	r.stream.XORKeyStream(p, p)
}

// FillRandom fills buf with random bytes. The generator is rekeyed after
// each chunk of at most 2^19 bytes, so earlier output cannot be recovered
// from the current state.
func (r *FortunaRNG) FillRandom(buf []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(buf) > 0 {
		n := min(len(buf), maxSequenceLen)
		r.generate(buf[:n])
		buf = buf[n:]

		var fodder [rngSeedLen]byte
		r.generate(fodder[:])
		r.setKey(fodder[:])
	}
}

// Process wide generator, seeded on first use.
var (
	rngOnce sync.Once
	rng     *FortunaRNG
	rngErr  error
)

// FillRandom fills buf from the process wide generator.
func FillRandom(buf []byte) error {
	rngOnce.Do(func() {
		rng, rngErr = NewFortunaRNG()
	})
	if rngErr != nil {
		return rngErr
	}
	rng.FillRandom(buf)
	return nil
}
