/*
NAME
  fortuna_test.go

DESCRIPTION
  fortuna_test.go provides testing for the random generator.

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
	"sync"
	"testing"
)

// blocks returns the set of whole 16 byte blocks in b.
func blocks(b []byte) map[[BlockSize]byte]bool {
	m := make(map[[BlockSize]byte]bool)
	for i := 0; i+BlockSize <= len(b); i += BlockSize {
		m[[BlockSize]byte(b[i:i+BlockSize])] = true
	}
	return m
}

func TestFortunaReseed(t *testing.T) {
	r, err := NewFortunaRNG()
	if err != nil {
		t.Fatalf("could not create generator: %v", err)
	}
	const n = maxSequenceLen + 1
	a := make([]byte, n)
	b := make([]byte, n)
	r.FillRandom(a)
	r.FillRandom(b)

	seen := blocks(a)
	for i := 0; i+BlockSize <= len(b); i += BlockSize {
		if seen[[BlockSize]byte(b[i:i+BlockSize])] {
			t.Fatalf("block at %d of second fill repeats a block of the first", i)
		}
	}
	if len(seen) != n/BlockSize {
		t.Errorf("repeated blocks within one fill: %d unique of %d", len(seen), n/BlockSize)
	}
}

func TestFortunaDeterministicSeed(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, rngSeedLen)
	a, err := newFortunaRNG(bytes.NewReader(seed))
	if err != nil {
		t.Fatalf("could not create generator: %v", err)
	}
	b, _ := newFortunaRNG(bytes.NewReader(seed))

	x := make([]byte, 100)
	y := make([]byte, 100)
	a.FillRandom(x)
	b.FillRandom(y)
	if !bytes.Equal(x, y) {
		t.Errorf("same seed gave different output")
	}
	a.FillRandom(y)
	if bytes.Equal(x, y) {
		t.Errorf("consecutive fills gave the same output")
	}

	_, err = newFortunaRNG(bytes.NewReader(seed[:10]))
	if !errors.Is(err, ErrCryptInit) {
		t.Errorf("did not get init error for short entropy. Got: %v", err)
	}
}

func TestFillRandomConcurrent(t *testing.T) {
	const workers = 8
	out := make([][]byte, workers)
	var wg sync.WaitGroup
	for i := range out {
		out[i] = make([]byte, 4096)
		wg.Add(1)
		go func(b []byte) {
			defer wg.Done()
			err := FillRandom(b)
			if err != nil {
				t.Errorf("could not fill: %v", err)
			}
		}(out[i])
	}
	wg.Wait()

	seen := make(map[[BlockSize]byte]bool)
	for i, b := range out {
		for k := range blocks(b) {
			if seen[k] {
				t.Fatalf("worker %d produced a block already seen", i)
			}
			seen[k] = true
		}
	}
}
