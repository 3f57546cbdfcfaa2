/*
NAME
  fips186.go

DESCRIPTION
  fips186.go provides the deterministic FIPS 186-2 pseudorandom value
  generator.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package crypt

import (
	"crypto/sha1"
	"encoding"
	"math/big"
)

// xkeyLen is the size of the G function input block.
const xkeyLen = 64

// sha1Magic prefixes the marshalled state of a crypto/sha1 digest.
const sha1Magic = "sha\x01"

// GenFIPS186Value returns n bytes generated from key using the algorithm of
// FIPS 186-2 Appendix 3.1 with XSEED of zero and the SHA-1 based G function
// of Appendix 3.3. Keys shorter than 20 bytes are treated as 160 bit keys;
// keys longer than 64 bytes are truncated.
func GenFIPS186Value(key []byte, n int) []byte {
	if n <= 0 {
		return nil
	}

	var xkey [xkeyLen]byte
	copy(xkey[:], key)
	b := min(len(key), xkeyLen)
	if b < sha1.Size {
		b = sha1.Size
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(8*b))
	one := big.NewInt(1)

	out := make([]byte, 0, n)
	for {
		x := g(xkey[:])
		out = append(out, x[:min(n-len(out), sha1.Size)]...)
		if len(out) == n {
			return out
		}

		// XKEY = (1 + XKEY + x) mod 2^b.
		v := new(big.Int).SetBytes(xkey[:b])
		v.Add(v, one)
		v.Add(v, new(big.Int).SetBytes(x[:]))
		v.Mod(v, mod)
		xkey = [xkeyLen]byte{}
		v.FillBytes(xkey[:b])
	}
}

// g is the SHA-1 compression function applied to one 512 bit block from the
// standard initial state, without message padding.
func g(block []byte) [sha1.Size]byte {
	h := sha1.New()
	h.Write(block[:xkeyLen])
	state, err := h.(encoding.BinaryMarshaler).MarshalBinary()
	if err != nil {
		panic("crypt: sha1 state unavailable: " + err.Error())
	}
	var x [sha1.Size]byte
	copy(x[:], state[len(sha1Magic):])
	return x
}
