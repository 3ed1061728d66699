package primes

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/keymist/accumulator/utils"
)

// DomainHashToPrime separates hash-to-prime derivation from every other
// SHAKE256 use in the library.
const DomainHashToPrime = "accumulator-hash-to-prime-v1"

// ChallengeBits is the bit length of Fiat-Shamir challenge primes. Pinned
// here so independent provers and verifiers derive identical challenges.
const ChallengeBits = 256

// ErrUnsupportedBitLength indicates a hash-to-prime request with a
// degenerate bit length.
var ErrUnsupportedBitLength = errors.New("unsupported hash-to-prime bit length")

// HashToPrime deterministically maps data to a prime of exactly bits bits.
// The candidate for counter i is SHAKE256 over the domain-separated input
// data || i (8-byte big-endian), masked to the requested bit length with
// the top and bottom bits forced so the candidate is odd and has the exact
// width. The first candidate passing IsProbablePrime with
// DefaultMillerRabinRounds rounds is returned.
//
// The mapping is a pure function: the same (data, bits) always yields the
// same prime, which is what makes independently derived set elements and
// challenges agree. Bit lengths below 8 are rejected.
func HashToPrime(data []byte, bits int) (*big.Int, error) {
	if bits < 8 {
		return nil, ErrUnsupportedBitLength
	}

	byteLen := (bits + 7) / 8
	buf := make([]byte, len(data)+8)
	copy(buf, data)

	for counter := uint64(0); ; counter++ {
		binary.BigEndian.PutUint64(buf[len(data):], counter)
		candBytes := utils.Shake256WithDomain(DomainHashToPrime, buf, byteLen)

		cand := new(big.Int).SetBytes(candBytes)
		// Trim to the exact bit length, then force the top bit (exact
		// width) and bottom bit (odd).
		excess := byteLen*8 - bits
		cand.Rsh(cand, uint(excess))
		cand.SetBit(cand, bits-1, 1)
		cand.SetBit(cand, 0, 1)

		if IsProbablePrime(cand, DefaultMillerRabinRounds) {
			return cand, nil
		}
	}
}
