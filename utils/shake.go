package utils

import (
	"sync"

	"golang.org/x/crypto/sha3"
)

const (
	// MaxTranscriptInputSize bounds a single transcript field so the 4-byte
	// length prefix in TranscriptConcat cannot overflow or collide.
	MaxTranscriptInputSize = 100 * 1024 * 1024
)

var shake256Pool = sync.Pool{
	New: func() interface{} {
		return sha3.NewShake256()
	},
}

// Shake256 computes the SHAKE256 extendable output function (XOF).
// It takes an input byte slice and generates an output of the specified length.
// All Fiat-Shamir challenge material in this library is derived through it.
func Shake256(input []byte, outputLen int) []byte {
	h := shake256Pool.Get().(sha3.ShakeHash)
	defer func() {
		h.Reset()
		shake256Pool.Put(h)
	}()

	h.Write(input)
	output := make([]byte, outputLen)
	_, _ = h.Read(output)
	return output
}

// Shake256WithDomain computes SHAKE256 with domain separation.
// It prefixes the data with the length of the domain string and the domain
// string itself, so challenges for different protocols (PoE, PoKE2,
// hash-to-prime) can never collide even on identical payloads.
// Panics if domain is longer than 255 bytes.
func Shake256WithDomain(domain string, data []byte, outputLen int) []byte {
	domainBytes := []byte(domain)
	if len(domainBytes) > 255 {
		panic("domain string must be at most 255 bytes")
	}

	h := shake256Pool.Get().(sha3.ShakeHash)
	defer func() {
		h.Reset()
		shake256Pool.Put(h)
	}()

	h.Write([]byte{byte(len(domainBytes))})
	h.Write(domainBytes)
	h.Write(data)
	output := make([]byte, outputLen)
	_, _ = h.Read(output)
	return output
}

// TranscriptConcat builds a canonical transcript from the given fields.
// Each field is prefixed with its length (4 bytes, big-endian) so the
// concatenation is injective: two different field sequences can never
// produce the same transcript bytes. Independent provers and verifiers
// must feed fields in the same canonical order.
func TranscriptConcat(fields ...[]byte) []byte {
	size := 0
	for _, f := range fields {
		if len(f) > MaxTranscriptInputSize {
			panic("TranscriptConcat: field size exceeds maximum")
		}
		size += 4 + len(f)
	}

	out := make([]byte, 0, size)
	for _, f := range fields {
		l := len(f)
		out = append(out, byte(l>>24), byte(l>>16), byte(l>>8), byte(l))
		out = append(out, f...)
	}
	return out
}
