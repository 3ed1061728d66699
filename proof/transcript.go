// Package proof implements the succinct arguments the accumulator relies
// on: proofs of exponentiation (PoE), proofs of knowledge of exponent
// (PoKE2), and aggregated proofs of knowledge of co-prime roots (PoKCR).
// All challenges are derived by Fiat-Shamir over canonical element
// encodings, so proofs are non-interactive and publicly verifiable.
package proof

import (
	"math/big"

	"github.com/keymist/accumulator/primes"
	"github.com/keymist/accumulator/utils"
)

// Transcript domains. Each proof system hashes under its own label so a
// challenge valid in one context can never be replayed in another.
const (
	domainPoEChallenge   = "accumulator-poe-challenge-v1"
	domainPoKE2Challenge = "accumulator-poke2-challenge-v1"
	domainPoKE2Blind     = "accumulator-poke2-blind-v1"
)

// challengePrime derives the Fiat-Shamir challenge prime for a transcript:
// the proof-system domain is bound as the leading transcript field, then
// the whole transcript is mapped to a prime of primes.ChallengeBits bits.
func challengePrime(domain string, fields ...[]byte) (*big.Int, error) {
	transcript := make([][]byte, 0, len(fields)+1)
	transcript = append(transcript, []byte(domain))
	transcript = append(transcript, fields...)
	return primes.HashToPrime(utils.TranscriptConcat(transcript...), primes.ChallengeBits)
}

// challengeScalar derives a non-prime challenge scalar of
// primes.ChallengeBits bits for the same transcript shape.
func challengeScalar(domain string, fields ...[]byte) *big.Int {
	out := utils.Shake256WithDomain(domain, utils.TranscriptConcat(fields...), primes.ChallengeBits/8)
	return new(big.Int).SetBytes(out)
}
