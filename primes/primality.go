// Package primes implements probabilistic primality testing and the
// deterministic hash-to-prime mapping used for set elements and
// Fiat-Shamir challenges.
package primes

import (
	"crypto/rand"
	"math/big"
)

// DefaultMillerRabinRounds is the round count used when callers do not
// supply their own. The compositeness error is at most 4^-rounds.
const DefaultMillerRabinRounds = 30

// smallPrimes is the trial-division table: all primes below 1000.
// Built once at startup and never mutated.
var smallPrimes = [...]uint64{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37,
	41, 43, 47, 53, 59, 61, 67, 71, 73, 79, 83, 89,
	97, 101, 103, 107, 109, 113, 127, 131, 137, 139, 149, 151,
	157, 163, 167, 173, 179, 181, 191, 193, 197, 199, 211, 223,
	227, 229, 233, 239, 241, 251, 257, 263, 269, 271, 277, 281,
	283, 293, 307, 311, 313, 317, 331, 337, 347, 349, 353, 359,
	367, 373, 379, 383, 389, 397, 401, 409, 419, 421, 431, 433,
	439, 443, 449, 457, 461, 463, 467, 479, 487, 491, 499, 503,
	509, 521, 523, 541, 547, 557, 563, 569, 571, 577, 587, 593,
	599, 601, 607, 613, 617, 619, 631, 641, 643, 647, 653, 659,
	661, 673, 677, 683, 691, 701, 709, 719, 727, 733, 739, 743,
	751, 757, 761, 769, 773, 787, 797, 809, 811, 821, 823, 827,
	829, 839, 853, 857, 859, 863, 877, 881, 883, 887, 907, 911,
	919, 929, 937, 941, 947, 953, 967, 971, 977, 983, 991, 997,
}

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// IsProbablePrime reports whether n is prime with compositeness error at
// most 4^-rounds. Inputs below 2, and even inputs other than 2, are
// rejected immediately. The test first trial-divides by the small-prime
// table, then runs Miller-Rabin: one round at the fixed base 2 followed by
// rounds-1 uniformly random bases.
func IsProbablePrime(n *big.Int, rounds int) bool {
	if rounds <= 0 {
		rounds = DefaultMillerRabinRounds
	}
	if n.Cmp(two) < 0 {
		return false
	}

	mod := new(big.Int)
	for _, p := range smallPrimes {
		sp := new(big.Int).SetUint64(p)
		if n.Cmp(sp) == 0 {
			return true
		}
		if mod.Mod(n, sp).Sign() == 0 {
			return false
		}
	}

	// Write n-1 = 2^s * d with d odd.
	nMinusOne := new(big.Int).Sub(n, one)
	d := new(big.Int).Set(nMinusOne)
	s := 0
	for d.Bit(0) == 0 {
		d.Rsh(d, 1)
		s++
	}

	if !millerRabinRound(n, nMinusOne, d, s, two) {
		return false
	}
	nMinusThree := new(big.Int).Sub(n, big.NewInt(3))
	for i := 1; i < rounds; i++ {
		a, err := rand.Int(rand.Reader, nMinusThree)
		if err != nil {
			// No randomness means no soundness to speak of.
			return false
		}
		a.Add(a, two) // base in [2, n-2]
		if !millerRabinRound(n, nMinusOne, d, s, a) {
			return false
		}
	}
	return true
}

// millerRabinRound runs a single Miller-Rabin round for base a, given
// n-1 = 2^s * d. Returns false if a witnesses compositeness.
func millerRabinRound(n, nMinusOne, d *big.Int, s int, a *big.Int) bool {
	x := new(big.Int).Exp(a, d, n)
	if x.Cmp(one) == 0 || x.Cmp(nMinusOne) == 0 {
		return true
	}
	for i := 0; i < s-1; i++ {
		x.Mul(x, x).Mod(x, n)
		if x.Cmp(nMinusOne) == 0 {
			return true
		}
	}
	return false
}
