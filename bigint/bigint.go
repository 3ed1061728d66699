// Package bigint provides the arbitrary-precision integer operations the
// accumulator needs beyond what math/big ships: Euclidean division with
// explicit zero-divisor failures, an extended Euclidean algorithm with
// Bezout coefficients, uniform random sampling, canonical byte encodings
// and a parallel product tree for batch exponents.
//
// Every function treats its inputs as immutable and returns freshly
// allocated values; nothing in this package mutates a caller's big.Int.
package bigint

import (
	"crypto/rand"
	"errors"
	"math/big"

	"golang.org/x/sync/errgroup"
)

// ErrDivisionByZero indicates a division or modular reduction by zero.
var ErrDivisionByZero = errors.New("division by zero")

var one = big.NewInt(1)

// Mod returns x mod m normalized into [0, m) for m > 0, even when x is
// negative. Fails with ErrDivisionByZero when m is zero.
func Mod(x, m *big.Int) (*big.Int, error) {
	if m.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	return new(big.Int).Mod(x, m), nil
}

// DivMod returns the Euclidean quotient and remainder of x by y, with the
// remainder normalized into [0, |y|). Fails with ErrDivisionByZero when y
// is zero.
func DivMod(x, y *big.Int) (q, r *big.Int, err error) {
	if y.Sign() == 0 {
		return nil, nil, ErrDivisionByZero
	}
	q = new(big.Int)
	r = new(big.Int)
	q.DivMod(x, y, r)
	return q, r, nil
}

// ExtendedGCD returns (g, a, b) such that a*x + b*y = g = gcd(x, y), with
// g >= 0. Either input may be negative or zero.
func ExtendedGCD(x, y *big.Int) (g, a, b *big.Int) {
	oldR, r := new(big.Int).Set(x), new(big.Int).Set(y)
	oldS, s := big.NewInt(1), big.NewInt(0)
	oldT, t := big.NewInt(0), big.NewInt(1)

	q := new(big.Int)
	tmp := new(big.Int)
	for r.Sign() != 0 {
		q.Quo(oldR, r)

		tmp.Mul(q, r)
		oldR.Sub(oldR, tmp)
		oldR, r = r, oldR

		tmp.Mul(q, s)
		oldS.Sub(oldS, tmp)
		oldS, s = s, oldS

		tmp.Mul(q, t)
		oldT.Sub(oldT, tmp)
		oldT, t = t, oldT
	}

	if oldR.Sign() < 0 {
		oldR.Neg(oldR)
		oldS.Neg(oldS)
		oldT.Neg(oldT)
	}
	return oldR, oldS, oldT
}

// RandomBits samples a uniformly random integer in [0, 2^bits) using the
// operating system CSPRNG.
func RandomBits(bits int) (*big.Int, error) {
	if bits <= 0 {
		return nil, errors.New("bit count must be positive")
	}
	bound := new(big.Int).Lsh(one, uint(bits))
	return rand.Int(rand.Reader, bound)
}

// Encode returns the canonical sign-magnitude encoding of x: a single sign
// byte (0 for x >= 0, 1 for x < 0) followed by the minimal big-endian
// magnitude. The encoding is injective and is the integer representation
// used in Fiat-Shamir transcripts.
func Encode(x *big.Int) []byte {
	sign := byte(0)
	if x.Sign() < 0 {
		sign = 1
	}
	mag := x.Bytes()
	out := make([]byte, 1+len(mag))
	out[0] = sign
	copy(out[1:], mag)
	return out
}

// Decode parses the encoding produced by Encode. Decoding is strict: the
// magnitude must be minimal, so every integer has exactly one accepted
// byte string.
func Decode(data []byte) (*big.Int, error) {
	if len(data) == 0 {
		return nil, errors.New("empty integer encoding")
	}
	if data[0] > 1 {
		return nil, errors.New("invalid sign byte")
	}
	if len(data) > 1 && data[1] == 0 {
		return nil, errors.New("non-minimal magnitude encoding")
	}
	x := new(big.Int).SetBytes(data[1:])
	if data[0] == 1 {
		if x.Sign() == 0 {
			return nil, errors.New("negative zero encoding")
		}
		x.Neg(x)
	}
	return x, nil
}

// EncodeFixed returns the big-endian encoding of a non-negative x padded to
// exactly width bytes. Fails if x is negative or does not fit.
func EncodeFixed(x *big.Int, width int) ([]byte, error) {
	if x.Sign() < 0 {
		return nil, errors.New("cannot fixed-width encode a negative integer")
	}
	if (x.BitLen()+7)/8 > width {
		return nil, errors.New("integer does not fit requested width")
	}
	out := make([]byte, width)
	x.FillBytes(out)
	return out, nil
}

// productTreeThreshold is the subproblem size below which the product tree
// multiplies sequentially instead of forking.
const productTreeThreshold = 32

// Product returns the product of xs, or 1 for an empty slice. Factors are
// combined with a product tree, splitting halves across goroutines for
// large batches; the result is independent of combination order.
func Product(xs []*big.Int) *big.Int {
	if len(xs) == 0 {
		return big.NewInt(1)
	}
	return productRange(xs)
}

func productRange(xs []*big.Int) *big.Int {
	if len(xs) <= productTreeThreshold {
		acc := big.NewInt(1)
		for _, x := range xs {
			acc.Mul(acc, x)
		}
		return acc
	}

	mid := len(xs) / 2
	var left, right *big.Int
	var g errgroup.Group
	g.Go(func() error {
		left = productRange(xs[:mid])
		return nil
	})
	right = productRange(xs[mid:])
	_ = g.Wait()

	return new(big.Int).Mul(left, right)
}
