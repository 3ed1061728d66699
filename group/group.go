// Package group defines the unknown-order group abstraction the
// accumulator is built on, with two realizations: a multiplicative group
// of residues modulo a semiprime (RSA-style) and a class group of binary
// quadratic forms of a negative prime discriminant.
package group

import (
	"errors"
	"math/big"

	"github.com/keymist/accumulator/bigint"
)

var (
	// ErrInvalidGroupElement indicates an element that fails its group's
	// validity predicate, or an element belonging to a different group.
	ErrInvalidGroupElement = errors.New("invalid group element")

	// ErrInputNotCoprime indicates an inverse of a non-invertible residue
	// was requested, or Bezout inputs that share a factor.
	ErrInputNotCoprime = errors.New("inputs are not coprime")

	// ErrRootMismatch indicates the two roots handed to ShamirTrick do not
	// share a common value.
	ErrRootMismatch = errors.New("roots do not agree on a common value")
)

// Element is an opaque group element tied to exactly one group instance.
// Implementations guarantee that every Element they hand out satisfies the
// group's validity predicate.
type Element interface {
	// Encode returns the canonical byte encoding of the element. The
	// encoding is injective on valid elements and is what enters
	// Fiat-Shamir transcripts.
	Encode() []byte
}

// Group is the capability set shared by the RSA-style and class-group
// realizations. All operations return new elements; no element is ever
// mutated after construction.
type Group interface {
	// Identity returns the neutral element.
	Identity() Element

	// Generator returns the fixed element of presumed unknown order used
	// as the accumulator base.
	Generator() Element

	// Op combines two elements with the group operation.
	Op(a, b Element) (Element, error)

	// Inverse returns the inverse of a.
	Inverse(a Element) (Element, error)

	// Exp raises base to the given exponent. A negative exponent inverts
	// the base and exponentiates by the absolute value.
	Exp(base Element, exponent *big.Int) (Element, error)

	// Equal reports whether a and b are the same element.
	Equal(a, b Element) bool

	// Decode parses an encoding produced by Element.Encode, rejecting
	// byte strings that do not describe a valid element.
	Decode(data []byte) (Element, error)
}

// ladderExp raises base to a non-negative exponent with a Montgomery
// ladder over g.Op. Both branches of every step perform the same two
// group operations, so the sequence of operations does not depend on the
// exponent's bit pattern.
func ladderExp(g Group, base Element, e *big.Int) (Element, error) {
	r0 := g.Identity()
	r1 := base
	var err error
	for i := e.BitLen() - 1; i >= 0; i-- {
		if e.Bit(i) == 1 {
			r0, err = g.Op(r0, r1)
			if err != nil {
				return nil, err
			}
			r1, err = g.Op(r1, r1)
		} else {
			r1, err = g.Op(r0, r1)
			if err != nil {
				return nil, err
			}
			r0, err = g.Op(r0, r0)
		}
		if err != nil {
			return nil, err
		}
	}
	return r0, nil
}

// expWithSign implements the shared negative-exponent convention on top of
// ladderExp: a^(-e) = (a^-1)^e.
func expWithSign(g Group, base Element, e *big.Int) (Element, error) {
	if e.Sign() < 0 {
		inv, err := g.Inverse(base)
		if err != nil {
			return nil, err
		}
		return ladderExp(g, inv, new(big.Int).Neg(e))
	}
	return ladderExp(g, base, e)
}

// ShamirTrick computes the (xy)-th root of a common value from its x-th
// and y-th roots, for coprime x and y: given a = v^(1/x) and b = v^(1/y)
// with Bezout coefficients sx + ty = 1, the root is b^s * a^t. Fails with
// ErrRootMismatch if the roots disagree on v and ErrInputNotCoprime if
// gcd(x, y) != 1.
func ShamirTrick(g Group, xRoot, yRoot Element, x, y *big.Int) (Element, error) {
	vx, err := g.Exp(xRoot, x)
	if err != nil {
		return nil, err
	}
	vy, err := g.Exp(yRoot, y)
	if err != nil {
		return nil, err
	}
	if !g.Equal(vx, vy) {
		return nil, ErrRootMismatch
	}

	gcd, s, t := bigint.ExtendedGCD(x, y)
	if gcd.Cmp(big.NewInt(1)) != 0 {
		return nil, ErrInputNotCoprime
	}

	// (xRoot^t)(yRoot^s) = v^(t/x + s/y) = v^((sx+ty)/(xy)) = v^(1/(xy)).
	left, err := g.Exp(xRoot, t)
	if err != nil {
		return nil, err
	}
	right, err := g.Exp(yRoot, s)
	if err != nil {
		return nil, err
	}
	return g.Op(left, right)
}
