package proof

import (
	"math/big"

	"github.com/keymist/accumulator/bigint"
	"github.com/keymist/accumulator/group"
)

// PoE is a Wesolowski proof of exponentiation: a constant-size certificate
// that w = u^x, verifiable with a single small-exponent check instead of
// re-running the full exponentiation.
type PoE struct {
	// Q is the quotient element u^(x div l) for the challenge prime l.
	Q group.Element
	// R is the residue x mod l.
	R *big.Int
}

// ProvePoE certifies w = u^x. The challenge prime is derived from the
// transcript (u, x, w); since the exponent is public here, it enters the
// transcript directly.
func ProvePoE(g group.Group, u group.Element, x *big.Int, w group.Element) (*PoE, error) {
	l, err := challengePrime(domainPoEChallenge, u.Encode(), bigint.Encode(x), w.Encode())
	if err != nil {
		return nil, err
	}
	q, r, err := bigint.DivMod(x, l)
	if err != nil {
		return nil, err
	}
	bigQ, err := g.Exp(u, q)
	if err != nil {
		return nil, err
	}
	return &PoE{Q: bigQ, R: r}, nil
}

// VerifyPoE checks a PoE for the claim w = u^x: it re-derives the
// challenge prime l and accepts iff Q^l * u^(x mod l) = w. Any group-level
// failure, such as an element from a different group, counts as rejection.
func VerifyPoE(g group.Group, u group.Element, x *big.Int, w group.Element, p *PoE) bool {
	if p == nil || p.Q == nil || p.R == nil {
		return false
	}
	l, err := challengePrime(domainPoEChallenge, u.Encode(), bigint.Encode(x), w.Encode())
	if err != nil {
		return false
	}
	r := new(big.Int).Mod(x, l)
	if r.Cmp(p.R) != 0 {
		return false
	}
	ql, err := g.Exp(p.Q, l)
	if err != nil {
		return false
	}
	ur, err := g.Exp(u, r)
	if err != nil {
		return false
	}
	lhs, err := g.Op(ql, ur)
	if err != nil {
		return false
	}
	return g.Equal(lhs, w)
}
