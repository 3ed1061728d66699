package proof

import (
	"math/big"

	"github.com/keymist/accumulator/bigint"
	"github.com/keymist/accumulator/group"
)

// PoKE2 is a proof of knowledge of a discrete log: it certifies the prover
// knows x with w = u^x without revealing x. The commitment z = g^x to the
// exponent under the group generator is what prevents the base-switching
// attack on the plain PoKE protocol.
type PoKE2 struct {
	// Z commits to the secret exponent under the group generator.
	Z group.Element
	// Q is the blinded quotient (u * g^alpha)^(x div l).
	Q group.Element
	// R is the residue x mod l.
	R *big.Int
}

// ProvePoKE2 certifies knowledge of x such that w = u^x. The challenge
// prime l and the blinding scalar alpha are both derived from the
// transcript (u, w, z); x itself never enters a transcript.
func ProvePoKE2(g group.Group, u group.Element, x *big.Int, w group.Element) (*PoKE2, error) {
	z, err := g.Exp(g.Generator(), x)
	if err != nil {
		return nil, err
	}
	l, alpha, err := poke2Challenge(u, w, z)
	if err != nil {
		return nil, err
	}
	q, r, err := bigint.DivMod(x, l)
	if err != nil {
		return nil, err
	}
	base, err := blindBase(g, u, alpha)
	if err != nil {
		return nil, err
	}
	bigQ, err := g.Exp(base, q)
	if err != nil {
		return nil, err
	}
	return &PoKE2{Z: z, Q: bigQ, R: r}, nil
}

// VerifyPoKE2 checks a PoKE2 for the claim "the prover knows x with
// w = u^x": it re-derives (l, alpha) and accepts iff
// Q^l * (u * g^alpha)^r = w * z^alpha with 0 <= r < l.
func VerifyPoKE2(g group.Group, u, w group.Element, p *PoKE2) bool {
	if p == nil || p.Z == nil || p.Q == nil || p.R == nil {
		return false
	}
	l, alpha, err := poke2Challenge(u, w, p.Z)
	if err != nil {
		return false
	}
	if p.R.Sign() < 0 || p.R.Cmp(l) >= 0 {
		return false
	}

	base, err := blindBase(g, u, alpha)
	if err != nil {
		return false
	}
	lhs, err := g.Exp(p.Q, l)
	if err != nil {
		return false
	}
	br, err := g.Exp(base, p.R)
	if err != nil {
		return false
	}
	lhs, err = g.Op(lhs, br)
	if err != nil {
		return false
	}

	za, err := g.Exp(p.Z, alpha)
	if err != nil {
		return false
	}
	rhs, err := g.Op(w, za)
	if err != nil {
		return false
	}
	return g.Equal(lhs, rhs)
}

// poke2Challenge derives the challenge prime and the blinding scalar from
// the (u, w, z) transcript. The scalar binds the prime so the two cannot
// be mixed across transcripts.
func poke2Challenge(u, w, z group.Element) (l, alpha *big.Int, err error) {
	l, err = challengePrime(domainPoKE2Challenge, u.Encode(), w.Encode(), z.Encode())
	if err != nil {
		return nil, nil, err
	}
	alpha = challengeScalar(domainPoKE2Blind, u.Encode(), w.Encode(), z.Encode(), bigint.Encode(l))
	return l, alpha, nil
}

// blindBase computes u * g^alpha.
func blindBase(g group.Group, u group.Element, alpha *big.Int) (group.Element, error) {
	ga, err := g.Exp(g.Generator(), alpha)
	if err != nil {
		return nil, err
	}
	return g.Op(u, ga)
}
