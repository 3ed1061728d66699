package accumulator

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/keymist/accumulator/bigint"
	"github.com/keymist/accumulator/group"
	"github.com/keymist/accumulator/proof"
)

// NonMembershipProof certifies that a prime x is NOT in the accumulated
// set. It encodes a Bezout identity a*x + b*s = 1 over the accumulated
// product s, which exists exactly when x shares no factor with s: D = g^a
// and V = A^b satisfy D^x * V = g, so GInvV = g * V^-1 is an x-th power
// with known root D. The two sub-proofs make verification succinct.
type NonMembershipProof struct {
	// D is g^a for the Bezout coefficient a of x.
	D group.Element
	// V is A^b for the Bezout coefficient b of the accumulated product.
	V group.Element
	// GInvV is g * V^-1, the value D^x must equal.
	GInvV group.Element
	// VProof certifies knowledge of b with V = A^b.
	VProof *proof.PoKE2
	// RootProof certifies D^x = GInvV.
	RootProof *proof.PoE
}

// ProveNonMembership proves that x is not among members, the primes
// currently accumulated. Fails with group.ErrInputNotCoprime when x
// divides the accumulated product, i.e. when x actually is a member.
func (a *Accumulator) ProveNonMembership(members []*big.Int, x *big.Int) (*NonMembershipProof, error) {
	s := bigint.Product(members)
	gcd, aCoef, bCoef := bigint.ExtendedGCD(x, s)
	if gcd.Cmp(big.NewInt(1)) != 0 {
		return nil, errors.Wrap(group.ErrInputNotCoprime, "element is a member")
	}

	d, err := a.g.Exp(a.g.Generator(), aCoef)
	if err != nil {
		return nil, errors.Wrap(err, "computing Bezout base power")
	}
	v, err := a.g.Exp(a.value, bCoef)
	if err != nil {
		return nil, errors.Wrap(err, "computing Bezout accumulator power")
	}
	vInv, err := a.g.Inverse(v)
	if err != nil {
		return nil, errors.Wrap(err, "inverting accumulator power")
	}
	gInvV, err := a.g.Op(a.g.Generator(), vInv)
	if err != nil {
		return nil, errors.Wrap(err, "linking Bezout identity")
	}

	vProof, err := proof.ProvePoKE2(a.g, a.value, bCoef, v)
	if err != nil {
		return nil, errors.Wrap(err, "proving accumulator power")
	}
	rootProof, err := proof.ProvePoE(a.g, d, x, gInvV)
	if err != nil {
		return nil, errors.Wrap(err, "proving root")
	}
	return &NonMembershipProof{
		D:         d,
		V:         v,
		GInvV:     gInvV,
		VProof:    vProof,
		RootProof: rootProof,
	}, nil
}

// VerifyNonMembership checks a non-membership proof for x: V must be a
// known power of the accumulator, GInvV must be the g * V^-1 link, and D
// must be its x-th root. All three together pin the Bezout identity
// a*x + b*s = 1, which cannot exist for a member.
func (a *Accumulator) VerifyNonMembership(x *big.Int, p *NonMembershipProof) bool {
	if p == nil || p.D == nil || p.V == nil || p.GInvV == nil {
		return false
	}
	if !proof.VerifyPoKE2(a.g, a.value, p.V, p.VProof) {
		return false
	}
	if !proof.VerifyPoE(a.g, p.D, x, p.GInvV, p.RootProof) {
		return false
	}
	vInv, err := a.g.Inverse(p.V)
	if err != nil {
		return false
	}
	link, err := a.g.Op(a.g.Generator(), vInv)
	if err != nil {
		return false
	}
	return a.g.Equal(link, p.GInvV)
}
