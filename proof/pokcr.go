package proof

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/keymist/accumulator/bigint"
	"github.com/keymist/accumulator/group"
)

// ErrEmptyBatch indicates a PoKCR over zero statements.
var ErrEmptyBatch = errors.New("proof batch is empty")

// PoKCR aggregates proofs of knowledge of co-prime roots: for statements
// v_i = w_i^(x_i) with pairwise co-prime exponents, the single element
// W = prod w_i certifies all of them at once. Verification costs one
// multi-exponentiation instead of one exponentiation per statement.
type PoKCR struct {
	// W is the product of all witnessed roots.
	W group.Element
}

// ProvePoKCR aggregates the witnesses w_i into a single proof.
func ProvePoKCR(g group.Group, witnesses []group.Element) (*PoKCR, error) {
	if len(witnesses) == 0 {
		return nil, ErrEmptyBatch
	}
	w := witnesses[0]
	var err error
	for _, wi := range witnesses[1:] {
		w, err = g.Op(w, wi)
		if err != nil {
			return nil, err
		}
	}
	return &PoKCR{W: w}, nil
}

// VerifyPoKCR checks that the aggregated W proves every statement
// v_i = w_i^(x_i): it accepts iff W^(x*) = prod v_i^(x*/x_i) where
// x* = prod x_i. Soundness requires the x_i to be pairwise co-prime,
// which holds when they are distinct primes; the check itself also
// requires every x_i to be nonzero.
func VerifyPoKCR(g group.Group, vs []group.Element, xs []*big.Int, p *PoKCR) bool {
	if p == nil || p.W == nil || len(vs) == 0 || len(vs) != len(xs) {
		return false
	}
	for _, x := range xs {
		if x == nil || x.Sign() == 0 {
			return false
		}
	}
	xStar := bigint.Product(xs)
	lhs, err := g.Exp(p.W, xStar)
	if err != nil {
		return false
	}
	rhs, err := multiExp(g, vs, xs)
	if err != nil {
		return false
	}
	return g.Equal(lhs, rhs)
}

// multiExp computes prod v_i^(x*/x_i) for x* = prod x_i without ever
// forming the individual quotient exponents: it splits the batch in two,
// recurses, and cross-exponentiates each half by the other half's exponent
// product. Work grows as n log n group operations rather than n^2.
func multiExp(g group.Group, vs []group.Element, xs []*big.Int) (group.Element, error) {
	if len(vs) == 1 {
		return vs[0], nil
	}
	half := len(vs) / 2
	xLeft := bigint.Product(xs[:half])
	xRight := bigint.Product(xs[half:])
	left, err := multiExp(g, vs[:half], xs[:half])
	if err != nil {
		return nil, err
	}
	right, err := multiExp(g, vs[half:], xs[half:])
	if err != nil {
		return nil, err
	}
	left, err = g.Exp(left, xRight)
	if err != nil {
		return nil, err
	}
	right, err = g.Exp(right, xLeft)
	if err != nil {
		return nil, err
	}
	return g.Op(left, right)
}
