package accumulator

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/keymist/accumulator/group"
	"github.com/keymist/accumulator/proof"
)

// ProveMembershipBatch aggregates the membership witnesses for a batch of
// accumulated primes into a single co-prime-roots proof. Soundness of the
// aggregate relies on the elements being distinct primes, which makes
// their witnesses roots at pairwise co-prime exponents.
func (a *Accumulator) ProveMembershipBatch(pairs []WitnessPair) (*proof.PoKCR, error) {
	if len(pairs) == 0 {
		return nil, ErrEmptyBatch
	}
	witnesses := make([]group.Element, len(pairs))
	for i, pr := range pairs {
		got, err := a.g.Exp(pr.Witness, pr.Element)
		if err != nil {
			return nil, errors.Wrap(err, "checking witness")
		}
		if !a.g.Equal(got, a.value) {
			return nil, ErrNotDivisible
		}
		witnesses[i] = pr.Witness
	}
	return proof.ProvePoKCR(a.g, witnesses)
}

// VerifyMembershipBatch checks an aggregated membership proof for the
// given distinct primes against the accumulator: every statement shares
// the accumulator value as its claimed power.
func (a *Accumulator) VerifyMembershipBatch(elems []*big.Int, p *proof.PoKCR) bool {
	if len(elems) == 0 {
		return false
	}
	vs := make([]group.Element, len(elems))
	for i := range elems {
		vs[i] = a.value
	}
	return proof.VerifyPoKCR(a.g, vs, elems, p)
}
