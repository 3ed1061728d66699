// Package accumulator implements a cryptographic accumulator over groups
// of unknown order: a constant-size commitment to a set of primes
// supporting additions, deletions, and succinct membership and
// non-membership proofs. The accumulator value is a single group element;
// adding multiplies the exponent by the new primes, deleting extracts
// roots via witnesses, and all state transitions carry Wesolowski-style
// proofs so verifiers never redo the heavy exponentiations.
//
// Accumulated elements are odd primes, normally produced by HashToElement;
// the prime representation is what makes witnesses for distinct elements
// co-prime and therefore aggregatable.
package accumulator

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/keymist/accumulator/bigint"
	"github.com/keymist/accumulator/group"
	"github.com/keymist/accumulator/primes"
	"github.com/keymist/accumulator/proof"
	"github.com/keymist/accumulator/utils"
)

// Version is the library version, surfaced by the CLI.
const Version = "1.0.0"

// ElementBits is the bit length of primes produced by HashToElement.
// 128 bits keeps batch exponent products small while leaving collisions
// out of reach.
const ElementBits = 128

// domainElement separates set-element derivation from challenge derivation.
const domainElement = "accumulator-element-v1"

var (
	// ErrNotDivisible indicates a deletion or witness request for an
	// element the accumulator does not contain, surfaced as a witness that
	// fails to root the current value.
	ErrNotDivisible = errors.New("element does not divide the accumulated product")

	// ErrProofVerificationFailed indicates a state transition whose
	// accompanying proof does not verify.
	ErrProofVerificationFailed = errors.New("proof verification failed")

	// ErrEmptyBatch indicates a batch operation over zero elements where
	// at least one is required.
	ErrEmptyBatch = errors.New("batch is empty")
)

// Accumulator is a constant-size commitment to a set of primes. The zero
// value is not usable; construct with Empty or FromValue. Accumulators are
// immutable: Add and Delete return new values and never mutate the
// receiver, so old accumulator states stay valid as proof anchors.
type Accumulator struct {
	g     group.Group
	value group.Element
}

// WitnessPair couples an accumulated prime with its membership witness,
// the accumulator value with that prime's factor removed.
type WitnessPair struct {
	Element *big.Int
	Witness group.Element
}

// Empty returns the accumulator of the empty set over g: the group's
// unknown-order generator.
func Empty(g group.Group) *Accumulator {
	return &Accumulator{g: g, value: g.Generator()}
}

// FromValue reconstructs an accumulator from a previously obtained value,
// for example one decoded off the wire.
func FromValue(g group.Group, value group.Element) *Accumulator {
	return &Accumulator{g: g, value: value}
}

// Value returns the accumulator's group element.
func (a *Accumulator) Value() group.Element {
	return a.value
}

// Group returns the group the accumulator operates in.
func (a *Accumulator) Group() group.Group {
	return a.g
}

// HashToElement deterministically maps arbitrary bytes to an accumulatable
// prime of ElementBits bits.
func HashToElement(data []byte) (*big.Int, error) {
	return primes.HashToPrime(
		utils.TranscriptConcat([]byte(domainElement), data),
		ElementBits,
	)
}

// sortedProduct canonically orders a batch of primes (ascending) and
// returns the ordered copy together with their product. The ordering is
// what makes independently assembled batches hash to the same transcript.
func sortedProduct(elems []*big.Int) ([]*big.Int, *big.Int) {
	sorted := make([]*big.Int, len(elems))
	copy(sorted, elems)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Cmp(sorted[j]) < 0
	})
	return sorted, bigint.Product(sorted)
}

// Add accumulates a batch of primes and returns the new accumulator along
// with a proof of exponentiation for the transition. Adding an element
// already present is not detected here and squares its factor; callers
// needing set semantics must track membership alongside. An empty batch
// returns an accumulator equal to the receiver with a trivial proof.
func (a *Accumulator) Add(elems []*big.Int) (*Accumulator, *proof.PoE, error) {
	for _, x := range elems {
		if x == nil || x.Sign() <= 0 {
			return nil, nil, errors.Wrap(ErrNotDivisible, "elements must be positive primes")
		}
	}
	_, xStar := sortedProduct(elems)

	next, err := a.g.Exp(a.value, xStar)
	if err != nil {
		return nil, nil, errors.Wrap(err, "accumulating batch")
	}
	p, err := proof.ProvePoE(a.g, a.value, xStar, next)
	if err != nil {
		return nil, nil, errors.Wrap(err, "proving accumulation")
	}
	return &Accumulator{g: a.g, value: next}, p, nil
}

// VerifyAdd checks that next is prev with elems accumulated, using the
// transition proof instead of redoing the exponentiation.
func VerifyAdd(prev, next *Accumulator, elems []*big.Int, p *proof.PoE) bool {
	if prev == nil || next == nil {
		return false
	}
	_, xStar := sortedProduct(elems)
	return proof.VerifyPoE(prev.g, prev.value, xStar, next.value, p)
}

// Delete removes a batch of accumulated primes, given a membership witness
// for each. Witnesses for the individual elements are folded into a
// witness for their product with the Shamir trick, which becomes the new
// accumulator value; the returned PoKE2 certifies the transition. Fails
// with ErrNotDivisible if any witness does not actually root the current
// value.
func (a *Accumulator) Delete(pairs []WitnessPair) (*Accumulator, *proof.PoKE2, error) {
	for _, pr := range pairs {
		got, err := a.g.Exp(pr.Witness, pr.Element)
		if err != nil {
			return nil, nil, errors.Wrap(err, "checking witness")
		}
		if !a.g.Equal(got, a.value) {
			return nil, nil, ErrNotDivisible
		}
	}

	xAgg := big.NewInt(1)
	vAgg := a.value
	for i, pr := range pairs {
		if i == 0 {
			xAgg = new(big.Int).Set(pr.Element)
			vAgg = pr.Witness
			continue
		}
		folded, err := group.ShamirTrick(a.g, vAgg, pr.Witness, xAgg, pr.Element)
		if err != nil {
			return nil, nil, errors.Wrap(err, "aggregating witnesses")
		}
		vAgg = folded
		xAgg.Mul(xAgg, pr.Element)
	}

	p, err := proof.ProvePoKE2(a.g, vAgg, xAgg, a.value)
	if err != nil {
		return nil, nil, errors.Wrap(err, "proving deletion")
	}
	return &Accumulator{g: a.g, value: vAgg}, p, nil
}

// VerifyDelete checks a deletion transition: the proof certifies knowledge
// of an exponent carrying next back to prev, which is exactly what a
// correctly folded deletion produces.
func VerifyDelete(prev, next *Accumulator, p *proof.PoKE2) bool {
	if prev == nil || next == nil {
		return false
	}
	return proof.VerifyPoKE2(prev.g, next.value, prev.value, p)
}

// WitnessFor computes the membership witness for target within the full
// member set: the empty accumulator raised to the product of every other
// member. Fails with ErrNotDivisible if target is not in members or the
// resulting witness does not root the accumulator (the member list does
// not match the accumulated set).
func (a *Accumulator) WitnessFor(members []*big.Int, target *big.Int) (group.Element, error) {
	rest := make([]*big.Int, 0, len(members))
	found := false
	for _, m := range members {
		if !found && m.Cmp(target) == 0 {
			found = true
			continue
		}
		rest = append(rest, m)
	}
	if !found {
		return nil, ErrNotDivisible
	}

	w, err := a.g.Exp(a.g.Generator(), bigint.Product(rest))
	if err != nil {
		return nil, errors.Wrap(err, "computing witness")
	}
	got, err := a.g.Exp(w, target)
	if err != nil {
		return nil, errors.Wrap(err, "checking witness")
	}
	if !a.g.Equal(got, a.value) {
		return nil, ErrNotDivisible
	}
	return w, nil
}

// UpdateWitness adjusts a membership witness for x across an accumulator
// update that deleted the pairs in deleted and then added the primes in
// added, yielding a witness valid against updated. The deleted witnesses
// must anchor to the same pre-update state as witness; they are folded
// into a single aggregate root, combined with the old witness via the
// Shamir trick, and the addition product is applied on top.
func UpdateWitness(updated *Accumulator, x *big.Int, witness group.Element, added []*big.Int, deleted []WitnessPair) (group.Element, error) {
	w := witness
	if len(deleted) > 0 {
		xAgg := new(big.Int).Set(deleted[0].Element)
		vAgg := deleted[0].Witness
		var err error
		for _, pr := range deleted[1:] {
			vAgg, err = group.ShamirTrick(updated.g, vAgg, pr.Witness, xAgg, pr.Element)
			if err != nil {
				return nil, errors.Wrap(err, "aggregating deleted witnesses")
			}
			xAgg.Mul(xAgg, pr.Element)
		}
		// w and vAgg are the x-th and xAgg-th roots of the pre-update
		// value; their combination roots the post-deletion value at x.
		w, err = group.ShamirTrick(updated.g, w, vAgg, x, xAgg)
		if err != nil {
			return nil, errors.Wrap(err, "applying deletions to witness")
		}
	}

	_, addProd := sortedProduct(added)
	w, err := updated.g.Exp(w, addProd)
	if err != nil {
		return nil, errors.Wrap(err, "applying additions to witness")
	}

	got, err := updated.g.Exp(w, x)
	if err != nil {
		return nil, errors.Wrap(err, "checking updated witness")
	}
	if !updated.g.Equal(got, updated.value) {
		return nil, ErrNotDivisible
	}
	return w, nil
}

// ProveMembership produces a proof of exponentiation certifying that
// witness roots the accumulator at x, so verifiers avoid the full
// exponentiation by x.
func (a *Accumulator) ProveMembership(witness group.Element, x *big.Int) (*proof.PoE, error) {
	return proof.ProvePoE(a.g, witness, x, a.value)
}

// VerifyMembership checks a membership proof for x against the
// accumulator.
func (a *Accumulator) VerifyMembership(witness group.Element, x *big.Int, p *proof.PoE) bool {
	return proof.VerifyPoE(a.g, witness, x, a.value, p)
}
