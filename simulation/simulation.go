// Package simulation demonstrates the accumulator driving a stateless
// blockchain: nodes keep only the accumulator value for the UTXO set,
// blocks carry proofs for their spends and creations, and owners maintain
// membership witnesses for their own outputs.
package simulation

import (
	"math/big"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	accumulator "github.com/keymist/accumulator"
	"github.com/keymist/accumulator/group"
	"github.com/keymist/accumulator/proof"
)

// Utxo is an unspent output, identified by a random 128-bit id. The id is
// what gets hashed to the output's accumulated prime.
type Utxo struct {
	ID uuid.UUID
}

// NewUtxo creates an output with a fresh random id.
func NewUtxo() Utxo {
	return Utxo{ID: uuid.New()}
}

// Element returns the accumulatable prime for the output.
func (u Utxo) Element() (*big.Int, error) {
	return accumulator.HashToElement(u.ID[:])
}

// SpentUtxo is an output being spent, carrying the membership witness the
// owner maintained for it.
type SpentUtxo struct {
	Utxo    Utxo
	Witness group.Element
}

// Transaction spends a set of outputs and creates new ones.
type Transaction struct {
	Spent   []SpentUtxo
	Created []Utxo
}

// Block is a batch of transactions with the accumulator transition proofs
// a stateless validator needs: the post-deletion value with its PoKE2 and
// the final value with its PoE. Validators check the proofs against their
// current accumulator instead of replaying the exponentiations.
type Block struct {
	Height       uint64
	Transactions []Transaction

	// PostDelete is the accumulator after removing all spends.
	PostDelete group.Element
	// PostAdd is the accumulator after also inserting all creations;
	// this is the block's final state.
	PostAdd group.Element

	DeleteProof *proof.PoKE2
	AddProof    *proof.PoE
}

// Chain holds the only state a stateless node keeps: the tip accumulator
// and its height.
type Chain struct {
	log    *zap.Logger
	tip    *accumulator.Accumulator
	height uint64
}

// NewChain starts a chain at the empty accumulator over g.
func NewChain(g group.Group, log *zap.Logger) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{log: log, tip: accumulator.Empty(g)}
}

// Tip returns the current accumulator.
func (c *Chain) Tip() *accumulator.Accumulator {
	return c.tip
}

// Height returns the current block height.
func (c *Chain) Height() uint64 {
	return c.height
}

// gather flattens a block's transactions into deletion pairs and creation
// primes.
func gather(txs []Transaction) (spent []accumulator.WitnessPair, created []*big.Int, err error) {
	for _, tx := range txs {
		for _, s := range tx.Spent {
			x, err := s.Utxo.Element()
			if err != nil {
				return nil, nil, errors.Wrap(err, "deriving spent element")
			}
			spent = append(spent, accumulator.WitnessPair{Element: x, Witness: s.Witness})
		}
		for _, u := range tx.Created {
			x, err := u.Element()
			if err != nil {
				return nil, nil, errors.Wrap(err, "deriving created element")
			}
			created = append(created, x)
		}
	}
	return spent, created, nil
}

// CreateBlock assembles the next block from txs: spends are deleted from
// the tip, creations are added, and both transitions are proven. The tip
// is not advanced; call AcceptBlock with the result.
func (c *Chain) CreateBlock(txs []Transaction) (*Block, error) {
	spent, created, err := gather(txs)
	if err != nil {
		return nil, err
	}

	mid, delProof, err := c.tip.Delete(spent)
	if err != nil {
		return nil, errors.Wrap(err, "deleting spent outputs")
	}
	next, addProof, err := mid.Add(created)
	if err != nil {
		return nil, errors.Wrap(err, "adding created outputs")
	}

	c.log.Info("block created",
		zap.Uint64("height", c.height+1),
		zap.Int("transactions", len(txs)),
		zap.Int("spent", len(spent)),
		zap.Int("created", len(created)),
	)
	return &Block{
		Height:       c.height + 1,
		Transactions: txs,
		PostDelete:   mid.Value(),
		PostAdd:      next.Value(),
		DeleteProof:  delProof,
		AddProof:     addProof,
	}, nil
}

// ValidateBlock checks a block against the current tip: heights must be
// consecutive and both transition proofs must verify over the block's
// declared intermediate and final values.
func (c *Chain) ValidateBlock(b *Block) error {
	if b == nil {
		return errors.Wrap(accumulator.ErrProofVerificationFailed, "nil block")
	}
	if b.Height != c.height+1 {
		return errors.Wrapf(accumulator.ErrProofVerificationFailed,
			"height %d does not extend %d", b.Height, c.height)
	}

	_, created, err := gather(b.Transactions)
	if err != nil {
		return err
	}

	g := c.tip.Group()
	mid := accumulator.FromValue(g, b.PostDelete)
	next := accumulator.FromValue(g, b.PostAdd)
	if !accumulator.VerifyDelete(c.tip, mid, b.DeleteProof) {
		return errors.Wrap(accumulator.ErrProofVerificationFailed, "deletion proof")
	}
	if !accumulator.VerifyAdd(mid, next, created, b.AddProof) {
		return errors.Wrap(accumulator.ErrProofVerificationFailed, "addition proof")
	}
	return nil
}

// AcceptBlock validates b and advances the tip to its final accumulator.
func (c *Chain) AcceptBlock(b *Block) error {
	if err := c.ValidateBlock(b); err != nil {
		return err
	}
	c.tip = accumulator.FromValue(c.tip.Group(), b.PostAdd)
	c.height = b.Height
	c.log.Info("block accepted", zap.Uint64("height", c.height))
	return nil
}
