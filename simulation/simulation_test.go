package simulation

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	accumulator "github.com/keymist/accumulator"
	"github.com/keymist/accumulator/group"
)

// testChain uses a 64-bit semiprime, (2^32-5) * (2^32-17): fast, with a
// group large enough that distinct element products never collide.
func testChain(t *testing.T) *Chain {
	t.Helper()
	n, ok := new(big.Int).SetString("18446743979220271189", 10)
	require.True(t, ok)
	g, err := group.NewRSAGroup(n)
	require.NoError(t, err)
	return NewChain(g, zap.NewNop())
}

func elements(t *testing.T, utxos []Utxo) []*big.Int {
	t.Helper()
	out := make([]*big.Int, len(utxos))
	for i, u := range utxos {
		x, err := u.Element()
		require.NoError(t, err)
		out[i] = x
	}
	return out
}

func TestUtxoElementDeterministic(t *testing.T) {
	u := NewUtxo()
	x, err := u.Element()
	require.NoError(t, err)
	y, err := u.Element()
	require.NoError(t, err)
	require.Zero(t, x.Cmp(y))
	require.Equal(t, accumulator.ElementBits, x.BitLen())

	other, err := NewUtxo().Element()
	require.NoError(t, err)
	require.NotZero(t, x.Cmp(other))
}

func TestChainGenesisBlock(t *testing.T) {
	c := testChain(t)
	require.EqualValues(t, 0, c.Height())

	created := []Utxo{NewUtxo(), NewUtxo(), NewUtxo()}
	block, err := c.CreateBlock([]Transaction{{Created: created}})
	require.NoError(t, err)
	require.EqualValues(t, 1, block.Height)

	require.NoError(t, c.AcceptBlock(block))
	require.EqualValues(t, 1, c.Height())

	// The tip commits to exactly the created outputs.
	g := c.Tip().Group()
	want, _, err := accumulator.Empty(g).Add(elements(t, created))
	require.NoError(t, err)
	require.True(t, g.Equal(c.Tip().Value(), want.Value()))
}

func TestChainSpendAndCreate(t *testing.T) {
	c := testChain(t)

	created := []Utxo{NewUtxo(), NewUtxo()}
	block, err := c.CreateBlock([]Transaction{{Created: created}})
	require.NoError(t, err)
	require.NoError(t, c.AcceptBlock(block))

	// Spend the first output, create a fresh one.
	elems := elements(t, created)
	w, err := c.Tip().WitnessFor(elems, elems[0])
	require.NoError(t, err)

	tx := Transaction{
		Spent:   []SpentUtxo{{Utxo: created[0], Witness: w}},
		Created: []Utxo{NewUtxo()},
	}
	block2, err := c.CreateBlock([]Transaction{tx})
	require.NoError(t, err)
	require.NoError(t, c.ValidateBlock(block2))
	require.NoError(t, c.AcceptBlock(block2))
	require.EqualValues(t, 2, c.Height())
}

func TestValidateBlockRejectsTampering(t *testing.T) {
	c := testChain(t)

	created := []Utxo{NewUtxo()}
	block, err := c.CreateBlock([]Transaction{{Created: created}})
	require.NoError(t, err)

	// Wrong height.
	badHeight := *block
	badHeight.Height = 5
	require.ErrorIs(t, c.ValidateBlock(&badHeight), accumulator.ErrProofVerificationFailed)

	// Tampered final value.
	badValue := *block
	badValue.PostAdd = c.Tip().Group().Generator()
	require.ErrorIs(t, c.ValidateBlock(&badValue), accumulator.ErrProofVerificationFailed)

	// Extra undeclared output invalidates the addition proof.
	badTxs := *block
	badTxs.Transactions = []Transaction{{Created: append(created, NewUtxo())}}
	require.ErrorIs(t, c.ValidateBlock(&badTxs), accumulator.ErrProofVerificationFailed)

	require.ErrorIs(t, c.ValidateBlock(nil), accumulator.ErrProofVerificationFailed)

	// The untampered block still verifies and lands.
	require.NoError(t, c.AcceptBlock(block))
}

func TestAcceptBlockRejectsStaleBlock(t *testing.T) {
	c := testChain(t)

	block, err := c.CreateBlock([]Transaction{{Created: []Utxo{NewUtxo()}}})
	require.NoError(t, err)
	require.NoError(t, c.AcceptBlock(block))

	// Replaying the same block must fail on height.
	require.Error(t, c.AcceptBlock(block))
}

func TestCreateBlockRejectsBadWitness(t *testing.T) {
	c := testChain(t)

	created := []Utxo{NewUtxo(), NewUtxo()}
	block, err := c.CreateBlock([]Transaction{{Created: created}})
	require.NoError(t, err)
	require.NoError(t, c.AcceptBlock(block))

	// Spend with a witness that does not root the tip: the generator
	// accounts for neither remaining output.
	tx := Transaction{
		Spent: []SpentUtxo{{Utxo: created[0], Witness: c.Tip().Group().Generator()}},
	}
	_, err = c.CreateBlock([]Transaction{tx})
	require.ErrorIs(t, err, accumulator.ErrNotDivisible)
}

func TestChainOwnerMaintainsWitness(t *testing.T) {
	c := testChain(t)

	mine := NewUtxo()
	others := []Utxo{NewUtxo(), NewUtxo()}
	all := append([]Utxo{mine}, others...)
	block, err := c.CreateBlock([]Transaction{{Created: all}})
	require.NoError(t, err)
	require.NoError(t, c.AcceptBlock(block))

	allElems := elements(t, all)
	myElem := allElems[0]
	myWitness, err := c.Tip().WitnessFor(allElems, myElem)
	require.NoError(t, err)

	// A block spends someone else's output and creates a new one; the
	// owner updates their witness across it.
	otherElems := elements(t, others)
	spentWitness, err := c.Tip().WitnessFor(allElems, otherElems[0])
	require.NoError(t, err)
	fresh := NewUtxo()
	tx := Transaction{
		Spent:   []SpentUtxo{{Utxo: others[0], Witness: spentWitness}},
		Created: []Utxo{fresh},
	}
	block2, err := c.CreateBlock([]Transaction{tx})
	require.NoError(t, err)
	require.NoError(t, c.AcceptBlock(block2))

	freshElem, err := fresh.Element()
	require.NoError(t, err)
	updated, err := accumulator.UpdateWitness(
		c.Tip(), myElem, myWitness,
		[]*big.Int{freshElem},
		[]accumulator.WitnessPair{{Element: otherElems[0], Witness: spentWitness}},
	)
	require.NoError(t, err)

	p, err := c.Tip().ProveMembership(updated, myElem)
	require.NoError(t, err)
	require.True(t, c.Tip().VerifyMembership(updated, myElem, p))
}
