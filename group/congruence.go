package group

import (
	"errors"
	"math/big"

	"github.com/keymist/accumulator/bigint"
)

// ErrCongruenceNotSolvable indicates a linear congruence ax = b (mod m)
// where gcd(a, m) does not divide b.
var ErrCongruenceNotSolvable = errors.New("linear congruence has no solution")

// solveLinearCongruence solves ax = b (mod m) for x, returning a solution
// mu and the period v = m / gcd(a, m): the full solution set is
// {mu + k*v}. mu is normalized into [0, m). Gauss composition leans on
// this for its two quotient steps.
func solveLinearCongruence(a, b, m *big.Int) (mu, v *big.Int, err error) {
	g, s, _ := bigint.ExtendedGCD(a, m)
	if g.Sign() == 0 {
		return nil, nil, ErrCongruenceNotSolvable
	}
	q, r, err := bigint.DivMod(b, g)
	if err != nil {
		return nil, nil, err
	}
	if r.Sign() != 0 {
		return nil, nil, ErrCongruenceNotSolvable
	}

	mu = new(big.Int).Mul(q, s)
	mu.Mod(mu, m)
	v = new(big.Int).Quo(m, g)
	return mu, v, nil
}
