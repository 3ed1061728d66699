package group

import (
	"errors"
	"math/big"
	"testing"
)

func TestSolveLinearCongruence(t *testing.T) {
	tests := []struct {
		a, b, m int64
		mu, v   int64
	}{
		{3, 2, 4, 2, 4},
		{5, 1, 2, 1, 2},
		{2, 4, 5, 2, 5},
		{230, 1081, 12167, 2491, 529},
	}
	for _, tc := range tests {
		mu, v, err := solveLinearCongruence(big.NewInt(tc.a), big.NewInt(tc.b), big.NewInt(tc.m))
		if err != nil {
			t.Fatalf("solveLinearCongruence(%d, %d, %d) failed: %v", tc.a, tc.b, tc.m, err)
		}
		if mu.Int64() != tc.mu || v.Int64() != tc.v {
			t.Errorf("solveLinearCongruence(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tc.a, tc.b, tc.m, mu.Int64(), v.Int64(), tc.mu, tc.v)
		}
		// The solution and its period must actually solve the congruence.
		for k := int64(0); k < 3; k++ {
			x := mu.Int64() + k*v.Int64()
			if (tc.a*x-tc.b)%tc.m != 0 {
				t.Errorf("x = %d does not solve %dx = %d (mod %d)", x, tc.a, tc.b, tc.m)
			}
		}
	}
}

func TestSolveLinearCongruenceNoSolution(t *testing.T) {
	// gcd(33, 143) = 11 does not divide 7.
	_, _, err := solveLinearCongruence(big.NewInt(33), big.NewInt(7), big.NewInt(143))
	if !errors.Is(err, ErrCongruenceNotSolvable) {
		t.Errorf("got %v, want ErrCongruenceNotSolvable", err)
	}
}
