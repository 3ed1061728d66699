package group

import (
	"errors"
	"math/big"
	"testing"

	"github.com/keymist/accumulator/utils"
)

// testClassGroup returns the class group of discriminant -23, which has
// class number 3: every element is the identity, the generator, or its
// inverse. Small enough to check the full multiplication table.
func testClassGroup(t *testing.T) *ClassGroup {
	t.Helper()
	g, err := NewClassGroup(big.NewInt(-23))
	if err != nil {
		t.Fatalf("NewClassGroup failed: %v", err)
	}
	return g
}

func coeffs(t *testing.T, e Element) (int64, int64, int64) {
	t.Helper()
	ce, ok := e.(*ClassElement)
	if !ok {
		t.Fatal("not a class group element")
	}
	a, b, c := ce.Coefficients()
	return a.Int64(), b.Int64(), c.Int64()
}

func TestNewClassGroupRejectsBadDiscriminants(t *testing.T) {
	bad := []*big.Int{
		nil,
		big.NewInt(23),   // positive
		big.NewInt(-20),  // 0 mod 4
		big.NewInt(-21),  // 3 mod 4 (Euclidean)
		big.NewInt(-15),  // |D| composite
		big.NewInt(-231), // |D| composite
	}
	for _, d := range bad {
		if _, err := NewClassGroup(d); err == nil {
			t.Errorf("NewClassGroup(%v) should fail", d)
		}
	}
}

func TestClassGroupIdentityAndGenerator(t *testing.T) {
	g := testClassGroup(t)

	a, b, c := coeffs(t, g.Identity())
	if a != 1 || b != 1 || c != 6 {
		t.Errorf("identity = (%d, %d, %d), want (1, 1, 6)", a, b, c)
	}

	a, b, c = coeffs(t, g.Generator())
	if a != 2 || b != 1 || c != 3 {
		t.Errorf("generator = (%d, %d, %d), want (2, 1, 3)", a, b, c)
	}
}

func TestClassGroupGeneratorSkipsInertPrimes(t *testing.T) {
	// -11 = 5 (mod 8), so b^2 = -11 (mod 8) has no solution and no form
	// with leading coefficient 2 exists. The prime-form walk must continue
	// to 3, which reduces to the principal form (class number 1).
	g, err := NewClassGroup(big.NewInt(-11))
	if err != nil {
		t.Fatalf("NewClassGroup failed: %v", err)
	}
	a, b, c := coeffs(t, g.Generator())
	if a != 1 || b != 1 || c != 3 {
		t.Errorf("generator = (%d, %d, %d), want (1, 1, 3)", a, b, c)
	}
	if !g.Equal(g.Generator(), g.Identity()) {
		t.Error("discriminant -11 has class number 1, generator should be principal")
	}
}

func TestNextPrime(t *testing.T) {
	cases := [][2]int64{{2, 3}, {3, 5}, {13, 17}, {47, 53}, {89, 97}}
	for _, tc := range cases {
		if got := nextPrime(big.NewInt(tc[0])); got.Int64() != tc[1] {
			t.Errorf("nextPrime(%d) = %d, want %d", tc[0], got.Int64(), tc[1])
		}
	}
}

func TestClassGroupOrderThree(t *testing.T) {
	g := testClassGroup(t)
	gen := g.Generator()

	sq, err := g.Op(gen, gen)
	if err != nil {
		t.Fatalf("Op failed: %v", err)
	}
	a, b, c := coeffs(t, sq)
	if a != 2 || b != -1 || c != 3 {
		t.Errorf("gen^2 = (%d, %d, %d), want (2, -1, 3)", a, b, c)
	}

	// In a group of order 3 the square is the inverse.
	inv, err := g.Inverse(gen)
	if err != nil {
		t.Fatalf("Inverse failed: %v", err)
	}
	if !g.Equal(sq, inv) {
		t.Error("gen^2 != gen^-1")
	}

	cube, err := g.Op(sq, gen)
	if err != nil {
		t.Fatalf("Op failed: %v", err)
	}
	if !g.Equal(cube, g.Identity()) {
		t.Error("gen^3 != identity")
	}
}

func TestClassGroupExp(t *testing.T) {
	g := testClassGroup(t)
	gen := g.Generator()

	p3, err := g.Exp(gen, big.NewInt(3))
	if err != nil {
		t.Fatalf("Exp failed: %v", err)
	}
	if !g.Equal(p3, g.Identity()) {
		t.Error("gen^3 != identity")
	}

	p2, _ := g.Exp(gen, big.NewInt(2))
	inv, _ := g.Inverse(gen)
	if !g.Equal(p2, inv) {
		t.Error("gen^2 != gen^-1")
	}

	// Exponents reduce mod the order: gen^100 = gen^(100 mod 3) = gen.
	p100, _ := g.Exp(gen, big.NewInt(100))
	if !g.Equal(p100, gen) {
		t.Error("gen^100 != gen")
	}

	pNeg, err := g.Exp(gen, big.NewInt(-1))
	if err != nil {
		t.Fatalf("Exp(-1) failed: %v", err)
	}
	if !g.Equal(pNeg, inv) {
		t.Error("gen^-1 != Inverse(gen)")
	}

	p0, _ := g.Exp(gen, big.NewInt(0))
	if !g.Equal(p0, g.Identity()) {
		t.Error("gen^0 != identity")
	}
}

func TestClassGroupOpLaws(t *testing.T) {
	g := testClassGroup(t)
	gen := g.Generator()
	sq, _ := g.Op(gen, gen)

	// Commutativity.
	ab, _ := g.Op(gen, sq)
	ba, _ := g.Op(sq, gen)
	if !g.Equal(ab, ba) {
		t.Error("composition is not commutative")
	}

	// Identity is neutral.
	same, _ := g.Op(gen, g.Identity())
	if !g.Equal(same, gen) {
		t.Error("identity is not neutral")
	}

	// Associativity over the three non-trivial combinations.
	left, _ := g.Op(ab, gen)
	inner, _ := g.Op(sq, gen)
	right, _ := g.Op(gen, inner)
	if !g.Equal(left, right) {
		t.Error("composition is not associative")
	}
}

func TestClassGroupNewElementValidation(t *testing.T) {
	g := testClassGroup(t)

	if _, err := g.NewElement(big.NewInt(2), big.NewInt(1), big.NewInt(3)); err != nil {
		t.Errorf("valid form rejected: %v", err)
	}

	// Wrong discriminant.
	if _, err := g.NewElement(big.NewInt(1), big.NewInt(1), big.NewInt(5)); err == nil {
		t.Error("form of wrong discriminant accepted")
	}
	// Not reduced: a > c.
	if _, err := g.NewElement(big.NewInt(3), big.NewInt(1), big.NewInt(2)); err == nil {
		t.Error("non-reduced form accepted")
	}
	// b < 0 with a == c.
	if _, err := g.NewElement(big.NewInt(2), big.NewInt(-1), big.NewInt(3)); err != nil {
		t.Errorf("reduced form (2, -1, 3) rejected: %v", err)
	}
}

func TestClassGroupEncodeDecode(t *testing.T) {
	g := testClassGroup(t)

	for _, e := range []Element{g.Identity(), g.Generator()} {
		dec, err := g.Decode(e.Encode())
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if !g.Equal(dec, e) {
			t.Error("Decode(Encode(x)) != x")
		}
	}

	sq, _ := g.Op(g.Generator(), g.Generator())
	dec, err := g.Decode(sq.Encode())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !g.Equal(dec, sq) {
		t.Error("negative middle coefficient did not round trip")
	}

	if _, err := g.Decode([]byte{1, 2, 3}); !errors.Is(err, ErrInvalidGroupElement) {
		t.Errorf("got %v, want ErrInvalidGroupElement", err)
	}

	// Zero-padding a coefficient magnitude must not yield a second byte
	// string for the same element.
	padded := utils.TranscriptConcat(
		[]byte{0, 0, 2}, // generator's a = 2 with a padded magnitude
		[]byte{0, 1},
		[]byte{0, 3},
	)
	if _, err := g.Decode(padded); !errors.Is(err, ErrInvalidGroupElement) {
		t.Errorf("non-minimal coefficient encoding accepted: %v", err)
	}
}

func TestClassGroupLargeDiscriminant(t *testing.T) {
	// 2^127 - 1 is prime and 7 mod 8, so -(2^127 - 1) is a usable
	// discriminant with the standard (2, 1, (1-D)/8) generator.
	p := new(big.Int).Lsh(big.NewInt(1), 127)
	p.Sub(p, big.NewInt(1))
	g, err := NewClassGroup(new(big.Int).Neg(p))
	if err != nil {
		t.Fatalf("NewClassGroup failed: %v", err)
	}

	gen := g.Generator()
	a, b, _ := coeffs(t, gen)
	if a != 2 || b != 1 {
		t.Errorf("generator leading coefficients (%d, %d), want (2, 1)", a, b)
	}

	// Exponent arithmetic must be consistent: g^6 == (g^2)^3.
	p6, err := g.Exp(gen, big.NewInt(6))
	if err != nil {
		t.Fatalf("Exp failed: %v", err)
	}
	p2, _ := g.Exp(gen, big.NewInt(2))
	p23, err := g.Exp(p2, big.NewInt(3))
	if err != nil {
		t.Fatalf("Exp failed: %v", err)
	}
	if !g.Equal(p6, p23) {
		t.Error("g^6 != (g^2)^3")
	}

	// Inverse law.
	inv, _ := g.Inverse(gen)
	one, err := g.Op(gen, inv)
	if err != nil {
		t.Fatalf("Op failed: %v", err)
	}
	if !g.Equal(one, g.Identity()) {
		t.Error("g * g^-1 != identity")
	}
}
