package group

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/keymist/accumulator/bigint"
	"github.com/keymist/accumulator/primes"
	"github.com/keymist/accumulator/utils"
)

// classGroupSeed deterministically fixes the default discriminant: the
// discriminant is -p for the first 1024-bit hash-to-prime output of this
// seed (with an incrementing suffix) satisfying p = 7 (mod 8). Anyone can
// rerun the derivation, so no trusted setup is required.
const classGroupSeed = "accumulator-class-group-discriminant-v1"

const defaultDiscriminantBits = 1024

// ClassGroup is the class group of primitive binary quadratic forms of a
// fixed negative discriminant D with D = 1 (mod 4) and |D| prime. Elements
// are reduced forms; composition is Gauss composition followed immediately
// by reduction so coefficients never grow across repeated operations.
type ClassGroup struct {
	d *big.Int

	genOnce sync.Once
	gen     *ClassElement
}

// ClassElement is a reduced positive-definite form (a, b, c) with
// b^2 - 4ac = D, |b| <= a <= c, and b >= 0 when |b| = a or a = c.
type ClassElement struct {
	owner   *ClassGroup
	a, b, c *big.Int
}

// NewClassGroup validates and fixes a discriminant. The discriminant must
// be negative, congruent to 1 mod 4, and have prime absolute value; a
// malformed discriminant is rejected here rather than surfacing later as
// corrupt group arithmetic.
func NewClassGroup(discriminant *big.Int) (*ClassGroup, error) {
	if discriminant == nil || discriminant.Sign() >= 0 {
		return nil, errors.Wrap(ErrInvalidGroupElement, "discriminant must be negative")
	}
	if new(big.Int).Mod(discriminant, big.NewInt(4)).Cmp(big.NewInt(1)) != 0 {
		return nil, errors.Wrap(ErrInvalidGroupElement, "discriminant must be 1 mod 4")
	}
	abs := new(big.Int).Neg(discriminant)
	if !primes.IsProbablePrime(abs, primes.DefaultMillerRabinRounds) {
		return nil, errors.Wrap(ErrInvalidGroupElement, "discriminant must have prime absolute value")
	}
	return &ClassGroup{d: new(big.Int).Set(discriminant)}, nil
}

var (
	defaultClassOnce  sync.Once
	defaultClassGroup *ClassGroup
	defaultClassErr   error
)

// DefaultClassGroup returns the group over the discriminant derived from
// the published seed. The derivation runs once per process; the resulting
// instance is immutable and safe for concurrent use.
func DefaultClassGroup() (*ClassGroup, error) {
	defaultClassOnce.Do(func() {
		for counter := uint64(0); ; counter++ {
			seed := utils.TranscriptConcat(
				[]byte(classGroupSeed),
				new(big.Int).SetUint64(counter).Bytes(),
			)
			p, err := primes.HashToPrime(seed, defaultDiscriminantBits)
			if err != nil {
				defaultClassErr = err
				return
			}
			// p = 7 (mod 8) gives D = 1 (mod 8), so the standard
			// generator (2, 1, (1-D)/8) exists.
			if new(big.Int).Mod(p, big.NewInt(8)).Int64() != 7 {
				continue
			}
			defaultClassGroup, defaultClassErr = NewClassGroup(new(big.Int).Neg(p))
			return
		}
	})
	return defaultClassGroup, defaultClassErr
}

// Discriminant returns a copy of the group's discriminant.
func (g *ClassGroup) Discriminant() *big.Int {
	return new(big.Int).Set(g.d)
}

// NewElement constructs the element for coefficients (a, b, c), rejecting
// triples that are not reduced forms of the group's discriminant.
func (g *ClassGroup) NewElement(a, b, c *big.Int) (Element, error) {
	e := &ClassElement{
		owner: g,
		a:     new(big.Int).Set(a),
		b:     new(big.Int).Set(b),
		c:     new(big.Int).Set(c),
	}
	if !g.isValid(e) {
		return nil, ErrInvalidGroupElement
	}
	return e, nil
}

// isValid checks the discriminant equation and the reduction invariants.
func (g *ClassGroup) isValid(e *ClassElement) bool {
	if e.a.Sign() <= 0 {
		return false
	}
	// b^2 - 4ac = D
	disc := new(big.Int).Mul(e.b, e.b)
	fourAC := new(big.Int).Mul(e.a, e.c)
	fourAC.Lsh(fourAC, 2)
	disc.Sub(disc, fourAC)
	if disc.Cmp(g.d) != 0 {
		return false
	}
	// |b| <= a <= c
	absB := new(big.Int).Abs(e.b)
	if absB.Cmp(e.a) > 0 || e.a.Cmp(e.c) > 0 {
		return false
	}
	// b >= 0 when |b| = a or a = c
	if (absB.Cmp(e.a) == 0 || e.a.Cmp(e.c) == 0) && e.b.Sign() < 0 {
		return false
	}
	return true
}

func (g *ClassGroup) elem(x Element) (*ClassElement, error) {
	e, ok := x.(*ClassElement)
	if !ok || e.owner != g {
		return nil, ErrInvalidGroupElement
	}
	return e, nil
}

// Identity returns the principal form (1, 1, (1-D)/4).
func (g *ClassGroup) Identity() Element {
	c := new(big.Int).Sub(big.NewInt(1), g.d)
	c.Rsh(c, 2)
	return &ClassElement{owner: g, a: big.NewInt(1), b: big.NewInt(1), c: c}
}

// Generator returns the reduced prime form with the smallest leading
// coefficient: the smallest prime a admitting b with b^2 = D (mod 4a).
// For D = 1 (mod 8) this is the standard (2, 1, (1-D)/8).
func (g *ClassGroup) Generator() Element {
	g.genOnce.Do(func() {
		g.gen = g.findPrimeForm()
	})
	return g.gen
}

// findPrimeForm walks successive primes a until one admits b with
// b^2 = D (mod 4a). About half of all primes split any fixed discriminant,
// so the walk stays short; it never gives up on a valid discriminant.
func (g *ClassGroup) findPrimeForm() *ClassElement {
	one := big.NewInt(1)
	four := big.NewInt(4)
	for a := big.NewInt(2); ; a = nextPrime(a) {
		fourA := new(big.Int).Mul(four, a)
		twoA := new(big.Int).Lsh(a, 1)
		// Brute force b in [0, 2a): the moduli are tiny.
		for b := new(big.Int); b.Cmp(twoA) < 0; b.Add(b, one) {
			t := new(big.Int).Mul(b, b)
			t.Sub(t, g.d)
			rem := new(big.Int)
			q, _ := new(big.Int).DivMod(t, fourA, rem)
			if rem.Sign() != 0 {
				continue
			}
			f := &ClassElement{
				owner: g,
				a:     new(big.Int).Set(a),
				b:     new(big.Int).Set(b),
				c:     q,
			}
			return g.reduce(f)
		}
	}
}

// nextPrime returns the smallest prime greater than n.
func nextPrime(n *big.Int) *big.Int {
	p := new(big.Int).Add(n, big.NewInt(1))
	if p.Bit(0) == 0 && p.Cmp(big.NewInt(2)) != 0 {
		p.Add(p, big.NewInt(1))
	}
	for !primes.IsProbablePrime(p, primes.DefaultMillerRabinRounds) {
		p.Add(p, big.NewInt(2))
	}
	return p
}

// normalize shifts b into (-a, a] without leaving the equivalence class.
func (g *ClassGroup) normalize(f *ClassElement) *ClassElement {
	negA := new(big.Int).Neg(f.a)
	if f.b.Cmp(negA) > 0 && f.b.Cmp(f.a) <= 0 {
		return f
	}
	// r = floor((a - b) / 2a)
	r := new(big.Int).Sub(f.a, f.b)
	r.Div(r, new(big.Int).Lsh(f.a, 1))

	// b' = b + 2ra, c' = ar^2 + br + c
	twoRA := new(big.Int).Mul(r, f.a)
	twoRA.Lsh(twoRA, 1)
	b := new(big.Int).Add(f.b, twoRA)

	c := new(big.Int).Mul(f.a, r)
	c.Mul(c, r)
	br := new(big.Int).Mul(f.b, r)
	c.Add(c, br)
	c.Add(c, f.c)

	return &ClassElement{owner: g, a: f.a, b: b, c: c}
}

// reduce canonicalizes a form of the group's discriminant. Reduction runs
// after every composition; skipping it would let coefficients grow
// exponentially across repeated operations.
func (g *ClassGroup) reduce(f *ClassElement) *ClassElement {
	f = g.normalize(f)
	for f.a.Cmp(f.c) > 0 || (f.a.Cmp(f.c) == 0 && f.b.Sign() < 0) {
		// rho step: (a, b, c) -> (c, -b + 2sc, cs^2 - bs + a), s = floor((c+b)/2c)
		s := new(big.Int).Add(f.c, f.b)
		s.Div(s, new(big.Int).Lsh(f.c, 1))

		b := new(big.Int).Mul(s, f.c)
		b.Lsh(b, 1)
		b.Sub(b, f.b)

		c := new(big.Int).Mul(f.c, s)
		c.Mul(c, s)
		bs := new(big.Int).Mul(f.b, s)
		c.Sub(c, bs)
		c.Add(c, f.a)

		f = &ClassElement{owner: g, a: f.c, b: b, c: c}
	}
	return g.normalize(f)
}

// Op composes two forms with Gauss composition and reduces the result.
func (g *ClassGroup) Op(x, y Element) (Element, error) {
	ex, err := g.elem(x)
	if err != nil {
		return nil, err
	}
	ey, err := g.elem(y)
	if err != nil {
		return nil, err
	}
	return g.compose(ex, ey)
}

// compose implements Gauss composition of forms (a1, b1, c1) and
// (a2, b2, c2) via two linear congruences.
func (g *ClassGroup) compose(x, y *ClassElement) (*ClassElement, error) {
	// g0 = (b1 + b2)/2, h = (b2 - b1)/2, w = gcd(a1, a2, g0)
	g0 := new(big.Int).Add(x.b, y.b)
	g0.Rsh(g0, 1)
	h := new(big.Int).Sub(y.b, x.b)
	// b1 and b2 share parity (both odd for D = 1 mod 4), so the halves
	// are exact.
	if h.Bit(0) != 0 {
		return nil, ErrInvalidGroupElement
	}
	h.Rsh(h, 1)

	w, _, _ := bigint.ExtendedGCD(x.a, y.a)
	w, _, _ = bigint.ExtendedGCD(w, g0)

	j := w
	s := new(big.Int).Quo(x.a, w)
	t := new(big.Int).Quo(y.a, w)
	u := new(big.Int).Quo(g0, w)
	st := new(big.Int).Mul(s, t)

	// Solve (tu)k = hu + sc1 (mod st) for k = mu + v*n.
	tu := new(big.Int).Mul(t, u)
	hu := new(big.Int).Mul(h, u)
	sc1 := new(big.Int).Mul(s, x.c)
	mu, v, err := solveLinearCongruence(tu, new(big.Int).Add(hu, sc1), st)
	if err != nil {
		return nil, errors.Wrap(err, "composing forms")
	}

	// Solve (tv)n = h - t*mu (mod s) for n = lambda + sigma*m.
	tv := new(big.Int).Mul(t, v)
	tmu := new(big.Int).Mul(t, mu)
	lambda, _, err := solveLinearCongruence(tv, new(big.Int).Sub(h, tmu), s)
	if err != nil {
		return nil, errors.Wrap(err, "composing forms")
	}

	// k = mu + v*lambda, l = (kt - h)/s, m = (tuk - hu - c1*s)/(st)
	k := new(big.Int).Mul(v, lambda)
	k.Add(k, mu)

	l := new(big.Int).Mul(k, t)
	l.Sub(l, h)
	l.Quo(l, s)

	m := new(big.Int).Mul(tu, k)
	m.Sub(m, hu)
	m.Sub(m, sc1)
	m.Quo(m, st)

	// (a3, b3, c3) = (st, ju - (kt + ls), kl - jm)
	a3 := st
	b3 := new(big.Int).Mul(j, u)
	kt := new(big.Int).Mul(k, t)
	ls := new(big.Int).Mul(l, s)
	b3.Sub(b3, kt)
	b3.Sub(b3, ls)
	c3 := new(big.Int).Mul(k, l)
	jm := new(big.Int).Mul(j, m)
	c3.Sub(c3, jm)

	return g.reduce(&ClassElement{owner: g, a: a3, b: b3, c: c3}), nil
}

// Inverse negates the middle coefficient and re-reduces.
func (g *ClassGroup) Inverse(x Element) (Element, error) {
	e, err := g.elem(x)
	if err != nil {
		return nil, err
	}
	inv := &ClassElement{
		owner: g,
		a:     new(big.Int).Set(e.a),
		b:     new(big.Int).Neg(e.b),
		c:     new(big.Int).Set(e.c),
	}
	return g.reduce(inv), nil
}

// Exp raises base to exponent with the constant-structure ladder; every
// intermediate composition reduces, so forms stay bounded.
func (g *ClassGroup) Exp(base Element, exponent *big.Int) (Element, error) {
	if _, err := g.elem(base); err != nil {
		return nil, err
	}
	return expWithSign(g, base, exponent)
}

// Equal reports whether two elements are the same reduced form.
func (g *ClassGroup) Equal(x, y Element) bool {
	ex, err := g.elem(x)
	if err != nil {
		return false
	}
	ey, err := g.elem(y)
	if err != nil {
		return false
	}
	return ex.a.Cmp(ey.a) == 0 && ex.b.Cmp(ey.b) == 0 && ex.c.Cmp(ey.c) == 0
}

// Decode parses the coefficient-triple encoding produced by Encode.
func (g *ClassGroup) Decode(data []byte) (Element, error) {
	fields, err := splitTranscript(data, 3)
	if err != nil {
		return nil, ErrInvalidGroupElement
	}
	a, err := bigint.Decode(fields[0])
	if err != nil {
		return nil, ErrInvalidGroupElement
	}
	b, err := bigint.Decode(fields[1])
	if err != nil {
		return nil, ErrInvalidGroupElement
	}
	c, err := bigint.Decode(fields[2])
	if err != nil {
		return nil, ErrInvalidGroupElement
	}
	return g.NewElement(a, b, c)
}

// splitTranscript undoes TranscriptConcat framing for exactly n fields.
func splitTranscript(data []byte, n int) ([][]byte, error) {
	fields := make([][]byte, 0, n)
	for len(data) > 0 {
		if len(data) < 4 {
			return nil, ErrInvalidGroupElement
		}
		l := int(data[0])<<24 | int(data[1])<<16 | int(data[2])<<8 | int(data[3])
		data = data[4:]
		if l < 0 || l > len(data) {
			return nil, ErrInvalidGroupElement
		}
		fields = append(fields, data[:l])
		data = data[l:]
	}
	if len(fields) != n {
		return nil, ErrInvalidGroupElement
	}
	return fields, nil
}

// Encode returns the canonical coefficient-triple encoding: the
// sign-magnitude encodings of a, b, c, each length-prefixed. Injective on
// reduced forms since the reduced representative is unique per class.
func (e *ClassElement) Encode() []byte {
	return utils.TranscriptConcat(
		bigint.Encode(e.a),
		bigint.Encode(e.b),
		bigint.Encode(e.c),
	)
}

// Coefficients returns copies of (a, b, c).
func (e *ClassElement) Coefficients() (a, b, c *big.Int) {
	return new(big.Int).Set(e.a), new(big.Int).Set(e.b), new(big.Int).Set(e.c)
}
