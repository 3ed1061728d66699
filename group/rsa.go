package group

import (
	"math/big"
	"sync"

	"github.com/keymist/accumulator/bigint"
)

// defaultRSAModulus is a fixed 2048-bit semiprime published with the
// library. It was generated once as the product of two 1024-bit primes and
// the factors were discarded; a production deployment wanting different
// trust assumptions should construct its group from its own modulus.
const defaultRSAModulus = "2397198245343467356311148436284092737078838081284497187325072522950046" +
	"8096176617824167218225689745813946542671113414449379697647910336326139" +
	"7846391601203440598608773517765089694239326094920400537403846342994168" +
	"7023666223380879343437350519412872173258192558325860073185814717189804" +
	"1419633028063466781558350845958757693576976440365582246086839957131193" +
	"8069033534836169765601330579527675453034170695644846944038077490588325" +
	"2986889359269887532746505473999097344684144390628660748606882768308919" +
	"0000021824446248217696872271078075398704690799725671762609516167531598" +
	"402134355426855260601797996987085683671150888935273608217"

// RSAGroup is the multiplicative group of residues modulo a semiprime of
// unknown factorization, quotiented by {+-1}: every element is represented
// by min(x, N-x), which removes the known order-2 element -1 that could
// otherwise be used to forge proof quotients.
type RSAGroup struct {
	n       *big.Int
	nHalf   *big.Int
	byteLen int
}

// RSAElement is a residue in the RSA-style group, normalized to the
// smaller of x and N-x.
type RSAElement struct {
	owner *RSAGroup
	v     *big.Int
}

// NewRSAGroup builds a group from a caller-supplied modulus. The modulus
// must be an odd integer greater than 3; it is trusted to be a semiprime
// with unknown factorization.
func NewRSAGroup(modulus *big.Int) (*RSAGroup, error) {
	if modulus == nil || modulus.Cmp(big.NewInt(3)) <= 0 || modulus.Bit(0) == 0 {
		return nil, ErrInvalidGroupElement
	}
	n := new(big.Int).Set(modulus)
	return &RSAGroup{
		n:       n,
		nHalf:   new(big.Int).Rsh(n, 1),
		byteLen: (n.BitLen() + 7) / 8,
	}, nil
}

var (
	defaultRSAOnce  sync.Once
	defaultRSAGroup *RSAGroup
)

// DefaultRSAGroup returns the group over the published 2048-bit modulus.
// The instance is built once and shared; it is immutable and safe for
// concurrent use.
func DefaultRSAGroup() *RSAGroup {
	defaultRSAOnce.Do(func() {
		n, ok := new(big.Int).SetString(defaultRSAModulus, 10)
		if !ok {
			panic("malformed default RSA modulus")
		}
		g, err := NewRSAGroup(n)
		if err != nil {
			panic(err)
		}
		defaultRSAGroup = g
	})
	return defaultRSAGroup
}

// Modulus returns a copy of the group's modulus.
func (g *RSAGroup) Modulus() *big.Int {
	return new(big.Int).Set(g.n)
}

// NewElement constructs the element for residue v, rejecting values
// outside [1, N) and residues sharing a factor with the modulus.
func (g *RSAGroup) NewElement(v *big.Int) (Element, error) {
	if v == nil || v.Sign() <= 0 || v.Cmp(g.n) >= 0 {
		return nil, ErrInvalidGroupElement
	}
	gcd, _, _ := bigint.ExtendedGCD(v, g.n)
	if gcd.Cmp(big.NewInt(1)) != 0 {
		return nil, ErrInvalidGroupElement
	}
	return g.normalize(new(big.Int).Set(v)), nil
}

// normalize maps v to min(v, N-v). v must already be reduced mod N.
func (g *RSAGroup) normalize(v *big.Int) *RSAElement {
	if v.Cmp(g.nHalf) > 0 {
		v.Sub(g.n, v)
	}
	return &RSAElement{owner: g, v: v}
}

func (g *RSAGroup) elem(a Element) (*RSAElement, error) {
	e, ok := a.(*RSAElement)
	if !ok || e.owner != g {
		return nil, ErrInvalidGroupElement
	}
	return e, nil
}

// Identity returns the residue 1.
func (g *RSAGroup) Identity() Element {
	return &RSAElement{owner: g, v: big.NewInt(1)}
}

// Generator returns the residue 2, the conventional base of presumed
// unknown order for a semiprime modulus.
func (g *RSAGroup) Generator() Element {
	return &RSAElement{owner: g, v: big.NewInt(2)}
}

// Op multiplies two residues mod N.
func (g *RSAGroup) Op(a, b Element) (Element, error) {
	ea, err := g.elem(a)
	if err != nil {
		return nil, err
	}
	eb, err := g.elem(b)
	if err != nil {
		return nil, err
	}
	v := new(big.Int).Mul(ea.v, eb.v)
	v.Mod(v, g.n)
	return g.normalize(v), nil
}

// Inverse computes the modular inverse via the extended Euclidean
// algorithm. Under correct usage every element is invertible; a
// non-invertible residue yields ErrInputNotCoprime (and would factor N).
func (g *RSAGroup) Inverse(a Element) (Element, error) {
	ea, err := g.elem(a)
	if err != nil {
		return nil, err
	}
	gcd, s, _ := bigint.ExtendedGCD(ea.v, g.n)
	if gcd.Cmp(big.NewInt(1)) != 0 {
		return nil, ErrInputNotCoprime
	}
	v := new(big.Int).Mod(s, g.n)
	return g.normalize(v), nil
}

// Exp raises base to exponent with the constant-structure ladder.
func (g *RSAGroup) Exp(base Element, exponent *big.Int) (Element, error) {
	if _, err := g.elem(base); err != nil {
		return nil, err
	}
	return expWithSign(g, base, exponent)
}

// Equal reports whether a and b are the same residue class.
func (g *RSAGroup) Equal(a, b Element) bool {
	ea, err := g.elem(a)
	if err != nil {
		return false
	}
	eb, err := g.elem(b)
	if err != nil {
		return false
	}
	return ea.v.Cmp(eb.v) == 0
}

// Decode parses a fixed-width big-endian residue as produced by Encode.
func (g *RSAGroup) Decode(data []byte) (Element, error) {
	if len(data) != g.byteLen {
		return nil, ErrInvalidGroupElement
	}
	v := new(big.Int).SetBytes(data)
	if v.Cmp(g.nHalf) > 0 {
		// Encodings are always the normalized representative.
		return nil, ErrInvalidGroupElement
	}
	return g.NewElement(v)
}

// Encode returns the normalized residue as a fixed-width big-endian byte
// string at the modulus byte length.
func (e *RSAElement) Encode() []byte {
	out, err := bigint.EncodeFixed(e.v, e.owner.byteLen)
	if err != nil {
		// Unreachable: elements are always reduced below the modulus.
		panic(err)
	}
	return out
}

// Residue returns a copy of the normalized residue value.
func (e *RSAElement) Residue() *big.Int {
	return new(big.Int).Set(e.v)
}
