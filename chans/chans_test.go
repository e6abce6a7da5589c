// Copyright (c) 2025, The Dendrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chans

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/njchilds90/gosymbol"
)

// difTol is the numerical difference tolerance: symbolic evaluation
// against direct float computation of the same expressions.
const difTol = 1.0e-9

// hSigm is the H channel activation 1/(1 + exp((v+82)/7)), computed
// directly for comparison against the symbolic path.
func hSigm(v float64) float64 {
	return 1 / (1 + math.Exp((v+82)/7))
}

// hSigmDeriv is d(hSigm)/dV
func hSigmDeriv(v float64) float64 {
	e := math.Exp((v + 82) / 7)
	return -e / (7 * (1 + e) * (1 + e))
}

func TestHPOpen(t *testing.T) {
	kn := H()
	for _, v := range []float64{-100, -82, -75, -50} {
		po, err := kn.POpen(v)
		if err != nil {
			t.Fatalf("POpen(%g): %v", v, err)
		}
		want := hSigm(v) // 0.8*hf + 0.2*hs with hf = hs
		if math.Abs(po-want) > difTol {
			t.Errorf("POpen(%g) = %g != %g", v, po, want)
		}
	}
}

func TestHTauInf(t *testing.T) {
	kn := H()
	tau, err := kn.TauInfAt(-75)
	if err != nil {
		t.Fatalf("TauInfAt: %v", err)
	}
	if math.Abs(tau[0][0]-40) > difTol || math.Abs(tau[1][0]-300) > difTol {
		t.Errorf("taus = %v != [[40] [300]]", tau)
	}
}

func TestKv31VarInf(t *testing.T) {
	kn := Kv31()
	sv, err := kn.VarInfAt(18.7) // half-activation voltage
	if err != nil {
		t.Fatalf("VarInfAt: %v", err)
	}
	if math.Abs(sv[0][0]-0.5) > difTol {
		t.Errorf("m_inf at vh = %g != 0.5", sv[0][0])
	}
}

func TestNaTaPOpen(t *testing.T) {
	kn := NaTa()
	lo, err := kn.POpen(-75)
	if err != nil {
		t.Fatalf("POpen(-75): %v", err)
	}
	hi, err := kn.POpen(-20)
	if err != nil {
		t.Fatalf("POpen(-20): %v", err)
	}
	if lo <= 0 || lo >= 1 || hi <= 0 || hi >= 1 {
		t.Errorf("POpen out of (0,1): %g, %g", lo, hi)
	}
	if hi <= lo {
		t.Errorf("POpen(-20) = %g not above POpen(-75) = %g", hi, lo)
	}
}

// TestLinSumDC checks the zero-frequency limit of the quasi-active
// admittance against the hand-derived linearization of the H channel:
// y(0) = p0 + (v0 - erev) * (0.8 + 0.2) * dhinf/dV.
func TestLinSumDC(t *testing.T) {
	kn := H()
	v0, erev := -75.0, ERev["h"]
	y, err := kn.LinSum(v0, erev, nil, []complex128{0})
	if err != nil {
		t.Fatalf("LinSum: %v", err)
	}
	want := hSigm(v0) + (v0-erev)*hSigmDeriv(v0)
	if cmplx.Abs(y[0]-complex(want, 0)) > difTol {
		t.Errorf("y(0) = %v != %g", y[0], want)
	}
}

// TestLinSumFreq checks that the gating contribution rolls off with
// frequency: y(s) has a nonzero imaginary part at finite frequency and
// approaches the frozen-gate open probability as frequency grows.
func TestLinSumFreq(t *testing.T) {
	kn := H()
	v0, erev := -75.0, ERev["h"]
	freqs := []complex128{0, complex(0, 2*math.Pi*10), complex(0, 2*math.Pi*1e4)}
	y, err := kn.LinSum(v0, erev, nil, freqs)
	if err != nil {
		t.Fatalf("LinSum: %v", err)
	}
	if imag(y[1]) == 0 {
		t.Errorf("y at 10 Hz has zero imaginary part")
	}
	p0 := hSigm(v0)
	if cmplx.Abs(y[2]-complex(p0, 0)) >= cmplx.Abs(y[0]-complex(p0, 0)) {
		t.Errorf("gating contribution did not roll off: |y(hi)-p0| = %g, |y(0)-p0| = %g",
			cmplx.Abs(y[2]-complex(p0, 0)), cmplx.Abs(y[0]-complex(p0, 0)))
	}
}

// TestLinSumExpansion checks that an explicit expansion state overrides
// the steady-state default: frozen gates at a different state shift p0.
func TestLinSumExpansion(t *testing.T) {
	kn := H()
	v0, erev := -75.0, ERev["h"]
	sv := [][]float64{{0.9}, {0.9}}
	y, err := kn.LinSum(v0, erev, sv, []complex128{complex(0, 2 * math.Pi * 1e6)})
	if err != nil {
		t.Fatalf("LinSum: %v", err)
	}
	if math.Abs(real(y[0])-0.9) > 1e-3 {
		t.Errorf("high-frequency y = %v does not approach expansion p0 = 0.9", y[0])
	}
	if _, err := kn.LinSum(v0, erev, [][]float64{{0.9}}, []complex128{0}); err == nil {
		t.Errorf("mis-shaped expansion state accepted")
	}
}

func TestNewKineticsErrors(t *testing.T) {
	one := gosymbol.NFloat(1)
	cases := []struct {
		msg      string
		names    [][]string
		powers   [][]int
		factors  []float64
		varInf   [][]gosymbol.Expr
		tauInf   [][]gosymbol.Expr
	}{
		{"empty grid", [][]string{}, [][]int{}, []float64{}, [][]gosymbol.Expr{}, [][]gosymbol.Expr{}},
		{"row count mismatch", [][]string{{"m"}}, [][]int{{1}, {1}}, []float64{1}, [][]gosymbol.Expr{{one}}, [][]gosymbol.Expr{{one}}},
		{"row length mismatch", [][]string{{"m", "h"}}, [][]int{{1}}, []float64{1}, [][]gosymbol.Expr{{one, one}}, [][]gosymbol.Expr{{one, one}}},
		{"negative power", [][]string{{"m"}}, [][]int{{-1}}, []float64{1}, [][]gosymbol.Expr{{one}}, [][]gosymbol.Expr{{one}}},
		{"duplicate name", [][]string{{"m", "m"}}, [][]int{{1, 1}}, []float64{1}, [][]gosymbol.Expr{{one, one}}, [][]gosymbol.Expr{{one, one}}},
		{"reserved name", [][]string{{Vsym}}, [][]int{{1}}, []float64{1}, [][]gosymbol.Expr{{one}}, [][]gosymbol.Expr{{one}}},
	}
	for _, cs := range cases {
		_, err := NewKinetics("bad", "", cs.names, cs.powers, cs.factors, cs.varInf, cs.tauInf)
		if err == nil {
			t.Errorf("%s: no error", cs.msg)
		} else if !errors.Is(err, ErrConfig) {
			t.Errorf("%s: error does not wrap ErrConfig: %v", cs.msg, err)
		}
	}
}

func TestRegistry(t *testing.T) {
	rg := Std()
	nms := rg.Names()
	want := []string{"Kv3_1", "Na_Ta", "h"}
	if len(nms) != len(want) {
		t.Fatalf("names: %v", nms)
	}
	for i := range nms {
		if nms[i] != want[i] {
			t.Errorf("names[%d] = %s != %s", i, nms[i], want[i])
		}
	}
	if _, err := rg.ChanByNameTry("h"); err != nil {
		t.Errorf("h not found: %v", err)
	}
	if _, err := rg.ChanByNameTry("nope"); err == nil {
		t.Errorf("unknown channel found")
	} else if !errors.Is(err, ErrConfig) {
		t.Errorf("lookup error does not wrap ErrConfig: %v", err)
	}
	if err := rg.Add(H()); err == nil {
		t.Errorf("duplicate Add accepted")
	}
}
