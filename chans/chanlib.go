// Copyright (c) 2025, The Dendrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chans

import "github.com/njchilds90/gosymbol"

// chanlib.go defines a small library of standard channel types.
// Kinetics follow the usual literature formulations; voltages in mV,
// relaxation times in ms.

// ERev are the default reversal potentials (mV) per channel name
var ERev = map[string]float64{
	"h":     -43,
	"Kv3_1": -85,
	"Na_Ta": 50,
}

// inv returns 1/e
func inv(e gosymbol.Expr) gosymbol.Expr {
	return gosymbol.PowOf(e, gosymbol.N(-1))
}

// sigmoid returns 1 / (1 + exp((V - vh)/k)) -- negative k gives a
// rising sigmoid
func sigmoid(vh, k float64) gosymbol.Expr {
	arg := gosymbol.MulOf(gosymbol.AddOf(gosymbol.S(Vsym), gosymbol.NFloat(-vh)), gosymbol.NFloat(1/k))
	return inv(gosymbol.AddOf(gosymbol.N(1), gosymbol.ExpOf(arg)))
}

// linExpRate returns the linear-exponential rate function
// c*(V - vh) / (1 - exp(-(V - vh)/k)) used in alpha/beta rate constants
func linExpRate(c, vh, k float64) gosymbol.Expr {
	dv := gosymbol.AddOf(gosymbol.S(Vsym), gosymbol.NFloat(-vh))
	num := gosymbol.MulOf(gosymbol.NFloat(c), dv)
	den := gosymbol.AddOf(gosymbol.N(1), gosymbol.MulOf(gosymbol.N(-1),
		gosymbol.ExpOf(gosymbol.MulOf(dv, gosymbol.NFloat(-1/k)))))
	return gosymbol.MulOf(num, inv(den))
}

// H returns the hyperpolarization-activated cation channel (HCN),
// with a fast and a slow non-inactivating gate:
// p = 0.8*hf + 0.2*hs, both gates activating below rest.
func H() *Kinetics {
	hinf := sigmoid(-82, 7)
	kn, err := NewKinetics("h", "",
		[][]string{{"hf"}, {"hs"}},
		[][]int{{1}, {1}},
		[]float64{0.8, 0.2},
		[][]gosymbol.Expr{{hinf}, {hinf}},
		[][]gosymbol.Expr{{gosymbol.NFloat(40)}, {gosymbol.NFloat(300)}})
	if err != nil {
		panic(err) // library definitions are shape-correct by construction
	}
	return kn
}

// Kv31 returns the fast non-inactivating potassium channel Kv3.1
// (Rettig et al., 1992), p = m.
func Kv31() *Kinetics {
	minf := sigmoid(18.7, -9.7)
	taum := gosymbol.MulOf(gosymbol.NFloat(4), sigmoid(-46.56, -44.14))
	kn, err := NewKinetics("Kv3_1", "k",
		[][]string{{"m"}},
		[][]int{{1}},
		[]float64{1},
		[][]gosymbol.Expr{{minf}},
		[][]gosymbol.Expr{{taum}})
	if err != nil {
		panic(err)
	}
	return kn
}

// NaTa returns the transient sodium channel (Colbert & Pan, 2002),
// p = m^3 * h, with alpha/beta rate constants and a q10 of 2.95.
func NaTa() *Kinetics {
	q10 := 2.95
	am := linExpRate(0.182, -38, 6)
	bm := linExpRate(-0.124, -38, -6)
	ah := linExpRate(-0.015, -66, -6)
	bh := linExpRate(0.015, -66, 6)
	msum := gosymbol.AddOf(am, bm)
	hsum := gosymbol.AddOf(ah, bh)
	minf := gosymbol.MulOf(am, inv(msum))
	hinf := gosymbol.MulOf(ah, inv(hsum))
	taum := gosymbol.MulOf(gosymbol.NFloat(1/q10), inv(msum))
	tauh := gosymbol.MulOf(gosymbol.NFloat(1/q10), inv(hsum))
	kn, err := NewKinetics("Na_Ta", "na",
		[][]string{{"m", "h"}},
		[][]int{{3, 1}},
		[]float64{1},
		[][]gosymbol.Expr{{minf, hinf}},
		[][]gosymbol.Expr{{taum, tauh}})
	if err != nil {
		panic(err)
	}
	return kn
}

// Std returns a registry with the standard channel library
func Std() *Registry {
	rg := NewRegistry()
	rg.Add(H())
	rg.Add(Kv31())
	rg.Add(NaTa())
	return rg
}
