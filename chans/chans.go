// Copyright (c) 2025, The Dendrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package chans models voltage-gated ion channel kinetics symbolically and
produces their quasi-active linearization: the complex, frequency
dependent admittance of a channel for small voltage perturbations around
an expansion point.

A channel is defined by a grid of gating variables, each with a
steady-state activation function x_inf(V) and relaxation time tau(V)
given as symbolic expressions in the membrane voltage V, and an open
probability that is a sum over grid rows of a numeric factor times the
product of the row's gating variables raised to integer powers:

	p = sum_i factor_i * prod_j x_ij ^ power_ij

All derivatives needed for the linearization (dp/dx_ij and dx_inf/dV)
are taken symbolically once at construction time and cached on the
Kinetics object, which is immutable afterwards.
*/
package chans

import (
	"errors"
	"fmt"

	"github.com/njchilds90/gosymbol"
)

// Vsym is the name of the voltage symbol used in all gating expressions
const Vsym = "V"

// ErrConfig is wrapped by all errors arising from inconsistent channel
// definitions or malformed expansion states.
var ErrConfig = errors.New("chans: invalid configuration")

// Kinetics holds the algebraic form of one ion channel type: the gating
// variable grid, the powers and factors of the open probability, and the
// symbolic activation and time-constant functions.  Construct with
// NewKinetics; immutable afterwards.  One Kinetics instance is shared by
// every node expressing the channel (see Registry).
type Kinetics struct {
	Name     string            `desc:"name of the channel type, e.g. 'Kv3_1'"`
	Ion      string            `desc:"ion the channel conducts, e.g. 'k' -- empty for non-specific"`
	VarNames [][]string        `desc:"names of the gating variables, one row per product term"`
	Powers   [][]int           `desc:"non-negative integer power of each gating variable in its product term"`
	Factors  []float64         `desc:"multiplicative factor of each product term"`
	VarInf   [][]gosymbol.Expr `desc:"steady-state activation x_inf(V) of each gating variable"`
	TauInf   [][]gosymbol.Expr `desc:"relaxation time tau(V) of each gating variable (ms)"`

	pOpen  gosymbol.Expr     // open probability in the gating variables
	dPdX   [][]gosymbol.Expr // dp/dx_ij, cached at construction
	dInfdV [][]gosymbol.Expr // dx_inf_ij/dV, cached at construction
}

// NewKinetics builds a channel kinetics model, validating that the
// gating variable grid, power, factor and expression arrays all have
// matching shapes, and caching the symbolic derivatives needed for
// linearization.
func NewKinetics(name, ion string, varNames [][]string, powers [][]int, factors []float64, varInf, tauInf [][]gosymbol.Expr) (*Kinetics, error) {
	rows := len(varNames)
	if rows == 0 {
		return nil, fmt.Errorf("%w: channel %s: empty gating variable grid", ErrConfig, name)
	}
	if len(powers) != rows || len(varInf) != rows || len(tauInf) != rows || len(factors) != rows {
		return nil, fmt.Errorf("%w: channel %s: rows of powers (%d), varinf (%d), tauinf (%d), factors (%d) must all equal rows of varnames (%d)",
			ErrConfig, name, len(powers), len(varInf), len(tauInf), len(factors), rows)
	}
	seen := map[string]bool{}
	for i := range varNames {
		nc := len(varNames[i])
		if nc == 0 || len(powers[i]) != nc || len(varInf[i]) != nc || len(tauInf[i]) != nc {
			return nil, fmt.Errorf("%w: channel %s: row %d has mismatched lengths", ErrConfig, name, i)
		}
		for j, nm := range varNames[i] {
			if powers[i][j] < 0 {
				return nil, fmt.Errorf("%w: channel %s: negative power for %s", ErrConfig, name, nm)
			}
			if nm == Vsym || seen[nm] {
				return nil, fmt.Errorf("%w: channel %s: duplicate or reserved gating variable name %s", ErrConfig, name, nm)
			}
			seen[nm] = true
		}
	}
	kn := &Kinetics{
		Name:     name,
		Ion:      ion,
		VarNames: varNames,
		Powers:   powers,
		Factors:  factors,
		VarInf:   varInf,
		TauInf:   tauInf,
	}
	terms := make([]gosymbol.Expr, rows)
	for i := range varNames {
		fac := []gosymbol.Expr{gosymbol.NFloat(factors[i])}
		for j, nm := range varNames[i] {
			if powers[i][j] == 0 {
				continue
			}
			fac = append(fac, gosymbol.PowOf(gosymbol.S(nm), gosymbol.N(int64(powers[i][j]))))
		}
		terms[i] = gosymbol.MulOf(fac...)
	}
	kn.pOpen = gosymbol.AddOf(terms...)
	kn.dPdX = make([][]gosymbol.Expr, rows)
	kn.dInfdV = make([][]gosymbol.Expr, rows)
	for i := range varNames {
		kn.dPdX[i] = make([]gosymbol.Expr, len(varNames[i]))
		kn.dInfdV[i] = make([]gosymbol.Expr, len(varNames[i]))
		for j, nm := range varNames[i] {
			kn.dPdX[i][j] = gosymbol.Diff(kn.pOpen, nm)
			kn.dInfdV[i][j] = gosymbol.Diff(varInf[i][j], Vsym)
		}
	}
	return kn, nil
}

// evalAt substitutes the given variable values into expr and evaluates
// it to a number.  Constant expressions evaluate directly.
func evalAt(expr gosymbol.Expr, vars map[string]float64) (float64, error) {
	for nm, v := range vars {
		expr = gosymbol.Sub(expr, nm, gosymbol.NFloat(v))
	}
	n, ok := expr.Eval()
	if !ok {
		return 0, fmt.Errorf("%w: expression %s does not evaluate to a number", ErrConfig, expr.String())
	}
	return n.Float64(), nil
}

// bindings maps each gating variable name to its value in svars
func (kn *Kinetics) bindings(svars [][]float64) map[string]float64 {
	bind := make(map[string]float64)
	for i, row := range kn.VarNames {
		for j, nm := range row {
			bind[nm] = svars[i][j]
		}
	}
	return bind
}

// CheckStateShape returns an error if svars does not match the shape of
// the gating variable grid.
func (kn *Kinetics) CheckStateShape(svars [][]float64) error {
	if len(svars) != len(kn.VarNames) {
		return fmt.Errorf("%w: channel %s: expansion state has %d rows, need %d", ErrConfig, kn.Name, len(svars), len(kn.VarNames))
	}
	for i := range svars {
		if len(svars[i]) != len(kn.VarNames[i]) {
			return fmt.Errorf("%w: channel %s: expansion state row %d has %d entries, need %d", ErrConfig, kn.Name, i, len(svars[i]), len(kn.VarNames[i]))
		}
	}
	return nil
}

// VarInfAt returns the steady-state values of all gating variables at
// voltage v, in the shape of the gating variable grid.
func (kn *Kinetics) VarInfAt(v float64) ([][]float64, error) {
	sv := make([][]float64, len(kn.VarInf))
	for i := range kn.VarInf {
		sv[i] = make([]float64, len(kn.VarInf[i]))
		for j := range kn.VarInf[i] {
			val, err := evalAt(kn.VarInf[i][j], map[string]float64{Vsym: v})
			if err != nil {
				return nil, err
			}
			sv[i][j] = val
		}
	}
	return sv, nil
}

// TauInfAt returns the relaxation times (ms) of all gating variables at
// voltage v, in the shape of the gating variable grid.
func (kn *Kinetics) TauInfAt(v float64) ([][]float64, error) {
	tau := make([][]float64, len(kn.TauInf))
	for i := range kn.TauInf {
		tau[i] = make([]float64, len(kn.TauInf[i]))
		for j := range kn.TauInf[i] {
			val, err := evalAt(kn.TauInf[i][j], map[string]float64{Vsym: v})
			if err != nil {
				return nil, err
			}
			tau[i][j] = val
		}
	}
	return tau, nil
}

// POpenAt returns the open probability for the given gating state
func (kn *Kinetics) POpenAt(svars [][]float64) (float64, error) {
	if err := kn.CheckStateShape(svars); err != nil {
		return 0, err
	}
	return evalAt(kn.pOpen, kn.bindings(svars))
}

// POpen returns the steady-state open probability at voltage v
func (kn *Kinetics) POpen(v float64) (float64, error) {
	sv, err := kn.VarInfAt(v)
	if err != nil {
		return 0, err
	}
	return kn.POpenAt(sv)
}

// LinSum computes the quasi-active admittance of the channel per unit
// maximal conductance, at each complex angular frequency s in freqs
// (s = i*2*pi*f for frequency f in Hz, time in seconds):
//
//	y(s) = p(x0) + (v0 - erev) * sum_ij dp/dx_ij|0 * (dx_inf_ij/dV)|0 / (1 + s*tau_ij(v0))
//
// The membrane admittance contribution of the channel at a node is then
// gbar*y(s).  v0 is the expansion voltage, erev the reversal potential.
// svars overrides the gating-variable expansion point; nil linearizes
// around the steady state at v0.  Relaxation times are in ms and are
// rescaled to seconds here to match the s convention.
func (kn *Kinetics) LinSum(v0, erev float64, svars [][]float64, freqs []complex128) ([]complex128, error) {
	if svars == nil {
		sv, err := kn.VarInfAt(v0)
		if err != nil {
			return nil, err
		}
		svars = sv
	} else if err := kn.CheckStateShape(svars); err != nil {
		return nil, err
	}
	bind := kn.bindings(svars)
	p0, err := evalAt(kn.pOpen, bind)
	if err != nil {
		return nil, err
	}
	vAt := map[string]float64{Vsym: v0}
	y := make([]complex128, len(freqs))
	for k := range y {
		y[k] = complex(p0, 0)
	}
	for i := range kn.VarNames {
		for j := range kn.VarNames[i] {
			dpdx, err := evalAt(kn.dPdX[i][j], bind)
			if err != nil {
				return nil, err
			}
			dinf, err := evalAt(kn.dInfdV[i][j], vAt)
			if err != nil {
				return nil, err
			}
			tau, err := evalAt(kn.TauInf[i][j], vAt)
			if err != nil {
				return nil, err
			}
			tau *= 1e-3 // ms -> s
			num := complex((v0-erev)*dpdx*dinf, 0)
			for k, s := range freqs {
				y[k] += num / (1 + s*complex(tau, 0))
			}
		}
	}
	return y, nil
}
