// Copyright (c) 2025, The Dendrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package cable computes frequency-domain transfer impedances on branched
morphologies whose nodes are finite cylindrical cables with quasi-active
membrane.

Each node carries passive membrane parameters and a set of ion channel
currents.  For a given set of complex angular frequencies, the engine
derives per-node cable parameters (membrane and axial impedance per unit
length, propagation constant, characteristic impedance), establishes the
distal and proximal boundary impedances of every node through a two-pass
tree recursion, and caches the closed-form constants of the linear cable
equation per node.  Transfer impedances between arbitrary locations then
follow from composing per-node closed forms along the unique tree path.

Units: micron for geometry (converted to cm internally), uF/cm^2 for
membrane capacitance, Ohm*cm for axial resistivity, uS/cm^2 for
conductance densities, mV for potentials.  Impedances come out in MOhm.
Frequencies are complex angular frequencies s in rad/s (s = i*2*pi*f
for an ordinary frequency f in Hz; see FreqsHz).
*/
package cable

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/emer/emergent/v2/params"
	"github.com/neurodyn/dendrite/chans"
	"github.com/neurodyn/dendrite/morph"
)

var (
	// ErrConfig is wrapped by errors due to missing or inconsistent
	// configuration: impedance queries before SetImpedance, missing leak
	// current, unknown channel names, malformed expansion states.
	ErrConfig = errors.New("cable: invalid configuration")

	// ErrDomain is wrapped by errors due to invalid caller arguments:
	// locations outside the tree or outside [0, 1], empty frequency sets.
	ErrDomain = errors.New("cable: invalid argument")
)

// Leak is the current name of the passive leak conductance
const Leak = "L"

// XTol is the fractional-position tolerance below which a location is
// snapped to the segment boundary, so that boundary impedances come from
// the cached closed-form constants instead of hyperbolic expressions
// with near-degenerate arguments.  An empirical stability margin, not a
// semantic contract.
const XTol = 1e-3

// umToCm converts micron to cm, the engine-internal length unit
const umToCm = 1e-4

// PhysParams are the passive membrane and axial parameters of one node
type PhysParams struct {
	Cm  float64 `def:"1" desc:"specific membrane capacitance (uF/cm^2)"`
	Ra  float64 `def:"100" desc:"axial resistivity (Ohm*cm)"`
	EEq float64 `def:"-75" desc:"equilibrium potential (mV) that channels are linearized around"`
}

func (pp *PhysParams) Defaults() {
	pp.Cm = 1
	pp.Ra = 100
	pp.EEq = -75
	pp.Update()
}

// Update must be called after any changes to parameters
func (pp *PhysParams) Update() {
}

// raMOhmCm returns the axial resistivity in MOhm*cm, matching the uS
// conductance scale
func (pp *PhysParams) raMOhmCm() float64 { return pp.Ra * 1e-6 }

// Current is one membrane current at a node: a maximal conductance
// density paired with a reversal potential.
type Current struct {
	Gbar float64 `desc:"maximal conductance density (uS/cm^2)"`
	ERev float64 `desc:"reversal potential (mV)"`
}

// Node is the per-node state of the impedance engine: the biophysical
// parameters, the channel currents expressed at the node, and the
// per-frequency caches filled in by Tree.SetImpedance.  All cached
// fields are written once per frequency set and only read afterwards.
type Node struct {
	Morph     *morph.Node             `desc:"the morphology node this state belongs to"`
	Phys      PhysParams              `desc:"passive membrane and axial parameters"`
	Currents  map[string]Current      `desc:"membrane currents by channel name -- 'L' is the leak"`
	Expansion map[string][][]float64  `desc:"per-channel override of the gating expansion point -- absent means steady state at EEq"`

	// cable parameters, per frequency, set by Tree.SetImpedance
	ZM    []complex128 `inactive:"+" desc:"membrane impedance per unit length (MOhm*cm)"`
	ZA    float64      `inactive:"+" desc:"axial impedance per unit length (MOhm/cm)"`
	Gamma []complex128 `inactive:"+" desc:"propagation constant (1/cm)"`
	ZC    []complex128 `inactive:"+" desc:"characteristic impedance (MOhm)"`

	// boundary impedances, per frequency
	ZDistal   []complex128 `inactive:"+" desc:"impedance looking away from the root beyond the distal end -- nil for the open (sealed) end of a leaf"`
	ZProximal []complex128 `inactive:"+" desc:"impedance looking toward the root beyond the proximal end -- nil for the root, which is the reference boundary"`

	// closed-form constants, per frequency
	GammaL    []complex128 `inactive:"+" desc:"gamma times cable length"`
	Zcp       []complex128 `inactive:"+" desc:"ZC / ZProximal -- 0 at the root"`
	Zcd       []complex128 `inactive:"+" desc:"ZC / ZDistal -- 0 at a sealed leaf end"`
	Wronskian []complex128 `inactive:"+" desc:"normalizing denominator of the closed-form constants"`
	Z00       []complex128 `inactive:"+" desc:"transfer impedance with both points at the proximal end"`
	Z11       []complex128 `inactive:"+" desc:"transfer impedance with both points at the distal end"`
	Z01       []complex128 `inactive:"+" desc:"transfer impedance across the full cable"`

	// soma (lumped) variants -- only set when the node is a soma
	ZSoma []complex128 `inactive:"+" desc:"lumped membrane impedance of the soma"`
	ZIn   []complex128 `inactive:"+" desc:"soma input impedance including all child subtrees"`
}

func newNode(mn *morph.Node) *Node {
	nd := &Node{
		Morph:     mn,
		Currents:  make(map[string]Current),
		Expansion: make(map[string][][]float64),
	}
	nd.Defaults()
	return nd
}

func (nd *Node) Defaults() {
	nd.Phys.Defaults()
}

// UpdateParams updates all params given any changes that might have
// been made to individual values
func (nd *Node) UpdateParams() {
	nd.Phys.Update()
}

// IsSoma returns true if this node is a lumped isopotential soma
func (nd *Node) IsSoma() bool { return nd.Morph.Type == morph.Soma }

// lcm, rcm are the cable length and radius in cm
func (nd *Node) lcm() float64 { return nd.Morph.L * umToCm }
func (nd *Node) rcm() float64 { return nd.Morph.R * umToCm }

// params.Styler interface, for parameter sheet selectors: type "Node",
// classes from the structural type plus the node's Class tags, name
// from the node name (e.g. "#soma0").

func (nd *Node) TypeName() string { return "Node" }

func (nd *Node) Class() string {
	cls := strings.ToLower(nd.Morph.Type.String())
	if nd.Morph.Class != "" {
		cls += " " + nd.Morph.Class
	}
	return cls
}

func (nd *Node) Name() string { return nd.Morph.Name }

// ApplyParams applies given parameter style Sheet to this node.
// Calls UpdateParams if anything was set.
func (nd *Node) ApplyParams(pars *params.Sheet, setMsg bool) (bool, error) {
	app, err := pars.Apply(nd, setMsg)
	if app {
		nd.UpdateParams()
	}
	return app, err
}

// SetExpansionPoint overrides the gating-variable operating point the
// named channel is linearized around at this node.  A nil svars resets
// to the default, the steady state at the node's equilibrium potential.
func (nd *Node) SetExpansionPoint(rg *chans.Registry, name string, svars [][]float64) error {
	if _, ok := nd.Currents[name]; !ok {
		return fmt.Errorf("%w: node %s has no %s current", ErrConfig, nd.Morph.Name, name)
	}
	if svars == nil {
		delete(nd.Expansion, name)
		return nil
	}
	kn, err := rg.ChanByNameTry(name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := kn.CheckStateShape(svars); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	nd.Expansion[name] = svars
	return nil
}

// GTot returns the total steady-state membrane conductance density
// (uS/cm^2) at the given voltage.
func (nd *Node) GTot(rg *chans.Registry, v float64) (float64, error) {
	gtot := nd.Currents[Leak].Gbar
	for name, cur := range nd.Currents {
		if name == Leak {
			continue
		}
		kn, err := rg.ChanByNameTry(name)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		po, err := kn.POpen(v)
		if err != nil {
			return 0, err
		}
		gtot += cur.Gbar * po
	}
	return gtot, nil
}

// membraneAdmittance returns the quasi-active membrane admittance
// density (uS/cm^2) at each frequency: capacitive susceptance plus leak
// plus the linearized contribution of every channel present at the node.
func (nd *Node) membraneAdmittance(freqs []complex128, rg *chans.Registry) ([]complex128, error) {
	lk, ok := nd.Currents[Leak]
	if !ok {
		return nil, fmt.Errorf("%w: node %s has no leak current", ErrConfig, nd.Morph.Name)
	}
	gm := make([]complex128, len(freqs))
	for k, s := range freqs {
		gm[k] = complex(nd.Phys.Cm, 0)*s + complex(lk.Gbar, 0)
	}
	for name, cur := range nd.Currents {
		if name == Leak || cur.Gbar <= 1e-10 {
			continue
		}
		kn, err := rg.ChanByNameTry(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		y, err := kn.LinSum(nd.Phys.EEq, cur.ERev, nd.Expansion[name], freqs)
		if err != nil {
			return nil, fmt.Errorf("%w: node %s: %v", ErrConfig, nd.Morph.Name, err)
		}
		for k := range gm {
			gm[k] += complex(cur.Gbar, 0) * y[k]
		}
	}
	return gm, nil
}

// setImpedance computes the per-frequency cable parameters of the node:
// membrane impedance per unit length, axial impedance per unit length,
// propagation constant and characteristic impedance.  The soma is a
// lumped compartment normalized by its (spherical) surface area instead,
// and defines no propagation constant.
func (nd *Node) setImpedance(freqs []complex128, rg *chans.Registry) error {
	gm, err := nd.membraneAdmittance(freqs, rg)
	if err != nil {
		return err
	}
	nf := len(freqs)
	if nd.IsSoma() {
		area := 4 * math.Pi * nd.rcm() * nd.rcm()
		nd.ZSoma = make([]complex128, nf)
		for k := range gm {
			nd.ZSoma[k] = 1 / (complex(area, 0) * gm[k])
		}
		return nil
	}
	nd.ZM = make([]complex128, nf)
	nd.Gamma = make([]complex128, nf)
	nd.ZC = make([]complex128, nf)
	circ := 2 * math.Pi * nd.rcm()
	nd.ZA = nd.Phys.raMOhmCm() / (math.Pi * nd.rcm() * nd.rcm())
	for k := range gm {
		nd.ZM[k] = 1 / (complex(circ, 0) * gm[k])
		nd.Gamma[k] = cmplx.Sqrt(complex(nd.ZA, 0) / nd.ZM[k])
		nd.ZC[k] = complex(nd.ZA, 0) / nd.Gamma[k]
	}
	return nil
}

// collapseToRoot returns this node's subtree impedance as seen from its
// proximal end: the distal boundary load transformed through the cable.
func (nd *Node) collapseToRoot() []complex128 {
	z := make([]complex128, len(nd.Gamma))
	lc := complex(nd.lcm(), 0)
	for k := range z {
		gl := nd.Gamma[k] * lc
		sh, ch := cmplx.Sinh(gl), cmplx.Cosh(gl)
		var rd complex128 // ZC/ZDistal, 0 at an open end
		if nd.ZDistal != nil {
			rd = nd.ZC[k] / nd.ZDistal[k]
		}
		z[k] = nd.ZC[k] * (ch + rd*sh) / (sh + rd*ch)
	}
	return z
}

// collapseToLeaf returns the impedance seen from this node's distal end
// looking toward the root: the proximal boundary load transformed
// through the cable.  For a soma this is just its lumped impedance.
func (nd *Node) collapseToLeaf() []complex128 {
	if nd.IsSoma() {
		return nd.ZSoma
	}
	z := make([]complex128, len(nd.Gamma))
	lc := complex(nd.lcm(), 0)
	for k := range z {
		gl := nd.Gamma[k] * lc
		sh, ch := cmplx.Sinh(gl), cmplx.Cosh(gl)
		var rp complex128 // ZC/ZProximal, 0 at the root reference boundary
		if nd.ZProximal != nil {
			rp = nd.ZC[k] / nd.ZProximal[k]
		}
		z[k] = nd.ZC[k] * (ch + rp*sh) / (sh + rp*ch)
	}
	return z
}

// setImpedanceDistal sets the distal boundary impedance from the given
// children states: the parallel combination of each child subtree
// collapsed to its root.  Leaves get the open (sealed end) condition.
func (nd *Node) setImpedanceDistal(children []*Node) {
	if len(children) == 0 {
		nd.ZDistal = nil // open circuit
		return
	}
	nf := nodeNF(nd)
	sum := make([]complex128, nf)
	for _, cn := range children {
		cz := cn.collapseToRoot()
		for k := range sum {
			sum[k] += 1 / cz[k]
		}
	}
	nd.ZDistal = make([]complex128, nf)
	for k := range sum {
		nd.ZDistal[k] = 1 / sum[k]
	}
}

// setImpedanceProximal sets the proximal boundary impedance: the
// parallel combination of the parent collapsed to leaf and every
// sibling subtree collapsed to root.
func (nd *Node) setImpedanceProximal(parent *Node, siblings []*Node) {
	pz := parent.collapseToLeaf()
	nf := len(pz)
	val := make([]complex128, nf)
	for k := range val {
		val[k] = 1 / pz[k]
	}
	for _, sn := range siblings {
		sz := sn.collapseToRoot()
		for k := range val {
			val[k] += 1 / sz[k]
		}
	}
	nd.ZProximal = make([]complex128, nf)
	for k := range val {
		nd.ZProximal[k] = 1 / val[k]
	}
}

// nodeNF returns the number of frequencies the node was computed for
func nodeNF(nd *Node) int {
	if nd.IsSoma() {
		return len(nd.ZSoma)
	}
	return len(nd.Gamma)
}

// setImpedanceArrays finalizes the closed-form constants from the cable
// parameters and boundary impedances.  For the soma, the single lumped
// input impedance including all child subtrees.
func (nd *Node) setImpedanceArrays(children []*Node) {
	nf := nodeNF(nd)
	if nd.IsSoma() {
		val := make([]complex128, nf)
		for k := range val {
			val[k] = 1 / nd.ZSoma[k]
		}
		for _, cn := range children {
			cz := cn.collapseToRoot()
			for k := range val {
				val[k] += 1 / cz[k]
			}
		}
		nd.ZIn = make([]complex128, nf)
		for k := range val {
			nd.ZIn[k] = 1 / val[k]
		}
		return
	}
	nd.GammaL = make([]complex128, nf)
	nd.Zcp = make([]complex128, nf)
	nd.Zcd = make([]complex128, nf)
	nd.Wronskian = make([]complex128, nf)
	nd.Z00 = make([]complex128, nf)
	nd.Z11 = make([]complex128, nf)
	nd.Z01 = make([]complex128, nf)
	lc := complex(nd.lcm(), 0)
	for k := 0; k < nf; k++ {
		gl := nd.Gamma[k] * lc
		nd.GammaL[k] = gl
		if nd.ZProximal != nil {
			nd.Zcp[k] = nd.ZC[k] / nd.ZProximal[k]
		}
		if nd.ZDistal != nil {
			nd.Zcd[k] = nd.ZC[k] / nd.ZDistal[k]
		}
		sh, ch := cmplx.Sinh(gl), cmplx.Cosh(gl)
		nd.Wronskian[k] = ch / nd.ZC[k] * (nd.Zcp[k] + nd.Zcd[k] + (1+nd.Zcp[k]*nd.Zcd[k])*cmplx.Tanh(gl))
		nd.Z00[k] = (nd.Zcd[k]*sh + ch) / nd.Wronskian[k]
		nd.Z11[k] = (nd.Zcp[k]*sh + ch) / nd.Wronskian[k]
		nd.Z01[k] = 1 / nd.Wronskian[k]
	}
}

// snapX snaps fractional positions within XTol of a boundary onto it
func snapX(x float64) float64 {
	if x < XTol {
		return 0
	}
	if x > 1-XTol {
		return 1
	}
	return x
}

// ZF returns the transfer impedance between fractional positions x1 and
// x2 on this node, per frequency.  Positions within XTol of a boundary
// return the cached boundary constants directly.  The soma has no
// extent: any pair of positions gives its lumped input impedance.
func (nd *Node) ZF(x1, x2 float64) []complex128 {
	if nd.IsSoma() {
		return nd.ZIn
	}
	x1, x2 = snapX(x1), snapX(x2)
	switch {
	case x1 == 0 && x2 == 0:
		return nd.Z00
	case x1 == 1 && x2 == 1:
		return nd.Z11
	case (x1 == 0 && x2 == 1) || (x1 == 1 && x2 == 0):
		return nd.Z01
	}
	xmin, xmax := x1, x2
	if xmin > xmax {
		xmin, xmax = xmax, xmin
	}
	z := make([]complex128, len(nd.Wronskian))
	for k := range z {
		gl := nd.GammaL[k]
		zin := nd.Zcp[k]*cmplx.Sinh(gl*complex(xmin, 0)) + cmplx.Cosh(gl*complex(xmin, 0))
		zout := nd.Zcd[k]*cmplx.Sinh(gl*complex(1-xmax, 0)) + cmplx.Cosh(gl*complex(1-xmax, 0))
		z[k] = zin * zout / nd.Wronskian[k]
	}
	return z
}
