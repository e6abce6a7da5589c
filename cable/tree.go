// Copyright (c) 2025, The Dendrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cable

import (
	"fmt"
	"log"
	"math"

	"github.com/emer/emergent/v2/params"
	"github.com/neurodyn/dendrite/chans"
	"github.com/neurodyn/dendrite/morph"
	"gonum.org/v1/gonum/mat"
)

// Tree pairs a morphology with per-node biophysical state and drives
// the impedance computation.  The Nodes slice is parallel to the
// morphology's node list, indexed by morph node Index.
type Tree struct {
	Morph *morph.Tree    `desc:"the morphology the engine operates on"`
	Nodes []*Node        `desc:"per-node biophysical state, parallel to Morph.Nodes"`
	Chans *chans.Registry `desc:"the channel kinetics the node currents refer to"`
	Freqs []complex128   `inactive:"+" desc:"complex angular frequencies (rad/s) of the last SetImpedance call"`
}

// NewTree returns a Tree over the given morphology and channel
// registry, with default parameters on every node.  Call Build again
// after adding morphology nodes.
func NewTree(mt *morph.Tree, rg *chans.Registry) *Tree {
	tr := &Tree{Morph: mt, Chans: rg}
	tr.Build()
	return tr
}

// Build reconciles the node state slice with the morphology, creating
// default state for any morphology nodes added since the last call.
// Existing node state is preserved.  Invalidates cached impedances.
func (tr *Tree) Build() {
	for i := len(tr.Nodes); i < tr.Morph.NNodes(); i++ {
		tr.Nodes = append(tr.Nodes, newNode(tr.Morph.Nodes[i]))
	}
	tr.Freqs = nil
}

// Node returns the biophysical state of the given morphology node
func (tr *Tree) Node(mn *morph.Node) *Node {
	return tr.Nodes[mn.Index]
}

func (tr *Tree) children(mn *morph.Node) []*Node {
	cs := make([]*Node, len(mn.Children))
	for i, cn := range mn.Children {
		cs[i] = tr.Node(cn)
	}
	return cs
}

func (tr *Tree) siblings(mn *morph.Node) []*Node {
	var sb []*Node
	for _, cn := range mn.Parent.Children {
		if cn != mn {
			sb = append(sb, tr.Node(cn))
		}
	}
	return sb
}

// AddCurrent adds the named channel current with the given maximal
// conductance density (uS/cm^2) and reversal potential (mV) to the
// given nodes, or to every node when none are given.  Use the Leak
// name for the passive leak.  A NaN reversal falls back on the default
// in chans.ERev.
func (tr *Tree) AddCurrent(name string, gbar, erev float64, nds ...*morph.Node) error {
	if name != Leak {
		if _, err := tr.Chans.ChanByNameTry(name); err != nil {
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}
	}
	if math.IsNaN(erev) {
		def, ok := chans.ERev[name]
		if !ok {
			return fmt.Errorf("%w: no default reversal potential for channel %s", ErrConfig, name)
		}
		erev = def
	}
	if len(nds) == 0 {
		nds = tr.Morph.Nodes
	}
	for _, mn := range nds {
		tr.Node(mn).Currents[name] = Current{Gbar: gbar, ERev: erev}
	}
	tr.Freqs = nil
	return nil
}

// AddCurrentFunc is AddCurrent with the conductance density given as a
// function of path distance (um) from the root midpoint, evaluated at
// each node's midpoint.  Supports distance-dependent channel gradients.
func (tr *Tree) AddCurrentFunc(name string, gbar func(dist float64) float64, erev float64, nds ...*morph.Node) error {
	if len(nds) == 0 {
		nds = tr.Morph.Nodes
	}
	root := morph.Loc{Node: tr.Morph.Root.Index, X: 0.5}
	for _, mn := range nds {
		d, err := tr.Morph.PathLength(morph.Loc{Node: mn.Index, X: 0.5}, root, morph.Original)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDomain, err)
		}
		if err := tr.AddCurrent(name, gbar(d), erev, mn); err != nil {
			return err
		}
	}
	return nil
}

// SetEEq sets the equilibrium potential (mV) channels are linearized
// around, on the given nodes or on every node when none are given.
func (tr *Tree) SetEEq(eEq float64, nds ...*morph.Node) {
	if len(nds) == 0 {
		nds = tr.Morph.Nodes
	}
	for _, mn := range nds {
		tr.Node(mn).Phys.EEq = eEq
	}
	tr.Freqs = nil
}

// FitLeakCurrent sets the leak conductance and reversal on every node
// so that the total equilibrium potential is eEq (mV) and the membrane
// time constant is tauM (ms), given the active currents already present.
// When the capacitive conductance budget cannot accommodate the
// requested time constant, the node gets the shortest achievable one
// and a note is logged.
func (tr *Tree) FitLeakCurrent(eEq, tauM float64) error {
	taus := tauM * 1e-3 // ms to s, against uF/cm^2 and uS/cm^2
	for _, nd := range tr.Nodes {
		gsum := 0.0
		ieq := 0.0
		for name, cur := range nd.Currents {
			if name == Leak {
				continue
			}
			kn, err := tr.Chans.ChanByNameTry(name)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrConfig, err)
			}
			po, err := kn.POpen(eEq)
			if err != nil {
				return err
			}
			gch := cur.Gbar * po
			gsum += gch
			ieq += gch * (cur.ERev - eEq)
		}
		tau := taus
		if nd.Phys.Cm/tau < gsum {
			tau = nd.Phys.Cm / (gsum + 20)
			log.Printf("FitLeakCurrent: node %s: tau %g ms not achievable, using %g ms\n", nd.Morph.Name, tauM, tau*1e3)
		}
		gl := nd.Phys.Cm/tau - gsum
		el := eEq - ieq/gl
		nd.Currents[Leak] = Current{Gbar: gl, ERev: el}
		nd.Phys.EEq = eEq
	}
	tr.Freqs = nil
	return nil
}

// SetImpedance computes and caches all per-node impedance state for the
// given complex angular frequencies (rad/s).  Must be called before any
// impedance query, and again after any parameter change.  The distal
// boundary impedances are established leaf-first, the proximal ones
// root-first, then the closed-form constants are finalized per node.
func (tr *Tree) SetImpedance(freqs []complex128) error {
	if len(freqs) == 0 {
		return fmt.Errorf("%w: empty frequency set", ErrDomain)
	}
	if tr.Morph.Root == nil {
		return fmt.Errorf("%w: morphology has no root", ErrConfig)
	}
	if len(tr.Nodes) != tr.Morph.NNodes() {
		return fmt.Errorf("%w: tree not built -- call Build after adding nodes", ErrConfig)
	}
	for _, nd := range tr.Nodes {
		if nd.IsSoma() && !nd.Morph.IsRoot() {
			return fmt.Errorf("%w: soma node %s is not the root", ErrConfig, nd.Morph.Name)
		}
	}
	tr.Freqs = append([]complex128(nil), freqs...)
	for _, nd := range tr.Nodes {
		if err := nd.setImpedance(tr.Freqs, tr.Chans); err != nil {
			tr.Freqs = nil
			return err
		}
	}
	tr.Morph.LeafFirst(func(mn *morph.Node) {
		tr.Node(mn).setImpedanceDistal(tr.children(mn))
	})
	tr.Morph.RootFirst(func(mn *morph.Node) {
		if mn.IsRoot() {
			tr.Node(mn).ZProximal = nil
			return
		}
		tr.Node(mn).setImpedanceProximal(tr.Node(mn.Parent), tr.siblings(mn))
	})
	for _, nd := range tr.Nodes {
		nd.setImpedanceArrays(tr.children(nd.Morph))
	}
	return nil
}

// TransferImpedance returns the transfer impedance (MOhm) between two
// locations at each frequency of the last SetImpedance call: the
// voltage response at b per unit current injected at a (and, by
// reciprocity, vice versa).
func (tr *Tree) TransferImpedance(a, b morph.Loc) ([]complex128, error) {
	if tr.Freqs == nil {
		return nil, fmt.Errorf("%w: SetImpedance has not been called", ErrConfig)
	}
	na, err := tr.Morph.ResolveLoc(a, morph.Computational)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDomain, err)
	}
	nb, err := tr.Morph.ResolveLoc(b, morph.Computational)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDomain, err)
	}
	path := tr.Morph.PathBetween(na, nb)
	nf := len(tr.Freqs)
	z := make([]complex128, nf)
	if len(path) == 1 {
		copy(z, tr.Node(na).ZF(a.X, b.X))
		return z, nil
	}
	for k := range z {
		z[k] = 1
	}
	// first and last node: transfer from the location to whichever end
	// faces into the path; entering through the distal end also divides
	// out that end's input factor.
	first := tr.Node(path[0])
	if path[1] == path[0].Parent {
		mulZ(z, first.ZF(a.X, 0))
	} else {
		mulZ(z, first.ZF(a.X, 1))
		divZ(z, first.ZF(1, 1))
	}
	last := tr.Node(path[len(path)-1])
	if path[len(path)-2] == path[len(path)-1].Parent {
		mulZ(z, last.ZF(0, b.X))
	} else {
		mulZ(z, last.ZF(1, b.X))
		divZ(z, last.ZF(1, 1))
	}
	// intermediate nodes contribute their full-cable transfer relative
	// to their distal input impedance; at the turning ancestor, where
	// both path neighbors are children, only the normalization applies.
	for i := 1; i < len(path)-1; i++ {
		mn := path[i]
		nd := tr.Node(mn)
		divZ(z, nd.ZF(1, 1))
		if !mn.HasChild(path[i-1]) || !mn.HasChild(path[i+1]) {
			mulZ(z, nd.ZF(0, 1))
		}
	}
	return z, nil
}

func mulZ(dst, src []complex128) {
	for k := range dst {
		dst[k] *= src[k]
	}
}

func divZ(dst, src []complex128) {
	for k := range dst {
		dst[k] /= src[k]
	}
}

// InputImpedance returns the input impedance (MOhm) at one location at
// each frequency of the last SetImpedance call.
func (tr *Tree) InputImpedance(lc morph.Loc) ([]complex128, error) {
	return tr.TransferImpedance(lc, lc)
}

// ImpedanceMatrix returns the full transfer impedance matrix over the
// given locations, one symmetric complex matrix per frequency of the
// last SetImpedance call, ordered as the locations are.
func (tr *Tree) ImpedanceMatrix(locs []morph.Loc) ([]*mat.CDense, error) {
	if len(locs) == 0 {
		return nil, fmt.Errorf("%w: empty location set", ErrDomain)
	}
	if tr.Freqs == nil {
		return nil, fmt.Errorf("%w: SetImpedance has not been called", ErrConfig)
	}
	n := len(locs)
	zm := make([]*mat.CDense, len(tr.Freqs))
	for k := range zm {
		zm[k] = mat.NewCDense(n, n, nil)
	}
	for i := 0; i < n; i++ {
		zi, err := tr.InputImpedance(locs[i])
		if err != nil {
			return nil, err
		}
		for k := range zm {
			zm[k].Set(i, i, zi[k])
		}
		for j := 0; j < i; j++ {
			zt, err := tr.TransferImpedance(locs[i], locs[j])
			if err != nil {
				return nil, err
			}
			for k := range zm {
				zm[k].Set(i, j, zt[k])
				zm[k].Set(j, i, zt[k])
			}
		}
	}
	return zm, nil
}

// ApplyParams applies given parameter style Sheet to the nodes in this
// tree.  Returns true if any params were set, and error if any errors.
func (tr *Tree) ApplyParams(pars *params.Sheet, setMsg bool) (bool, error) {
	applied := false
	var rerr error
	for _, nd := range tr.Nodes {
		app, err := nd.ApplyParams(pars, setMsg)
		if app {
			applied = true
		}
		if err != nil {
			rerr = err
		}
	}
	if applied {
		tr.Freqs = nil
	}
	return applied, rerr
}
