// Copyright (c) 2025, The Dendrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package morph

import (
	"fmt"

	"github.com/goki/ki/kit"
)

// View selects which representation of the morphology coordinates refer
// to.  A reduced (computational) tree merges or prunes nodes of the
// original reconstruction, so the same physical point has different
// (node, x) coordinates in the two views.  Every coordinate-dependent
// operation takes the active view as an explicit parameter -- there is
// no shared mutable view flag on the tree.  Building reduced trees is an
// external concern; for trees built directly with AddNode both views
// coincide.
type View int32

//go:generate stringer -type=View

var KiT_View = kit.Enums.AddEnum(ViewN, false, nil)

func (ev View) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *View) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Original is the full reconstructed morphology
	Original View = iota

	// Computational is the reduced tree the impedance engine computes on
	Computational

	ViewN
)

// Loc is a location on the morphology: a node index and a fractional
// position X in [0, 1] along that node, where X=0 is the proximal
// (parent) end and X=1 the distal end.  Locations are plain values owned
// by the caller; the tree only resolves them, never mutates them.
type Loc struct {
	Node int     `desc:"index of the node the location lives on"`
	X    float64 `desc:"fractional position along the node, 0 = proximal end, 1 = distal end"`
}

func (lc Loc) String() string {
	return fmt.Sprintf("(%d, %.3g)", lc.Node, lc.X)
}

// ResolveLoc resolves a location in the given view to its node,
// validating the node index and fractional position.
func (tr *Tree) ResolveLoc(lc Loc, view View) (*Node, error) {
	if view < 0 || view >= ViewN {
		return nil, fmt.Errorf("morph.Tree: invalid view %d", view)
	}
	nd, err := tr.NodeByIndexTry(lc.Node)
	if err != nil {
		return nil, err
	}
	if lc.X < 0 || lc.X > 1 {
		return nil, fmt.Errorf("morph.Tree: loc %v: x must be in [0, 1]", lc)
	}
	return nd, nil
}

// PathLength returns the length in micron of the direct path between
// two locations.  Soma nodes are lumped and contribute no length.
func (tr *Tree) PathLength(lc1, lc2 Loc, view View) (float64, error) {
	n1, err := tr.ResolveLoc(lc1, view)
	if err != nil {
		return 0, err
	}
	n2, err := tr.ResolveLoc(lc2, view)
	if err != nil {
		return 0, err
	}
	if n1 == n2 {
		if n1.Type == Soma {
			return 0, nil
		}
		x := lc1.X - lc2.X
		if x < 0 {
			x = -x
		}
		return x * n1.L, nil
	}
	path := tr.PathBetween(n1, n2)
	plen := nodeSpan(n1, lc1.X, path[1])
	plen += nodeSpan(n2, lc2.X, path[len(path)-2])
	for i := 1; i < len(path)-1; i++ {
		nd := path[i]
		if nd.Type == Soma {
			continue
		}
		if nd.HasChild(path[i-1]) && nd.HasChild(path[i+1]) {
			continue // path turns at the distal end, no length traversed
		}
		plen += nd.L
	}
	return plen, nil
}

// nodeSpan is the length traversed on an end node of a path, from
// fractional position x to the end facing the path neighbor.
func nodeSpan(nd *Node, x float64, next *Node) float64 {
	if nd.Type == Soma {
		return 0
	}
	if next == nd.Parent {
		return x * nd.L
	}
	return (1 - x) * nd.L
}

// DistributeUniform returns a list of locations spaced (approximately)
// dx micron apart along every non-soma node, starting from the root,
// plus one location at the root itself.  Locations are ordered node by
// node in index order.
func (tr *Tree) DistributeUniform(dx float64) []Loc {
	if dx <= 0 || tr.Root == nil {
		return nil
	}
	locs := []Loc{{Node: tr.Root.Index, X: 0.5}}
	for _, nd := range tr.Nodes {
		if nd.IsRoot() || nd.Type == Soma {
			continue
		}
		for d := dx; d < nd.L+0.5*dx; d += dx {
			x := d / nd.L
			if x > 1 {
				x = 1
			}
			locs = append(locs, Loc{Node: nd.Index, X: x})
		}
	}
	return locs
}
