// Copyright (c) 2025, The Dendrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package morph provides the tree structure underlying a neuronal
morphology: nodes with parent and child pointers and per-node cylinder
geometry, plus locations expressed as a node index and a fractional
position along that node, and the path utilities (unique path between
two nodes, path length, uniform location grids) that the impedance
engine builds on.

Reading morphologies from SWC files and reducing a detailed morphology
into a smaller computational tree are external concerns -- trees here
are built programmatically with AddNode.
*/
package morph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goki/ki/kit"
)

// NodeType is the structural type of a node, following the SWC
// conventions for the point types of a reconstruction.
type NodeType int32

//go:generate stringer -type=NodeType

var KiT_NodeType = kit.Enums.AddEnum(NodeTypeN, false, nil)

func (ev NodeType) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *NodeType) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Soma is the cell body -- a single lumped isopotential compartment
	// with no cable extent, scaled by its surface area
	Soma NodeType = iota

	// Axon is an axonal section
	Axon

	// Dend is a basal dendritic section
	Dend

	// Apical is an apical dendritic section
	Apical

	NodeTypeN
)

// Node is one cylindrical section of the morphology.  The proximal end
// (x=0) attaches to the parent, the distal end (x=1) to the children.
type Node struct {
	Index    int      `desc:"index of this node in the tree -- root is 0"`
	Name     string   `desc:"name of the node -- defaults to lowercase type plus index"`
	Class    string   `desc:"space-separated class tags for parameter styling, e.g. 'oblique tuft'"`
	Type     NodeType `desc:"structural type of the node"`
	L        float64  `desc:"length of the cylinder (micron) -- ignored for the soma"`
	R        float64  `desc:"radius of the cylinder (micron)"`
	Parent   *Node    `json:"-" desc:"parent node -- nil for the root"`
	Children []*Node  `json:"-" desc:"child nodes, in insertion order"`
}

// IsRoot returns true if this is the root node (no parent)
func (nd *Node) IsRoot() bool { return nd.Parent == nil }

// IsLeaf returns true if this node has no children
func (nd *Node) IsLeaf() bool { return len(nd.Children) == 0 }

// HasChild returns true if given node is among this node's children
func (nd *Node) HasChild(cn *Node) bool {
	for _, c := range nd.Children {
		if c == cn {
			return true
		}
	}
	return false
}

func (nd *Node) String() string {
	return fmt.Sprintf("%s (L: %g, R: %g)", nd.Name, nd.L, nd.R)
}

// Tree is a rooted morphology tree.  Nodes is the flat list in index
// order -- node i is always at Nodes[i].
type Tree struct {
	Root  *Node   `desc:"root of the tree -- typically the soma"`
	Nodes []*Node `desc:"all nodes in index order"`
}

// NewTree returns a new empty tree
func NewTree() *Tree {
	return &Tree{}
}

// AddNode adds a node of given type and geometry under given parent and
// returns it.  A nil parent sets the root, which can only be done once
// on an empty tree.
func (tr *Tree) AddNode(parent *Node, typ NodeType, length, radius float64) *Node {
	nd := &Node{
		Index:  len(tr.Nodes),
		Type:   typ,
		L:      length,
		R:      radius,
		Parent: parent,
	}
	nd.Name = strings.ToLower(typ.String()) + strconv.Itoa(nd.Index)
	if parent == nil {
		if tr.Root != nil {
			panic("morph.AddNode: tree already has a root")
		}
		tr.Root = nd
	} else {
		parent.Children = append(parent.Children, nd)
	}
	tr.Nodes = append(tr.Nodes, nd)
	return nd
}

// NNodes returns the number of nodes in the tree
func (tr *Tree) NNodes() int { return len(tr.Nodes) }

// NodeByIndexTry returns the node at given index, returning an error
// if the index is out of range.
func (tr *Tree) NodeByIndexTry(idx int) (*Node, error) {
	if idx < 0 || idx >= len(tr.Nodes) {
		return nil, fmt.Errorf("morph.Tree: node index %d out of range [0, %d)", idx, len(tr.Nodes))
	}
	return tr.Nodes[idx], nil
}

// Leaves returns the leaf nodes, in index order
func (tr *Tree) Leaves() []*Node {
	var lvs []*Node
	for _, nd := range tr.Nodes {
		if nd.IsLeaf() {
			lvs = append(lvs, nd)
		}
	}
	return lvs
}

// LeafFirst visits every node child-before-parent (post-order), using an
// explicit stack so visitation order is fixed by the tree structure
// alone.  Every node's children have all been visited by the time the
// node itself is visited.
func (tr *Tree) LeafFirst(fun func(nd *Node)) {
	if tr.Root == nil {
		return
	}
	type frame struct {
		nd *Node
		ci int
	}
	stack := []frame{{tr.Root, 0}}
	for len(stack) > 0 {
		fr := &stack[len(stack)-1]
		if fr.ci < len(fr.nd.Children) {
			cn := fr.nd.Children[fr.ci]
			fr.ci++
			stack = append(stack, frame{cn, 0})
		} else {
			fun(fr.nd)
			stack = stack[:len(stack)-1]
		}
	}
}

// RootFirst visits every node parent-before-children (pre-order)
func (tr *Tree) RootFirst(fun func(nd *Node)) {
	if tr.Root == nil {
		return
	}
	stack := []*Node{tr.Root}
	for len(stack) > 0 {
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fun(nd)
		for i := len(nd.Children) - 1; i >= 0; i-- {
			stack = append(stack, nd.Children[i])
		}
	}
}

// PathToRoot returns the node sequence from given node up to and
// including the root.
func (tr *Tree) PathToRoot(nd *Node) []*Node {
	var path []*Node
	for ; nd != nil; nd = nd.Parent {
		path = append(path, nd)
	}
	return path
}

// PathBetween returns the unique path from node a to node b, inclusive
// of both, passing through their nearest common ancestor.  a == b gives
// a single-node path.
func (tr *Tree) PathBetween(a, b *Node) []*Node {
	pa := tr.PathToRoot(a)
	pb := tr.PathToRoot(b)
	upa := make(map[*Node]int, len(pa))
	for i, nd := range pa {
		upa[nd] = i
	}
	anc := -1
	var down []*Node // b up to (excluding) the common ancestor
	for _, nd := range pb {
		if i, ok := upa[nd]; ok {
			anc = i
			break
		}
		down = append(down, nd)
	}
	path := make([]*Node, 0, anc+1+len(down))
	path = append(path, pa[:anc+1]...)
	for i := len(down) - 1; i >= 0; i-- {
		path = append(path, down[i])
	}
	return path
}
