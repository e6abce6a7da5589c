// Copyright (c) 2025, The Dendrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cable

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/emer/etable/v2/etable"
	"github.com/emer/etable/v2/etensor"
	"github.com/neurodyn/dendrite/morph"
)

// FreqResponseTable returns the transfer impedance between two
// locations across the frequencies of the last SetImpedance call, as a
// table with Freq (Hz), ZMag (MOhm) and ZPhase (rad) columns, suitable
// for plotting or saving.
func (tr *Tree) FreqResponseTable(a, b morph.Loc) (*etable.Table, error) {
	z, err := tr.TransferImpedance(a, b)
	if err != nil {
		return nil, err
	}
	sch := etable.Schema{
		{Name: "Freq", Type: etensor.FLOAT64},
		{Name: "ZMag", Type: etensor.FLOAT64},
		{Name: "ZPhase", Type: etensor.FLOAT64},
	}
	dt := &etable.Table{}
	dt.SetFromSchema(sch, len(z))
	dt.SetMetaData("name", "FreqResponse")
	dt.SetMetaData("read-only", "true")
	for k, zk := range z {
		dt.SetCellFloat("Freq", k, imag(tr.Freqs[k])/(2*math.Pi))
		dt.SetCellFloat("ZMag", k, cmplx.Abs(zk))
		dt.SetCellFloat("ZPhase", k, cmplx.Phase(zk))
	}
	return dt, nil
}

// ImpedanceMatrixTable returns the transfer impedance matrix over the
// given locations at the fi-th frequency of the last SetImpedance call,
// flattened to one row per location pair with magnitude and phase.
func (tr *Tree) ImpedanceMatrixTable(locs []morph.Loc, fi int) (*etable.Table, error) {
	if fi < 0 || fi >= len(tr.Freqs) {
		return nil, fmt.Errorf("%w: frequency index %d out of range", ErrDomain, fi)
	}
	zm, err := tr.ImpedanceMatrix(locs)
	if err != nil {
		return nil, err
	}
	n := len(locs)
	sch := etable.Schema{
		{Name: "I", Type: etensor.INT64},
		{Name: "J", Type: etensor.INT64},
		{Name: "ZMag", Type: etensor.FLOAT64},
		{Name: "ZPhase", Type: etensor.FLOAT64},
	}
	dt := &etable.Table{}
	dt.SetFromSchema(sch, n*n)
	dt.SetMetaData("name", "ImpedanceMatrix")
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			row := i*n + j
			z := zm[fi].At(i, j)
			dt.SetCellFloat("I", row, float64(i))
			dt.SetCellFloat("J", row, float64(j))
			dt.SetCellFloat("ZMag", row, cmplx.Abs(z))
			dt.SetCellFloat("ZPhase", row, cmplx.Phase(z))
		}
	}
	return dt, nil
}

// InputProfileTable returns the input impedance magnitude at the given
// locations against their path distance (um) from the root midpoint, at
// the fi-th frequency of the last SetImpedance call.
func (tr *Tree) InputProfileTable(locs []morph.Loc, fi int) (*etable.Table, error) {
	if fi < 0 || fi >= len(tr.Freqs) {
		return nil, fmt.Errorf("%w: frequency index %d out of range", ErrDomain, fi)
	}
	sch := etable.Schema{
		{Name: "Dist", Type: etensor.FLOAT64},
		{Name: "ZIn", Type: etensor.FLOAT64},
	}
	dt := &etable.Table{}
	dt.SetFromSchema(sch, len(locs))
	dt.SetMetaData("name", "InputProfile")
	root := morph.Loc{Node: tr.Morph.Root.Index, X: 0.5}
	for i, lc := range locs {
		d, err := tr.Morph.PathLength(lc, root, morph.Computational)
		if err != nil {
			return nil, err
		}
		z, err := tr.InputImpedance(lc)
		if err != nil {
			return nil, err
		}
		dt.SetCellFloat("Dist", i, d)
		dt.SetCellFloat("ZIn", i, cmplx.Abs(z[fi]))
	}
	return dt, nil
}
