// Copyright (c) 2025, The Dendrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cable

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// FreqsHz converts ordinary frequencies in Hz to the complex angular
// frequencies s = i*2*pi*f the engine computes on.
func FreqsHz(fs []float64) []complex128 {
	ss := make([]complex128, len(fs))
	for i, f := range fs {
		ss[i] = complex(0, 2*math.Pi*f)
	}
	return ss
}

// LogFreqs returns n log-spaced frequencies (Hz) from lo to hi
// inclusive, for frequency-response sweeps.
func LogFreqs(lo, hi float64, n int) []float64 {
	dst := make([]float64, n)
	floats.LogSpan(dst, lo, hi)
	return dst
}

// DC is the single zero frequency, for steady-state impedances
func DC() []complex128 {
	return []complex128{0}
}
