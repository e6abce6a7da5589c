// Copyright (c) 2025, The Dendrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package dendrite is the overall repository for the quasi-active cable
impedance engine, which computes frequency-domain transfer impedances
between arbitrary points on branched neuronal morphologies, with
ion-channel kinetics linearized around an operating point.

This top-level of the repository has no functional code -- everything is
organized into the following sub-repositories:

* morph: the tree structure underlying a morphology -- nodes with parent
and child pointers, per-node cylinder geometry, locations given as a node
index plus a fractional position along the node, and path utilities
(unique path between two nodes, path length, uniform location grids).

* chans: ion channel kinetics expressed symbolically -- gating variable
steady-state and time-constant functions of voltage, an open probability
given as a sum of products of gating variable powers -- and the
quasi-active linearization that turns a channel into a complex,
frequency-dependent admittance around an expansion voltage.

* cable: the impedance engine proper.  Each node is a finite cylindrical
cable with passive membrane parameters and an arbitrary set of channels;
the engine derives the per-node propagation constant and characteristic
impedance per frequency, establishes distal and proximal boundary
impedances through a two-pass tree recursion, and evaluates exact
transfer impedances between any two locations via the closed-form
solution of the linear cable equation, including full pairwise impedance
matrices.

Morphology file ingestion (SWC etc.), reduction of a detailed morphology
into a smaller computational tree, and simulator code generation are
external concerns and not part of this repository.
*/
package dendrite
