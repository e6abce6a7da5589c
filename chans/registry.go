// Copyright (c) 2025, The Dendrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chans

import (
	"fmt"
	"sort"
)

// Registry is a shared store of channel kinetics keyed by channel name,
// so that every node expressing a given channel type looks up the same
// immutable Kinetics instance instead of duplicating it.
type Registry struct {
	Chans map[string]*Kinetics `desc:"channel kinetics by name"`
}

// NewRegistry returns a new empty registry
func NewRegistry() *Registry {
	return &Registry{Chans: make(map[string]*Kinetics)}
}

// Add adds a channel to the registry, erroring on duplicate names
func (rg *Registry) Add(kn *Kinetics) error {
	if _, ok := rg.Chans[kn.Name]; ok {
		return fmt.Errorf("%w: channel %s already registered", ErrConfig, kn.Name)
	}
	rg.Chans[kn.Name] = kn
	return nil
}

// ChanByNameTry returns the channel with given name, or an error if it
// is not registered.
func (rg *Registry) ChanByNameTry(name string) (*Kinetics, error) {
	kn, ok := rg.Chans[name]
	if !ok {
		return nil, fmt.Errorf("%w: channel %s not registered", ErrConfig, name)
	}
	return kn, nil
}

// Names returns the registered channel names, sorted
func (rg *Registry) Names() []string {
	nms := make([]string, 0, len(rg.Chans))
	for nm := range rg.Chans {
		nms = append(nms, nm)
	}
	sort.Strings(nms)
	return nms
}
