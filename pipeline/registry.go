// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pipeline

import "github.com/poiesic/docflow/core"

// StepDef declares one named step for registry construction.
type StepDef struct {
	Name    core.StepName
	Handler Handler
}

// Registry holds the ordered pipeline steps. Each step's successor is
// derived from registration order; the last step is its own successor,
// making it the terminal. The registry is immutable after construction and
// is passed explicitly to the executor rather than living in package state.
type Registry struct {
	order    []core.StepName
	handlers map[core.StepName]Handler
	next     map[core.StepName]core.StepName
}

// NewRegistry builds a registry from steps in pipeline order.
func NewRegistry(steps ...StepDef) (*Registry, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	r := &Registry{
		order:    make([]core.StepName, 0, len(steps)),
		handlers: make(map[core.StepName]Handler, len(steps)),
		next:     make(map[core.StepName]core.StepName, len(steps)),
	}

	for _, def := range steps {
		if _, exists := r.handlers[def.Name]; exists {
			return nil, ErrDuplicateStep
		}
		r.order = append(r.order, def.Name)
		r.handlers[def.Name] = def.Handler
	}

	for i, name := range r.order {
		if i+1 < len(r.order) {
			r.next[name] = r.order[i+1]
		} else {
			r.next[name] = name
		}
	}

	return r, nil
}

// DefaultRegistry returns the standard five-step document pipeline.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		StepDef{Name: core.StepDownload, Handler: downloadStep},
		StepDef{Name: core.StepEmbed, Handler: embedStep},
		StepDef{Name: core.StepTag, Handler: tagStep},
		StepDef{Name: core.StepStore, Handler: storeStep},
		StepDef{Name: core.StepComplete, Handler: completeStep},
	)
	if err != nil {
		// Static step list, cannot fail.
		panic(err)
	}
	return r
}

// Handler returns the handler for name, or (nil, false) when unregistered.
func (r *Registry) Handler(name core.StepName) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Next returns the successor of name. The terminal step returns itself.
func (r *Registry) Next(name core.StepName) (core.StepName, bool) {
	n, ok := r.next[name]
	return n, ok
}

// Terminal returns the last registered step.
func (r *Registry) Terminal() core.StepName {
	return r.order[len(r.order)-1]
}

// First returns the first registered step.
func (r *Registry) First() core.StepName {
	return r.order[0]
}

// Steps returns the step names in pipeline order.
func (r *Registry) Steps() []core.StepName {
	out := make([]core.StepName, len(r.order))
	copy(out, r.order)
	return out
}
