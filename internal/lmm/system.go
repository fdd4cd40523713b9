// Package lmm implements the max-min fair sharing solver that backs every
// resource model (CPU, disk, network) in the kernel. It is a from-scratch
// port of the bottleneck / progressive-filling algorithm used by SimGrid's
// kernel/lmm system: constraints hold a capacity, variables hold a
// sharing_penalty and a set of (constraint, coefficient) elements, and
// Solve() assigns each variable the largest rate consistent with every
// constraint it touches.
package lmm

import "sort"

// DefaultPrecision is the epsilon used for all comparisons unless a System
// is built with a different one. It matches the "precision/work" knob
// described for the kernel (default 1e-9).
const DefaultPrecision = 1e-9

// Element is one edge of the constraint/variable bipartite graph: variable
// v consumes coefficient units of constraint c's capacity per unit of rate.
type Element struct {
	constraint  *Constraint
	variable    *Variable
	coefficient float64
}

// Constraint is a shared or fatpipe resource limit (a CPU's speed, a link's
// bandwidth, a disk's read/write/aggregate bandwidth, ...).
type Constraint struct {
	id       int
	capacity float64
	shared   bool // false == FATPIPE: every variable gets its full demand
	elements []*Element
	dirty    bool
}

// ID returns the constraint's insertion order, used for deterministic
// tie-breaking between simultaneous bottlenecks.
func (c *Constraint) ID() int { return c.id }

// Capacity returns the constraint's nominal capacity.
func (c *Constraint) Capacity() float64 { return c.capacity }

// SetCapacity changes the constraint's capacity (used by resource profile
// events that rewrite peak bandwidth/speed) and marks it dirty for the next
// selective-update Solve.
func (c *Constraint) SetCapacity(capacity float64) {
	c.capacity = capacity
	c.dirty = true
}

// IsShared reports whether the constraint enforces fair sharing (true) or
// grants every variable its full bounded demand independently (false,
// FATPIPE).
func (c *Constraint) IsShared() bool { return c.shared }

// Usage returns sum(value_i * coefficient_i) over the constraint's enabled
// elements — the quantity that must stay below capacity+epsilon.
func (c *Constraint) Usage() float64 {
	usage := 0.0
	for _, e := range c.elements {
		usage += e.variable.value * e.coefficient
	}
	return usage
}

// IsUsed reports whether any variable currently draws a positive share of
// the constraint.
func (c *Constraint) IsUsed() bool {
	for _, e := range c.elements {
		if e.variable.value > 0 {
			return true
		}
	}
	return false
}

// Variable is one activity's claim on the solver: a sharing penalty
// ("weight" in the classic max-min terminology), an optional upper bound,
// and the set of constraints it touches.
type Variable struct {
	id       int
	weight   float64 // sharing_penalty; 0 means suspended (no share, ever)
	bound    float64 // <= 0 means unbounded
	value    float64 // computed fair-share rate
	elements []*Element
	dirty    bool
}

// ID returns the variable's insertion order.
func (v *Variable) ID() int { return v.id }

// Value returns the last computed fair-share rate.
func (v *Variable) Value() float64 { return v.value }

// Weight returns the current sharing penalty.
func (v *Variable) Weight() float64 { return v.weight }

// SetWeight changes the sharing penalty. A weight of 0 suspends the
// variable (it draws nothing and is never a bottleneck); restoring a
// positive weight resumes it. Marks every touched constraint dirty.
func (v *Variable) SetWeight(weight float64) {
	v.weight = weight
	v.markDirty()
}

// Bound returns the variable's upper bound, or a non-positive value if
// unbounded.
func (v *Variable) Bound() float64 { return v.bound }

// SetBound changes the variable's upper bound.
func (v *Variable) SetBound(bound float64) {
	v.bound = bound
	v.markDirty()
}

// IsActive reports whether the variable currently participates in sharing
// (non-zero weight).
func (v *Variable) IsActive() bool { return v.weight > 0 }

func (v *Variable) markDirty() {
	v.dirty = true
	for _, e := range v.elements {
		e.constraint.dirty = true
	}
}

// System owns a set of constraints and variables and solves for each
// variable's fair-share value.
type System struct {
	selectiveUpdate bool
	precision       float64
	constraints     []*Constraint
	variables       []*Variable
}

// NewSystem creates an empty solver. selectiveUpdate enables the
// dirty-component tracking described for CPU/Disk/Network models; when
// false every Solve() call recomputes the whole system (the "full update"
// strategy).
func NewSystem(selectiveUpdate bool) *System {
	return &System{selectiveUpdate: selectiveUpdate, precision: DefaultPrecision}
}

// SetPrecision overrides the epsilon used for bottleneck comparisons.
func (s *System) SetPrecision(p float64) {
	if p > 0 {
		s.precision = p
	}
}

// Precision returns the epsilon in use.
func (s *System) Precision() float64 { return s.precision }

// ConstraintNew creates a new constraint of the given capacity. shared=false
// marks it FATPIPE: every variable touching it gets its full bounded demand
// independently of every other variable.
func (s *System) ConstraintNew(capacity float64, shared bool) *Constraint {
	c := &Constraint{id: len(s.constraints), capacity: capacity, shared: shared, dirty: true}
	s.constraints = append(s.constraints, c)
	return c
}

// VariableNew creates a new unbounded variable with the given sharing
// penalty (weight).
func (s *System) VariableNew(weight float64) *Variable {
	return s.VariableNewBounded(weight, -1)
}

// VariableNewBounded creates a new variable with an explicit upper bound;
// bound <= 0 means unbounded.
func (s *System) VariableNewBounded(weight, bound float64) *Variable {
	v := &Variable{id: len(s.variables), weight: weight, bound: bound, dirty: true}
	s.variables = append(s.variables, v)
	return v
}

// Expand adds an edge: variable v consumes `coefficient` units of
// constraint c's capacity per unit of rate.
func (s *System) Expand(c *Constraint, v *Variable, coefficient float64) {
	e := &Element{constraint: c, variable: v, coefficient: coefficient}
	c.elements = append(c.elements, e)
	v.elements = append(v.elements, e)
	c.dirty = true
	v.dirty = true
}

// VariableDisable removes a variable from every constraint it touches
// (used by Activity cancellation to unbind an Action from the solver
// without destroying the Variable object itself).
func (s *System) VariableDisable(v *Variable) {
	for _, e := range v.elements {
		c := e.constraint
		for i, ce := range c.elements {
			if ce == e {
				c.elements = append(c.elements[:i], c.elements[i+1:]...)
				break
			}
		}
		c.dirty = true
	}
	v.elements = nil
	v.value = 0
}

// Solve recomputes fair-share values for every variable in the dirty
// component (selective update) or for the whole system (full update).
func (s *System) Solve() {
	var workingConstraints []*Constraint
	var workingVariables []*Variable

	if s.selectiveUpdate {
		workingConstraints, workingVariables = s.collectDirtyComponent()
		if len(workingConstraints) == 0 && len(workingVariables) == 0 {
			return
		}
	} else {
		workingConstraints = s.constraints
		workingVariables = s.variables
	}

	s.solveComponent(workingConstraints, workingVariables)

	for _, c := range workingConstraints {
		c.dirty = false
	}
	for _, v := range workingVariables {
		v.dirty = false
	}
}

// collectDirtyComponent performs a breadth-first walk of the bipartite
// variable/constraint graph starting from every dirty node, returning the
// reachable set in stable insertion order.
func (s *System) collectDirtyComponent() ([]*Constraint, []*Variable) {
	seenC := make(map[*Constraint]bool)
	seenV := make(map[*Variable]bool)
	var queueC []*Constraint
	var queueV []*Variable

	for _, c := range s.constraints {
		if c.dirty && !seenC[c] {
			seenC[c] = true
			queueC = append(queueC, c)
		}
	}
	for _, v := range s.variables {
		if v.dirty && !seenV[v] {
			seenV[v] = true
			queueV = append(queueV, v)
		}
	}

	for i := 0; i < len(queueC) || i < len(queueV); i++ {
		if i < len(queueC) {
			for _, e := range queueC[i].elements {
				if !seenV[e.variable] {
					seenV[e.variable] = true
					queueV = append(queueV, e.variable)
				}
			}
		}
		if i < len(queueV) {
			for _, e := range queueV[i].elements {
				if !seenC[e.constraint] {
					seenC[e.constraint] = true
					queueC = append(queueC, e.constraint)
				}
			}
		}
	}

	// Restore stable insertion order (BFS order is not deterministic
	// enough across dirty-seed orderings to guarantee reproducibility).
	sort.Slice(queueC, func(i, j int) bool { return queueC[i].id < queueC[j].id })
	sort.Slice(queueV, func(i, j int) bool { return queueV[i].id < queueV[j].id })
	return queueC, queueV
}

// solveComponent runs progressive filling over exactly the given
// constraints and variables. Variables/constraints outside this set are
// left untouched, which is what makes selective update correct: disjoint
// components never interact.
func (s *System) solveComponent(constraints []*Constraint, variables []*Variable) {
	inSet := make(map[*Variable]bool, len(variables))
	for _, v := range variables {
		inSet[v] = true
	}

	effectiveBound := make(map[*Variable]float64, len(variables))
	residual := make(map[*Constraint]float64, len(constraints))
	for _, c := range constraints {
		residual[c] = c.capacity
	}

	unsaturated := make(map[*Variable]bool, len(variables))
	for _, v := range variables {
		v.value = 0
		if !v.IsActive() {
			continue
		}
		bound := v.bound
		if bound <= 0 {
			bound = -1 // sentinel: unbounded
		}
		// FATPIPE constraints bound each variable independently: fold
		// them into the effective bound before running the bottleneck
		// loop over the remaining shared constraints.
		for _, e := range v.elements {
			if e.constraint.shared || !inSet[v] {
				continue
			}
			cap := e.constraint.capacity / e.coefficient
			if bound < 0 || cap < bound {
				bound = cap
			}
		}
		effectiveBound[v] = bound
		unsaturated[v] = true
	}

	// Progressive filling: at each round the next variable/constraint to
	// saturate is either a shared constraint reaching its capacity (every
	// unsaturated variable touching it settles at the fair rate) or a
	// single variable reaching its own bound first (it alone settles,
	// freeing residual capacity for the next round).
	for len(unsaturated) > 0 {
		bestRate := -1.0
		bestIsBound := false
		var bottleneck *Constraint
		var boundedVar *Variable

		for _, c := range constraints {
			if !c.shared {
				continue
			}
			weighted := 0.0
			touchesUnsaturated := false
			for _, e := range c.elements {
				if unsaturated[e.variable] {
					weighted += e.coefficient / e.variable.weight
					touchesUnsaturated = true
				}
			}
			if !touchesUnsaturated || weighted <= s.precision {
				continue
			}
			rate := residual[c] / weighted
			if rate < 0 {
				rate = 0
			}
			if bottleneck == nil || rate < bestRate-s.precision ||
				(rate <= bestRate+s.precision && c.id < bottleneck.id) {
				bestRate = rate
				bottleneck = c
				bestIsBound = false
			}
		}

		for _, v := range variables {
			if !unsaturated[v] {
				continue
			}
			bound := effectiveBound[v]
			if bound < 0 {
				continue
			}
			rate := bound * v.weight
			switch {
			case bottleneck == nil && boundedVar == nil:
				bestRate, boundedVar, bestIsBound = rate, v, true
			case rate < bestRate-s.precision:
				bestRate, boundedVar, bestIsBound, bottleneck = rate, v, true, nil
			case rate <= bestRate+s.precision && bestIsBound && v.id < boundedVar.id:
				bestRate, boundedVar = rate, v
			}
		}

		if bottleneck == nil && boundedVar == nil {
			// Remaining unsaturated variables touch no shared
			// constraint and have no bound in this component: this
			// should not happen for a well-formed activity, but
			// settle them at zero rather than loop forever.
			for v := range unsaturated {
				v.value = 0
				delete(unsaturated, v)
			}
			break
		}

		if bestIsBound {
			v := boundedVar
			v.value = effectiveBound[v]
			for _, e := range v.elements {
				if e.constraint.shared {
					residual[e.constraint] -= v.value * e.coefficient
				}
			}
			delete(unsaturated, v)
			continue
		}

		var settled []*Variable
		for _, e := range bottleneck.elements {
			v := e.variable
			if !unsaturated[v] {
				continue
			}
			v.value = bestRate / v.weight
			settled = append(settled, v)
		}
		for _, v := range settled {
			for _, e := range v.elements {
				if e.constraint.shared {
					residual[e.constraint] -= v.value * e.coefficient
				}
			}
			delete(unsaturated, v)
		}
	}
}
