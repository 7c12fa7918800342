// Package graph holds the authoritative store of activities and their typed,
// lagged dependencies. It keeps the network acyclic on every mutation and
// exposes the adjacency lookups the scheduling passes need.
//
// A Graph is not safe for concurrent mutation; callers serialize writers
// (see internal/engine).
package graph

import (
	"fmt"
	"sort"
)

// Graph is a directed acyclic network of activities.
type Graph struct {
	activities map[string]*Activity
	deps       map[edgeKey]*Dependency
	adj        map[string][]string // activity -> successors
	revAdj     map[string][]string // activity -> predecessors

	dataDate         int
	projectStart     *int
	finishConstraint *int

	// version increments on every mutation; schedule results computed at an
	// older version are stale.
	version uint64
}

// New creates an empty graph with the given data date.
func New(dataDate int) *Graph {
	return &Graph{
		activities: make(map[string]*Activity),
		deps:       make(map[edgeKey]*Dependency),
		adj:        make(map[string][]string),
		revAdj:     make(map[string][]string),
		dataDate:   dataDate,
	}
}

// Version returns the mutation counter.
func (g *Graph) Version() uint64 { return g.version }

func (g *Graph) touch() { g.version++ }

// DataDate is the status date splitting actual from planned work.
func (g *Graph) DataDate() int { return g.dataDate }

// SetDataDate moves the status date.
func (g *Graph) SetDataDate(d int) {
	g.dataDate = d
	g.touch()
}

// ProjectStart returns the explicit project start, if one is set.
func (g *Graph) ProjectStart() *int { return copyInt(g.projectStart) }

// SetProjectStart sets or clears (nil) the explicit project start.
func (g *Graph) SetProjectStart(d *int) {
	g.projectStart = copyInt(d)
	g.touch()
}

// FinishConstraint returns the explicit project finish, if one is set.
func (g *Graph) FinishConstraint() *int { return copyInt(g.finishConstraint) }

// SetFinishConstraint sets or clears (nil) the explicit project finish.
func (g *Graph) SetFinishConstraint(d *int) {
	g.finishConstraint = copyInt(d)
	g.touch()
}

// Start is the day unconstrained activities start on: the explicit project
// start when set, otherwise the data date.
func (g *Graph) Start() int {
	if g.projectStart != nil {
		return *g.projectStart
	}
	return g.dataDate
}

// AddActivity inserts a copy of a.
func (g *Graph) AddActivity(a Activity) error {
	if a.ID == "" {
		return &InvalidActivityError{Reason: "id is required"}
	}
	if _, ok := g.activities[a.ID]; ok {
		return &DuplicateIDError{ID: a.ID}
	}
	if a.Type == "" {
		a.Type = TypeTask
	}
	if err := checkActivity(&a); err != nil {
		return err
	}
	g.activities[a.ID] = a.clone()
	g.touch()
	return nil
}

func checkActivity(a *Activity) error {
	switch a.Type {
	case TypeTask, TypeMilestone:
	default:
		return &InvalidActivityError{ID: a.ID, Reason: fmt.Sprintf("unknown type %q", a.Type)}
	}
	if a.Duration < 0 {
		return &InvalidActivityError{ID: a.ID, Reason: "duration must not be negative"}
	}
	if a.IsMilestone() && a.Duration != 0 {
		return &InvalidActivityError{ID: a.ID, Reason: "milestones have zero duration"}
	}
	return nil
}

// Activity returns the stored activity. The returned value must be treated
// as read-only; use UpdateActivity to change it.
func (g *Graph) Activity(id string) (*Activity, bool) {
	a, ok := g.activities[id]
	return a, ok
}

// UpdateActivity applies fn to the stored activity. The ID, type and
// duration cannot be changed through this path.
func (g *Graph) UpdateActivity(id string, fn func(a *Activity)) error {
	a, ok := g.activities[id]
	if !ok {
		return &UnknownActivityError{ID: id}
	}
	c := a.clone()
	fn(c)
	c.ID, c.Type, c.Duration = a.ID, a.Type, a.Duration
	g.activities[id] = c
	g.touch()
	return nil
}

// RemoveActivity deletes an activity. If dependencies still reference it the
// call fails with DependentExistsError unless force is set, in which case the
// attached dependencies are removed as well.
func (g *Graph) RemoveActivity(id string, force bool) error {
	if _, ok := g.activities[id]; !ok {
		return &UnknownActivityError{ID: id}
	}

	linked := append(append([]string(nil), g.revAdj[id]...), g.adj[id]...)
	if len(linked) > 0 && !force {
		sort.Strings(linked)
		return &DependentExistsError{ID: id, Dependents: linked}
	}

	for _, pred := range append([]string(nil), g.revAdj[id]...) {
		g.unlink(pred, id)
	}
	for _, succ := range append([]string(nil), g.adj[id]...) {
		g.unlink(id, succ)
	}
	delete(g.activities, id)
	delete(g.adj, id)
	delete(g.revAdj, id)
	g.touch()
	return nil
}

// AddDependency links two existing activities. The edge is rejected if it
// would introduce a cycle, and the graph is left unchanged.
func (g *Graph) AddDependency(d Dependency) error {
	pred, ok := g.activities[d.PredecessorID]
	if !ok {
		return &UnknownActivityError{ID: d.PredecessorID}
	}
	succ, ok := g.activities[d.SuccessorID]
	if !ok {
		return &UnknownActivityError{ID: d.SuccessorID}
	}
	if d.PredecessorID == d.SuccessorID {
		return &CycleError{Path: []string{d.PredecessorID, d.SuccessorID}}
	}
	if _, exists := g.deps[d.key()]; exists {
		return &DuplicateDependencyError{PredecessorID: d.PredecessorID, SuccessorID: d.SuccessorID}
	}
	if d.Logic == "" {
		d.Logic = FS
	}
	if err := checkLag(d, pred, succ); err != nil {
		return err
	}

	g.link(d)
	if cycle := g.DetectCycle(); cycle != nil {
		g.unlink(d.PredecessorID, d.SuccessorID)
		return &CycleError{Path: cycle}
	}
	g.touch()
	return nil
}

// UpdateDependency changes the logic and lag of an existing dependency and
// returns the stored result. The endpoints are unchanged, so acyclicity is
// preserved; the DFS check still runs as a guard.
func (g *Graph) UpdateDependency(predID, succID string, logic Logic, lag int) (Dependency, error) {
	cur, ok := g.deps[edgeKey{predID, succID}]
	if !ok {
		return Dependency{}, &UnknownDependencyError{PredecessorID: predID, SuccessorID: succID}
	}
	next := Dependency{PredecessorID: predID, SuccessorID: succID, Logic: logic, Lag: lag}
	if err := checkLag(next, g.activities[predID], g.activities[succID]); err != nil {
		return Dependency{}, err
	}
	if cycle := g.DetectCycle(); cycle != nil {
		return Dependency{}, &CycleError{Path: cycle}
	}
	*cur = next
	g.touch()
	return next, nil
}

// RemoveDependency deletes the dependency between the pair.
func (g *Graph) RemoveDependency(predID, succID string) error {
	if _, ok := g.deps[edgeKey{predID, succID}]; !ok {
		return &UnknownDependencyError{PredecessorID: predID, SuccessorID: succID}
	}
	g.unlink(predID, succID)
	g.touch()
	return nil
}

// checkLag rejects unknown logic types and leads that make the relationship
// impossible: an FF lead longer than the predecessor, or an SF lead longer
// than the successor.
func checkLag(d Dependency, pred, succ *Activity) error {
	if !d.Logic.Valid() {
		return &InvalidLagError{Logic: d.Logic, Lag: d.Lag, Reason: fmt.Sprintf("unknown logic %q", d.Logic)}
	}
	switch d.Logic {
	case FF:
		if d.Lag < -pred.Duration {
			return &InvalidLagError{Logic: d.Logic, Lag: d.Lag, Span: pred.Duration}
		}
	case SF:
		if d.Lag < -succ.Duration {
			return &InvalidLagError{Logic: d.Logic, Lag: d.Lag, Span: succ.Duration}
		}
	}
	return nil
}

func (g *Graph) link(d Dependency) {
	stored := d
	g.deps[d.key()] = &stored
	g.adj[d.PredecessorID] = insertSorted(g.adj[d.PredecessorID], d.SuccessorID)
	g.revAdj[d.SuccessorID] = insertSorted(g.revAdj[d.SuccessorID], d.PredecessorID)
}

func (g *Graph) unlink(predID, succID string) {
	delete(g.deps, edgeKey{predID, succID})
	g.adj[predID] = removeValue(g.adj[predID], succID)
	g.revAdj[succID] = removeValue(g.revAdj[succID], predID)
}

func insertSorted(list []string, v string) []string {
	i := sort.SearchStrings(list, v)
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}

func removeValue(list []string, v string) []string {
	for i, x := range list {
		if x == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Dependency returns the dependency linking the pair.
func (g *Graph) Dependency(predID, succID string) (Dependency, bool) {
	d, ok := g.deps[edgeKey{predID, succID}]
	if !ok {
		return Dependency{}, false
	}
	return *d, true
}

// Predecessors returns the incoming dependencies of id, ordered by predecessor ID.
func (g *Graph) Predecessors(id string) []Dependency {
	out := make([]Dependency, 0, len(g.revAdj[id]))
	for _, pred := range g.revAdj[id] {
		out = append(out, *g.deps[edgeKey{pred, id}])
	}
	return out
}

// Successors returns the outgoing dependencies of id, ordered by successor ID.
func (g *Graph) Successors(id string) []Dependency {
	out := make([]Dependency, 0, len(g.adj[id]))
	for _, succ := range g.adj[id] {
		out = append(out, *g.deps[edgeKey{id, succ}])
	}
	return out
}

// PredecessorIDs returns the IDs of activities id depends on.
func (g *Graph) PredecessorIDs(id string) []string { return g.revAdj[id] }

// SuccessorIDs returns the IDs of activities depending on id.
func (g *Graph) SuccessorIDs(id string) []string { return g.adj[id] }

// Downstream returns every activity transitively reachable from id, sorted.
func (g *Graph) Downstream(id string) []string {
	seen := make(map[string]bool)
	stack := append([]string(nil), g.adj[id]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, g.adj[n]...)
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// IDs returns all activity IDs, sorted.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.activities))
	for id := range g.activities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dependencies returns every dependency ordered by predecessor then successor.
func (g *Graph) Dependencies() []Dependency {
	out := make([]Dependency, 0, len(g.deps))
	for _, d := range g.deps {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PredecessorID != out[j].PredecessorID {
			return out[i].PredecessorID < out[j].PredecessorID
		}
		return out[i].SuccessorID < out[j].SuccessorID
	})
	return out
}

// Roots returns activities with no predecessors, sorted.
func (g *Graph) Roots() []string {
	var roots []string
	for _, id := range g.IDs() {
		if len(g.revAdj[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Leaves returns activities with no successors, sorted.
func (g *Graph) Leaves() []string {
	var leaves []string
	for _, id := range g.IDs() {
		if len(g.adj[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

// ActivityCount returns the number of activities in the graph.
func (g *Graph) ActivityCount() int {
	return len(g.activities)
}

// DependencyCount returns the number of dependencies in the graph.
func (g *Graph) DependencyCount() int {
	return len(g.deps)
}

// DetectCycle returns the cycle path if one exists, or nil if the graph is acyclic.
// Uses DFS with coloring: white (unvisited), gray (in progress), black (done).
func (g *Graph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range g.adj[node] {
			if color[next] == gray {
				// Walk parents back to next, then reverse into forward order.
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for _, id := range g.IDs() {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Clone returns a deep copy that shares nothing with g.
func (g *Graph) Clone() *Graph {
	c := New(g.dataDate)
	c.projectStart = copyInt(g.projectStart)
	c.finishConstraint = copyInt(g.finishConstraint)
	c.version = g.version
	for id, a := range g.activities {
		c.activities[id] = a.clone()
	}
	for k, d := range g.deps {
		stored := *d
		c.deps[k] = &stored
	}
	for k, v := range g.adj {
		c.adj[k] = append([]string(nil), v...)
	}
	for k, v := range g.revAdj {
		c.revAdj[k] = append([]string(nil), v...)
	}
	return c
}
