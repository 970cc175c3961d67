package event

import (
	"log"
	"math"
	"sort"

	"github.com/raildispatch/prognosis/utils"
)

// Prognose propagates expected times through the graph.
//
// Every node without a measured time receives a new prediction: the planned
// departure (or, for a train's first event, its own effective time) clamped
// into the window spanned by the incoming edges. The minimum is the latest
// predecessor plus minimum duration, the maximum the earliest predecessor
// plus declared maximum duration. Dispatcher corrections widen or narrow
// the window.
//
// The supported edge configurations:
//  1. Regular stop: DtMin is the minimum dwell, DtMax undeclared.
//  2. Stop with permitted early departure: DtMax declared.
//  3. Pass-through: DtMin 0, DtMax undeclared.
//  4. Waiting for another event: DtMin is the extra wait on a cross edge.
//  5. Ordered early departure: negative correction on an edge with DtMax.
//
// Measured times are terminal and never recomputed. A node whose window
// stays unbounded is left without prognosis and reported once per pass.
func (g *Graph) Prognose(warns *utils.WarningAggregator) {
	g.breakCycles(warns)

	order, ok := g.topoOrder()
	if !ok {
		log.Printf("event graph not sortable, prognosis skipped")
		return
	}

	for _, label := range order {
		node := g.nodes[label]
		if node.TMess != nil {
			continue
		}

		candidate := math.Inf(-1)
		if label.Seq == 0 {
			if t, ok := node.EffectiveTime(); ok {
				candidate = t
			}
		} else if node.Kind == KindDeparture && node.TPlan != nil {
			candidate = *node.TPlan
		}

		zeitMin := math.Inf(-1)
		zeitMax := math.Inf(1)
		for _, p := range g.pred[label] {
			pred := g.nodes[p]
			edge := g.edges[edgeKey{p, label}]
			start, ok := pred.EffectiveTime()
			if !ok {
				continue
			}
			zeitMin = math.Max(zeitMin, start+edge.DtMin+math.Max(0, edge.DtFdl))
			if edge.DtMax != nil {
				zeitMax = math.Min(zeitMax, start+*edge.DtMax+math.Min(0, edge.DtFdl))
			}
		}

		result := math.Min(candidate, zeitMax)
		result = math.Max(result, zeitMin)
		if math.IsInf(result, 0) {
			warns.Add(utils.WarningNoPrognosis, label.String())
			continue
		}
		node.TProg = utils.Ptr(result)
	}
}

// breakCycles removes one edge per dependency cycle until the graph is
// acyclic. The edge between two different trains is removed in preference
// to an edge within a train. Cycles are data faults; the pass must keep
// working on the repaired graph.
func (g *Graph) breakCycles(warns *utils.WarningAggregator) {
	for {
		cycle := g.findCycle()
		if cycle == nil {
			return
		}

		chosen := cycle[len(cycle)-1]
		for _, e := range cycle {
			if e.From.Train != e.To.Train {
				chosen = e
				break
			}
		}

		log.Printf("dependency cycle of %d edges, removing %s", len(cycle), g.EdgeInfo(chosen.From, chosen.To))
		warns.Add(utils.WarningCycleBroken, g.EdgeInfo(chosen.From, chosen.To))
		g.RemoveEdge(chosen.From, chosen.To)
	}
}

type cycleEdge struct {
	From Label
	To   Label
}

// findCycle returns the edges of one cycle, or nil.
func (g *Graph) findCycle() []cycleEdge {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[Label]int, len(g.nodes))
	parent := map[Label]Label{}

	var walk func(Label) (Label, Label, bool)
	walk = func(u Label) (Label, Label, bool) {
		color[u] = gray
		for _, v := range g.succ[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if a, b, found := walk(v); found {
					return a, b, true
				}
			case gray:
				return u, v, true
			}
		}
		color[u] = black
		return Label{}, Label{}, false
	}

	for _, start := range g.sortedLabels() {
		if color[start] != white {
			continue
		}
		if from, to, found := walk(start); found {
			// unwind from the re-entry point back to the closing edge
			cycle := []cycleEdge{{From: from, To: to}}
			for cur := from; cur != to; cur = parent[cur] {
				cycle = append(cycle, cycleEdge{From: parent[cur], To: cur})
			}
			for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
				cycle[i], cycle[j] = cycle[j], cycle[i]
			}
			return cycle
		}
	}
	return nil
}

// topoOrder returns the labels in topological order. Ties resolve by label
// order so repeated passes are deterministic.
func (g *Graph) topoOrder() ([]Label, bool) {
	indeg := make(map[Label]int, len(g.nodes))
	for l := range g.nodes {
		indeg[l] = len(g.pred[l])
	}

	var ready []Label
	for l, d := range indeg {
		if d == 0 {
			ready = append(ready, l)
		}
	}
	sortLabels(ready)

	order := make([]Label, 0, len(g.nodes))
	for len(ready) > 0 {
		cur := ready[0]
		ready = ready[1:]
		order = append(order, cur)

		var freed []Label
		for _, v := range g.succ[cur] {
			indeg[v]--
			if indeg[v] == 0 {
				freed = append(freed, v)
			}
		}
		sortLabels(freed)
		ready = append(ready, freed...)
	}
	return order, len(order) == len(g.nodes)
}

func sortLabels(labels []Label) {
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].Train != labels[j].Train {
			return labels[i].Train < labels[j].Train
		}
		return labels[i].Seq < labels[j].Seq
	})
}
