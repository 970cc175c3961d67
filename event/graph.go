package event

import (
	"fmt"
	"sort"
	"strings"

	"github.com/raildispatch/prognosis/target"
	"github.com/raildispatch/prognosis/utils"
)

// Kind classifies an event node.
type Kind string

const (
	KindArrival   Kind = "An"
	KindDeparture Kind = "Ab"
	KindReplace   Kind = "E"
	KindCouple    Kind = "K"
	KindSplit     Kind = "F"
)

// EdgeKind classifies an event edge.
type EdgeKind string

const (
	EdgeTravel  EdgeKind = "P"
	EdgeHold    EdgeKind = "H"
	EdgeReplace EdgeKind = "E"
	EdgeCouple  EdgeKind = "K"
	EdgeSplit   EdgeKind = "F"
	EdgeOpStop  EdgeKind = "B"
)

// Label identifies an event node by train id and a per-train sequence
// number. The first event of a train always has sequence 0.
type Label struct {
	Train int
	Seq   int
}

func (l Label) String() string {
	return fmt.Sprintf("%d.%d", l.Train, l.Seq)
}

// Node is one atomic event.
type Node struct {
	Train     int
	Kind      Kind
	Target    target.Label // originating target node
	HasTarget bool         // false on dispatcher-inserted events
	PlanTrack string
	Track     string

	TPlan *float64 // planned time, minutes
	TProg *float64 // predicted time
	TMess *float64 // measured time, terminal once set
}

// EffectiveTime returns the most reliable known time of the event:
// measured, then predicted, then planned.
func (n *Node) EffectiveTime() (float64, bool) {
	switch {
	case n.TMess != nil:
		return *n.TMess, true
	case n.TProg != nil:
		return *n.TProg, true
	case n.TPlan != nil:
		return *n.TPlan, true
	}
	return 0, false
}

// Edge is a directed dependency between two events.
type Edge struct {
	Train int
	Kind  EdgeKind

	DtMin float64  // minimum duration, minutes
	DtMax *float64 // maximum duration, unbounded when nil
	DtFdl float64  // dispatcher correction, positive extends, negative releases
}

type edgeKey struct {
	From Label
	To   Label
}

// Graph is the event graph arena. It also owns the per-train ingestion
// cursor state.
type Graph struct {
	nodes map[Label]*Node
	succ  map[Label][]Label
	pred  map[Label][]Label
	edges map[edgeKey]*Edge

	nextSeq  map[int]int  // next free positive sequence per train
	hasStart map[int]bool // sequence 0 assigned
	byTrain  map[int][]Label

	// ingestion cursors
	positions  map[int]Label  // last passed event
	planTracks map[int]string // last announced planned track
	expected   map[int]Label  // next expected event
}

// NewGraph creates an empty event graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:      map[Label]*Node{},
		succ:       map[Label][]Label{},
		pred:       map[Label][]Label{},
		edges:      map[edgeKey]*Edge{},
		nextSeq:    map[int]int{},
		hasStart:   map[int]bool{},
		byTrain:    map[int][]Label{},
		positions:  map[int]Label{},
		planTracks: map[int]string{},
		expected:   map[int]Label{},
	}
}

// Node returns the node stored under the label, or nil.
func (g *Graph) Node(l Label) *Node {
	return g.nodes[l]
}

// Edge returns the edge from u to v, or nil.
func (g *Graph) Edge(u, v Label) *Edge {
	return g.edges[edgeKey{u, v}]
}

// AddNode stores a node under a fresh label. start requests sequence 0,
// which is granted once per train.
func (g *Graph) AddNode(n *Node, start bool) Label {
	var label Label
	if start && !g.hasStart[n.Train] {
		label = Label{Train: n.Train, Seq: 0}
		g.hasStart[n.Train] = true
		if g.nextSeq[n.Train] == 0 {
			g.nextSeq[n.Train] = 1
		}
	} else {
		seq := g.nextSeq[n.Train]
		if seq == 0 {
			seq = 1
		}
		g.nextSeq[n.Train] = seq + 1
		label = Label{Train: n.Train, Seq: seq}
	}
	g.nodes[label] = n
	g.byTrain[n.Train] = append(g.byTrain[n.Train], label)
	return label
}

// AddEdge inserts the edge unless one already exists between the labels.
func (g *Graph) AddEdge(u, v Label, e *Edge) bool {
	key := edgeKey{u, v}
	if g.edges[key] != nil {
		return false
	}
	if g.nodes[u] == nil || g.nodes[v] == nil {
		return false
	}
	g.edges[key] = e
	g.succ[u] = append(g.succ[u], v)
	g.pred[v] = append(g.pred[v], u)
	return true
}

// RemoveEdge deletes the edge between the labels if present.
func (g *Graph) RemoveEdge(u, v Label) {
	key := edgeKey{u, v}
	if g.edges[key] == nil {
		return
	}
	delete(g.edges, key)
	g.succ[u] = removeLabel(g.succ[u], v)
	g.pred[v] = removeLabel(g.pred[v], u)
}

func removeLabel(list []Label, l Label) []Label {
	for i, x := range list {
		if x == l {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Successors returns the outgoing neighbor labels of l.
func (g *Graph) Successors(l Label) []Label {
	return g.succ[l]
}

// Predecessors returns the incoming neighbor labels of l.
func (g *Graph) Predecessors(l Label) []Label {
	return g.pred[l]
}

// Trains returns all train ids present in the graph, sorted.
func (g *Graph) Trains() []int {
	ids := make([]int, 0, len(g.byTrain))
	for id := range g.byTrain {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Start returns the first event of the train.
func (g *Graph) Start(zid int) (Label, bool) {
	l := Label{Train: zid, Seq: 0}
	_, ok := g.nodes[l]
	return l, ok
}

// TrainPath walks the train's events in planned order by following
// successor edges from the sequence-0 event. With follow set, the walk
// continues into the successor train after a replacement or coupling;
// after a splitting it stays on the source train.
func (g *Graph) TrainPath(zid int, follow bool) []Label {
	cur, ok := g.Start(zid)
	if !ok {
		return nil
	}
	var path []Label
	seen := map[Label]bool{}
	for {
		if seen[cur] {
			return path
		}
		seen[cur] = true
		path = append(path, cur)

		next, ok := g.nextOnPath(cur, zid, follow)
		if !ok {
			return path
		}
		zid = next.Train
		cur = next
	}
}

func (g *Graph) nextOnPath(cur Label, zid int, follow bool) (Label, bool) {
	for _, n := range g.succ[cur] {
		if n.Train == zid {
			return n, true
		}
		if !follow {
			continue
		}
		if node := g.nodes[n]; node != nil && node.Kind == KindCouple {
			return n, true
		}
		if node := g.nodes[cur]; node != nil && node.Kind == KindReplace {
			if e := g.edges[edgeKey{cur, n}]; e != nil && e.Kind == EdgeHold {
				return n, true
			}
		}
	}
	return Label{}, false
}

// NextOnTrain returns the next event with the same train id.
func (g *Graph) NextOnTrain(l Label) (Label, bool) {
	return g.nextOnPath(l, l.Train, false)
}

// PrevOnTrain returns the preceding event, preferring one with the same
// train id.
func (g *Graph) PrevOnTrain(l Label) (Label, bool) {
	var fallback Label
	var haveFallback bool
	for _, p := range g.pred[l] {
		if p.Train == l.Train {
			return p, true
		}
		fallback, haveFallback = p, true
	}
	return fallback, haveFallback
}

// FindCriteria restricts a FindEvent search. Zero fields do not filter,
// except Kind which is always required.
type FindCriteria struct {
	Kind      Kind
	Train     int    // 0 matches any train on the path
	PlanTrack string // case-insensitive
}

// FindEvent searches the chain from start (inclusive), following
// replacement and coupling transitions, for the first event matching the
// criteria.
func (g *Graph) FindEvent(start Label, c FindCriteria) (Label, bool) {
	cur := start
	zid := start.Train
	seen := map[Label]bool{}
	for {
		if seen[cur] {
			return Label{}, false
		}
		seen[cur] = true

		if node := g.nodes[cur]; node != nil && node.Kind == c.Kind {
			trainOK := c.Train == 0 || node.Train == c.Train
			trackOK := c.PlanTrack == "" || strings.EqualFold(node.PlanTrack, c.PlanTrack)
			if trainOK && trackOK {
				return cur, true
			}
		}

		next, ok := g.nextOnPath(cur, zid, true)
		if !ok {
			return Label{}, false
		}
		zid = next.Train
		cur = next
	}
}

// SetCorrection stores a dispatcher correction on the edge between the
// labels: positive values order extra waiting, negative values release an
// early departure.
func (g *Graph) SetCorrection(u, v Label, dt float64) bool {
	e := g.edges[edgeKey{u, v}]
	if e == nil {
		return false
	}
	e.DtFdl = dt
	return true
}

// findByTarget looks for a committed event of the train that derives from
// the same target node with the same kind. Translation uses it to keep
// re-translation idempotent.
func (g *Graph) findByTarget(zid int, tl target.Label, kind Kind) (Label, bool) {
	for _, l := range g.byTrain[zid] {
		n := g.nodes[l]
		if n != nil && n.HasTarget && n.Target == tl && n.Kind == kind {
			return l, true
		}
	}
	return Label{}, false
}

// NodeInfo formats an event for log output.
func (g *Graph) NodeInfo(l Label) string {
	n := g.nodes[l]
	if n == nil {
		return l.String() + " (missing)"
	}
	t, ok := n.EffectiveTime()
	clock := "--:--"
	if ok {
		clock = utils.MinutesToClock(t)
	}
	return fmt.Sprintf("%s %s %s %s", l, n.Kind, n.PlanTrack, clock)
}

// EdgeInfo formats an edge for log output.
func (g *Graph) EdgeInfo(u, v Label) string {
	e := g.edges[edgeKey{u, v}]
	if e == nil {
		return fmt.Sprintf("%s -> %s (missing)", u, v)
	}
	return fmt.Sprintf("%s -%s-> %s dt_min=%g", u, e.Kind, v, e.DtMin)
}

// sortedLabels returns all node labels ordered by train and sequence.
func (g *Graph) sortedLabels() []Label {
	labels := make([]Label, 0, len(g.nodes))
	for l := range g.nodes {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].Train != labels[j].Train {
			return labels[i].Train < labels[j].Train
		}
		return labels[i].Seq < labels[j].Seq
	})
	return labels
}
