package event

import (
	"sort"

	"github.com/raildispatch/prognosis/config"
	"github.com/raildispatch/prognosis/target"
	"github.com/raildispatch/prognosis/utils"
)

// Translate derives event nodes and edges for every target node and edge
// not yet represented in the event graph. The translation runs in two
// phases: node builders set up the plain arrival/hold/departure pattern per
// target node, edge builders then reshape those patterns for replacement,
// coupling and splitting transitions before anything is committed.
//
// Re-running the translation after a schedule refresh is idempotent:
// committed events are matched by (train, target, kind) and updated in
// place instead of being duplicated.
func Translate(tg *target.Graph, eg *Graph, params config.PrognosisParams, warns *utils.WarningAggregator) {
	builders := map[target.Label]*nodeBuilder{}
	var order []target.Label

	for _, zid := range tg.Trains() {
		for _, tl := range tg.TrainPath(zid) {
			if builders[tl] != nil {
				continue
			}
			tn := tg.Node(tl)
			if tn == nil {
				continue
			}
			builders[tl] = newNodeBuilder(eg, tn, !tg.HasSameTrainPred(tl))
			order = append(order, tl)
		}
	}

	// Travel durations are captured before the transition builders reshape
	// the node lists.
	var travels []*travelEdge
	for _, zid := range tg.Trains() {
		path := tg.TrainPath(zid)
		for i := 0; i+1 < len(path); i++ {
			e := tg.Edge(path[i], path[i+1])
			if e == nil || e.Kind != target.EdgeTravel {
				continue
			}
			t := newTravelEdge(builders[path[i]], builders[path[i+1]], params, warns)
			if t != nil {
				travels = append(travels, t)
			}
		}
	}

	for _, ce := range tg.CrossEdges() {
		b1 := builders[ce.From]
		b2 := builders[ce.To]
		if b1 == nil || b2 == nil || len(b1.nodes) == 0 || len(b2.nodes) == 0 {
			warns.Add(utils.WarningIncompleteTransition, ce.From.String())
			continue
		}
		switch ce.Kind {
		case target.EdgeReplace:
			prepareReplace(b1, b2)
		case target.EdgeCouple:
			prepareCouple(b1, b2)
		case target.EdgeSplit:
			prepareSplit(b1, b2)
		}
	}

	for _, tl := range order {
		builders[tl].commit()
	}
	for _, t := range travels {
		t.commit()
	}
}

// pendingNode wraps an event node until commit assigns its label. Synthetic
// transition nodes are shared between two builders through the same
// pendingNode, so whichever builder commits first fixes the label for both.
type pendingNode struct {
	node      *Node
	committed bool
	label     Label
}

type nodeBuilder struct {
	g          *Graph
	train      int
	trainStart bool
	done       bool

	nodes     []*pendingNode
	edges     []*Edge // edges[i] connects nodes[i] to nodes[i+1]
	couplings []*pendingNode

	nodeTmpl *Node
	edgeTmpl *Edge
}

// newNodeBuilder initializes the plain event pattern of one target node:
// an arrival and a departure joined by a hold edge for stops and
// pass-throughs, a single departure for entries, a single arrival for
// exits.
func newNodeBuilder(g *Graph, tn *target.Node, trainStart bool) *nodeBuilder {
	b := &nodeBuilder{g: g, train: tn.Train, trainStart: trainStart}

	arrives := tn.Type != target.TypeEntry
	departs := tn.Type != target.TypeExit

	if arrives {
		n := &Node{
			Train:     tn.Train,
			Kind:      KindArrival,
			Target:    tn.Label,
			HasTarget: true,
			PlanTrack: tn.PlanTrack,
			Track:     tn.Track,
		}
		if t, ok := planTime(tn.Arrival, tn.Departure); ok {
			n.TPlan = utils.Ptr(t)
			n.TProg = utils.Ptr(t + deref(tn.VArr))
		}
		b.nodes = append(b.nodes, &pendingNode{node: n})
		b.nodeTmpl = n
	}

	if departs {
		n := &Node{
			Train:     tn.Train,
			Kind:      KindDeparture,
			Target:    tn.Label,
			HasTarget: true,
			PlanTrack: tn.PlanTrack,
			Track:     tn.Track,
		}
		if t, ok := planTime(tn.Departure, tn.Arrival); ok {
			n.TPlan = utils.Ptr(t)
			n.TProg = utils.Ptr(t + deref(tn.VDep))
		}
		b.nodes = append(b.nodes, &pendingNode{node: n})
		if b.nodeTmpl == nil {
			b.nodeTmpl = n
		}
	}

	b.edgeTmpl = &Edge{Train: tn.Train, Kind: EdgeHold, DtMin: tn.MinDwell}
	if len(b.nodes) == 2 {
		hold := *b.edgeTmpl
		b.edges = append(b.edges, &hold)
	}
	return b
}

// newNode copies the builder's template with a different kind. Times are
// cleared; the caller sets the planned time of the transition.
func (b *nodeBuilder) newNode(kind Kind) *Node {
	n := *b.nodeTmpl
	n.Kind = kind
	n.TPlan = nil
	n.TProg = nil
	n.TMess = nil
	return &n
}

// newEdge copies the builder's hold template with a different kind.
func (b *nodeBuilder) newEdge(kind EdgeKind) *Edge {
	e := *b.edgeTmpl
	e.Kind = kind
	return &e
}

func (b *nodeBuilder) firstPending() *pendingNode { return b.nodes[0] }
func (b *nodeBuilder) lastPending() *pendingNode  { return b.nodes[len(b.nodes)-1] }

// firstLabel is valid after commit.
func (b *nodeBuilder) firstLabel() (Label, bool) {
	if len(b.nodes) == 0 || !b.nodes[0].committed {
		return Label{}, false
	}
	return b.nodes[0].label, true
}

// lastLabel is valid after commit.
func (b *nodeBuilder) lastLabel() (Label, bool) {
	if len(b.nodes) == 0 || !b.nodes[len(b.nodes)-1].committed {
		return Label{}, false
	}
	return b.nodes[len(b.nodes)-1].label, true
}

// insertOp splices a transition node after the arrival: A -e-> T -h-> B.
func (b *nodeBuilder) insertOp(pn *pendingNode, e *Edge) {
	b.nodes = append(b.nodes[:1], append([]*pendingNode{pn}, b.nodes[1:]...)...)
	b.edges = append([]*Edge{e}, b.edges...)
}

// removeDeparture drops the trailing departure node and its edge.
func (b *nodeBuilder) removeDeparture() {
	if n := len(b.nodes); n > 0 && b.nodes[n-1].node.Kind == KindDeparture {
		b.nodes = b.nodes[:n-1]
		if len(b.edges) > 0 {
			b.edges = b.edges[:len(b.edges)-1]
		}
	}
}

// removeArrival drops the leading arrival node and its edge.
func (b *nodeBuilder) removeArrival() {
	if len(b.nodes) > 0 && b.nodes[0].node.Kind == KindArrival {
		b.nodes = b.nodes[1:]
		if len(b.edges) > 0 {
			b.edges = b.edges[1:]
		}
	}
}

// connectDeparture splices a foreign transition node before the departure.
func (b *nodeBuilder) connectDeparture(pn *pendingNode, e *Edge) {
	if n := len(b.nodes); n > 0 && b.nodes[n-1].node.Kind == KindDeparture {
		b.nodes = append(b.nodes[:n-1], pn, b.nodes[n-1])
		b.edges = append(b.edges, e)
	}
}

// addCoupling collects a coupling node. A train can be the target of
// several couplings; they are spliced in planned order at commit.
func (b *nodeBuilder) addCoupling(pn *pendingNode) {
	b.couplings = append(b.couplings, pn)
}

// commit writes the builder's nodes and edges into the graph. Only the
// first call has an effect. Events already present for the same target and
// kind are kept and refreshed instead of duplicated.
func (b *nodeBuilder) commit() {
	if b.done {
		return
	}
	b.done = true
	if len(b.nodes) == 0 {
		return
	}

	sort.SliceStable(b.couplings, func(i, j int) bool {
		return deref(b.couplings[i].node.TPlan) < deref(b.couplings[j].node.TPlan)
	})
	for _, k := range b.couplings {
		b.nodes = append(b.nodes[:len(b.nodes)-1], k, b.nodes[len(b.nodes)-1])
		b.edges = append(b.edges, &Edge{Train: k.node.Train, Kind: EdgeHold, DtMin: 0})
	}

	startFree := b.trainStart
	for _, pn := range b.nodes {
		if pn.committed {
			continue
		}
		if pn.node.HasTarget {
			if l, ok := b.g.findByTarget(pn.node.Train, pn.node.Target, pn.node.Kind); ok {
				existing := b.g.nodes[l]
				existing.Track = pn.node.Track
				if pn.node.TProg != nil && existing.TMess == nil {
					existing.TProg = pn.node.TProg
				}
				pn.committed = true
				pn.label = l
				continue
			}
		}
		start := startFree && pn.node.Train == b.train
		if start {
			startFree = false
		}
		pn.label = b.g.AddNode(pn.node, start)
		pn.committed = true
	}

	for i := 0; i+1 < len(b.nodes) && i < len(b.edges); i++ {
		b.g.AddEdge(b.nodes[i].label, b.nodes[i+1].label, b.edges[i])
	}
}

// travelEdge connects the departure of one target node to the arrival of
// the next. The minimum duration is the planned time difference, captured
// before any transition reshaping.
type travelEdge struct {
	b1, b2 *nodeBuilder
	edge   *Edge
	done   bool
}

func newTravelEdge(b1, b2 *nodeBuilder, params config.PrognosisParams, warns *utils.WarningAggregator) *travelEdge {
	if b1 == nil || b2 == nil || len(b1.nodes) == 0 || len(b2.nodes) == 0 {
		return nil
	}
	dep := b1.lastPending().node
	arr := b2.firstPending().node

	dtMin := float64(params.FallbackTravelMin)
	if dep.TPlan != nil && arr.TPlan != nil {
		dtMin = *arr.TPlan - *dep.TPlan
	} else {
		warns.Add(utils.WarningMissingPlannedTime, dep.Target.String())
	}

	return &travelEdge{
		b1:   b1,
		b2:   b2,
		edge: &Edge{Train: dep.Train, Kind: EdgeTravel, DtMin: dtMin},
	}
}

func (t *travelEdge) commit() {
	if t.done {
		return
	}
	t.done = true
	u, ok1 := t.b1.lastLabel()
	v, ok2 := t.b2.firstLabel()
	if !ok1 || !ok2 {
		return
	}
	t.g().AddEdge(u, v, t.edge)
}

func (t *travelEdge) g() *Graph { return t.b1.g }

// prepareReplace reshapes two builders for a number change:
// An1 -E-> E -H-> Ab2. The replacement node belongs to the out-going train
// and is planned at the successor's departure time.
func prepareReplace(b1, b2 *nodeBuilder) {
	en := b1.newNode(KindReplace)
	en.TPlan = b2.lastPending().node.TPlan
	pn := &pendingNode{node: en}

	b1.insertOp(pn, b1.newEdge(EdgeReplace))
	b1.removeDeparture()

	hold := b2.newEdge(EdgeHold)
	hold.DtMin = 0
	b2.connectDeparture(pn, hold)
	b2.removeArrival()
}

// prepareCouple reshapes two builders for a coupling:
// An1 -K-> K, An2 -H-> K -H-> Ab2. The coupling node belongs to the
// continuing train; its planned time is the later of the two arrivals plus
// minimum dwell.
func prepareCouple(b1, b2 *nodeBuilder) {
	kn := b2.newNode(KindCouple)
	p1 := holdReadyTime(b1)
	p2 := holdReadyTime(b2)
	switch {
	case p1 != nil && p2 != nil:
		kn.TPlan = utils.Ptr(maxFloat(*p1, *p2))
	case p1 != nil:
		kn.TPlan = p1
	case p2 != nil:
		kn.TPlan = p2
	}
	pn := &pendingNode{node: kn}

	b1.insertOp(pn, b1.newEdge(EdgeCouple))
	b1.removeDeparture()
	b2.addCoupling(pn)
}

// prepareSplit reshapes two builders for a splitting:
// An1 -F-> F -H-> Ab1, F -H-> Ab2. The splitting node belongs to the
// source train and is planned at its arrival plus minimum dwell.
func prepareSplit(b1, b2 *nodeBuilder) {
	fn := b1.newNode(KindSplit)
	fn.TPlan = holdReadyTime(b1)
	pn := &pendingNode{node: fn}

	b1.insertOp(pn, b1.newEdge(EdgeSplit))
	b1.edges[len(b1.edges)-1].DtMin = 0

	hold := b2.newEdge(EdgeHold)
	hold.DtMin = 0
	b2.connectDeparture(pn, hold)
	b2.removeArrival()
}

// holdReadyTime is the planned arrival plus minimum dwell of a builder's
// leading node.
func holdReadyTime(b *nodeBuilder) *float64 {
	first := b.firstPending().node
	if first.TPlan == nil {
		return nil
	}
	t := *first.TPlan
	if len(b.edges) > 0 {
		t += b.edges[0].DtMin
	}
	return utils.Ptr(t)
}

func planTime(primary, fallback *float64) (float64, bool) {
	switch {
	case primary != nil:
		return *primary, true
	case fallback != nil:
		return *fallback, true
	}
	return 0, false
}

func deref(p *float64) float64 {
	if p != nil {
		return *p
	}
	return 0
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
