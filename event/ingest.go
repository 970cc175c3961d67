package event

import (
	"fmt"
	"log"

	"github.com/raildispatch/prognosis/utils"
)

// OccurrenceKind classifies a live occurrence from the interlocking.
type OccurrenceKind string

const (
	OccEntry      OccurrenceKind = "entry"
	OccArrival    OccurrenceKind = "arrival"
	OccDeparture  OccurrenceKind = "departure"
	OccExit       OccurrenceKind = "exit"
	OccSignalStop OccurrenceKind = "red_signal_stop"
	OccCleared    OccurrenceKind = "cleared"
	OccReplaced   OccurrenceKind = "replacement"
	OccCoupled    OccurrenceKind = "coupling"
	OccSplit      OccurrenceKind = "splitting"
)

// Occurrence is one live event report.
type Occurrence struct {
	Train        int
	Kind         OccurrenceKind
	Time         float64 // minutes after midnight
	Track        string
	PlannedTrack string
	AtPlatform   bool
	Visible      bool
}

// Apply merges one occurrence into the graph: it stamps the measured time
// on the matching event and advances the train's cursor. Unknown trains and
// unmatched events are warned about and dropped; measured times are never
// overwritten.
func (g *Graph) Apply(occ Occurrence, warns *utils.WarningAggregator) {
	// Negative and zero ids are shunting movements without a schedule.
	if occ.Train <= 0 {
		return
	}

	switch occ.Kind {
	case OccEntry:
		g.applyEntry(occ, warns)
	case OccExit:
		g.applyExit(occ, warns)
	case OccArrival:
		if occ.Visible {
			g.applyArrival(occ, warns)
		}
	case OccDeparture:
		if occ.Visible {
			g.applyDeparture(occ, warns)
		}
	case OccSignalStop:
		if occ.Visible {
			g.applySignalStop(occ, warns)
		}
	case OccCleared:
		if occ.Visible {
			g.applyCleared(occ, warns)
		}
	case OccReplaced:
		g.applyTransition(occ, KindReplace, true, warns)
	case OccCoupled:
		g.applyTransition(occ, KindCouple, false, warns)
	case OccSplit:
		g.applyTransition(occ, KindSplit, true, warns)
	}
}

// setMeasured stamps the time unless the event already carries one.
func (g *Graph) setMeasured(l Label, t float64) {
	node := g.nodes[l]
	if node == nil {
		log.Printf("event %s has no data", l)
		return
	}
	if node.TMess != nil {
		return
	}
	node.TMess = utils.Ptr(t)
}

// searchFrom is the cursor position of the train, falling back to its
// first event.
func (g *Graph) searchFrom(zid int) (Label, bool) {
	if pos, ok := g.positions[zid]; ok {
		return pos, true
	}
	return g.Start(zid)
}

// updateExpected refreshes the announced planned track and the next
// expected event of the train. The announced track is not always current,
// so a miss leaves the previous expectation in place.
func (g *Graph) updateExpected(occ Occurrence, from Label, nextKind Kind) {
	g.planTracks[occ.Train] = occ.PlannedTrack
	next, ok := g.FindEvent(from, FindCriteria{Kind: nextKind, Train: occ.Train, PlanTrack: occ.PlannedTrack})
	if ok && next != from {
		g.expected[occ.Train] = next
	}
}

func (g *Graph) applyEntry(occ Occurrence, warns *utils.WarningAggregator) {
	start, ok := g.Start(occ.Train)
	if !ok {
		warns.Add(utils.WarningTrainUnknown, occ.id())
		return
	}
	g.setMeasured(start, occ.Time)
	g.positions[occ.Train] = start
	g.planTracks[occ.Train] = occ.PlannedTrack
	if next, ok := g.FindEvent(start, FindCriteria{Kind: KindArrival, Train: occ.Train}); ok {
		g.expected[occ.Train] = next
	}
}

func (g *Graph) applyExit(occ Occurrence, warns *utils.WarningAggregator) {
	path := g.TrainPath(occ.Train, false)
	if len(path) == 0 {
		warns.Add(utils.WarningTrainUnknown, occ.id())
		return
	}
	g.setMeasured(path[len(path)-1], occ.Time)
	g.clearCursors(occ.Train)
}

func (g *Graph) applyArrival(occ Occurrence, warns *utils.WarningAggregator) {
	from, ok := g.searchFrom(occ.Train)
	if !ok {
		warns.Add(utils.WarningTrainUnknown, occ.id())
		return
	}

	if occ.AtPlatform {
		cur, ok := g.FindEvent(from, FindCriteria{Kind: KindArrival, Train: occ.Train, PlanTrack: occ.PlannedTrack})
		if !ok {
			warns.Add(utils.WarningEventNotFound, occ.id())
			return
		}
		g.setMeasured(cur, occ.Time)
		g.positions[occ.Train] = cur
		g.updateExpected(occ, cur, KindDeparture)
		return
	}

	// Pass-through: the announced planned track is the next scheduled halt.
	// The event being passed is the predecessor of that halt's arrival.
	next, ok := g.FindEvent(from, FindCriteria{Kind: KindArrival, Train: occ.Train, PlanTrack: occ.PlannedTrack})
	if !ok {
		warns.Add(utils.WarningEventNotFound, occ.id())
		return
	}
	g.planTracks[occ.Train] = occ.PlannedTrack
	g.expected[occ.Train] = next
	if passed, ok := g.PrevOnTrain(next); ok {
		g.setMeasured(passed, occ.Time)
		g.positions[occ.Train] = passed
	} else {
		warns.Add(utils.WarningEventNotFound, occ.id())
	}
}

func (g *Graph) applyDeparture(occ Occurrence, warns *utils.WarningAggregator) {
	from, ok := g.searchFrom(occ.Train)
	if !ok {
		warns.Add(utils.WarningTrainUnknown, occ.id())
		return
	}

	if occ.AtPlatform {
		// Ready to depart: only the position is updated.
		if cur, ok := g.FindEvent(from, FindCriteria{Kind: KindArrival, Train: occ.Train, PlanTrack: occ.PlannedTrack}); ok {
			g.positions[occ.Train] = cur
		}
		g.planTracks[occ.Train] = occ.PlannedTrack
		return
	}

	crit := FindCriteria{Kind: KindDeparture, Train: occ.Train}
	if prevPlan := g.planTracks[occ.Train]; prevPlan != "" {
		crit.PlanTrack = prevPlan
	}
	cur, ok := g.FindEvent(from, crit)
	if !ok {
		// happens when the departure follows a number change
		warns.Add(utils.WarningEventNotFound, occ.id())
		return
	}
	g.setMeasured(cur, occ.Time)
	g.positions[occ.Train] = cur
	g.updateExpected(occ, cur, KindArrival)
}

// applySignalStop advances the expectation to the announced location
// without measuring anything.
func (g *Graph) applySignalStop(occ Occurrence, warns *utils.WarningAggregator) {
	from, ok := g.searchFrom(occ.Train)
	if !ok {
		warns.Add(utils.WarningTrainUnknown, occ.id())
		return
	}
	g.planTracks[occ.Train] = occ.PlannedTrack
	if next, ok := g.FindEvent(from, FindCriteria{Kind: KindArrival, Train: occ.Train, PlanTrack: occ.PlannedTrack}); ok {
		g.expected[occ.Train] = next
	}
}

// applyCleared stamps the departure from a dispatcher-ordered operational
// stop when the signal opens again.
func (g *Graph) applyCleared(occ Occurrence, warns *utils.WarningAggregator) {
	pos, ok := g.positions[occ.Train]
	if !ok {
		warns.Add(utils.WarningTrainUnknown, occ.id())
		return
	}
	cur := pos
	if node := g.nodes[pos]; node != nil && node.Kind == KindArrival {
		if ab, ok := g.NextOnTrain(pos); ok {
			if e := g.Edge(pos, ab); e != nil && e.Kind == EdgeOpStop {
				g.setMeasured(ab, occ.Time)
				g.positions[occ.Train] = ab
				cur = ab
			}
		}
	}
	g.updateExpected(occ, cur, KindArrival)
}

// applyTransition handles the replacement, coupling and splitting reports.
// The reporting train is the one whose number disappears or whose consist
// changes; advance selects whether successor trains inherit the position.
func (g *Graph) applyTransition(occ Occurrence, kind Kind, advance bool, warns *utils.WarningAggregator) {
	from, ok := g.searchFrom(occ.Train)
	if !ok {
		warns.Add(utils.WarningTrainUnknown, occ.id())
		return
	}
	cur, ok := g.FindEvent(from, FindCriteria{Kind: kind, PlanTrack: occ.PlannedTrack})
	if !ok {
		warns.Add(utils.WarningEventNotFound, occ.id())
		return
	}
	g.setMeasured(cur, occ.Time)

	if advance {
		for _, next := range g.Successors(cur) {
			e := g.Edge(cur, next)
			if e == nil || e.Kind != EdgeHold {
				continue
			}
			if _, taken := g.positions[next.Train]; taken && kind == KindReplace {
				continue
			}
			g.positions[next.Train] = cur
			g.planTracks[next.Train] = occ.PlannedTrack
			g.expected[next.Train] = next
		}
	}

	switch kind {
	case KindReplace, KindCouple:
		g.clearCursors(occ.Train)
	}
}

func (g *Graph) clearCursors(zid int) {
	delete(g.positions, zid)
	delete(g.planTracks, zid)
	delete(g.expected, zid)
}

// Position returns the last passed event of the train.
func (g *Graph) Position(zid int) (Label, bool) {
	l, ok := g.positions[zid]
	return l, ok
}

// Expected returns the next expected event of the train.
func (g *Graph) Expected(zid int) (Label, bool) {
	l, ok := g.expected[zid]
	return l, ok
}

func (occ Occurrence) id() string {
	return fmt.Sprintf("%d/%s@%s", occ.Train, occ.Kind, occ.PlannedTrack)
}
