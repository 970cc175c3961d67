package prognosis

import (
	"sync"

	"github.com/raildispatch/prognosis/config"
	"github.com/raildispatch/prognosis/event"
	"github.com/raildispatch/prognosis/schedule"
	"github.com/raildispatch/prognosis/target"
	"github.com/raildispatch/prognosis/utils"
)

// Engine owns one target graph and one event graph and serializes all
// operations on them. Schedule imports feed the target graph, translation
// derives the event graph, live occurrences stamp measured times, and each
// ingestion batch ends with a fresh prognosis written back onto the targets.
type Engine struct {
	mu      sync.RWMutex
	targets *target.Graph
	events  *event.Graph
	params  config.PrognosisParams
	dir     schedule.TrainMap
	warns   *utils.WarningAggregator
}

// NewEngine creates an empty engine with the given dwell parameters.
func NewEngine(params config.PrognosisParams) *Engine {
	return &Engine{
		targets: target.NewGraph(),
		events:  event.NewGraph(),
		params:  params,
		dir:     schedule.TrainMap{},
		warns:   utils.NewWarningAggregator(),
	}
}

// Warnings exposes the engine's warning aggregator.
func (e *Engine) Warnings() *utils.WarningAggregator { return e.warns }

// LogWarnings writes the consolidated warning summary to the log.
func (e *Engine) LogWarnings() { e.warns.LogAll("engine") }

// ImportTrain merges one train's schedule into the target graph. The event
// graph is not touched until the next Translate.
func (e *Engine) ImportTrain(train *schedule.Train, entry, exit *schedule.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dir[train.ID] = train
	e.targets.ImportTrain(train, entry, exit, e.dir, e.params, e.warns)
}

// ImportSchedule merges a whole schedule document and translates it.
func (e *Engine) ImportSchedule(doc *schedule.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()
	// register every train first so cross-train links resolve in one pass
	for _, t := range doc.Trains {
		e.dir[t.ID] = t
	}
	for _, t := range doc.Trains {
		e.targets.ImportTrain(t, doc.EntryPoint(t.From), doc.ExitPoint(t.To), e.dir, e.params, e.warns)
	}
	event.Translate(e.targets, e.events, e.params, e.warns)
}

// Translate derives event nodes and edges for everything imported since the
// last translation. Safe to call repeatedly.
func (e *Engine) Translate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	event.Translate(e.targets, e.events, e.params, e.warns)
}

// Ingest applies a batch of live occurrences, recomputes the prognosis and
// writes the delay deltas back onto the target graph.
func (e *Engine) Ingest(occs []event.Occurrence) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, occ := range occs {
		e.events.Apply(occ, e.warns)
	}
	e.events.Prognose(e.warns)
	e.events.WriteBack(e.targets, e.warns)
}

// Prognose recomputes predicted times without new occurrences.
func (e *Engine) Prognose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events.Prognose(e.warns)
	e.events.WriteBack(e.targets, e.warns)
}

// SetCorrection stores a dispatcher correction on the edge between two
// events and recomputes the prognosis.
func (e *Engine) SetCorrection(u, v event.Label, dt float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.events.SetCorrection(u, v, dt) {
		return false
	}
	e.events.Prognose(e.warns)
	e.events.WriteBack(e.targets, e.warns)
	return true
}

// Trains returns the ids of all trains in the event graph, sorted.
func (e *Engine) Trains() []int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.events.Trains()
}

// EventView is the query projection of one event.
type EventView struct {
	Train     int      `json:"train"`
	Seq       int      `json:"seq"`
	Kind      string   `json:"kind"`
	PlanTrack string   `json:"planTrack"`
	Track     string   `json:"track,omitempty"`
	Planned   *float64 `json:"planned,omitempty"`
	Predicted *float64 `json:"predicted,omitempty"`
	Measured  *float64 `json:"measured,omitempty"`
	Effective string   `json:"effective,omitempty"` // HH:MM
}

// TrainView returns the train's events in planned order. With follow set the
// view continues into the successor train after a replacement or coupling.
func (e *Engine) TrainView(zid int, follow bool) []EventView {
	e.mu.RLock()
	defer e.mu.RUnlock()

	path := e.events.TrainPath(zid, follow)
	views := make([]EventView, 0, len(path))
	for _, l := range path {
		n := e.events.Node(l)
		v := EventView{
			Train:     n.Train,
			Seq:       l.Seq,
			Kind:      string(n.Kind),
			PlanTrack: n.PlanTrack,
			Track:     n.Track,
			Planned:   copyTime(n.TPlan),
			Predicted: copyTime(n.TProg),
			Measured:  copyTime(n.TMess),
		}
		if t, ok := n.EffectiveTime(); ok {
			v.Effective = utils.MinutesToClock(t)
		}
		views = append(views, v)
	}
	return views
}

// DelayView is the per-stop delay projection of the target graph.
type DelayView struct {
	Train     int      `json:"train"`
	Place     string   `json:"place"`
	Arrival   *float64 `json:"arrival,omitempty"`   // delay, minutes
	Departure *float64 `json:"departure,omitempty"` // delay, minutes
}

// Delays returns the delay deltas of every stop that has one, in train and
// path order.
func (e *Engine) Delays() []DelayView {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []DelayView
	for _, zid := range e.targets.Trains() {
		for _, l := range e.targets.TrainPath(zid) {
			n := e.targets.Node(l)
			if n == nil || (n.VArr == nil && n.VDep == nil) {
				continue
			}
			out = append(out, DelayView{
				Train:     n.Train,
				Place:     n.PlanTrack,
				Arrival:   copyTime(n.VArr),
				Departure: copyTime(n.VDep),
			})
		}
	}
	return out
}

func copyTime(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return utils.Ptr(*p)
}
