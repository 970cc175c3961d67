package event

import (
	"testing"

	"github.com/raildispatch/prognosis/schedule"
	"github.com/raildispatch/prognosis/target"
	"github.com/raildispatch/prognosis/utils"
)

func measured(t *testing.T, eg *Graph, l Label) float64 {
	t.Helper()
	n := eg.Node(l)
	if n == nil || n.TMess == nil {
		t.Fatalf("no measured time on %s", l)
	}
	return *n.TMess
}

func TestApplyEntryStampsStart(t *testing.T) {
	train := &schedule.Train{ID: 101, From: "A", Stops: []schedule.Stop{
		stopAt("1", 550, 551, ""),
	}}
	dir := schedule.TrainMap{101: train}
	tg := target.NewGraph()
	warns := utils.NewWarningAggregator()
	tg.ImportTrain(train, &schedule.Point{Name: "A"}, nil, dir, defaultParams(), warns)
	eg := NewGraph()
	Translate(tg, eg, defaultParams(), warns)

	eg.Apply(Occurrence{Train: 101, Kind: OccEntry, Time: 549, PlannedTrack: "1"}, warns)

	start, _ := eg.Start(101)
	if eg.Node(start).Kind != KindDeparture {
		t.Fatalf("train with entry point starts with %s, want departure", eg.Node(start).Kind)
	}
	if got := measured(t, eg, start); got != 549 {
		t.Errorf("entry time = %v, want 549", got)
	}
	if pos, ok := eg.Position(101); !ok || pos != start {
		t.Errorf("position after entry = %v, %v", pos, ok)
	}
	next, ok := eg.Expected(101)
	if !ok || eg.Node(next).Kind != KindArrival {
		t.Errorf("expected event after entry = %v, %v", next, ok)
	}
}

func TestApplyArrivalAtPlatform(t *testing.T) {
	train := &schedule.Train{ID: 101, Stops: []schedule.Stop{
		stopAt("1", 550, 551, ""),
		stopAt("2", 560, 562, ""),
	}}
	_, eg := buildGraphs(t, defaultParams(), train)
	path := eg.TrainPath(101, false)
	warns := utils.NewWarningAggregator()

	eg.Apply(Occurrence{Train: 101, Kind: OccArrival, Time: 553, PlannedTrack: "1", AtPlatform: true, Visible: true}, warns)

	if got := measured(t, eg, path[0]); got != 553 {
		t.Errorf("arrival time = %v, want 553", got)
	}
	if pos, _ := eg.Position(101); pos != path[0] {
		t.Errorf("position = %v, want the arrival event", pos)
	}
	if next, _ := eg.Expected(101); next != path[1] {
		t.Errorf("expected = %v, want the departure event", next)
	}

	// measured times are terminal
	eg.Apply(Occurrence{Train: 101, Kind: OccArrival, Time: 555, PlannedTrack: "1", AtPlatform: true, Visible: true}, warns)
	if got := measured(t, eg, path[0]); got != 553 {
		t.Errorf("measured time overwritten: %v", got)
	}
}

func TestApplyDepartureFlow(t *testing.T) {
	train := &schedule.Train{ID: 101, Stops: []schedule.Stop{
		stopAt("1", 550, 551, ""),
		stopAt("2", 560, 562, ""),
	}}
	_, eg := buildGraphs(t, defaultParams(), train)
	path := eg.TrainPath(101, false)
	warns := utils.NewWarningAggregator()

	eg.Apply(Occurrence{Train: 101, Kind: OccArrival, Time: 550, PlannedTrack: "1", AtPlatform: true, Visible: true}, warns)

	// ready to depart: position only, no measurement
	eg.Apply(Occurrence{Train: 101, Kind: OccDeparture, Time: 551, PlannedTrack: "1", AtPlatform: true, Visible: true}, warns)
	if eg.Node(path[1]).TMess != nil {
		t.Error("ready-to-depart report measured the departure")
	}

	// actual departure towards the next stop
	eg.Apply(Occurrence{Train: 101, Kind: OccDeparture, Time: 552, PlannedTrack: "2", Visible: true}, warns)
	if got := measured(t, eg, path[1]); got != 552 {
		t.Errorf("departure time = %v, want 552", got)
	}
	if pos, _ := eg.Position(101); pos != path[1] {
		t.Errorf("position = %v, want the departure event", pos)
	}
	if next, _ := eg.Expected(101); next != path[2] {
		t.Errorf("expected = %v, want the next arrival", next)
	}
}

func TestApplyPassThroughMeasuresPassage(t *testing.T) {
	train := &schedule.Train{ID: 101, Stops: []schedule.Stop{
		stopAt("1", 550, 551, ""),
		stopAt("2", 560, 560, "D"),
		stopAt("3", 570, 572, ""),
	}}
	_, eg := buildGraphs(t, defaultParams(), train)
	path := eg.TrainPath(101, false)
	warns := utils.NewWarningAggregator()

	// the report announces the next scheduled halt, not the passed stop
	eg.Apply(Occurrence{Train: 101, Kind: OccArrival, Time: 561, PlannedTrack: "3", Visible: true}, warns)

	// path[3] is the pass-through departure at stop 2
	if got := measured(t, eg, path[3]); got != 561 {
		t.Errorf("passage time = %v, want 561", got)
	}
	if pos, _ := eg.Position(101); pos != path[3] {
		t.Errorf("position = %v, want the passed event", pos)
	}
	if next, _ := eg.Expected(101); next != path[4] {
		t.Errorf("expected = %v, want the arrival at the announced halt", next)
	}
}

func TestApplySignalStopOnlyAdvancesExpectation(t *testing.T) {
	train := &schedule.Train{ID: 101, Stops: []schedule.Stop{
		stopAt("1", 550, 551, ""),
		stopAt("2", 560, 562, ""),
	}}
	_, eg := buildGraphs(t, defaultParams(), train)
	path := eg.TrainPath(101, false)
	warns := utils.NewWarningAggregator()

	eg.Apply(Occurrence{Train: 101, Kind: OccSignalStop, Time: 558, PlannedTrack: "2", Visible: true}, warns)

	for _, l := range path {
		if eg.Node(l).TMess != nil {
			t.Errorf("signal stop measured event %s", l)
		}
	}
	if next, _ := eg.Expected(101); next != path[2] {
		t.Errorf("expected = %v, want the arrival behind the signal", next)
	}
}

func TestApplyClearedMeasuresOperationalDeparture(t *testing.T) {
	eg := NewGraph()
	a := eg.AddNode(&Node{Train: 9, Kind: KindArrival, PlanTrack: "7", TPlan: utils.Ptr(600.0)}, true)
	b := eg.AddNode(&Node{Train: 9, Kind: KindDeparture, PlanTrack: "7", TPlan: utils.Ptr(600.0)}, false)
	c := eg.AddNode(&Node{Train: 9, Kind: KindArrival, PlanTrack: "8", TPlan: utils.Ptr(610.0)}, false)
	eg.AddEdge(a, b, &Edge{Train: 9, Kind: EdgeOpStop, DtMin: 0})
	eg.AddEdge(b, c, &Edge{Train: 9, Kind: EdgeTravel, DtMin: 10})
	eg.positions[9] = a

	warns := utils.NewWarningAggregator()
	eg.Apply(Occurrence{Train: 9, Kind: OccCleared, Time: 605, PlannedTrack: "8", Visible: true}, warns)

	if got := measured(t, eg, b); got != 605 {
		t.Errorf("cleared time = %v, want 605", got)
	}
	if pos, _ := eg.Position(9); pos != b {
		t.Errorf("position = %v, want the operational departure", pos)
	}
	if next, _ := eg.Expected(9); next != c {
		t.Errorf("expected = %v, want the next arrival", next)
	}
}

func TestApplyReplacementReport(t *testing.T) {
	first := &schedule.Train{ID: 101, Stops: []schedule.Stop{
		stopAt("1", 550, 551, ""),
		stopAt("2", 560, 561, "E(102)"),
	}}
	second := &schedule.Train{ID: 102, Stops: []schedule.Stop{
		stopAt("2", 560, 565, ""),
		stopAt("4", 575, 576, ""),
	}}
	_, eg := buildGraphs(t, defaultParams(), first, second)
	warns := utils.NewWarningAggregator()

	eg.Apply(Occurrence{Train: 101, Kind: OccReplaced, Time: 566, PlannedTrack: "2"}, warns)

	en, ok := eg.FindEvent(Label{Train: 101, Seq: 0}, FindCriteria{Kind: KindReplace})
	if !ok {
		t.Fatal("replacement event missing")
	}
	if got := measured(t, eg, en); got != 566 {
		t.Errorf("replacement time = %v, want 566", got)
	}
	// the successor inherits the position, the reporting train is cleared
	if pos, ok := eg.Position(102); !ok || pos != en {
		t.Errorf("successor position = %v, %v", pos, ok)
	}
	if _, ok := eg.Position(101); ok {
		t.Error("reporting train kept its cursor")
	}
	next, ok := eg.Expected(102)
	if !ok || eg.Node(next).Kind != KindDeparture {
		t.Errorf("successor expected = %v, %v", next, ok)
	}
}

func TestApplyUnknownTrain(t *testing.T) {
	train := &schedule.Train{ID: 101, Stops: []schedule.Stop{
		stopAt("1", 550, 551, ""),
	}}
	_, eg := buildGraphs(t, defaultParams(), train)
	warns := utils.NewWarningAggregator()

	eg.Apply(Occurrence{Train: 999, Kind: OccArrival, Time: 550, PlannedTrack: "1", AtPlatform: true, Visible: true}, warns)
	if got := warns.Count(utils.WarningTrainUnknown); got != 1 {
		t.Errorf("train_unknown warnings = %d, want 1", got)
	}

	// shunting movements without a schedule are silently dropped
	eg.Apply(Occurrence{Train: 0, Kind: OccArrival, Time: 550, Visible: true}, warns)
	eg.Apply(Occurrence{Train: -2, Kind: OccDeparture, Time: 550, Visible: true}, warns)
	if got := warns.Count(utils.WarningTrainUnknown); got != 1 {
		t.Errorf("warnings after shunting reports = %d, want still 1", got)
	}
}

func TestApplyInvisibleDropped(t *testing.T) {
	train := &schedule.Train{ID: 101, Stops: []schedule.Stop{
		stopAt("1", 550, 551, ""),
	}}
	_, eg := buildGraphs(t, defaultParams(), train)
	path := eg.TrainPath(101, false)
	warns := utils.NewWarningAggregator()

	eg.Apply(Occurrence{Train: 101, Kind: OccArrival, Time: 553, PlannedTrack: "1", AtPlatform: true}, warns)

	if eg.Node(path[0]).TMess != nil {
		t.Error("report of an invisible train was measured")
	}
}

func TestApplyExitClearsCursors(t *testing.T) {
	train := &schedule.Train{ID: 101, Stops: []schedule.Stop{
		stopAt("1", 550, 551, ""),
	}}
	_, eg := buildGraphs(t, defaultParams(), train)
	path := eg.TrainPath(101, false)
	warns := utils.NewWarningAggregator()

	eg.Apply(Occurrence{Train: 101, Kind: OccArrival, Time: 550, PlannedTrack: "1", AtPlatform: true, Visible: true}, warns)
	eg.Apply(Occurrence{Train: 101, Kind: OccExit, Time: 552}, warns)

	if got := measured(t, eg, path[len(path)-1]); got != 552 {
		t.Errorf("exit time = %v, want 552", got)
	}
	if _, ok := eg.Position(101); ok {
		t.Error("exit did not clear the position cursor")
	}
	if _, ok := eg.Expected(101); ok {
		t.Error("exit did not clear the expectation cursor")
	}
}
