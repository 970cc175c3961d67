package event

import (
	"testing"

	"github.com/raildispatch/prognosis/config"
	"github.com/raildispatch/prognosis/schedule"
	"github.com/raildispatch/prognosis/target"
	"github.com/raildispatch/prognosis/utils"
)

func stopAt(track string, arr, dep float64, flags string) schedule.Stop {
	return schedule.Stop{
		PlanTrack: track,
		Track:     track,
		Arrival:   utils.Ptr(arr),
		Departure: utils.Ptr(dep),
		Flags:     flags,
	}
}

// buildGraphs imports the trains into a target graph and translates it.
func buildGraphs(t *testing.T, params config.PrognosisParams, trains ...*schedule.Train) (*target.Graph, *Graph) {
	t.Helper()
	dir := schedule.TrainMap{}
	for _, tr := range trains {
		dir[tr.ID] = tr
	}
	tg := target.NewGraph()
	warns := utils.NewWarningAggregator()
	for _, tr := range trains {
		tg.ImportTrain(tr, nil, nil, dir, params, warns)
	}
	eg := NewGraph()
	Translate(tg, eg, params, warns)
	return tg, eg
}

func defaultParams() config.PrognosisParams {
	return config.DefaultPrognosisParams()
}

func TestChainCompleteness(t *testing.T) {
	train := &schedule.Train{ID: 101, Stops: []schedule.Stop{
		stopAt("1", 550, 551, ""),
		stopAt("2", 560, 560, "D"),
		stopAt("3", 570, 572, ""),
	}}
	_, eg := buildGraphs(t, defaultParams(), train)

	path := eg.TrainPath(101, false)
	if len(path) != 6 {
		t.Fatalf("chain length = %d, want 2 events per stop", len(path))
	}
	if path[0].Seq != 0 {
		t.Errorf("first event has sequence %d, want 0", path[0].Seq)
	}
	wantKinds := []Kind{KindArrival, KindDeparture, KindArrival, KindDeparture, KindArrival, KindDeparture}
	for i, l := range path {
		if eg.Node(l).Kind != wantKinds[i] {
			t.Errorf("event %d has kind %s, want %s", i, eg.Node(l).Kind, wantKinds[i])
		}
	}

	// pass-through hold is unconstrained
	e := eg.Edge(path[2], path[3])
	if e == nil || e.Kind != EdgeHold || e.DtMin != 0 {
		t.Errorf("pass-through hold edge = %+v", e)
	}
	// travel duration is the planned difference
	e = eg.Edge(path[1], path[2])
	if e == nil || e.Kind != EdgeTravel || e.DtMin != 9 {
		t.Errorf("travel edge = %+v, want dt_min 9", e)
	}
}

func TestReplacementShape(t *testing.T) {
	first := &schedule.Train{ID: 101, Stops: []schedule.Stop{
		stopAt("1", 550, 551, ""),
		stopAt("2", 560, 561, "E(102)"),
	}}
	second := &schedule.Train{ID: 102, Stops: []schedule.Stop{
		stopAt("2", 560, 565, ""),
		stopAt("4", 575, 576, ""),
	}}
	_, eg := buildGraphs(t, defaultParams(), first, second)

	en, ok := eg.FindEvent(Label{Train: 101, Seq: 0}, FindCriteria{Kind: KindReplace})
	if !ok {
		t.Fatal("replacement event missing")
	}
	enode := eg.Node(en)
	if enode.Train != 101 {
		t.Errorf("replacement event owned by train %d, want 101", enode.Train)
	}
	if enode.TPlan == nil || *enode.TPlan != 565 {
		t.Errorf("replacement planned time = %v, want successor departure 565", enode.TPlan)
	}

	// the out-going train ends in the replacement event
	path1 := eg.TrainPath(101, false)
	if path1[len(path1)-1] != en {
		t.Errorf("train 101 chain does not end in replacement event")
	}
	// the successor starts with its departure, sequence 0
	start, ok := eg.Start(102)
	if !ok || eg.Node(start).Kind != KindDeparture {
		t.Fatalf("train 102 start = %v", start)
	}
	// no arrival event for the successor at the change stop
	if _, found := eg.FindEvent(start, FindCriteria{Kind: KindArrival, Train: 102, PlanTrack: "2"}); found {
		t.Error("successor kept its arrival at the change stop")
	}
	// follow-through walk continues into the successor
	follow := eg.TrainPath(101, true)
	if follow[len(follow)-1].Train != 102 {
		t.Error("follow-through walk does not reach the successor train")
	}
}

func TestCouplingShape(t *testing.T) {
	params := defaultParams()
	ending := &schedule.Train{ID: 4, Stops: []schedule.Stop{
		stopAt("3", 670, 671, "K(5)"),
	}}
	continuing := &schedule.Train{ID: 5, Stops: []schedule.Stop{
		{PlanTrack: "3", Track: "3", Arrival: utils.Ptr(674.0), Departure: utils.Ptr(678.0), Flags: "L"},
	}}
	_, eg := buildGraphs(t, params, ending, continuing)

	kn, ok := eg.FindEvent(Label{Train: 4, Seq: 0}, FindCriteria{Kind: KindCouple})
	if !ok {
		t.Fatal("coupling event missing")
	}
	knode := eg.Node(kn)
	if knode.Train != 5 {
		t.Errorf("coupling event owned by train %d, want continuing train 5", knode.Train)
	}
	// planned time is the later of the two arrivals plus minimum dwell:
	// max(670+0, 674+2) with the turnaround dwell on the continuing train
	if knode.TPlan == nil || *knode.TPlan != 676 {
		t.Errorf("coupling planned time = %v, want 676", knode.TPlan)
	}
	if got := len(eg.Predecessors(kn)); got != 2 {
		t.Errorf("coupling in-degree = %d, want both arrivals", got)
	}
	if got := len(eg.Successors(kn)); got != 1 {
		t.Errorf("coupling out-degree = %d, want 1", got)
	}
	// the ending train's chain stops at its arrival
	path4 := eg.TrainPath(4, false)
	if last := eg.Node(path4[len(path4)-1]); last.Kind != KindArrival {
		t.Errorf("ending train's last own event = %s, want arrival", last.Kind)
	}
	// the continuing train runs arrival, coupling, departure
	path5 := eg.TrainPath(5, false)
	if len(path5) != 3 || eg.Node(path5[1]).Kind != KindCouple {
		t.Fatalf("continuing chain = %v", path5)
	}
}

func TestSplittingShape(t *testing.T) {
	source := &schedule.Train{ID: 7, Stops: []schedule.Stop{
		stopAt("5", 600, 605, "F(8)"),
		stopAt("6", 615, 616, ""),
	}}
	branch := &schedule.Train{ID: 8, Stops: []schedule.Stop{
		stopAt("5", 600, 608, ""),
		stopAt("9", 620, 621, ""),
	}}
	_, eg := buildGraphs(t, defaultParams(), source, branch)

	fn, ok := eg.FindEvent(Label{Train: 7, Seq: 0}, FindCriteria{Kind: KindSplit})
	if !ok {
		t.Fatal("splitting event missing")
	}
	fnode := eg.Node(fn)
	if fnode.Train != 7 {
		t.Errorf("splitting event owned by train %d, want source 7", fnode.Train)
	}
	if got := len(eg.Successors(fn)); got != 2 {
		t.Fatalf("splitting out-degree = %d, want both departures", got)
	}
	for _, next := range eg.Successors(fn) {
		if eg.Node(next).Kind != KindDeparture {
			t.Errorf("splitting successor %v is %s, want departure", next, eg.Node(next).Kind)
		}
	}
	// the branch has no arrival at the split stop and starts at sequence 0
	start, ok := eg.Start(8)
	if !ok || eg.Node(start).Kind != KindDeparture {
		t.Fatalf("branch start = %v", start)
	}
}

func TestTranslateIdempotent(t *testing.T) {
	params := defaultParams()
	first := &schedule.Train{ID: 101, Stops: []schedule.Stop{
		stopAt("1", 550, 551, ""),
		stopAt("2", 560, 561, "E(102)"),
	}}
	second := &schedule.Train{ID: 102, Stops: []schedule.Stop{
		stopAt("2", 560, 565, ""),
	}}
	tg, eg := buildGraphs(t, params, first, second)

	nodesBefore := len(eg.nodes)
	edgesBefore := len(eg.edges)

	warns := utils.NewWarningAggregator()
	Translate(tg, eg, params, warns)

	if len(eg.nodes) != nodesBefore {
		t.Errorf("node count changed on re-translation: %d -> %d", nodesBefore, len(eg.nodes))
	}
	if len(eg.edges) != edgesBefore {
		t.Errorf("edge count changed on re-translation: %d -> %d", edgesBefore, len(eg.edges))
	}
}

func TestTranslateKeepsMeasuredTimes(t *testing.T) {
	params := defaultParams()
	train := &schedule.Train{ID: 101, Stops: []schedule.Stop{
		stopAt("1", 550, 551, ""),
		stopAt("2", 560, 561, ""),
	}}
	tg, eg := buildGraphs(t, params, train)

	start, _ := eg.Start(101)
	eg.Node(start).TMess = utils.Ptr(552.5)

	warns := utils.NewWarningAggregator()
	Translate(tg, eg, params, warns)

	if got := eg.Node(start).TMess; got == nil || *got != 552.5 {
		t.Errorf("measured time lost on re-translation: %v", got)
	}
}
