package schedule

// Stop is one row of a train's timetable.
type Stop struct {
	PlanTrack string
	Track     string
	Arrival   *float64 // planned arrival, minutes after midnight
	Departure *float64 // planned departure, minutes after midnight
	Flags     string
}

// Train carries the planned run of one train plus its live state as last
// reported by the interlocking.
type Train struct {
	ID    int
	Name  string
	From  string // entry point name, empty when the train starts on a platform
	To    string // exit point name, empty when the train ends on a platform
	Stops []Stop

	Visible    bool // the train has entered the visible network
	AtPlatform bool
	StopIndex  int     // index into Stops of the current target
	Delay      float64 // reported delay, minutes
}

// CurrentStop returns the stop the train is currently heading for or
// standing at. ok is false when the index is out of range.
func (t *Train) CurrentStop() (Stop, bool) {
	if t.StopIndex < 0 || t.StopIndex >= len(t.Stops) {
		return Stop{}, false
	}
	return t.Stops[t.StopIndex], true
}

// Point is a network entry or exit element.
type Point struct {
	ID   int
	Name string
}

// Directory resolves train ids to trains during cross-train link resolution.
type Directory interface {
	Train(id int) (*Train, bool)
}

// TrainMap is a map-backed Directory.
type TrainMap map[int]*Train

func (m TrainMap) Train(id int) (*Train, bool) {
	t, ok := m[id]
	return t, ok
}
