package event

import (
	"github.com/raildispatch/prognosis/target"
	"github.com/raildispatch/prognosis/utils"
)

// WriteBack copies the computed delays onto the target graph. The delta is
// the difference between an event's effective and planned time. Departure
// events update the departure delay of stops; arrival events update the
// arrival delay, and on pass-throughs and exits the departure delay as
// well, since a single effective time covers both there.
//
// Events with incomplete time information are skipped with a warning.
func (g *Graph) WriteBack(tg *target.Graph, warns *utils.WarningAggregator) {
	for _, label := range g.sortedLabels() {
		node := g.nodes[label]
		if !node.HasTarget {
			continue
		}
		tn := tg.Node(node.Target)
		if tn == nil {
			continue
		}

		eff, ok := node.EffectiveTime()
		if !ok || node.TPlan == nil {
			warns.Add(utils.WarningNoPrognosis, label.String())
			continue
		}
		v := eff - *node.TPlan

		switch node.Kind {
		case KindDeparture:
			switch tn.Type {
			case target.TypeStop, target.TypePass, target.TypeOpStop, target.TypeEntry:
				tn.VDep = utils.Ptr(v)
			}
		case KindArrival:
			switch tn.Type {
			case target.TypeStop, target.TypePass, target.TypeOpStop, target.TypeExit:
				tn.VArr = utils.Ptr(v)
			}
			switch tn.Type {
			case target.TypePass, target.TypeOpStop, target.TypeExit:
				tn.VDep = utils.Ptr(v)
			}
		}
	}
}
