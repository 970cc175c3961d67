package schedule

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/raildispatch/prognosis/config"
)

// Operational flags on a stop:
//
//	A       early departure permitted
//	D       pass-through, no scheduled halt
//	E(zid)  train continues under a new number (replacement)
//	F(zid)  train splits, the branch runs as zid
//	K(zid)  train couples onto zid and ends
//	L       engine runs around the consist
//	P       initial lineup position
//	R       direction change
//	W[n][n] engine change via the given connection elements
var (
	replaceRe = regexp.MustCompile(`E[0-9]?\(([0-9]+)\)`)
	splitRe   = regexp.MustCompile(`F[0-9]?\(([0-9]+)\)`)
	coupleRe  = regexp.MustCompile(`K[0-9]?\(([0-9]+)\)`)
	engineRe  = regexp.MustCompile(`W\[([0-9]+)]\[([0-9]+)]`)
)

// PassThrough reports the D flag.
func (s Stop) PassThrough() bool {
	return strings.Contains(s.Flags, "D")
}

// ReplaceTrain returns the train id from the E flag.
func (s Stop) ReplaceTrain() (int, bool) {
	return flagTrain(replaceRe, s.Flags)
}

// SplitTrain returns the train id from the F flag.
func (s Stop) SplitTrain() (int, bool) {
	return flagTrain(splitRe, s.Flags)
}

// CoupleTrain returns the train id from the K flag.
func (s Stop) CoupleTrain() (int, bool) {
	return flagTrain(coupleRe, s.Flags)
}

// EngineTurnaround reports the L flag.
func (s Stop) EngineTurnaround() bool {
	return strings.Contains(s.Flags, "L")
}

// DirectionChange reports the R flag.
func (s Stop) DirectionChange() bool {
	return strings.Contains(s.Flags, "R")
}

// EngineChange returns the two connection element numbers of the W flag.
func (s Stop) EngineChange() (int, int, bool) {
	mo := engineRe.FindStringSubmatch(s.Flags)
	if mo == nil {
		return 0, 0, false
	}
	a, _ := strconv.Atoi(mo[1])
	b, _ := strconv.Atoi(mo[2])
	return a, b, true
}

func flagTrain(re *regexp.Regexp, flags string) (int, bool) {
	mo := re.FindStringSubmatch(flags)
	if mo == nil {
		return 0, false
	}
	zid, err := strconv.Atoi(mo[1])
	if err != nil {
		return 0, false
	}
	return zid, true
}

// MinDwell computes the minimum hold duration of a stop from its type and
// flags: a base component for a scheduled halt, replacement, splitting or
// coupling, plus one additive component for engine turnaround, direction
// change or engine change.
func (s Stop) MinDwell(params config.PrognosisParams) float64 {
	var result int
	switch {
	case !s.PassThrough():
		result = params.MinDwellStop
	case strings.Contains(s.Flags, "E"):
		result = params.MinDwellReplace
	case strings.Contains(s.Flags, "F"):
		result = params.MinDwellSplit
	case strings.Contains(s.Flags, "K"):
		result = params.MinDwellCouple
	}

	switch {
	case s.EngineTurnaround():
		result += params.EngineTurnaround
	case s.DirectionChange():
		result += params.DirectionChange
	case strings.Contains(s.Flags, "W"):
		result += params.EngineChange
	}

	return float64(result)
}
