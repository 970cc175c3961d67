package utils

import (
	"fmt"
	"log"
	"strings"
)

// Warning type constants
const (
	// import warnings
	WarningPartnerNotFound      = "partner_not_found"
	WarningPartnerTargetMissing = "partner_target_missing"
	WarningMissingPlannedTime   = "missing_planned_time"

	// translation warnings
	WarningIncompleteTransition = "incomplete_transition"

	// prognosis warnings
	WarningCycleBroken = "cycle_broken"
	WarningNoPrognosis = "no_prognosis"

	// ingestion warnings
	WarningTrainUnknown  = "train_unknown"
	WarningEventNotFound = "event_not_found"
)

// warningInfo holds aggregated information about a specific warning type
type warningInfo struct {
	count    int
	examples []string
}

// WarningAggregator collects recoverable faults during graph operations and
// outputs consolidated summaries instead of aborting the pass.
type WarningAggregator struct {
	warnings map[string]*warningInfo
}

// NewWarningAggregator creates a new warning aggregator
func NewWarningAggregator() *WarningAggregator {
	return &WarningAggregator{
		warnings: make(map[string]*warningInfo),
	}
}

// Add records a warning occurrence with an example ID
func (w *WarningAggregator) Add(warningType, exampleID string) {
	if w.warnings[warningType] == nil {
		w.warnings[warningType] = &warningInfo{
			examples: make([]string, 0, 3),
		}
	}

	info := w.warnings[warningType]
	info.count++

	// Store up to 3 examples
	if len(info.examples) < 3 {
		info.examples = append(info.examples, exampleID)
	}
}

// Count returns how often a warning type was recorded.
func (w *WarningAggregator) Count(warningType string) int {
	if info := w.warnings[warningType]; info != nil {
		return info.count
	}
	return 0
}

// Examples returns the stored example IDs for a warning type.
func (w *WarningAggregator) Examples(warningType string) []string {
	if info := w.warnings[warningType]; info != nil {
		return info.examples
	}
	return nil
}

// Reset drops all collected warnings.
func (w *WarningAggregator) Reset() {
	w.warnings = make(map[string]*warningInfo)
}

// LogAll outputs all collected warnings in consolidated format
func (w *WarningAggregator) LogAll(component string) {
	if len(w.warnings) == 0 {
		return
	}

	for warningType, info := range w.warnings {
		message := w.formatWarningMessage(warningType, component, info)
		log.Printf("%s", message)
	}
}

// formatWarningMessage creates a human-readable warning message
func (w *WarningAggregator) formatWarningMessage(warningType, component string, info *warningInfo) string {
	var description, action string

	switch warningType {
	case WarningPartnerNotFound:
		description = "cross-train references to trains not in the directory"
		action = "Link queued until the partner train is imported"
	case WarningPartnerTargetMissing:
		description = "cross-train references without a matching partner stop"
		action = "Link queued until the partner schedule matches"
	case WarningMissingPlannedTime:
		description = "schedule rows without planned arrival or departure"
		action = "Using the fallback travel duration"
	case WarningIncompleteTransition:
		description = "operational transitions with incomplete event chains"
		action = "Transition skipped for this translation pass"
	case WarningCycleBroken:
		description = "dependency cycles in the event graph"
		action = "One edge per cycle removed before ordering"
	case WarningNoPrognosis:
		description = "events with no finite time bound"
		action = "Event left without prognosis for this pass"
	case WarningTrainUnknown:
		description = "occurrences for trains without an event chain"
		action = "Occurrence dropped"
	case WarningEventNotFound:
		description = "occurrences that match no expected event"
		action = "Occurrence dropped"
	default:
		description = "unknown issue"
		action = "Continuing with fallback behavior"
	}

	examplesStr := strings.Join(info.examples, ", ")

	return fmt.Sprintf("Component %s has %s (%d occurrences). %s. Examples: %s",
		component, description, info.count, action, examplesStr)
}
