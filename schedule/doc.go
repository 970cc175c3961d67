// Package schedule defines the schedule input contract of the engine: trains
// with their planned stop sequences, network entry/exit points, and the
// operational flag grammar carried on each stop.
package schedule
