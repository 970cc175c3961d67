// Package event maintains the event graph: one node per atomic arrival,
// departure or number-change event, connected by duration-bounded edges.
//
// The graph is derived from the target graph by the translation builders,
// refined by live occurrences from the interlocking, and evaluated by the
// prognosis pass, which propagates expected times along the topological
// order of the dependencies.
package event
