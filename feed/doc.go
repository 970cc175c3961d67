// Package feed fetches GTFS-Realtime TripUpdates feeds and adapts them
// into the engine's occurrence stream.
//
// Networks that publish train movements as GTFS-RT can drive the prognosis
// engine through this package; the occurrence struct remains the primary
// in-process contract and does not depend on the transport.
package feed
