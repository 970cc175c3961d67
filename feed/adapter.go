package feed

import (
	"strconv"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/raildispatch/prognosis/event"
	"github.com/raildispatch/prognosis/utils"
)

// TrainIDFunc maps a GTFS trip id to a train id. A false return drops the
// trip.
type TrainIDFunc func(tripID string) (int, bool)

// NumericTrainID interprets the trip id as a decimal train number.
func NumericTrainID(tripID string) (int, bool) {
	zid, err := strconv.Atoi(tripID)
	if err != nil || zid <= 0 {
		return 0, false
	}
	return zid, true
}

// Decode parses raw GTFS-RT protobuf bytes. Nil data decodes to nil, so an
// unconfigured feed produces no occurrences.
func Decode(data []byte) (*gtfsrtpb.FeedMessage, error) {
	if data == nil {
		return nil, nil
	}
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(data, &fm); err != nil {
		return nil, err
	}
	return &fm, nil
}

// Occurrences adapts the TripUpdates of a feed message into occurrence
// reports. Only stop time updates at or before nowMin are emitted: later
// entries are the feed's own predictions, not observed movements. Skipped
// stops and trips without a usable id are dropped. Per stop the arrival is
// emitted before the departure so the ingestion cursor advances in order.
func Occurrences(fm *gtfsrtpb.FeedMessage, trainID TrainIDFunc, nowMin float64) []event.Occurrence {
	if fm == nil {
		return nil
	}
	if trainID == nil {
		trainID = NumericTrainID
	}

	var out []event.Occurrence
	for _, e := range fm.Entity {
		if e.TripUpdate == nil || e.TripUpdate.Trip == nil || e.TripUpdate.Trip.TripId == nil {
			continue
		}
		zid, ok := trainID(*e.TripUpdate.Trip.TripId)
		if !ok {
			continue
		}
		for _, stu := range e.TripUpdate.StopTimeUpdate {
			if stu.StopId == nil {
				continue
			}
			if stu.ScheduleRelationship != nil &&
				*stu.ScheduleRelationship == gtfsrtpb.TripUpdate_StopTimeUpdate_SKIPPED {
				continue
			}
			stop := *stu.StopId

			if stu.Arrival != nil && stu.Arrival.Time != nil {
				if t := utils.MinutesFromUnix(*stu.Arrival.Time); t <= nowMin {
					out = append(out, event.Occurrence{
						Train:        zid,
						Kind:         event.OccArrival,
						Time:         t,
						Track:        stop,
						PlannedTrack: stop,
						AtPlatform:   true,
						Visible:      true,
					})
				}
			}
			if stu.Departure != nil && stu.Departure.Time != nil {
				if t := utils.MinutesFromUnix(*stu.Departure.Time); t <= nowMin {
					out = append(out, event.Occurrence{
						Train:        zid,
						Kind:         event.OccDeparture,
						Time:         t,
						Track:        stop,
						PlannedTrack: stop,
						Visible:      true,
					})
				}
			}
		}
	}
	return out
}
