package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	lib "github.com/raildispatch/prognosis"
	"github.com/raildispatch/prognosis/config"
	"github.com/raildispatch/prognosis/feed"
	"github.com/raildispatch/prognosis/schedule"
	"github.com/raildispatch/prognosis/utils"
)

func main() {
	mode := flag.String("mode", "oneshot", "oneshot|serve")
	schedulePath := flag.String("schedule", "", "schedule yaml file")
	tripUpdates := flag.String("tripUpdates", "", "GTFS-RT TripUpdates URL (overrides config)")
	flag.Parse()

	lib.InitLogging()
	if err := config.LoadAppConfig(); err != nil {
		panic(err)
	}
	if *schedulePath == "" {
		panic("schedule file required; pass -schedule")
	}
	doc, err := schedule.LoadFile(*schedulePath)
	if err != nil {
		panic(err)
	}

	engine := lib.NewEngine(config.Config.Prognosis)
	engine.ImportSchedule(doc)

	url := config.Config.Feed.TripUpdatesURL
	if *tripUpdates != "" {
		url = *tripUpdates
	}

	switch *mode {
	case "oneshot":
		if err := pollOnce(engine, url); err != nil {
			log.Printf("feed read failed: %v", err)
		}
		engine.Prognose()
		engine.LogWarnings()
		printPaths(engine)
	case "serve":
		lib.StartServer(engine)
		go pollLoop(engine, url)
		lib.HandleGracefulShutdown()
	default:
		panic("unknown mode")
	}
}

// pollOnce reads the TripUpdates feed once and ingests the observed
// movements. An empty URL is a no-op.
func pollOnce(engine *lib.Engine, url string) error {
	timeout := time.Duration(config.Config.Feed.TimeoutMS) * time.Millisecond
	data, err := feed.NewClient(timeout).Fetch(url)
	if err != nil {
		return err
	}
	fm, err := feed.Decode(data)
	if err != nil {
		return err
	}
	now := utils.MinutesFromUnix(time.Now().Unix())
	engine.Ingest(feed.Occurrences(fm, nil, now))
	return nil
}

func pollLoop(engine *lib.Engine, url string) {
	if url == "" {
		return
	}
	interval := time.Duration(config.Config.Feed.ReadIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 30 * time.Second
	}
	for range time.Tick(interval) {
		if err := pollOnce(engine, url); err != nil {
			log.Printf("feed read failed: %v", err)
		}
		engine.LogWarnings()
	}
}

func printPaths(engine *lib.Engine) {
	out := map[string]any{}
	for _, zid := range engine.Trains() {
		out[fmt.Sprintf("%d", zid)] = engine.TrainView(zid, false)
	}
	buf, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		panic(err)
	}
	fmt.Println(string(buf))
}
