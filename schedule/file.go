package schedule

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/raildispatch/prognosis/utils"
)

// File layer for loading a schedule document:
//
//	entries:
//	  - {id: 1, name: A-Spange}
//	exits:
//	  - {id: 2, name: B-Spange}
//	trains:
//	  - id: 101
//	    name: RE 101
//	    from: A-Spange
//	    to: B-Spange
//	    stops:
//	      - {plan: "1", arrival: "09:10", departure: "09:11"}

type fileStop struct {
	Plan      string `yaml:"plan"`
	Track     string `yaml:"track"`
	Arrival   string `yaml:"arrival"`
	Departure string `yaml:"departure"`
	Flags     string `yaml:"flags"`
}

type fileTrain struct {
	ID    int        `yaml:"id"`
	Name  string     `yaml:"name"`
	From  string     `yaml:"from"`
	To    string     `yaml:"to"`
	Delay float64    `yaml:"delay"`
	Stops []fileStop `yaml:"stops"`
}

type filePoint struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type fileDoc struct {
	Entries []filePoint `yaml:"entries"`
	Exits   []filePoint `yaml:"exits"`
	Trains  []fileTrain `yaml:"trains"`
}

// Document is a parsed schedule file.
type Document struct {
	Entries []Point
	Exits   []Point
	Trains  []*Train
}

// EntryPoint returns the entry point with the given name.
func (d *Document) EntryPoint(name string) *Point {
	return findPoint(d.Entries, name)
}

// ExitPoint returns the exit point with the given name.
func (d *Document) ExitPoint(name string) *Point {
	return findPoint(d.Exits, name)
}

// Directory returns a train directory over the document's trains.
func (d *Document) Directory() TrainMap {
	m := make(TrainMap, len(d.Trains))
	for _, t := range d.Trains {
		m[t.ID] = t
	}
	return m
}

func findPoint(points []Point, name string) *Point {
	for i := range points {
		if points[i].Name == name {
			return &points[i]
		}
	}
	return nil
}

// LoadFile reads and converts a yaml schedule document.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse converts a yaml schedule document.
func Parse(data []byte) (*Document, error) {
	var raw fileDoc
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	doc := &Document{}
	for _, p := range raw.Entries {
		doc.Entries = append(doc.Entries, Point{ID: p.ID, Name: p.Name})
	}
	for _, p := range raw.Exits {
		doc.Exits = append(doc.Exits, Point{ID: p.ID, Name: p.Name})
	}
	for _, ft := range raw.Trains {
		t := &Train{
			ID:    ft.ID,
			Name:  ft.Name,
			From:  ft.From,
			To:    ft.To,
			Delay: ft.Delay,
		}
		for _, fs := range ft.Stops {
			s := Stop{PlanTrack: fs.Plan, Track: fs.Track, Flags: fs.Flags}
			if s.Track == "" {
				s.Track = s.PlanTrack
			}
			if fs.Arrival != "" {
				m, err := utils.ClockToMinutes(fs.Arrival)
				if err != nil {
					return nil, fmt.Errorf("train %d stop %s: %w", ft.ID, fs.Plan, err)
				}
				s.Arrival = utils.Ptr(m)
			}
			if fs.Departure != "" {
				m, err := utils.ClockToMinutes(fs.Departure)
				if err != nil {
					return nil, fmt.Errorf("train %d stop %s: %w", ft.ID, fs.Plan, err)
				}
				s.Departure = utils.Ptr(m)
			}
			t.Stops = append(t.Stops, s)
		}
		doc.Trains = append(doc.Trains, t)
	}
	return doc, nil
}
