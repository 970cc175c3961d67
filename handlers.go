package prognosis

import (
	"encoding/json"
	"net/http"
	"strconv"
)

type healthResponse struct {
	Status string `json:"status"`
	Trains int    `json:"trains"`
}

func handleHealth(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, healthResponse{Status: "ok", Trains: len(e.Trains())})
	}
}

func handleTrains(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"trains": e.Trains()})
	}
}

func handleTrainPath(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zid, err := strconv.Atoi(r.PathValue("zid"))
		if err != nil {
			http.Error(w, "invalid train id", http.StatusBadRequest)
			return
		}
		follow := r.URL.Query().Get("follow") == "true"
		path := e.TrainView(zid, follow)
		if len(path) == 0 {
			http.Error(w, "train not found", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"train": zid, "path": path})
	}
}

func handleDelays(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"delays": e.Delays()})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
