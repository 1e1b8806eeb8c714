// Package api serves the stored analysis results as JSON.
package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/banshee-data/routecast/internal/db"
	"github.com/banshee-data/routecast/internal/httputil"
)

// Server exposes the results database over HTTP.
type Server struct {
	db *db.DB
}

// NewServer creates a server reading from d.
func NewServer(d *db.DB) *Server {
	return &Server{db: d}
}

// ServeMux returns a mux with the API routes mounted.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyses", s.listAnalyses)
	mux.HandleFunc("/api/analyses/{id}/features", s.showFeatures)
	mux.HandleFunc("/api/analyses/{id}/prediction", s.showPrediction)
	return mux
}

func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	analyses, err := s.db.Analyses()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list analyses: %v", err))
		return
	}
	if analyses == nil {
		analyses = []db.Analysis{}
	}
	httputil.WriteJSON(w, http.StatusOK, analyses)
}

type featureResponse struct {
	SampleIndex int       `json:"sample_index"`
	Timestamp   int64     `json:"timestamp"`
	Group       string    `json:"group"`
	Features    []float64 `json:"features"`
	Target      *float64  `json:"target"`
}

func (s *Server) showFeatures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	id := r.PathValue("id")
	rows, err := s.db.FeatureRows(id)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load feature rows: %v", err))
		return
	}
	out := make([]featureResponse, 0, len(rows))
	for _, rec := range rows {
		out = append(out, featureResponse{
			SampleIndex: rec.SampleIndex,
			Timestamp:   rec.Timestamp,
			Group:       rec.Group,
			Features:    rec.Features,
			Target:      rec.Target,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type predictionResponse struct {
	Timestamp        int64   `json:"timestamp"`
	ResidualLifetime float64 `json:"residual_lifetime"`
	ChangesNextSlot  float64 `json:"changes_next_slot"`
	NextRTT          float64 `json:"next_rtt"`
}

func (s *Server) showPrediction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	id := r.PathValue("id")
	p, err := s.db.Prediction(id)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.NotFound(w, fmt.Sprintf("no prediction for analysis %s", id))
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load prediction: %v", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, predictionResponse{
		Timestamp:        p.Timestamp,
		ResidualLifetime: p.ResidualLifetime,
		ChangesNextSlot:  p.ChangesNextSlot,
		NextRTT:          p.NextRTT,
	})
}
