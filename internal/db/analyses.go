package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/routecast/internal/features"
	"github.com/banshee-data/routecast/internal/predict"
)

// Analysis is the summary of one processed path log.
type Analysis struct {
	ID               string    `json:"analysis_id"`
	SourceIP         string    `json:"source_ip"`
	DestIP           string    `json:"dest_ip"`
	CreatedAt        time.Time `json:"created_at"`
	SampleCount      int       `json:"sample_count"`
	RunCount         int       `json:"run_count"`
	TotalChanges     int       `json:"total_changes"`
	ObservationHours float64   `json:"observation_hours"`
	TimeslotHours    float64   `json:"timeslot_hours"`
	RTTMetric        string    `json:"rtt_metric"`
}

// FeatureRecord is one stored feature group of one probe.
type FeatureRecord struct {
	AnalysisID  string
	SampleIndex int
	Timestamp   int64
	Group       string
	Features    []float64
	Target      *float64 // nil when unknown
}

// PredictionRecord is the stored forecast of an analysis.
type PredictionRecord struct {
	AnalysisID       string
	Timestamp        int64
	ResidualLifetime float64
	ChangesNextSlot  float64
	NextRTT          float64
}

// RecordAnalysis inserts a. An ID is generated when a.ID is empty and
// CreatedAt defaults to now. It returns the analysis ID.
func (db *DB) RecordAnalysis(a *Analysis) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := db.Exec(`INSERT INTO analyses (
			analysis_id, source_ip, dest_ip, created_at, sample_count, run_count,
			total_changes, observation_hours, timeslot_hours, rtt_metric
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SourceIP, a.DestIP, a.CreatedAt.Unix(), a.SampleCount, a.RunCount,
		a.TotalChanges, a.ObservationHours, a.TimeslotHours, a.RTTMetric,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert analysis: %w", err)
	}
	return a.ID, nil
}

// RecordFeatureRows stores every group of every row for analysis id in a
// single transaction.
func (db *DB) RecordFeatureRows(id string, rows []features.Row) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO feature_rows (
			analysis_id, sample_index, timestamp, grp, features, target
		) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare feature insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		var ts int64
		if r.Sample != nil {
			ts = r.Sample.Timestamp
		}
		for _, g := range features.Groups {
			gr := r.Groups[g]
			encoded, err := json.Marshal(gr.Features)
			if err != nil {
				return fmt.Errorf("failed to encode features: %w", err)
			}
			var target sql.NullFloat64
			if gr.Target.Known {
				target = sql.NullFloat64{Float64: gr.Target.V, Valid: true}
			}
			if _, err := stmt.Exec(id, r.Index, ts, g.String(), string(encoded), target); err != nil {
				return fmt.Errorf("failed to insert feature row %d/%s: %w", r.Index, g, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feature rows: %w", err)
	}
	return nil
}

// RecordPrediction stores the forecast for analysis id, replacing any
// earlier one.
func (db *DB) RecordPrediction(id string, f *predict.Forecast) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO predictions (
			analysis_id, timestamp, residual_lifetime, changes_next_slot, next_rtt
		) VALUES (?, ?, ?, ?, ?)`,
		id, f.Timestamp, f.ResidualLifetime(), f.ChangesNextSlot(), f.NextRTT(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

// Analyses returns the most recent analyses, newest first.
func (db *DB) Analyses() ([]Analysis, error) {
	rows, err := db.Query(`SELECT analysis_id, source_ip, dest_ip, created_at, sample_count,
			run_count, total_changes, observation_hours, timeslot_hours, rtt_metric
		FROM analyses ORDER BY created_at DESC, rowid DESC LIMIT 100`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		var created int64
		if err := rows.Scan(&a.ID, &a.SourceIP, &a.DestIP, &created, &a.SampleCount,
			&a.RunCount, &a.TotalChanges, &a.ObservationHours, &a.TimeslotHours, &a.RTTMetric); err != nil {
			return nil, err
		}
		a.CreatedAt = time.Unix(created, 0)
		out = append(out, a)
	}
	return out, rows.Err()
}

// FeatureRows returns the stored feature groups of analysis id ordered by
// sample index and group.
func (db *DB) FeatureRows(id string) ([]FeatureRecord, error) {
	rows, err := db.Query(`SELECT sample_index, timestamp, grp, features, target
		FROM feature_rows WHERE analysis_id = ? ORDER BY sample_index, rowid`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FeatureRecord
	for rows.Next() {
		rec := FeatureRecord{AnalysisID: id}
		var encoded string
		var target sql.NullFloat64
		if err := rows.Scan(&rec.SampleIndex, &rec.Timestamp, &rec.Group, &encoded, &target); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(encoded), &rec.Features); err != nil {
			return nil, fmt.Errorf("failed to decode features: %w", err)
		}
		if target.Valid {
			v := target.Float64
			rec.Target = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prediction returns the forecast stored for analysis id, or
// sql.ErrNoRows.
func (db *DB) Prediction(id string) (*PredictionRecord, error) {
	p := &PredictionRecord{AnalysisID: id}
	err := db.QueryRow(`SELECT timestamp, residual_lifetime, changes_next_slot, next_rtt
		FROM predictions WHERE analysis_id = ?`, id).
		Scan(&p.Timestamp, &p.ResidualLifetime, &p.ChangesNextSlot, &p.NextRTT)
	if err != nil {
		return nil, err
	}
	return p, nil
}
