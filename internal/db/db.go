// Package db persists finished exposure runs to sqlite so repeated walks
// over the same camera database can be compared later.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cctv-aware/exposure/internal/exposure"
)

type DB struct {
	*sql.DB
}

// NewDB opens (and if needed bootstraps) the results database at path.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id              TEXT PRIMARY KEY,
			gpx_file            TEXT,
			track               BIGINT,
			segment             BIGINT,
			camera_count        BIGINT,
			sample_count        BIGINT,
			trajectory_seconds  DOUBLE,
			exposed_seconds     DOUBLE,
			exposure_ratio      DOUBLE,
			unique_cameras      BIGINT,
			trajectory_m        DOUBLE,
			exposed_m           DOUBLE,
			timestamp           TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS events (
			run_id              TEXT,
			camera_id           TEXT,
			start_index         BIGINT,
			end_index           BIGINT,
			start_time          TIMESTAMP,
			end_time            TIMESTAMP,
			sample_count        BIGINT,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE TABLE IF NOT EXISTS camera_exposure (
			run_id              TEXT,
			camera_id           TEXT,
			events              BIGINT,
			samples             BIGINT,
			seconds             DOUBLE,
			path_m              DOUBLE,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Run identifies one persisted pipeline execution.
type Run struct {
	RunID       string
	GPXFile     string
	Track       int
	Segment     int
	CameraCount int
	SampleCount int
	CreatedAt   time.Time
}

// RecordRun stores a finished run with its events and per-camera breakdown
// in one transaction and returns the generated run id.
func (db *DB) RecordRun(run Run, events []exposure.Event, summary exposure.Summary) (string, error) {
	runID := uuid.NewString()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (
			run_id, gpx_file, track, segment, camera_count, sample_count,
			trajectory_seconds, exposed_seconds, exposure_ratio,
			unique_cameras, trajectory_m, exposed_m
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, run.GPXFile, run.Track, run.Segment, run.CameraCount, run.SampleCount,
		summary.TrajectoryDuration.Seconds(), summary.ExposedDuration.Seconds(), summary.ExposureRatio,
		summary.UniqueCameras, summary.TrajectoryPathM, summary.ExposedPathM,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for _, ev := range events {
		_, err = tx.Exec(`
			INSERT INTO events (run_id, camera_id, start_index, end_index, start_time, end_time, sample_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, ev.CameraID, ev.StartIndex, ev.EndIndex, ev.Start, ev.End, len(ev.SampleIndices),
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert event for camera %s: %w", ev.CameraID, err)
		}
	}

	for _, ce := range summary.PerCamera {
		_, err = tx.Exec(`
			INSERT INTO camera_exposure (run_id, camera_id, events, samples, seconds, path_m)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, ce.CameraID, ce.Events, ce.Samples, ce.Duration.Seconds(), ce.PathM,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert camera exposure for %s: %w", ce.CameraID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT run_id, gpx_file, track, segment, camera_count, sample_count, timestamp
		FROM runs ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.GPXFile, &r.Track, &r.Segment, &r.CameraCount, &r.SampleCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunEvents returns the stored events of one run in start order.
func (db *DB) RunEvents(runID string) ([]exposure.Event, error) {
	rows, err := db.Query(`
		SELECT camera_id, start_index, end_index, start_time, end_time
		FROM events WHERE run_id = ? ORDER BY start_index, camera_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []exposure.Event
	for rows.Next() {
		var ev exposure.Event
		if err := rows.Scan(&ev.CameraID, &ev.StartIndex, &ev.EndIndex, &ev.Start, &ev.End); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// PruneRuns deletes runs older than the cutoff along with their events and
// per-camera rows, and returns how many runs were removed.
func (db *DB) PruneRuns(olderThan time.Time) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM events WHERE run_id IN (SELECT run_id FROM runs WHERE timestamp < ?)`, olderThan); err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM camera_exposure WHERE run_id IN (SELECT run_id FROM runs WHERE timestamp < ?)`, olderThan); err != nil {
		return 0, fmt.Errorf("failed to prune camera exposure: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM runs WHERE timestamp < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}
