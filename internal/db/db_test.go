package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cctv-aware/exposure/internal/exposure"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "exposure.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRun() (Run, []exposure.Event, exposure.Summary) {
	start := time.Date(2021, 5, 17, 12, 0, 0, 0, time.UTC)
	run := Run{GPXFile: "walk.gpx", Track: 0, Segment: 0, CameraCount: 2, SampleCount: 120}
	events := []exposure.Event{
		{
			CameraID:      "cam0",
			StartIndex:    10,
			EndIndex:      14,
			Start:         start.Add(10 * time.Second),
			End:           start.Add(14 * time.Second),
			SampleIndices: []int{10, 11, 12, 13, 14},
		},
		{
			CameraID:      "cam1",
			StartIndex:    12,
			EndIndex:      13,
			Start:         start.Add(12 * time.Second),
			End:           start.Add(13 * time.Second),
			SampleIndices: []int{12, 13},
		},
	}
	summary := exposure.Summary{
		TrajectoryDuration: 2 * time.Minute,
		ExposedDuration:    4 * time.Second,
		ExposureRatio:      4.0 / 120.0,
		UniqueCameras:      2,
		TrajectoryPathM:    160,
		ExposedPathM:       6.5,
		PerCamera: []exposure.CameraExposure{
			{CameraID: "cam0", Events: 1, Samples: 5, Duration: 4 * time.Second, PathM: 5.5},
			{CameraID: "cam1", Events: 1, Samples: 2, Duration: time.Second, PathM: 1.0},
		},
	}
	return run, events, summary
}

func TestRecordAndListRuns(t *testing.T) {
	db := testDB(t)
	run, events, summary := sampleRun()

	runID, err := db.RecordRun(run, events, summary)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].RunID)
	assert.Equal(t, "walk.gpx", runs[0].GPXFile)
	assert.Equal(t, 120, runs[0].SampleCount)
}

func TestRunEvents(t *testing.T) {
	db := testDB(t)
	run, events, summary := sampleRun()

	runID, err := db.RecordRun(run, events, summary)
	require.NoError(t, err)

	stored, err := db.RunEvents(runID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "cam0", stored[0].CameraID)
	assert.Equal(t, 10, stored[0].StartIndex)
	assert.Equal(t, 14, stored[0].EndIndex)
	assert.Equal(t, "cam1", stored[1].CameraID)
}

func TestPruneRuns(t *testing.T) {
	db := testDB(t)
	run, events, summary := sampleRun()

	_, err := db.RecordRun(run, events, summary)
	require.NoError(t, err)

	// Nothing is older than a cutoff in the past.
	n, err := db.PruneRuns(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	// Everything is older than a cutoff in the future.
	n, err = db.PruneRuns(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
