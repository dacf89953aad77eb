package camera

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `latitude,longitude,camera type,direction,angle of view,radius,camera model,url
62.2426,25.7473,directed,90,60,50,AXIS P1448-LE,https://example.org/cam0
62.2430,25.7480,round,,,25,,
62.2440,25.7490,directed,180,120,unlimited,,
`

func TestLoadReader(t *testing.T) {
	set, err := LoadReader(strings.NewReader(sampleCSV), LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, 3, set.Len())

	cams := set.Cameras()

	directed := cams[0]
	assert.Equal(t, "0", directed.ID)
	assert.Equal(t, 90.0, directed.BearingDeg)
	assert.Equal(t, 60.0, directed.ApertureDeg)
	assert.Equal(t, 50.0, directed.RangeM)
	assert.Equal(t, "AXIS P1448-LE", directed.Meta["camera_model"])
	assert.Equal(t, "https://example.org/cam0", directed.Meta["url"])

	round := cams[1]
	assert.Equal(t, 360.0, round.ApertureDeg)
	assert.Equal(t, 25.0, round.RangeM)

	unlimited := cams[2]
	assert.True(t, math.IsInf(unlimited.RangeM, 1))
	assert.Equal(t, 120.0, unlimited.ApertureDeg)
}

func TestLoadReaderRadiusOverride(t *testing.T) {
	set, err := LoadReader(strings.NewReader(sampleCSV), LoadOptions{RadiusOverrideM: 15})
	require.NoError(t, err)
	for _, cam := range set.Cameras() {
		assert.Equal(t, 15.0, cam.RangeM, "override must replace camera %s radius", cam.ID)
	}
}

func TestLoadReaderDefaultRadius(t *testing.T) {
	csv := "latitude,longitude,camera type\n62.24,25.74,round\n"
	set, err := LoadReader(strings.NewReader(csv), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultCameraRadiusM, set.Cameras()[0].RangeM)
}

func TestLoadReaderErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"missing latitude", "longitude,camera type\n25.74,round\n"},
		{"bad latitude", "latitude,longitude\nnope,25.74\n"},
		{"out of range latitude", "latitude,longitude\n95.0,25.74\n"},
		{"directed without direction", "latitude,longitude,camera type,angle of view\n62.24,25.74,directed,90\n"},
		{"unknown camera type", "latitude,longitude,camera type\n62.24,25.74,fisheye\n"},
		{"bad radius", "latitude,longitude,radius\n62.24,25.74,wide\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadReader(strings.NewReader(tt.csv), LoadOptions{})
			assert.Error(t, err)
		})
	}
}

func TestLoadReaderIDColumn(t *testing.T) {
	csv := "id,latitude,longitude,camera type\ncam-north,62.24,25.74,round\n"
	set, err := LoadReader(strings.NewReader(csv), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "cam-north", set.Cameras()[0].ID)
}
