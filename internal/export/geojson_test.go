package export

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoJSON(t *testing.T) {
	pts := samplePoints(t)
	data, err := GeoJSON(pts)
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Type     string `json:"type"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, len(pts))

	first := fc.Features[0]
	assert.Equal(t, "Feature", first.Type)
	assert.Equal(t, "Point", first.Geometry.Type)
	require.Len(t, first.Geometry.Coordinates, 2)
	// GeoJSON order: lon, lat.
	assert.InDelta(t, -80.19, first.Geometry.Coordinates[0], 1e-9)
	assert.InDelta(t, 25.77, first.Geometry.Coordinates[1], 1e-9)
	assert.Equal(t, "Miami Dock", first.Properties["name"])
	assert.NotEmpty(t, first.Properties["timestamp"])

	second := fc.Features[1]
	assert.Equal(t, "Tampa Pier", second.Properties["name"])
	assert.Equal(t, "Tampa", second.Properties["city"])
}

func TestGeoJSONIndented(t *testing.T) {
	data, err := GeoJSON(samplePoints(t))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  ")
}

func TestGeoJSONEmpty(t *testing.T) {
	_, err := GeoJSON(nil)
	assert.ErrorIs(t, err, ErrNoPoints)
}
