package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/click2vector/internal/model"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("wkt")
	require.NoError(t, err)
	assert.Equal(t, ModeWKT, m)

	m, err = ParseMode("LATLON")
	require.NoError(t, err)
	assert.Equal(t, ModeLatLon, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeLatLon, m)

	_, err = ParseMode("geojson")
	assert.Error(t, err)
}

func TestDetectColumnsWKT(t *testing.T) {
	wktCol, _, _, err := DetectColumns([]string{"id", "wkt_geom", "label"}, ModeWKT)
	require.NoError(t, err)
	assert.Equal(t, 1, wktCol)

	wktCol, _, _, err = DetectColumns([]string{"Geometry", "name"}, ModeWKT)
	require.NoError(t, err)
	assert.Equal(t, 0, wktCol)

	_, _, _, err = DetectColumns([]string{"id", "label"}, ModeWKT)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available columns: id, label")
}

func TestDetectColumnsLatLon(t *testing.T) {
	_, latCol, lonCol, err := DetectColumns([]string{"name", "Latitude", "Longitude"}, ModeLatLon)
	require.NoError(t, err)
	assert.Equal(t, 1, latCol)
	assert.Equal(t, 2, lonCol)

	_, latCol, lonCol, err = DetectColumns([]string{"lat", "lng"}, ModeLatLon)
	require.NoError(t, err)
	assert.Equal(t, 0, latCol)
	assert.Equal(t, 1, lonCol)

	_, _, _, err = DetectColumns([]string{"name", "lat"}, ModeLatLon)
	assert.Error(t, err)
}

func TestParseWKTPoint(t *testing.T) {
	tests := []struct {
		name    string
		wkt     string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"qgis style", "Point (-80.19 25.77)", 25.77, -80.19, false},
		{"upper no space", "POINT(-80.19 25.77)", 25.77, -80.19, false},
		{"extra whitespace", "  Point (10 20)  ", 20, 10, false},
		{"point z", "Point Z (-80.19 25.77 5)", 25.77, -80.19, false},
		{"not a point", "LINESTRING (0 0, 1 1)", 0, 0, true},
		{"garbage", "not wkt at all", 0, 0, true},
		{"missing paren", "Point -80 25", 0, 0, true},
		{"empty", "", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon, err := ParseWKTPoint(tt.wkt)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.lat, lat, 1e-9)
			assert.InDelta(t, tt.lon, lon, 1e-9)
		})
	}
}

func TestParseTableWKT(t *testing.T) {
	rows := [][]string{
		{"id", "wkt_geom", "name"},
		{"1", "Point (-80.19 25.77)", "Miami"},
		{"2", "Point (-82.46 27.95)", "Tampa"},
	}

	res, err := ParseTable(rows, ModeWKT, model.SourceSheet)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Points, 2)

	assert.Equal(t, "Miami", res.Points[0].Name)
	assert.InDelta(t, 25.77, res.Points[0].Latitude, 1e-9)
	assert.InDelta(t, -80.19, res.Points[0].Longitude, 1e-9)
	assert.Equal(t, "1", res.Points[0].Properties["id"])
	assert.Equal(t, "Point (-80.19 25.77)", res.Points[0].Properties["wkt_geom"])
	assert.Equal(t, model.SourceSheet, res.Points[0].Source)
}

func TestParseTableLatLon(t *testing.T) {
	rows := [][]string{
		{"name", "lat", "long", "city"},
		{"Dock", "25.77", "-80.19", "Miami"},
		{"Pier", "27.95", "-82.46", "Tampa"},
	}

	res, err := ParseTable(rows, ModeLatLon, model.SourceUpload)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	require.Len(t, res.Points, 2)
	assert.Equal(t, "Pier", res.Points[1].Name)
	assert.InDelta(t, -82.46, res.Points[1].Longitude, 1e-9)
	assert.Equal(t, "Tampa", res.Points[1].Properties["city"])
}

func TestParseTableRowErrors(t *testing.T) {
	rows := [][]string{
		{"lat", "lon"},
		{"25.77", "-80.19"},
		{"not-a-number", "-80.19"},
		{"95.0", "-80.19"}, // out of range
		{"27.95", "-82.46"},
	}

	res, err := ParseTable(rows, ModeLatLon, model.SourceSheet)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	require.Len(t, res.Errors, 2)

	// Header is row 1, so the bad rows are 3 and 4.
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Contains(t, res.Errors[0].Message, "not-a-number")
	assert.Equal(t, 4, res.Errors[1].Row)
	assert.Contains(t, res.Errors[1].Message, "out of range")
}

func TestParseTableSkipsBlankRows(t *testing.T) {
	rows := [][]string{
		{"lat", "lon"},
		{"", ""},
		{"25.77", "-80.19"},
		{"  ", ""},
	}

	res, err := ParseTable(rows, ModeLatLon, model.SourceSheet)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Empty(t, res.Errors)
}

func TestParseTableRaggedRows(t *testing.T) {
	rows := [][]string{
		{"name", "lat", "lon"},
		{"short-row", "25.77"}, // missing lon cell
	}

	res, err := ParseTable(rows, ModeLatLon, model.SourceSheet)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Row)
}

func TestParseTableEmpty(t *testing.T) {
	_, err := ParseTable(nil, ModeLatLon, model.SourceSheet)
	assert.Error(t, err)
}

func TestParseTableMissingColumns(t *testing.T) {
	rows := [][]string{
		{"a", "b"},
		{"1", "2"},
	}
	_, err := ParseTable(rows, ModeWKT, model.SourceSheet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wkt")
}
