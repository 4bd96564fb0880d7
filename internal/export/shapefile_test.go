package export

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/click2vector/internal/model"
)

func TestShapefileZipContents(t *testing.T) {
	data, err := Shapefile(samplePoints(t), "survey")
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"survey.shp", "survey.shx", "survey.dbf", "survey.prj", "survey.cpg"} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestShapefileRoundTrip(t *testing.T) {
	pts := samplePoints(t)
	data, err := Shapefile(pts, "points")
	require.NoError(t, err)

	// Extract and read back with go-shp.
	dir := t.TempDir()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content := new(bytes.Buffer)
		_, err = content.ReadFrom(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		require.NoError(t, os.WriteFile(filepath.Join(dir, f.Name), content.Bytes(), 0o644))
	}

	reader, err := shp.Open(filepath.Join(dir, "points.shp"))
	require.NoError(t, err)
	defer reader.Close()

	var shapes []*shp.Point
	for reader.Next() {
		_, shape := reader.Shape()
		pt, ok := shape.(*shp.Point)
		require.True(t, ok)
		shapes = append(shapes, pt)
	}
	require.Len(t, shapes, len(pts))
	assert.InDelta(t, pts[0].Longitude, shapes[0].X, 1e-6)
	assert.InDelta(t, pts[0].Latitude, shapes[0].Y, 1e-6)

	// First DBF field is "name"; attribute values survive the round trip.
	fields := reader.Fields()
	require.NotEmpty(t, fields)
	assert.Equal(t, "name", fields[0].String())

	for i, p := range pts {
		assert.Equal(t, p.Name, reader.ReadAttribute(i, 0), "name of point %d", i)
	}
	// Schema is name, then sorted property keys; "city" is field 1.
	assert.Equal(t, "city", fields[1].String())
	assert.Equal(t, "", reader.ReadAttribute(0, 1))
	assert.Equal(t, "Tampa", reader.ReadAttribute(1, 1))
}

func TestShapefilePRJIsWGS84(t *testing.T) {
	data, err := Shapefile(samplePoints(t), "points")
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != "points.prj" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		content := new(bytes.Buffer)
		_, err = content.ReadFrom(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Contains(t, content.String(), "WGS_1984")
		return
	}
	t.Fatal("points.prj not found in zip")
}

func TestShapefileEmpty(t *testing.T) {
	_, err := Shapefile(nil, "points")
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestShapefileLongPropertyKeys(t *testing.T) {
	p := model.New(1, 2, "pt", model.SourceSheet)
	p.Properties = map[string]string{
		"a_very_long_column_name":     "x",
		"a_very_long_column_name_too": "y",
	}
	data, err := Shapefile([]model.Point{p}, "points")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestDBFFieldNames(t *testing.T) {
	names := dbfFieldNames([]string{"name", "a_very_long_column", "a_very_long_field", "timestamp"})
	assert.Equal(t, "name", names[0])
	assert.Equal(t, "a_very_lon", names[1])
	assert.Equal(t, "a_very_l_1", names[2])
	assert.Equal(t, "timestamp", names[3])
	for _, n := range names {
		assert.LessOrEqual(t, len(n), 10)
	}
}
