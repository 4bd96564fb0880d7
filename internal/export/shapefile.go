package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/click2vector/internal/model"
)

// WGS84 .prj content, as written by common GIS tools for EPSG:4326.
const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// Shapefile renders points as a zipped Esri Shapefile (.shp/.shx/.dbf plus
// .prj and .cpg sidecars). basename names the files inside the zip. go-shp
// only writes to disk, so the shapefile is staged in a temp dir and zipped
// into memory.
func Shapefile(points []model.Point, basename string) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	if basename == "" {
		basename = "points"
	}

	dir, err := os.MkdirTemp("", "click2vector-shp-*")
	if err != nil {
		return nil, eris.Wrap(err, "export: create temp dir")
	}
	defer func() { _ = os.RemoveAll(dir) }()

	shpPath := filepath.Join(dir, basename+".shp")
	writer, err := shp.Create(shpPath, shp.POINT)
	if err != nil {
		return nil, eris.Wrap(err, "export: create shapefile")
	}

	schema := model.PropertyKeys(points)
	fieldNames := dbfFieldNames(schema)
	fields := make([]shp.Field, len(schema))
	for i, name := range fieldNames {
		fields[i] = shp.StringField(name, 254)
	}
	if err := writer.SetFields(fields); err != nil {
		writer.Close()
		return nil, eris.Wrap(err, "export: set dbf fields")
	}

	for n, p := range points {
		writer.Write(&shp.Point{X: p.Longitude, Y: p.Latitude})
		for j, key := range schema {
			if err := writer.WriteAttribute(n, j, p.PropertyValue(key)); err != nil {
				writer.Close()
				return nil, eris.Wrapf(err, "export: write attribute %s for point %d", key, n)
			}
		}
	}
	writer.Close()

	// go-shp derives the DBF path by stripping four bytes from the .shp path
	// and appending "dbf", which leaves the staged file without its dot.
	// Restore the extension before zipping.
	staged := filepath.Join(dir, basename+"dbf")
	if _, statErr := os.Stat(staged); statErr == nil {
		if err := os.Rename(staged, filepath.Join(dir, basename+".dbf")); err != nil {
			return nil, eris.Wrap(err, "export: rename dbf")
		}
	}

	// Sidecars go-shp does not write.
	if err := os.WriteFile(filepath.Join(dir, basename+".prj"), []byte(wgs84PRJ), 0o644); err != nil {
		return nil, eris.Wrap(err, "export: write .prj")
	}
	if err := os.WriteFile(filepath.Join(dir, basename+".cpg"), []byte("UTF-8"), 0o644); err != nil {
		return nil, eris.Wrap(err, "export: write .cpg")
	}

	return zipDir(dir)
}

// dbfFieldNames shortens schema keys to the DBF 10-character limit,
// deduplicating collisions with a numeric suffix.
func dbfFieldNames(schema []string) []string {
	seen := make(map[string]bool, len(schema))
	out := make([]string, len(schema))
	for i, key := range schema {
		name := key
		if len(name) > 10 {
			name = name[:10]
		}
		base := name
		for n := 1; seen[name]; n++ {
			suffix := fmt.Sprintf("_%d", n)
			trim := base
			if len(trim)+len(suffix) > 10 {
				trim = trim[:10-len(suffix)]
			}
			name = trim + suffix
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// zipDir packs every file in dir into an in-memory zip archive.
func zipDir(dir string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrap(err, "export: list shapefile parts")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, eris.Wrapf(err, "export: read %s", entry.Name())
		}
		f, err := zw.Create(entry.Name())
		if err != nil {
			return nil, eris.Wrapf(err, "export: zip %s", entry.Name())
		}
		if _, err := f.Write(data); err != nil {
			return nil, eris.Wrapf(err, "export: zip write %s", entry.Name())
		}
	}
	if err := zw.Close(); err != nil {
		return nil, eris.Wrap(err, "export: finalize zip")
	}

	return buf.Bytes(), nil
}
