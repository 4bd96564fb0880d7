// Package export writes a point collection as GeoJSON, zipped Esri
// Shapefile, or FlatGeobuf. All writers produce bytes in memory; nothing is
// persisted.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/click2vector/internal/model"
)

// ErrNoPoints is returned when an export is requested for an empty
// collection.
var ErrNoPoints = eris.New("export: no points to export")

// Format is a supported vector output format.
type Format string

const (
	FormatGeoJSON    Format = "geojson"
	FormatShapefile  Format = "shapefile"
	FormatFlatGeobuf Format = "flatgeobuf"
)

// ParseFormat validates a format string from user input.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatGeoJSON, "":
		return FormatGeoJSON, nil
	case FormatShapefile, "shp", "zip":
		return FormatShapefile, nil
	case FormatFlatGeobuf, "fgb":
		return FormatFlatGeobuf, nil
	default:
		return "", eris.Errorf("export: unknown format %q (want geojson, shapefile, or flatgeobuf)", s)
	}
}

// Extension returns the output file extension, dot included.
func (f Format) Extension() string {
	switch f {
	case FormatShapefile:
		return ".zip"
	case FormatFlatGeobuf:
		return ".fgb"
	default:
		return ".geojson"
	}
}

// MIME returns the download content type.
func (f Format) MIME() string {
	switch f {
	case FormatShapefile:
		return "application/zip"
	case FormatFlatGeobuf:
		return "application/octet-stream"
	default:
		return "application/geo+json"
	}
}

// Filename joins a basename with the format's extension.
func (f Format) Filename(basename string) string {
	return basename + f.Extension()
}

// DefaultBasename returns a timestamped export basename, e.g.
// "click2vector_20260827_153000".
func DefaultBasename(prefix string) string {
	if prefix == "" {
		prefix = "click2vector"
	}
	return fmt.Sprintf("%s_%s", prefix, time.Now().Format("20060102_150405"))
}

// Export renders points in the requested format. The basename names the
// inner layer files for formats that carry one (shapefile).
func Export(points []model.Point, format Format, basename string) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	switch format {
	case FormatGeoJSON:
		return GeoJSON(points)
	case FormatShapefile:
		return Shapefile(points, basename)
	case FormatFlatGeobuf:
		return FlatGeobuf(points, basename)
	default:
		return nil, eris.Errorf("export: unknown format %q", format)
	}
}
