package model

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Source describes how a point entered the collection.
type Source string

const (
	SourceMapClick Source = "map_click"
	SourceManual   Source = "manual"
	SourceSheet    Source = "sheet"
	SourceUpload   Source = "upload"
)

// Point is one collected map point. Coordinates are WGS84 (EPSG:4326).
type Point struct {
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
	Name       string            `json:"name"`
	Properties map[string]string `json:"properties,omitempty"`
	Source     Source            `json:"source,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// New creates a Point with the current timestamp. An empty name is allowed;
// callers that want positional defaults use DefaultName.
func New(lat, lon float64, name string, source Source) Point {
	return Point{
		Latitude:  lat,
		Longitude: lon,
		Name:      name,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

// DefaultName returns the display name for the nth point (1-based) when no
// name was provided.
func DefaultName(n int) string {
	return fmt.Sprintf("Point %d", n)
}

// Validate checks that coordinates are finite and within WGS84 bounds.
func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) ||
		math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) {
		return eris.New("model: coordinates must be finite numbers")
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return eris.Errorf("model: latitude %g out of range [-90, 90]", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return eris.Errorf("model: longitude %g out of range [-180, 180]", p.Longitude)
	}
	return nil
}

// Geometry returns the point as a go-geom Point in lon/lat order with SRID 4326.
func (p Point) Geometry() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.Longitude, p.Latitude}).SetSRID(4326)
}

// FeatureProperties returns the GeoJSON property map for the point: imported
// properties first, then name and timestamp. Name from Properties is
// overridden by the record's own name so table renames survive export.
func (p Point) FeatureProperties() map[string]any {
	props := make(map[string]any, len(p.Properties)+2)
	for k, v := range p.Properties {
		props[k] = v
	}
	props["name"] = p.Name
	props["timestamp"] = p.CreatedAt.Format(time.RFC3339)
	return props
}

// PropertyKeys returns the sorted union of property keys across points,
// always including "name" and "timestamp". Export writers use this to build
// a stable attribute schema.
func PropertyKeys(points []Point) []string {
	set := map[string]bool{"name": true, "timestamp": true}
	for _, p := range points {
		for k := range p.Properties {
			set[k] = true
		}
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		if k == "name" || k == "timestamp" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// name first, timestamp last, imported columns in between.
	out := make([]string, 0, len(keys)+2)
	out = append(out, "name")
	out = append(out, keys...)
	out = append(out, "timestamp")
	return out
}

// PropertyValue resolves a schema key for a point. "name" and "timestamp"
// come from the record itself; everything else from imported properties.
func (p Point) PropertyValue(key string) string {
	switch key {
	case "name":
		return p.Name
	case "timestamp":
		return p.CreatedAt.Format(time.RFC3339)
	default:
		return p.Properties[key]
	}
}
