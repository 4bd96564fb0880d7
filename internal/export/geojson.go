package export

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/click2vector/internal/model"
)

// GeoJSON renders points as an indented FeatureCollection. Coordinates are
// lon/lat per the GeoJSON spec; properties carry the imported columns plus
// name and timestamp.
func GeoJSON(points []model.Point) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	fc := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(points)),
	}
	for _, p := range points {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   p.Geometry(),
			Properties: p.FeatureProperties(),
		})
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "export: encode GeoJSON")
	}
	return data, nil
}
