package export

import (
	"bytes"
	"encoding/binary"
	"math"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/rotisserie/eris"

	"github.com/sells-group/click2vector/internal/model"
)

// FlatGeobuf layout (spec v3.x): 8 magic bytes, a size-prefixed header
// flatbuffer, an optional packed spatial index, then one size-prefixed
// flatbuffer per feature. This writer emits no index (index_node_size=0),
// matching unindexed output from the reference writers.
//
// Flatbuffer vtable slots below follow header.fbs and feature.fbs from the
// FlatGeobuf schema; the tables are small enough that hand-built objects via
// the flatbuffers builder stay readable.

// fgbMagic identifies FlatGeobuf spec version 3, patch 1.
var fgbMagic = []byte{0x66, 0x67, 0x62, 0x03, 0x66, 0x67, 0x62, 0x01}

const (
	fgbGeometryPoint = 1  // GeometryType.Point
	fgbColumnString  = 11 // ColumnType.String
	fgbHeaderSlots   = 14
	fgbColumnSlots   = 11
	fgbCrsSlots      = 6
	fgbGeometrySlots = 8
	fgbFeatureSlots  = 3
)

// FlatGeobuf renders points as a FlatGeobuf byte stream. All property
// columns are string-typed, mirroring how imported spreadsheet values are
// held.
func FlatGeobuf(points []model.Point, name string) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	if name == "" {
		name = "points"
	}

	schema := model.PropertyKeys(points)

	var out bytes.Buffer
	out.Write(fgbMagic)
	out.Write(buildFGBHeader(name, schema, points))
	for i, p := range points {
		feature, err := buildFGBFeature(p, schema)
		if err != nil {
			return nil, eris.Wrapf(err, "export: encode feature %d", i)
		}
		out.Write(feature)
	}

	return out.Bytes(), nil
}

// buildFGBHeader encodes the size-prefixed header table.
func buildFGBHeader(name string, schema []string, points []model.Point) []byte {
	b := flatbuffers.NewBuilder(256)

	nameOff := b.CreateString(name)

	// Column tables, then the vector over them (built in reverse).
	colOffs := make([]flatbuffers.UOffsetT, len(schema))
	for i, col := range schema {
		colName := b.CreateString(col)
		b.StartObject(fgbColumnSlots)
		b.PrependUOffsetTSlot(0, colName, 0)           // name
		b.PrependByteSlot(1, byte(fgbColumnString), 0) // type
		colOffs[i] = b.EndObject()
	}
	b.StartVector(4, len(colOffs), 4)
	for i := len(colOffs) - 1; i >= 0; i-- {
		b.PrependUOffsetT(colOffs[i])
	}
	colsVec := b.EndVector(len(colOffs))

	// CRS: EPSG:4326.
	crsOrg := b.CreateString("EPSG")
	crsName := b.CreateString("WGS 84")
	b.StartObject(fgbCrsSlots)
	b.PrependUOffsetTSlot(0, crsOrg, 0)  // org
	b.PrependInt32Slot(1, 4326, 0)       // code
	b.PrependUOffsetTSlot(2, crsName, 0) // name
	crsOff := b.EndObject()

	// Envelope: minx, miny, maxx, maxy.
	env := envelope(points)
	b.StartVector(8, 4, 8)
	for i := 3; i >= 0; i-- {
		b.PrependFloat64(env[i])
	}
	envVec := b.EndVector(4)

	b.StartObject(fgbHeaderSlots)
	b.PrependUOffsetTSlot(0, nameOff, 0)            // name
	b.PrependUOffsetTSlot(1, envVec, 0)             // envelope
	b.PrependByteSlot(2, byte(fgbGeometryPoint), 0) // geometry_type
	b.PrependUOffsetTSlot(7, colsVec, 0)            // columns
	b.PrependUint64Slot(8, uint64(len(points)), 0)  // features_count
	b.PrependUint16Slot(9, 0, 16)                   // index_node_size: no index
	b.PrependUOffsetTSlot(10, crsOff, 0)            // crs
	header := b.EndObject()

	b.FinishSizePrefixed(header)
	return b.FinishedBytes()
}

// buildFGBFeature encodes one size-prefixed feature table.
func buildFGBFeature(p model.Point, schema []string) ([]byte, error) {
	b := flatbuffers.NewBuilder(256)

	// Geometry: xy vector in lon/lat order.
	b.StartVector(8, 2, 8)
	b.PrependFloat64(p.Latitude)
	b.PrependFloat64(p.Longitude)
	xyVec := b.EndVector(2)

	b.StartObject(fgbGeometrySlots)
	b.PrependUOffsetTSlot(1, xyVec, 0)              // xy
	b.PrependByteSlot(6, byte(fgbGeometryPoint), 0) // type
	geomOff := b.EndObject()

	props, err := encodeFGBProperties(p, schema)
	if err != nil {
		return nil, err
	}
	propsVec := b.CreateByteVector(props)

	b.StartObject(fgbFeatureSlots)
	b.PrependUOffsetTSlot(0, geomOff, 0)  // geometry
	b.PrependUOffsetTSlot(1, propsVec, 0) // properties
	feature := b.EndObject()

	b.FinishSizePrefixed(feature)
	return b.FinishedBytes(), nil
}

// encodeFGBProperties packs property values in schema order: uint16 column
// index, uint32 byte length, then the UTF-8 bytes, all little-endian.
func encodeFGBProperties(p model.Point, schema []string) ([]byte, error) {
	var buf bytes.Buffer
	for i, key := range schema {
		if i > math.MaxUint16 {
			return nil, eris.Errorf("export: too many property columns (%d)", len(schema))
		}
		val := p.PropertyValue(key)

		if err := binary.Write(&buf, binary.LittleEndian, uint16(i)); err != nil {
			return nil, eris.Wrap(err, "export: write column index")
		}
		if err := binary.Write(&buf, binary.LittleEndian, uint32(len(val))); err != nil {
			return nil, eris.Wrap(err, "export: write value length")
		}
		buf.WriteString(val)
	}
	return buf.Bytes(), nil
}

// envelope computes [minx, miny, maxx, maxy] over the points.
func envelope(points []model.Point) [4]float64 {
	env := [4]float64{points[0].Longitude, points[0].Latitude, points[0].Longitude, points[0].Latitude}
	for _, p := range points[1:] {
		env[0] = math.Min(env[0], p.Longitude)
		env[1] = math.Min(env[1], p.Latitude)
		env[2] = math.Max(env[2], p.Longitude)
		env[3] = math.Max(env[3], p.Latitude)
	}
	return env
}
