package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/sells-group/click2vector/internal/model"
)

// Mode selects which column convention an import expects.
type Mode string

const (
	// ModeWKT expects a column whose header contains "wkt" or "geom",
	// holding WKT Point values.
	ModeWKT Mode = "wkt"
	// ModeLatLon expects separate columns whose headers contain "lat" and
	// "lon" (or "lng").
	ModeLatLon Mode = "latlon"
)

// ParseMode validates a mode string from user input.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeWKT:
		return ModeWKT, nil
	case ModeLatLon, "":
		return ModeLatLon, nil
	default:
		return "", eris.Errorf("sheets: unknown import mode %q (want %q or %q)", s, ModeWKT, ModeLatLon)
	}
}

// RowError records a single data row that failed to parse. Row numbers are
// spreadsheet-style: the header is row 1, so the first data row is row 2.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result is the outcome of parsing a spreadsheet table.
type Result struct {
	Points []model.Point `json:"-"`
	Added  int           `json:"added"`
	Errors []RowError    `json:"errors,omitempty"`
}

// DetectColumns finds the coordinate-bearing columns for the given mode by
// case-insensitive substring match on headers, mirroring how desktop GIS
// exports name them. The error message lists the available headers.
func DetectColumns(headers []string, mode Mode) (wktCol, latCol, lonCol int, err error) {
	wktCol, latCol, lonCol = -1, -1, -1

	for i, h := range headers {
		lower := strings.ToLower(strings.TrimSpace(h))
		switch mode {
		case ModeWKT:
			if wktCol < 0 && (strings.Contains(lower, "wkt") || strings.Contains(lower, "geom")) {
				wktCol = i
			}
		case ModeLatLon:
			if latCol < 0 && strings.Contains(lower, "lat") {
				latCol = i
			}
			if lonCol < 0 && (strings.Contains(lower, "lon") || strings.Contains(lower, "lng")) {
				lonCol = i
			}
		}
	}

	switch mode {
	case ModeWKT:
		if wktCol < 0 {
			return -1, -1, -1, eris.Errorf(
				"sheets: no WKT geometry column found (looked for headers containing 'wkt' or 'geom'; available columns: %s)",
				strings.Join(headers, ", "))
		}
	case ModeLatLon:
		if latCol < 0 || lonCol < 0 {
			return -1, -1, -1, eris.Errorf(
				"sheets: no lat/lon columns found (looked for headers containing 'lat' and 'lon' or 'lng'; available columns: %s)",
				strings.Join(headers, ", "))
		}
	}

	return wktCol, latCol, lonCol, nil
}

// ParseTable converts spreadsheet rows (header first) into points. Rows that
// fail to parse are reported in Result.Errors; the rest still import. Every
// column of a row is carried as a string property.
func ParseTable(rows [][]string, mode Mode, source model.Source) (Result, error) {
	if len(rows) == 0 {
		return Result{}, eris.New("sheets: sheet is empty")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	wktCol, latCol, lonCol, err := DetectColumns(headers, mode)
	if err != nil {
		return Result{}, err
	}

	nameCol := -1
	for i, h := range headers {
		if strings.EqualFold(h, "name") {
			nameCol = i
			break
		}
	}

	var res Result
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based with header as row 1

		if isBlankRow(row) {
			continue
		}

		var lat, lon float64
		var parseErr error
		switch mode {
		case ModeWKT:
			raw := cell(row, wktCol)
			lat, lon, parseErr = ParseWKTPoint(raw)
			if parseErr != nil {
				res.Errors = append(res.Errors, RowError{
					Row:     rowNum,
					Message: fmt.Sprintf("%s - %s", parseErr.Error(), raw),
				})
				continue
			}
		case ModeLatLon:
			latRaw, lonRaw := cell(row, latCol), cell(row, lonCol)
			lat, parseErr = strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
			if parseErr == nil {
				lon, parseErr = strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
			}
			if parseErr != nil {
				res.Errors = append(res.Errors, RowError{
					Row:     rowNum,
					Message: fmt.Sprintf("invalid coordinates - lat: %s, lon: %s", latRaw, lonRaw),
				})
				continue
			}
		}

		p := model.New(lat, lon, strings.TrimSpace(cell(row, nameCol)), source)
		if err := p.Validate(); err != nil {
			res.Errors = append(res.Errors, RowError{
				Row:     rowNum,
				Message: fmt.Sprintf("coordinates out of range - lat: %g, lon: %g", lat, lon),
			})
			continue
		}

		props := make(map[string]string, len(headers))
		for j, h := range headers {
			if h == "" {
				continue
			}
			props[h] = strings.TrimSpace(cell(row, j))
		}
		p.Properties = props

		res.Points = append(res.Points, p)
		res.Added++
	}

	return res, nil
}

// ParseWKTPoint parses a WKT Point value and returns lat, lon. Accepts any
// keyword casing ("POINT", "Point") and QGIS-style spacing ("Point (x y)").
// Z/M dimensions are accepted; only X and Y are used.
func ParseWKTPoint(s string) (lat, lon float64, err error) {
	s = strings.TrimSpace(s)
	open := strings.Index(s, "(")
	if open < 0 || !strings.HasSuffix(s, ")") {
		return 0, 0, eris.New("sheets: not a valid WKT Point format")
	}

	normalized := strings.ToUpper(s[:open]) + s[open:]
	g, parseErr := wkt.Unmarshal(normalized)
	if parseErr != nil {
		return 0, 0, eris.Wrap(parseErr, "sheets: invalid WKT Point format")
	}

	pt, ok := g.(*geom.Point)
	if !ok {
		return 0, 0, eris.Errorf("sheets: expected a WKT Point, got %T", g)
	}

	coords := pt.FlatCoords()
	if len(coords) < 2 {
		return 0, 0, eris.New("sheets: insufficient coordinates in WKT Point")
	}

	// WKT order is X Y, i.e. lon lat.
	return coords[1], coords[0], nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
