// Package sheets imports point rows from public Google Sheets and from
// uploaded CSV/XLSX spreadsheets.
package sheets

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

const sheetsHostPath = "docs.google.com/spreadsheets/d/"

// ExtractSheetID pulls the spreadsheet ID and worksheet gid out of a Google
// Sheets URL. The gid defaults to "0" (the first worksheet) when the URL
// does not carry one.
func ExtractSheetID(sheetsURL string) (id, gid string, err error) {
	if !strings.Contains(sheetsURL, sheetsHostPath) {
		return "", "", eris.New("sheets: invalid Google Sheets URL format")
	}

	rest := sheetsURL[strings.Index(sheetsURL, "/d/")+len("/d/"):]
	id = rest
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		id = rest[:i]
	}
	if len(id) < 10 {
		return "", "", eris.New("sheets: invalid sheet ID extracted from URL")
	}

	gid = "0"
	if u, parseErr := url.Parse(sheetsURL); parseErr == nil {
		// gid appears in the query or the fragment depending on how the
		// link was copied.
		if g := u.Query().Get("gid"); g != "" {
			gid = g
		} else if strings.HasPrefix(u.Fragment, "gid=") {
			gid = strings.TrimPrefix(u.Fragment, "gid=")
		}
	}

	return id, gid, nil
}

// CSVURL returns the CSV export endpoint for a spreadsheet worksheet.
func CSVURL(id, gid string) string {
	if gid == "" {
		gid = "0"
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv&gid=%s", id, gid)
}
