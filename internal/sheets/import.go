package sheets

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/click2vector/internal/model"
)

// ImportSheet fetches a public Google Sheet and parses its rows into points.
func (f *Fetcher) ImportSheet(ctx context.Context, sheetsURL string, mode Mode) (Result, error) {
	id, gid, err := ExtractSheetID(sheetsURL)
	if err != nil {
		return Result{}, err
	}

	rows, err := f.FetchCSV(ctx, CSVURL(id, gid))
	if err != nil {
		return Result{}, err
	}

	res, err := ParseTable(rows, mode, model.SourceSheet)
	if err != nil {
		return Result{}, err
	}

	zap.L().Info("sheets: imported sheet",
		zap.String("sheet_id", id),
		zap.String("mode", string(mode)),
		zap.Int("added", res.Added),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}
