package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/click2vector/internal/collection"
	"github.com/sells-group/click2vector/internal/export"
	"github.com/sells-group/click2vector/internal/model"
	"github.com/sells-group/click2vector/internal/sheets"
)

var (
	importURL    string
	importFile   string
	importMode   string
	importFormat string
	importOut    string
	importName   string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import points from a sheet or spreadsheet file and write an export",
	Long:  "Reads point rows from a public Google Sheet URL or a local CSV/XLSX file and writes the collection as GeoJSON, zipped Shapefile, or FlatGeobuf without starting the server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if (importURL == "") == (importFile == "") {
			return eris.New("exactly one of --url or --file is required")
		}

		mode, err := sheets.ParseMode(importMode)
		if err != nil {
			return err
		}
		format, err := export.ParseFormat(importFormat)
		if err != nil {
			return err
		}

		res, err := importRows(cmd, mode)
		if err != nil {
			return err
		}

		for _, rowErr := range res.Errors {
			zap.L().Warn("import: row skipped",
				zap.Int("row", rowErr.Row),
				zap.String("reason", rowErr.Message),
			)
		}
		if res.Added == 0 {
			return eris.New("no valid points could be imported; check the data format")
		}

		// Route through a collection so unnamed rows get positional names.
		col := collection.New(0)
		if _, err := col.AddAll(res.Points); err != nil {
			return err
		}

		basename := strings.TrimSpace(importName)
		if basename == "" {
			basename = export.DefaultBasename(cfg.Export.BasenamePrefix)
		}

		data, err := export.Export(col.Points(), format, basename)
		if err != nil {
			return err
		}

		outPath := importOut
		if outPath == "" {
			outPath = format.Filename(basename)
		}
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", outPath)
		}

		fmt.Printf("Imported %d point(s) (%d row error(s)); wrote %s (%d bytes)\n",
			res.Added, len(res.Errors), outPath, len(data))
		return nil
	},
}

// importRows parses points from whichever input flag was given.
func importRows(cmd *cobra.Command, mode sheets.Mode) (sheets.Result, error) {
	if importURL != "" {
		fetcher := sheets.NewFetcher(
			sheets.WithRateLimit(cfg.Sheets.RateLimitRPS),
			sheets.WithMaxBodyBytes(cfg.Sheets.MaxBodyBytes),
			sheets.WithTimeout(time.Duration(cfg.Sheets.TimeoutSecs)*time.Second),
		)
		return fetcher.ImportSheet(cmd.Context(), importURL, mode)
	}

	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(importFile)) {
	case ".xlsx":
		rows, err = sheets.ReadXLSXFile(importFile)
	case ".csv", ".txt":
		var f *os.File
		f, err = os.Open(importFile)
		if err != nil {
			return sheets.Result{}, eris.Wrapf(err, "open %s", importFile)
		}
		defer func() { _ = f.Close() }()
		rows, err = sheets.ParseCSV(f)
	default:
		return sheets.Result{}, eris.Errorf("unsupported file type %q (want .csv or .xlsx)", filepath.Ext(importFile))
	}
	if err != nil {
		return sheets.Result{}, err
	}

	return sheets.ParseTable(rows, mode, model.SourceUpload)
}

func init() {
	importCmd.Flags().StringVar(&importURL, "url", "", "public Google Sheet URL")
	importCmd.Flags().StringVar(&importFile, "file", "", "local CSV or XLSX file")
	importCmd.Flags().StringVar(&importMode, "mode", "latlon", "coordinate columns: latlon or wkt")
	importCmd.Flags().StringVar(&importFormat, "format", "geojson", "output format: geojson, shapefile, or flatgeobuf")
	importCmd.Flags().StringVarP(&importOut, "out", "o", "", "output path (default <name>.<ext> in the working directory)")
	importCmd.Flags().StringVar(&importName, "name", "", "export basename (default timestamped)")
	rootCmd.AddCommand(importCmd)
}
