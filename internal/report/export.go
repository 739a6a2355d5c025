package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Exporter writes a report and its datasets into a directory.
type Exporter struct {
	dir     string
	formats []string
	log     *slog.Logger
}

// NewExporter returns an Exporter writing the given formats into dir.
func NewExporter(dir string, formats []string, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Exporter{dir: dir, formats: formats, log: log}
}

// Export writes every requested format. Files are independent, so writers
// run concurrently; the first failure cancels the rest. It returns the paths
// written, sorted by format then dataset order.
func (e *Exporter) Export(ctx context.Context, rep Report, datasets []Dataset) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create %s: %w", e.dir, err)
	}

	type job struct {
		path  string
		write func(path string) error
	}
	var jobs []job
	for _, f := range e.formats {
		switch f {
		case FormatCSV:
			for _, ds := range datasets {
				ds := ds
				jobs = append(jobs, job{
					path:  filepath.Join(e.dir, ds.Name+".csv"),
					write: func(p string) error { return writeCSV(p, ds) },
				})
			}
		case FormatJSON:
			jobs = append(jobs, job{
				path:  filepath.Join(e.dir, "report.json"),
				write: func(p string) error { return writeJSON(p, rep) },
			})
		case FormatXLSX:
			jobs = append(jobs, job{
				path:  filepath.Join(e.dir, "report.xlsx"),
				write: func(p string) error { return writeXLSX(p, datasets) },
			})
		default:
			return nil, fmt.Errorf("export: unknown format %q", f)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			if err := j.write(j.path); err != nil {
				return fmt.Errorf("export %s: %w", j.path, err)
			}
			e.log.DebugContext(gctx, "exported", "path", j.path, "took", time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	paths := make([]string, len(jobs))
	for i, j := range jobs {
		paths[i] = j.path
	}
	e.log.InfoContext(ctx, "export complete", "dir", e.dir, "files", len(paths))
	return paths, nil
}

func writeCSV(path string, ds Dataset) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(ds.Columns); err != nil {
		return err
	}
	rec := make([]string, len(ds.Columns))
	for _, row := range ds.Rows {
		for i, v := range row {
			rec[i] = FormatCell(v)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, rep Report) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func writeXLSX(path string, datasets []Dataset) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	for i, ds := range datasets {
		sheet := ds.Name
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		header := make([]any, len(ds.Columns))
		for c, name := range ds.Columns {
			header[c] = name
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return err
		}
		for r, row := range ds.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			vals := append([]any(nil), row...)
			if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

// FormatCell renders a dataset value as text. Missing values are empty;
// floats use the shortest exact representation; dates use YYYY-MM-DD.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return fmt.Sprint(x)
	}
}
