// Package export writes plant rows as CSV or XLSX.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"flora-advisor/internal/catalog"
	"flora-advisor/internal/ui"
)

// SheetName is the worksheet that holds the rows in an XLSX export.
const SheetName = "Plants"

// Header is the column order shared by every export format.
var Header = []string{
	"Common Name",
	"Scientific Name",
	"Family",
	"Flower Color",
	"Cycle",
	"Watering",
	"Sunlight",
	"Query Color",
	"Image URL",
}

func row(p catalog.Plant) []string {
	return []string{
		p.CommonName,
		p.ScientificName,
		p.Family,
		p.FlowerColor,
		p.Cycle,
		p.Watering,
		p.Sunlight,
		p.QueryColor,
		p.ImageURL,
	}
}

// WriteCSV writes a header line followed by one line per plant.
func WriteCSV(w io.Writer, plants []catalog.Plant) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, p := range plants {
		if err := cw.Write(row(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with a single sheet of plants and a bold,
// frozen header row.
func WriteXLSX(w io.Writer, plants []catalog.Plant) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := setRow(f, 1, Header); err != nil {
		return err
	}
	for i, p := range plants {
		if err := setRow(f, i+2, row(p)); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "B", 28); err != nil {
		return err
	}

	return f.Write(w)
}

func setRow(f *excelize.File, n int, values []string) error {
	axis, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(SheetName, axis, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", n, err)
	}
	return nil
}

// Walker pages through the catalog.
type Walker interface {
	Walk(ctx context.Context, q catalog.Query, maxPages int, fn func(*catalog.Page) error) error
}

// DumpCatalog walks the unfiltered catalog and streams every plant to w as
// CSV. maxPages of 0 means all pages. It returns the number of rows written.
// progress may be nil.
func DumpCatalog(ctx context.Context, walker Walker, w io.Writer, maxPages int, progress ui.Progress) (int, error) {
	if progress == nil {
		progress = ui.NoProgress
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, err
	}

	rows := 0
	err := walker.Walk(ctx, catalog.Query{}, maxPages, func(page *catalog.Page) error {
		total := page.LastPage
		if maxPages > 0 && (total == 0 || total > maxPages) {
			total = maxPages
		}
		progress.SetTotal(total)
		progress.SetLabel(fmt.Sprintf("Page %d", page.CurrentPage))

		for _, p := range page.Plants {
			if err := cw.Write(row(p)); err != nil {
				return err
			}
			rows++
		}
		cw.Flush()
		progress.Tick(1)
		return cw.Error()
	})
	progress.Done()
	if err != nil {
		return rows, err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, err
	}
	ui.LogStatus("debug", fmt.Sprintf("Wrote %d catalog rows", rows))
	return rows, nil
}
