package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/wierzcho/ravacan/internal/bom/repository"
)

func TestExportItemRoundTrip(t *testing.T) {
	svc, store := newTestServices(t)
	importCSV(t, svc, correctCSV)

	headband := findByIdentifier(t, store, "700-0001-00")
	f, filename, err := svc.Item.ExportItem(context.Background(), headband.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer f.Close()
	if filename != "BOM_700-0001-00.xlsx" {
		t.Errorf("unexpected filename %s", filename)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	sheet, err := ReadUpload(&Upload{FileName: filename, Content: buf.Bytes()})
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !sheet.HasHeader || len(sheet.Rows) != 4 {
		t.Fatalf("expected header and 4 rows, got %+v", sheet)
	}
	if sheet.Rows[0][colLevel] != "0" || sheet.Rows[1][colLevel] != "1" {
		t.Errorf("expected levels relative to exported root, got %v %v", sheet.Rows[0], sheet.Rows[1])
	}
	if sheet.Rows[3][colQuantity] != "0.550" || sheet.Rows[3][colUnitPrice] != "0.60" {
		t.Errorf("unexpected foam pad row %v", sheet.Rows[3])
	}

	other, _ := newTestServices(t)
	result, report, err := other.Import.Import(context.Background(), &Upload{FileName: filename, Content: buf.Bytes()})
	if err != nil || !report.Empty() {
		t.Fatalf("re-import: %v %+v", err, report)
	}
	tree, err := other.Item.GetItemTree(context.Background(), result.RootIDs[0])
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if tree.TotalCost != "0.76000" {
		t.Errorf("expected 0.76000 after round trip, got %s", tree.TotalCost)
	}
}

func TestExportUnknownItem(t *testing.T) {
	svc, _ := newTestServices(t)
	_, _, err := svc.Item.ExportItem(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTemplate(t *testing.T) {
	f, err := Template()
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 1 || len(rows[0]) != RowFieldCount || rows[0][0] != "level" {
		t.Errorf("unexpected template rows %v", rows)
	}
}
