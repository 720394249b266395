package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wierzcho/ravacan/internal/bom/repository"
	"go.uber.org/zap"
)

func TestImportCorrectFile(t *testing.T) {
	svc, store := newTestServices(t)
	result := importCSV(t, svc, correctCSV)

	if result.RowCount != 7 || result.NodeCount != 7 || result.RootCount != 1 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.ComponentsCreated != 7 {
		t.Errorf("expected 7 components, got %d", result.ComponentsCreated)
	}
	if len(result.RootIDs) != 1 {
		t.Fatalf("expected 1 root id, got %v", result.RootIDs)
	}

	nodes, _ := store.Subtree(context.Background(), nil)
	rows := strings.Split(strings.TrimSpace(correctRows), "\n")
	for i, node := range nodes {
		fields := strings.Split(rows[i], ",")
		line, _ := ValidateRow(fields)
		if node.Component.Identifier != fields[1] {
			t.Errorf("node %d: expected %s, got %s", i, fields[1], node.Component.Identifier)
		}
		if node.Depth != line.Depth+1 {
			t.Errorf("node %d: expected depth %d, got %d", i, line.Depth+1, node.Depth)
		}
		if node.ImportID != result.ID {
			t.Errorf("node %d: expected import id %s, got %s", i, result.ID, node.ImportID)
		}
	}

	imports, total, _ := svc.Item.ListImports(context.Background(), 1, 20)
	if total != 1 || imports[0].ID != result.ID || imports[0].Format != "csv" {
		t.Errorf("unexpected import history %+v", imports)
	}
}

func TestImportRejectsInvalidFile(t *testing.T) {
	svc, store := newTestServices(t)

	for _, content := range []string{incorrectCSV, correctRows} {
		result, report, err := svc.Import.Import(context.Background(), csvUpload(content))
		if err != nil {
			t.Fatalf("import: %v", err)
		}
		if result != nil || report.Empty() {
			t.Errorf("expected report, got result %+v", result)
		}
	}

	stats, _ := store.Stats(context.Background())
	if stats.Components != 0 || stats.Assemblies != 0 || stats.Imports != 0 {
		t.Errorf("expected nothing persisted, got %+v", stats)
	}
}

func TestImportRollsBackPlacementError(t *testing.T) {
	svc, store := newTestServices(t)
	importCSV(t, svc, csvHeader+"0,X,base,,EA,MTS,1,\n")

	_, report, err := svc.Import.Import(context.Background(), csvUpload(csvHeader+"0,A,a,,EA,MTS,1,\n1,B,b,,EA,MTS,1,\n3,C,c,,EA,MTS,1,\n"))
	if !report.Empty() {
		t.Fatalf("unexpected report %+v", report)
	}
	if !errors.Is(err, ErrDepthJump) || !IsPlacementError(err) {
		t.Fatalf("expected depth jump, got %v", err)
	}

	stats, _ := store.Stats(context.Background())
	if stats.Components != 1 || stats.Assemblies != 1 || stats.Imports != 1 {
		t.Errorf("expected only the first import to remain, got %+v", stats)
	}
}

func TestImportReusesComponents(t *testing.T) {
	svc, store := newTestServices(t)
	importCSV(t, svc, correctCSV)
	second := importCSV(t, svc, correctCSV)

	if second.ComponentsCreated != 0 {
		t.Errorf("expected components to be reused, got %d created", second.ComponentsCreated)
	}
	stats, _ := store.Stats(context.Background())
	if stats.Components != 7 || stats.Assemblies != 14 || stats.Roots != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestValidateDoesNotPersist(t *testing.T) {
	svc, store := newTestServices(t)

	report, err := svc.Import.Validate(context.Background(), csvUpload(correctCSV))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !report.Empty() {
		t.Errorf("expected empty report, got %+v", report)
	}

	report, _ = svc.Import.Validate(context.Background(), csvUpload(incorrectCSV))
	if len(report.Rows) != 4 {
		t.Errorf("expected 4 row errors, got %+v", report.Rows)
	}

	stats, _ := store.Stats(context.Background())
	if stats.Assemblies != 0 {
		t.Errorf("validate must not persist, got %+v", stats)
	}
}

// memArchiver 测试用归档
type memArchiver struct {
	objects map[string][]byte
	failPut bool
}

func (a *memArchiver) Put(ctx context.Context, key string, content []byte, contentType string) error {
	if a.failPut {
		return errors.New("bucket unavailable")
	}
	a.objects[key] = content
	return nil
}

func (a *memArchiver) Remove(ctx context.Context, key string) error {
	delete(a.objects, key)
	return nil
}

func TestImportArchivesSource(t *testing.T) {
	archiver := &memArchiver{objects: make(map[string][]byte)}
	svc := NewServices(repository.NewMemoryStore(), nil, archiver, zap.NewNop())

	result := importCSV(t, svc, correctCSV)
	want := "imports/" + result.ID + "/file.csv"
	if result.ObjectKey != want {
		t.Errorf("expected object key %s, got %s", want, result.ObjectKey)
	}
	if string(archiver.objects[want]) != correctCSV {
		t.Error("expected archived content to match upload")
	}

	_, _, err := svc.Import.Import(context.Background(), csvUpload(csvHeader+"0,A,a,,EA,MTS,1,\n2,B,b,,EA,MTS,1,\n"))
	if err == nil {
		t.Fatal("expected placement error")
	}
	if len(archiver.objects) != 1 {
		t.Errorf("expected rolled back import to be removed from archive, have %d objects", len(archiver.objects))
	}

	archiver.failPut = true
	result = importCSV(t, svc, csvHeader+"0,A,a,,EA,MTS,1,\n")
	if result.ObjectKey != "" {
		t.Errorf("expected empty object key when archive fails, got %s", result.ObjectKey)
	}
}

func TestObjectKey(t *testing.T) {
	tests := map[string]string{
		"bom.csv":          "imports/id/bom.csv",
		"../../etc/passwd": "imports/id/passwd",
		"":                 "imports/id/upload",
	}
	for name, want := range tests {
		if got := objectKey("id", name); got != want {
			t.Errorf("objectKey(%q) = %s, want %s", name, got, want)
		}
	}
}
