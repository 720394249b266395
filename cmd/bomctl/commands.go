package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wierzcho/ravacan/internal/bom/archive"
	"github.com/wierzcho/ravacan/internal/bom/entity"
	"github.com/wierzcho/ravacan/internal/bom/repository"
	"github.com/wierzcho/ravacan/internal/bom/service"
)

var errInvalidFile = errors.New("file has validation errors")

func readUpload(path, charset string) (*service.Upload, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &service.Upload{FileName: filepath.Base(path), Content: content, Charset: charset}, nil
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type ValidateCmd struct {
	File    string `arg:"" type:"existingfile" help:"CSV or XLSX file."`
	Charset string `help:"CSV charset (utf-8 or gbk)." default:"utf-8"`
}

func (r *ValidateCmd) Run(app *App) error {
	upload, err := readUpload(r.File, r.Charset)
	if err != nil {
		return err
	}
	svc := app.Services(repository.NewMemoryStore(), nil)
	report, err := svc.Import.Validate(context.Background(), upload)
	if err != nil {
		return err
	}
	if report.Empty() {
		fmt.Fprintf(app.Out, "%s: ok\n", upload.FileName)
		return nil
	}
	if err := app.printJSON(report); err != nil {
		return err
	}
	return errInvalidFile
}

type ImportCmd struct {
	File    string `arg:"" type:"existingfile" help:"CSV or XLSX file."`
	Charset string `help:"CSV charset (utf-8 or gbk)." default:"utf-8"`
	DryRun  bool   `help:"Build the tree in memory without touching the database." name:"dry-run"`
	Show    bool   `help:"Print the imported trees."`
}

func (r *ImportCmd) Run(app *App) error {
	ctx := context.Background()
	upload, err := readUpload(r.File, r.Charset)
	if err != nil {
		return err
	}

	var (
		store    repository.Store
		archiver service.Archiver
	)
	if r.DryRun {
		store = repository.NewMemoryStore()
	} else {
		if store, err = app.Store(); err != nil {
			return err
		}
		archiver = app.Archive(ctx)
	}

	svc := app.Services(store, archiver)
	result, report, err := svc.Import.Import(ctx, upload)
	if err != nil {
		return err
	}
	if !report.Empty() {
		if err := app.printJSON(report); err != nil {
			return err
		}
		return errInvalidFile
	}
	if err := app.printJSON(result); err != nil {
		return err
	}

	if r.Show {
		for _, id := range result.RootIDs {
			if err := showTree(ctx, app, store, id); err != nil {
				return err
			}
		}
	}
	return nil
}

type ShowCmd struct {
	ID   string `arg:"" optional:"" help:"Node id; omit to print every BOM."`
	JSON bool   `help:"Print the dump as JSON instead of a tree." name:"json"`
}

func (r *ShowCmd) Run(app *App) error {
	ctx := context.Background()
	store, err := app.Store()
	if err != nil {
		return err
	}
	svc := app.Services(store, nil)

	if r.JSON {
		if r.ID == "" {
			forest, err := svc.Item.GetForest(ctx, true)
			if err != nil {
				return err
			}
			return app.printJSON(forest)
		}
		tree, err := svc.Item.GetItemTree(ctx, r.ID)
		if err != nil {
			return err
		}
		return app.printJSON(tree)
	}
	return showTree(ctx, app, store, r.ID)
}

// showTree 打印 id 对应的子树，id 为空时打印整片森林
func showTree(ctx context.Context, app *App, store repository.Store, id string) error {
	var root *entity.Assembly
	if id != "" {
		node, err := store.FindNode(ctx, id)
		if err != nil {
			return fmt.Errorf("node %s: %w", id, err)
		}
		root = node
	}
	dump, err := service.NewTreeDumper().Dump(ctx, store, root, true)
	if err != nil {
		return err
	}
	return renderDump(app.Out, dump)
}

type ExportCmd struct {
	ID     string `arg:"" help:"Node id."`
	Output string `help:"Output file; defaults to BOM_<item_number>.xlsx." short:"o" type:"path"`
}

func (r *ExportCmd) Run(app *App) error {
	store, err := app.Store()
	if err != nil {
		return err
	}
	f, filename, err := app.Services(store, nil).Item.ExportItem(context.Background(), r.ID)
	if err != nil {
		return err
	}
	defer f.Close()

	out := r.Output
	if out == "" {
		out = filename
	}
	if err := f.SaveAs(out); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "written %s\n", out)
	return nil
}

type TemplateCmd struct {
	Output string `help:"Output file." short:"o" type:"path" default:"BOM_template.xlsx"`
}

func (r *TemplateCmd) Run(app *App) error {
	f, err := service.Template()
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(r.Output); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "written %s\n", r.Output)
	return nil
}

type SourceCmd struct {
	Key    string `arg:"" help:"Object key from the import record."`
	Output string `help:"Output file; defaults to stdout." short:"o" type:"path"`
}

func (r *SourceCmd) Run(app *App) error {
	arc, err := archive.New(app.Config.MinIO)
	if err != nil {
		return err
	}
	content, err := arc.Get(context.Background(), r.Key)
	if err != nil {
		return err
	}
	if r.Output == "" {
		_, err = app.Out.Write(content)
		return err
	}
	return os.WriteFile(r.Output, content, 0o644)
}

type VersionCmd struct{}

func (r *VersionCmd) Run(app *App) error {
	fmt.Fprintf(app.Out, "bomctl %s (built %s)\n", Version, BuildTime)
	return nil
}
