package archive

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/wierzcho/ravacan/internal/config"
)

func TestNewNotConfigured(t *testing.T) {
	_, err := New(config.MinIOConfig{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNewDoesNotDial(t *testing.T) {
	a, err := New(config.MinIOConfig{Endpoint: "127.0.0.1:1", Bucket: "bom-imports"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if a.Bucket() != "bom-imports" {
		t.Errorf("unexpected bucket %s", a.Bucket())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Put(ctx, "imports/x/file.csv", []byte("level\n"), "text/csv"); err == nil {
		t.Error("expected put to fail without a server")
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}
	a, err := New(config.MinIOConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		Bucket:    "ravacan-test",
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	if err := a.EnsureBucket(ctx); err != nil {
		t.Fatalf("ensure bucket: %v", err)
	}
	key := "imports/test/" + time.Now().Format("20060102150405") + ".csv"
	if err := a.Put(ctx, key, []byte("level,item_number\n"), "text/csv"); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := a.Get(ctx, key)
	if err != nil || string(got) != "level,item_number\n" {
		t.Fatalf("get: %q %v", got, err)
	}
	if err := a.Remove(ctx, key); err != nil {
		t.Fatalf("remove: %v", err)
	}
}
