package blob

import (
	"context"
	"strings"
	"testing"

	appcfg "github.com/fdg312/mealcart/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return zap.New(core), logs
}

func TestNewBlobStoreLocalForced(t *testing.T) {
	logger, logs := observedLogger()

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: appcfg.BlobModeLocal}, logger)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeLocal {
		t.Fatalf("expected mode=local, got %s", mode)
	}
	if store != nil {
		t.Fatal("expected nil store in local mode")
	}
	if logs.FilterField(zap.String("reason", "forced")).Len() != 1 {
		t.Fatalf("expected forced local log, got %v", logs.All())
	}
}

func TestNewBlobStoreAutoEmptyS3FallsBackToLocal(t *testing.T) {
	logger, logs := observedLogger()

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: appcfg.BlobModeAuto}, logger)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeLocal {
		t.Fatalf("expected mode=local fallback, got %s", mode)
	}
	if store != nil {
		t.Fatal("expected nil store on auto fallback")
	}
	if logs.FilterField(zap.String("code", "s3_not_configured")).Len() != 1 {
		t.Fatalf("expected s3_not_configured diagnostics, got %v", logs.All())
	}
}

func TestNewBlobStoreS3ForcedRequiresConfig(t *testing.T) {
	logger, _ := observedLogger()

	_, _, err := NewBlobStore(context.Background(), appcfg.BlobConfig{
		Mode: appcfg.BlobModeS3,
		S3:   appcfg.S3Config{Endpoint: "https://storage.example.com", Region: "eu-1"},
	}, logger)
	if err == nil {
		t.Fatal("expected error for incomplete S3 config")
	}
	for _, key := range []string{"S3_BUCKET", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in error, got %v", key, err)
		}
	}
}

func TestNewBlobStoreS3Forced(t *testing.T) {
	logger, _ := observedLogger()

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{
		Mode: appcfg.BlobModeS3,
		S3: appcfg.S3Config{
			Endpoint:        "https://storage.example.com",
			Region:          "eu-1",
			Bucket:          "exports",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
		},
	}, logger)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeS3 || store == nil {
		t.Fatalf("expected s3 store, got mode=%s store=%v", mode, store)
	}
}

func TestS3StorePrefersPublicURL(t *testing.T) {
	store, err := NewS3Store(context.Background(), S3Options{
		Endpoint:        "https://storage.example.com",
		Bucket:          "exports",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		PublicBaseURL:   "https://cdn.example.com/",
		PreferPublicURL: true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	url, err := store.PresignGet(context.Background(), "a/b.pdf", 60)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if url != "https://cdn.example.com/a/b.pdf" {
		t.Fatalf("unexpected url %s", url)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	if _, err := m.PutObject(ctx, "k", []byte("data"), "text/plain"); err != nil {
		t.Fatalf("put: %v", err)
	}
	url, err := m.PresignGet(ctx, "k", 60)
	if err != nil || url != "memory://k" {
		t.Fatalf("presign: %s %v", url, err)
	}
	data, err := m.GetObject(ctx, "k")
	if err != nil || string(data) != "data" {
		t.Fatalf("get: %q %v", data, err)
	}
	if err := m.DeleteObject(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.GetObject(ctx, "k"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
