package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "DB_DRIVER", "REORDER_ITEM_DELAY", "REORDER_MAX_RETRIES", "CORS_ORIGINS", "BLOB_BUCKET", "BLOB_MODE"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	if cfg.HTTPAddr != ":8080" || cfg.DBDriver != "postgres" {
		t.Fatalf("defaults: addr=%q driver=%q", cfg.HTTPAddr, cfg.DBDriver)
	}
	if cfg.Reorder.ItemDelay != 500*time.Millisecond || cfg.Reorder.MaxRetries != 3 {
		t.Fatalf("reorder defaults: %+v", cfg.Reorder)
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Fatalf("cors: %v", cfg.CORSOrigins)
	}
	if blobMode(cfg) != BlobModeMemory {
		t.Fatalf("blob mode: %q", blobMode(cfg))
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("REORDER_ITEM_DELAY", "250ms")
	t.Setenv("REORDER_BACKOFF_BASE", "1s")
	t.Setenv("REORDER_MAX_RETRIES", "5")
	t.Setenv("STORE_WRITE_RPS", "40")
	t.Setenv("CORS_ORIGINS", "https://audits.example.com, https://admin.example.com")
	t.Setenv("BLOB_BUCKET", "evidence")
	t.Setenv("BLOB_MODE", "")

	cfg := LoadConfig()
	if cfg.DBDriver != "sqlite" || cfg.StoreWriteRPS != 40 {
		t.Fatalf("cfg: %+v", cfg)
	}
	if cfg.Reorder.ItemDelay != 250*time.Millisecond || cfg.Reorder.BackoffBase != time.Second || cfg.Reorder.MaxRetries != 5 {
		t.Fatalf("reorder: %+v", cfg.Reorder)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.example.com" {
		t.Fatalf("cors: %v", cfg.CORSOrigins)
	}
	if blobMode(cfg) != BlobModeGCS {
		t.Fatalf("blob mode: %q", blobMode(cfg))
	}
}
