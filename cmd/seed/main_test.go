package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseSampleSeedFile(t *testing.T) {
	doc, err := parseSeedFile("seed.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Buyers) != 2 {
		t.Fatalf("expected 2 buyers, got %d", len(doc.Buyers))
	}
	first := doc.Buyers[0]
	if first.BudgetMin == nil || *first.BudgetMin != 5000 || len(first.Regions) != 3 {
		t.Fatalf("unexpected buyer: %+v", first)
	}
	if doc.Buyers[1].BudgetMin != nil {
		t.Fatalf("absent budget_min must stay nil")
	}
}

func TestCacheDetectsUnchangedFile(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.yaml")
	cacheFile := filepath.Join(dir, ".seed_cache.json")
	if err := os.WriteFile(seedPath, []byte("buyers: []\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cache, err := loadCache(cacheFile)
	if err != nil || len(cache.SeededFiles) != 0 {
		t.Fatalf("missing cache must load empty: %v", err)
	}

	hash, err := calculateFileHash(seedPath)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	cache.SeededFiles[seedPath] = SeededFile{FilePath: seedPath, FileHash: hash, SeededAt: time.Now()}
	if err := saveCache(cacheFile, cache); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := loadCache(cacheFile)
	if err != nil || reloaded.SeededFiles[seedPath].FileHash != hash {
		t.Fatalf("cache not persisted: %+v %v", reloaded, err)
	}

	if err := os.WriteFile(seedPath, []byte("buyers: [{name: x}]\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	changed, _ := calculateFileHash(seedPath)
	if changed == hash {
		t.Fatalf("hash must change with content")
	}
}
