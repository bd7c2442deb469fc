package main

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"dealflow/internal/feed"
	"dealflow/internal/repository"
	"dealflow/internal/service"
	"dealflow/pkg/config"
	"dealflow/pkg/logger"
	"dealflow/pkg/postgres"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// seedFile holds the buyers of a seed document. Its "sources" list is read by
// feed.LoadSourcesFromFile.
type seedFile struct {
	Buyers []seedBuyer `yaml:"buyers"`
}

type seedBuyer struct {
	Name       string   `yaml:"name"`
	Email      string   `yaml:"email"`
	Phone      string   `yaml:"phone"`
	Countries  []string `yaml:"countries"`
	Regions    []string `yaml:"regions"`
	Categories []string `yaml:"categories"`
	BudgetMin  *float64 `yaml:"budget_min"`
	BudgetMax  *float64 `yaml:"budget_max"`
	Notes      string   `yaml:"notes"`
}

// SeededFile records a seed file that was already loaded.
type SeededFile struct {
	FilePath string    `json:"file_path"`
	FileHash string    `json:"file_hash"`
	SeededAt time.Time `json:"seeded_at"`
}

type CacheData struct {
	SeededFiles map[string]SeededFile `json:"seeded_files"` // key: file path
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	seedPath := filepath.Join("cmd", "seed", "seed.yaml")
	if len(os.Args) > 1 {
		seedPath = os.Args[1]
	} else if p := os.Getenv("SEED_FILE"); p != "" {
		seedPath = p
	}
	cacheFile := filepath.Join(filepath.Dir(seedPath), ".seed_cache.json")

	// Connect to database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	registry := service.NewRegistryService(
		repository.NewBuyerRepository(db, appLogger),
		repository.NewSellerRepository(db, appLogger),
		appLogger,
	)
	sources := repository.NewSourceRepository(db, appLogger)

	appLogger.Info("Starting database seeding...", zap.String("file", seedPath))

	if err := seed(ctx, seedPath, cacheFile, registry, sources, appLogger); err != nil {
		appLogger.Fatal("Failed to seed database", zap.Error(err))
	}

	appLogger.Info("Database seeding completed successfully!")
}

func seed(
	ctx context.Context,
	seedPath string,
	cacheFile string,
	registry *service.RegistryService,
	sources *repository.SourceRepository,
	logger *zap.Logger,
) error {
	cache, err := loadCache(cacheFile)
	if err != nil {
		logger.Warn("Failed to load cache, seeding anyway", zap.Error(err))
		cache = &CacheData{SeededFiles: make(map[string]SeededFile)}
	}

	hash, err := calculateFileHash(seedPath)
	if err != nil {
		return err
	}
	if cached, ok := cache.SeededFiles[seedPath]; ok && cached.FileHash == hash {
		logger.Info("Seed file unchanged, skipping",
			zap.String("file", seedPath),
			zap.Time("seeded_at", cached.SeededAt),
		)
		return nil
	}

	doc, err := parseSeedFile(seedPath)
	if err != nil {
		return err
	}
	feedSources, err := feed.LoadSourcesFromFile(seedPath)
	if err != nil {
		return err
	}

	created := 0
	for _, src := range feedSources {
		ok, err := sources.Create(ctx, src)
		if err != nil {
			return err
		}
		if ok {
			created++
		}
	}
	logger.Info("Deal sources seeded", zap.Int("created", created), zap.Int("in_file", len(feedSources)))

	for _, b := range doc.Buyers {
		if _, err := registry.RegisterBuyer(ctx, service.BuyerInput{
			Name:       b.Name,
			Email:      b.Email,
			Phone:      b.Phone,
			Countries:  b.Countries,
			Regions:    b.Regions,
			Categories: b.Categories,
			BudgetMin:  b.BudgetMin,
			BudgetMax:  b.BudgetMax,
			Notes:      b.Notes,
		}); err != nil {
			if service.IsValidation(err) {
				logger.Warn("Skipping buyer", zap.String("email", b.Email), zap.Error(err))
				continue
			}
			return err
		}
	}
	logger.Info("Buyers seeded", zap.Int("count", len(doc.Buyers)))

	cache.SeededFiles[seedPath] = SeededFile{
		FilePath: seedPath,
		FileHash: hash,
		SeededAt: time.Now(),
	}
	if err := saveCache(cacheFile, cache); err != nil {
		logger.Warn("Failed to save cache", zap.Error(err))
	}
	return nil
}

func parseSeedFile(path string) (*seedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var doc seedFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &doc, nil
}

// loadCache loads the cache of seeded files
func loadCache(cacheFile string) (*CacheData, error) {
	cache := &CacheData{
		SeededFiles: make(map[string]SeededFile),
	}

	data, err := os.ReadFile(cacheFile)
	if os.IsNotExist(err) {
		return cache, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(data) == 0 {
		return cache, nil
	}

	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	if cache.SeededFiles == nil {
		cache.SeededFiles = make(map[string]SeededFile)
	}
	return cache, nil
}

func saveCache(cacheFile string, cache *CacheData) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.WriteFile(cacheFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// calculateFileHash calculates MD5 hash of a file
func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
