package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/noodles-app/backend/internal/config"
	"github.com/noodles-app/backend/internal/importer"
	"github.com/noodles-app/backend/internal/logger"
	"github.com/noodles-app/backend/internal/repositories"
	"go.uber.org/zap"
)

func main() {
	var (
		filePath   = flag.String("file", "", "path to the JSON vocabulary file")
		categoryID = flag.String("category", "", "extended category id to import into")
		difficulty = flag.Int("level", 1, "difficulty level for every imported word (1-5)")
		dryRun     = flag.Bool("dry-run", false, "validate and preview without writing")
	)
	flag.Parse()

	if *filePath == "" || *categoryID == "" {
		flag.Usage()
		log.Fatal("both -file and -category are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer zapLogger.Sync()

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		zapLogger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		zapLogger.Fatal("Failed to ping database", zap.Error(err))
	}

	wordRepo := repositories.NewWordRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	im := importer.New(wordRepo, categoryRepo, cfg.Sync.BatchSize, zapLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := im.ImportFile(ctx, *filePath, *categoryID, *difficulty, *dryRun)
	if err != nil {
		zapLogger.Fatal("Import failed", zap.Error(err))
	}

	if result.DryRun {
		fmt.Printf("dry run: %d words would be imported into %q (minLevel %d)\n",
			result.WordCount, result.CategoryID, result.MinLevel)
		for _, w := range result.Preview {
			fmt.Printf("  %s  %s (%s) - %s\n", w.ID, w.Chinese, w.Pinyin, w.English)
		}
		return
	}

	fmt.Printf("imported %d words into %q (minLevel %d)\n",
		result.WordCount, result.CategoryID, result.MinLevel)
}
