package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/pantryplan/backend/config"
	"github.com/pantryplan/backend/internal/database"
	"github.com/pantryplan/backend/internal/model"
	"github.com/pantryplan/backend/internal/service"
	"github.com/pantryplan/backend/pkg/logger"
)

type seedRecipe struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Servings     *int               `json:"servings"`
	TotalMinutes *int               `json:"total_minutes"`
	Cuisine      string             `json:"cuisine"`
	Tags         []string           `json:"tags"`
	Ingredients  []model.Ingredient `json:"ingredients"`
	Steps        []string           `json:"steps"`
}

func main() {
	var (
		file      = flag.String("file", "", "path to a JSON file of recipes to import")
		backfill  = flag.Bool("backfill", false, "embed corpus recipes that are missing or behind the current embedding version")
		batchSize = flag.Int("batch-size", 50, "number of recipes to embed per backfill batch")
	)
	flag.Parse()

	if *file == "" && !*backfill {
		log.Fatal("nothing to do: pass -file and/or -backfill")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.App.LogLevel, Format: cfg.App.LogFormat})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.New(cfg.Database, zapLogger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	redisClient, err := database.NewRedisClient(cfg.Redis, zapLogger)
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}

	embedder := service.NewEmbeddingService(cfg.Embedding, redisClient, zapLogger)
	recipes := service.NewRecipeService(db, embedder, zapLogger)
	ctx := context.Background()

	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("failed to read %s: %v", *file, err)
		}

		var seeds []seedRecipe
		if err := json.Unmarshal(data, &seeds); err != nil {
			log.Fatalf("failed to parse %s: %v", *file, err)
		}

		imported := 0
		for _, seed := range seeds {
			recipe := &model.Recipe{
				Title:        seed.Title,
				Description:  seed.Description,
				Servings:     seed.Servings,
				TotalMinutes: seed.TotalMinutes,
				Cuisine:      seed.Cuisine,
				Tags:         seed.Tags,
				Ingredients:  seed.Ingredients,
				Source:       model.SourceManual,
			}
			for i, text := range seed.Steps {
				recipe.Steps = append(recipe.Steps, model.Step{Number: i + 1, Text: text})
			}

			if _, err := recipes.CreateRecipe(ctx, recipe); err != nil {
				log.Printf("failed to import %q: %v", seed.Title, err)
				continue
			}
			imported++
		}
		log.Printf("imported %d of %d recipes", imported, len(seeds))
	}

	if *backfill {
		embedded, err := recipes.BackfillEmbeddings(ctx, *batchSize)
		if err != nil {
			log.Fatalf("embedding backfill failed: %v", err)
		}
		log.Printf("backfilled embeddings for %d recipes", embedded)
	}
}
