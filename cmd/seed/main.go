package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"contactiq-be/internal/config"
	"contactiq-be/internal/entity"
	"contactiq-be/internal/repository/implementation"
	"contactiq-be/pkg/database"
	"contactiq-be/pkg/embedding"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// seedChunk is one entry in the seed file.
type seedChunk struct {
	Domain  string `json:"domain"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

func main() {
	filePath := flag.String("file", "seed/knowledge_chunks.json", "path to the seed JSON file")
	replace := flag.Bool("replace", false, "delete existing chunks per domain before seeding")
	flag.Parse()

	color.Cyan("🚀 Seeding knowledge base from %s\n", *filePath)

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	var embedder embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	} else {
		embedder = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		color.Red("Failed to read seed file: %v", err)
		os.Exit(1)
	}

	var chunks []seedChunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		color.Red("Failed to parse seed file: %v", err)
		os.Exit(1)
	}

	repo := implementation.NewKnowledgeChunkRepository(db)
	ctx := context.Background()

	if *replace {
		seen := map[string]bool{}
		for _, chunk := range chunks {
			if seen[chunk.Domain] {
				continue
			}
			seen[chunk.Domain] = true
			color.Yellow("Clearing domain %s", chunk.Domain)
			if err := repo.DeleteByDomain(ctx, chunk.Domain); err != nil {
				color.Red("Failed to clear domain %s: %v", chunk.Domain, err)
				os.Exit(1)
			}
		}
	}

	inserted := 0
	for _, chunk := range chunks {
		resp, err := embedder.Generate(chunk.Content, "retrieval_document")
		if err != nil {
			color.Red("Failed to embed chunk from %s: %v", chunk.Source, err)
			os.Exit(1)
		}

		err = repo.Create(ctx, &entity.KnowledgeChunk{
			Id:        uuid.New(),
			Domain:    chunk.Domain,
			Content:   chunk.Content,
			Source:    chunk.Source,
			CreatedAt: time.Now(),
		}, resp.Embedding.Values)
		if err != nil {
			color.Red("Failed to insert chunk from %s: %v", chunk.Source, err)
			os.Exit(1)
		}
		inserted++
	}

	color.Green("✅ Seeded %d knowledge chunks", inserted)
}
