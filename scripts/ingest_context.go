package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"cvtailor/internal/config"
	"cvtailor/internal/models"
	"cvtailor/internal/services"
)

// Ingests reference documents (role guides, ATS keyword guidelines) into the
// Qdrant context collection used by the tailoring prompts.
//
// Usage: go run scripts/ingest_context.go <doc_type> <file> [file...]
// where doc_type is role_guide or ats_keywords.
func main() {
	if len(os.Args) < 3 {
		log.Fatalf("usage: %s <role_guide|ats_keywords> <file> [file...]", os.Args[0])
	}

	docType := os.Args[1]
	if docType != "role_guide" && docType != "ats_keywords" {
		log.Fatalf("❌ Unknown doc type %q (want role_guide or ats_keywords)", docType)
	}

	log.Println("🚀 Starting context ingestion...")

	cfg := config.Load()

	completionService, err := services.NewGeminiService(cfg.Gemini, cfg.Worker.RetryInitialDelay)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini: %v", err)
	}

	contextService, err := services.NewContextService(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}

	if err := contextService.InitCollection(); err != nil {
		log.Fatalf("❌ Failed to initialize collection: %v", err)
	}

	textExtractor := services.NewTextExtractorService()
	chunker := services.NewTextChunker()

	ctx := context.Background()
	successCount := 0
	failCount := 0

	for _, path := range os.Args[2:] {
		log.Printf("📄 Processing: %s", path)

		doc := &models.Document{FilePath: path}
		text, err := textExtractor.ExtractDocumentText(doc)
		if err != nil {
			log.Printf("   ❌ Failed to extract text: %v", err)
			failCount++
			continue
		}

		chunks := chunker.ChunkText(text, 1000, 200)
		log.Printf("   ✂️ Created %d chunks", len(chunks))

		docID := fmt.Sprintf("%s_%s", docType, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

		stored := 0
		for i, chunk := range chunks {
			embedding, err := completionService.GenerateEmbedding(ctx, chunk)
			if err != nil {
				log.Printf("   ❌ Failed to embed chunk %d: %v", i+1, err)
				continue
			}

			chunkID := fmt.Sprintf("%s_chunk_%d", docID, i)
			if err := contextService.UpsertChunk(ctx, chunkID, docType, chunk, embedding); err != nil {
				log.Printf("   ❌ Failed to store chunk %d: %v", i+1, err)
				continue
			}
			stored++
		}

		log.Printf("   ✅ Stored %d/%d chunks for %s", stored, len(chunks), path)
		successCount++
	}

	log.Printf("📊 Ingestion finished: %d succeeded, %d failed", successCount, failCount)
	if failCount > 0 {
		os.Exit(1)
	}
}
