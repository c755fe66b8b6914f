package main

import (
	"context"
	"log"

	"doc-chat-be/internal/bootstrap"
	"doc-chat-be/internal/config"
	"doc-chat-be/internal/server"
	"doc-chat-be/internal/tracer"
	"doc-chat-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Recover documents stuck mid-ingestion and rebuild the lexical index
	// before serving any queries.
	if err := container.IngestionService.RecoverStalled(context.Background()); err != nil {
		log.Printf("Warn: Failed to recover stalled documents: %v", err)
	}
	if err := container.IngestionService.RebuildLexicalIndex(context.Background()); err != nil {
		log.Panicf("Unable to rebuild lexical index: %v", err)
	}

	// 5. Start Background Services
	go func() {
		log.Println("Background: Starting Ingestion Consumer...")
		if err := container.IngestionService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	if err := container.NotificationService.Start(); err != nil {
		log.Printf("Warn: Failed to start notification service: %v", err)
	}

	// 6. Initialize and Run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
