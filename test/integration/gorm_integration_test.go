package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.ProjectRepository())
	assert.NotNil(t, uow.ChunkRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Project Repository", func(t *testing.T) {
		count, err := uow.ProjectRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Project count: %d", count)
	})

	t.Run("Check Chunk Repository", func(t *testing.T) {
		count, err := uow.ChunkRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Chunk count: %d", count)
	})

	t.Run("Check Document Lifecycle", func(t *testing.T) {
		ctx := context.Background()

		project := &entity.Project{
			Id:           uuid.New(),
			Name:         "Integration Project " + uuid.New().String(),
			LlmProvider:  "ollama",
			LlmModelName: "llama3",
		}
		err := uow.ProjectRepository().Create(ctx, project)
		assert.NoError(t, err)

		doc := &entity.Document{
			Id:         uuid.New(),
			ProjectId:  project.Id,
			FileName:   "integration.txt",
			StorageKey: project.Id.String() + "/integration.txt",
			Status:     entity.DocumentStatusPending,
		}
		err = uow.DocumentRepository().Create(ctx, doc)
		assert.NoError(t, err)

		// Claim pending -> processing exactly once
		claimed, err := uow.DocumentRepository().CompareAndSetStatus(ctx, doc.Id, entity.DocumentStatusPending, entity.DocumentStatusProcessing)
		assert.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = uow.DocumentRepository().CompareAndSetStatus(ctx, doc.Id, entity.DocumentStatusPending, entity.DocumentStatusProcessing)
		assert.NoError(t, err)
		assert.False(t, claimed, "second claim should lose the CAS")

		err = uow.DocumentRepository().MarkReady(ctx, doc.Id, 3)
		assert.NoError(t, err)

		found, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: doc.Id})
		assert.NoError(t, err)
		assert.Equal(t, entity.DocumentStatusReady, found.Status)
		assert.Equal(t, 3, found.ChunkCount)

		// Cleanup
		err = uow.DocumentRepository().Delete(ctx, doc.Id)
		assert.NoError(t, err)
		err = uow.ProjectRepository().Delete(ctx, project.Id)
		assert.NoError(t, err)
	})
}
