package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/pkg/apperrors"
	"doc-chat-be/pkg/llm"
	"doc-chat-be/pkg/rag/answer"
	"doc-chat-be/pkg/retriever"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

type IChatService interface {
	CreateSession(ctx context.Context, request *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	GetAllSessions(ctx context.Context, projectId uuid.UUID) ([]*dto.SessionResponse, error)
	GetChatHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.ChatHistoryResponse, error)

	// SendChat answers a question in a session. Fragments reach the sink as
	// they stream from the model; the returned response carries the full
	// answer and its citations.
	SendChat(ctx context.Context, request *dto.SendChatRequest, sink answer.Sink) (*dto.SendChatResponse, error)
}

type chatService struct {
	uowFactory    unitofwork.RepositoryFactory
	retriever     *retriever.HybridRetriever
	synthesizer   *answer.Synthesizer
	queryCache    IQueryCacheService
	providerCache *gocache.Cache
	logger        logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	hybridRetriever *retriever.HybridRetriever,
	synthesizer *answer.Synthesizer,
	queryCache IQueryCacheService,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:    uowFactory,
		retriever:     hybridRetriever,
		synthesizer:   synthesizer,
		queryCache:    queryCache,
		providerCache: gocache.New(5*time.Minute, 10*time.Minute),
		logger:        log,
	}
}

func (s *chatService) CreateSession(ctx context.Context, request *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: request.ProjectId})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "project not found")
	}

	session := &entity.ChatSession{
		Id:        uuid.New(),
		ProjectId: request.ProjectId,
		Title:     "New chat",
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	return &dto.SessionResponse{
		Id:        session.Id,
		ProjectId: session.ProjectId,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
	}, nil
}

func (s *chatService) GetAllSessions(ctx context.Context, projectId uuid.UUID) ([]*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.ByProject{ProjectID: projectId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.SessionResponse, len(sessions))
	for i, session := range sessions {
		responses[i] = &dto.SessionResponse{
			Id:        session.Id,
			ProjectId: session.ProjectId,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
		}
	}
	return responses, nil
}

func (s *chatService) GetChatHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.ChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySession{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ChatHistoryResponse, len(messages))
	for i, msg := range messages {
		item := &dto.ChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		}
		if msg.Role == "assistant" {
			citations, err := uow.ChatCitationRepository().FindAll(ctx, specification.ByMessage{MessageID: msg.Id})
			if err != nil {
				return nil, err
			}
			for _, c := range citations {
				item.Citations = append(item.Citations, dto.CitationResponse{
					Marker:        c.Marker,
					ChunkId:       c.ChunkId,
					DocumentId:    c.DocumentId,
					SequenceIndex: c.SequenceIndex,
				})
			}
		}
		responses[i] = item
	}
	return responses, nil
}

func (s *chatService) SendChat(ctx context.Context, request *dto.SendChatRequest, sink answer.Sink) (*dto.SendChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: request.SessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "chat session not found")
	}

	if cached, hit := s.queryCache.Get(ctx, session.ProjectId, request.Question); hit {
		if err := sink(cached.Answer); err != nil {
			return nil, err
		}
		// A cached answer is still a completed turn: it must show up in the
		// session history and feed the prompt history of later questions.
		if err := s.persistTurn(ctx, uow, session, request.Question, answerFromCache(cached)); err != nil {
			return nil, err
		}
		return cached, nil
	}

	selection, err := s.providerSelection(ctx, uow, session.ProjectId)
	if err != nil {
		return nil, err
	}

	candidates, err := s.retriever.Retrieve(ctx, session.ProjectId, request.Question)
	if err != nil {
		if !errors.Is(err, apperrors.ErrRetrieval) {
			return nil, err
		}
		// No ready documents to search. Recoverable: answer anyway with zero
		// sources so the model emits its low-confidence caveat.
		s.logger.Warn("ChatService", "Answering without retrieval context", map[string]interface{}{
			"project_id": session.ProjectId, "error": err.Error(),
		})
		candidates = nil
	}

	sources, err := s.loadSources(ctx, uow, candidates)
	if err != nil {
		return nil, err
	}

	history, err := s.loadHistory(ctx, uow, session.Id)
	if err != nil {
		return nil, err
	}

	result, err := s.synthesizer.Synthesize(ctx, selection, request.Question, history, sources, sink)
	if err != nil {
		return nil, err
	}

	if err := s.persistTurn(ctx, uow, session, request.Question, result); err != nil {
		return nil, err
	}

	response := &dto.SendChatResponse{
		Answer:    result.Text,
		Citations: make([]dto.CitationResponse, len(result.Citations)),
	}
	for i, c := range result.Citations {
		response.Citations[i] = dto.CitationResponse{
			Marker:        c.Marker,
			ChunkId:       c.ChunkID,
			DocumentId:    c.DocumentID,
			SequenceIndex: c.SequenceIndex,
		}
	}

	s.queryCache.Set(ctx, session.ProjectId, request.Question, response)
	return response, nil
}

func answerFromCache(cached *dto.SendChatResponse) answer.Answer {
	result := answer.Answer{
		Text:      cached.Answer,
		Citations: make([]answer.Citation, len(cached.Citations)),
	}
	for i, c := range cached.Citations {
		result.Citations[i] = answer.Citation{
			Marker:        c.Marker,
			ChunkID:       c.ChunkId,
			DocumentID:    c.DocumentId,
			SequenceIndex: c.SequenceIndex,
		}
	}
	return result
}

// providerSelection resolves the project's configured backend, cached
// briefly so every chat turn doesn't hit the projects table.
func (s *chatService) providerSelection(ctx context.Context, uow unitofwork.UnitOfWork, projectId uuid.UUID) (llm.Selection, error) {
	if cached, found := s.providerCache.Get(projectId.String()); found {
		return cached.(llm.Selection), nil
	}

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: projectId})
	if err != nil {
		return llm.Selection{}, err
	}
	if project == nil {
		return llm.Selection{}, fiber.NewError(fiber.StatusNotFound, "project not found")
	}

	selection := llm.Selection{Provider: project.LlmProvider, Model: project.LlmModelName}
	s.providerCache.Set(projectId.String(), selection, gocache.DefaultExpiration)
	return selection, nil
}

func (s *chatService) loadSources(ctx context.Context, uow unitofwork.UnitOfWork, candidates []retriever.Candidate) ([]answer.Source, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ChunkID
	}

	chunks, err := uow.ChunkRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, err
	}
	byId := make(map[uuid.UUID]*entity.Chunk, len(chunks))
	for _, chunk := range chunks {
		byId[chunk.Id] = chunk
	}

	// Markers follow fused relevance order: S1 is the best candidate.
	var sources []answer.Source
	for _, candidate := range candidates {
		chunk, ok := byId[candidate.ChunkID]
		if !ok {
			continue
		}
		sources = append(sources, answer.Source{
			Marker:        fmt.Sprintf("S%d", len(sources)+1),
			ChunkID:       chunk.Id,
			DocumentID:    chunk.DocumentId,
			SequenceIndex: chunk.SequenceIndex,
			Text:          chunk.Content,
		})
	}
	return sources, nil
}

func (s *chatService) loadHistory(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) ([]llm.Message, error) {
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySession{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	history := make([]llm.Message, len(messages))
	for i, msg := range messages {
		history[i] = llm.Message{Role: msg.Role, Content: msg.Content}
	}
	return history, nil
}

func (s *chatService) persistTurn(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.ChatSession, question string, result answer.Answer) error {
	userMessage := &entity.ChatMessage{
		Id:        uuid.New(),
		SessionId: session.Id,
		Role:      "user",
		Content:   question,
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMessage); err != nil {
		return err
	}

	assistantMessage := &entity.ChatMessage{
		Id:        uuid.New(),
		SessionId: session.Id,
		Role:      "assistant",
		Content:   result.Text,
	}
	if err := uow.ChatMessageRepository().Create(ctx, assistantMessage); err != nil {
		return err
	}

	citations := make([]*entity.ChatCitation, len(result.Citations))
	for i, c := range result.Citations {
		citations[i] = &entity.ChatCitation{
			Id:            uuid.New(),
			MessageId:     assistantMessage.Id,
			ChunkId:       c.ChunkID,
			DocumentId:    c.DocumentID,
			Marker:        c.Marker,
			SequenceIndex: c.SequenceIndex,
		}
	}
	if err := uow.ChatCitationRepository().CreateBulk(ctx, citations); err != nil {
		return err
	}

	// First question titles the session.
	if session.Title == "" || session.Title == "New chat" {
		title := question
		if len([]rune(title)) > 80 {
			title = string([]rune(title)[:80])
		}
		session.Title = title
		if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
			s.logger.Warn("ChatService", "Failed to update session title", map[string]interface{}{
				"session_id": session.Id, "error": err.Error(),
			})
		}
	}
	return nil
}
