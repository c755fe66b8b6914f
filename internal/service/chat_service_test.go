package service

import (
	"context"
	"strings"
	"testing"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/repository/contract"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/pkg/lexical"
	"doc-chat-be/pkg/llm"
	"doc-chat-be/pkg/rag/answer"
	"doc-chat-be/pkg/retriever"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type stubSessionRepo struct {
	session *entity.ChatSession
	updated *entity.ChatSession
}

func (r *stubSessionRepo) Create(ctx context.Context, session *entity.ChatSession) error {
	return nil
}
func (r *stubSessionRepo) Update(ctx context.Context, session *entity.ChatSession) error {
	r.updated = session
	return nil
}
func (r *stubSessionRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (r *stubSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	return r.session, nil
}
func (r *stubSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	return nil, nil
}

type stubMessageRepo struct {
	created []*entity.ChatMessage
}

func (r *stubMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.created = append(r.created, message)
	return nil
}
func (r *stubMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	return r.created, nil
}

type stubCitationRepo struct {
	created []*entity.ChatCitation
}

func (r *stubCitationRepo) CreateBulk(ctx context.Context, citations []*entity.ChatCitation) error {
	r.created = append(r.created, citations...)
	return nil
}
func (r *stubCitationRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatCitation, error) {
	return nil, nil
}

type stubProjectRepo struct {
	project *entity.Project
}

func (r *stubProjectRepo) Create(ctx context.Context, project *entity.Project) error { return nil }
func (r *stubProjectRepo) Update(ctx context.Context, project *entity.Project) error { return nil }
func (r *stubProjectRepo) Delete(ctx context.Context, id uuid.UUID) error            { return nil }
func (r *stubProjectRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Project, error) {
	return r.project, nil
}
func (r *stubProjectRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Project, error) {
	return nil, nil
}
func (r *stubProjectRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

type stubChunkRepo struct {
	chunks []*entity.Chunk
}

func (r *stubChunkRepo) UpsertBulk(ctx context.Context, chunks []*entity.Chunk) error { return nil }
func (r *stubChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return nil
}
func (r *stubChunkRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chunk, error) {
	return nil, nil
}
func (r *stubChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error) {
	return r.chunks, nil
}
func (r *stubChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.chunks)), nil
}
func (r *stubChunkRepo) SearchSimilarWithScore(ctx context.Context, projectId uuid.UUID, embedding []float32, limit int) ([]*contract.ScoredChunk, error) {
	return nil, nil
}

type fakeUow struct {
	sessions  *stubSessionRepo
	messages  *stubMessageRepo
	citations *stubCitationRepo
	projects  *stubProjectRepo
	chunks    *stubChunkRepo
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) ProjectRepository() contract.ProjectRepository   { return u.projects }
func (u *fakeUow) DocumentRepository() contract.DocumentRepository { return nil }
func (u *fakeUow) ChunkRepository() contract.ChunkRepository       { return u.chunks }
func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return u.sessions
}
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return u.messages
}
func (u *fakeUow) ChatCitationRepository() contract.ChatCitationRepository {
	return u.citations
}

type fakeUowFactory struct {
	uow *fakeUow
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type stubVectorSearcher struct {
	ready       int64
	searchCalls int
}

func (s *stubVectorSearcher) SearchSimilar(ctx context.Context, projectID uuid.UUID, vector []float32, topK int) ([]retriever.VectorHit, error) {
	s.searchCalls++
	return nil, nil
}
func (s *stubVectorSearcher) CountReady(ctx context.Context, projectID uuid.UUID) (int64, error) {
	return s.ready, nil
}

type stubEmbedder struct{}

func (stubEmbedder) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type scriptedProvider struct {
	fragments   []string
	lastHistory []llm.Message
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return strings.Join(p.fragments, ""), nil
}

func (p *scriptedProvider) StreamChat(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan llm.Fragment, error) {
	p.lastHistory = history
	ch := make(chan llm.Fragment, len(p.fragments))
	for _, f := range p.fragments {
		ch <- llm.Fragment{Content: f}
	}
	close(ch)
	return ch, nil
}

type stubQueryCache struct {
	cached *dto.SendChatResponse
	stored *dto.SendChatResponse
}

func (c *stubQueryCache) Get(ctx context.Context, projectId uuid.UUID, question string) (*dto.SendChatResponse, bool) {
	if c.cached == nil {
		return nil, false
	}
	return c.cached, true
}
func (c *stubQueryCache) Set(ctx context.Context, projectId uuid.UUID, question string, response *dto.SendChatResponse) {
	c.stored = response
}
func (c *stubQueryCache) InvalidateProject(ctx context.Context, projectId uuid.UUID) {}

type chatServiceFixture struct {
	service  IChatService
	uow      *fakeUow
	vector   *stubVectorSearcher
	provider *scriptedProvider
	cache    *stubQueryCache
	session  *entity.ChatSession
}

func newChatServiceFixture(t *testing.T, readyDocs int64, fragments []string) *chatServiceFixture {
	t.Helper()

	projectId := uuid.New()
	session := &entity.ChatSession{
		Id:        uuid.New(),
		ProjectId: projectId,
		Title:     "New chat",
	}
	uow := &fakeUow{
		sessions:  &stubSessionRepo{session: session},
		messages:  &stubMessageRepo{},
		citations: &stubCitationRepo{},
		projects: &stubProjectRepo{project: &entity.Project{
			Id:           projectId,
			Name:         "docs",
			LlmProvider:  "ollama",
			LlmModelName: "llama3",
		}},
		chunks: &stubChunkRepo{},
	}

	vector := &stubVectorSearcher{ready: readyDocs}
	hybrid := retriever.NewHybridRetriever(stubEmbedder{}, vector, lexical.NewIndex(), retriever.DefaultConfig())

	provider := &scriptedProvider{fragments: fragments}
	router := llm.NewRouter(func(providerType, model string) (llm.LLMProvider, error) {
		return provider, nil
	})
	synthesizer := answer.NewSynthesizer(router, 6)

	cache := &stubQueryCache{}
	svc := NewChatService(&fakeUowFactory{uow: uow}, hybrid, synthesizer, cache, nopLogger{})

	return &chatServiceFixture{
		service:  svc,
		uow:      uow,
		vector:   vector,
		provider: provider,
		cache:    cache,
		session:  session,
	}
}

func TestSendChatAnswersWithCaveatWhenNoReadyDocuments(t *testing.T) {
	fx := newChatServiceFixture(t, 0, []string{"No relevant documents were found. ", "General answer."})

	var streamed []string
	res, err := fx.service.SendChat(context.Background(), &dto.SendChatRequest{
		SessionId: fx.session.Id,
		Question:  "what is chunk overlap?",
	}, func(fragment string) error {
		streamed = append(streamed, fragment)
		return nil
	})

	require.NoError(t, err, "a project without ready documents must still get an answer")
	assert.Equal(t, "No relevant documents were found. General answer.", res.Answer)
	assert.Empty(t, res.Citations)
	assert.Equal(t, []string{"No relevant documents were found. ", "General answer."}, streamed)

	// The model was invoked under the explicit no-context instruction.
	require.NotEmpty(t, fx.provider.lastHistory)
	finalPrompt := fx.provider.lastHistory[len(fx.provider.lastHistory)-1].Content
	assert.Contains(t, finalPrompt, "No supporting documents were found")

	// The caveat answer is still a completed turn.
	require.Len(t, fx.uow.messages.created, 2)
	assert.Equal(t, "user", fx.uow.messages.created[0].Role)
	assert.Equal(t, "assistant", fx.uow.messages.created[1].Role)
}

func TestSendChatCacheHitStillRecordsTurn(t *testing.T) {
	fx := newChatServiceFixture(t, 1, nil)
	chunkId := uuid.New()
	documentId := uuid.New()
	fx.cache.cached = &dto.SendChatResponse{
		Answer: "Chunk overlap repeats trailing text [S1].",
		Citations: []dto.CitationResponse{
			{Marker: "S1", ChunkId: chunkId, DocumentId: documentId, SequenceIndex: 2},
		},
		Cached: true,
	}

	var streamed []string
	res, err := fx.service.SendChat(context.Background(), &dto.SendChatRequest{
		SessionId: fx.session.Id,
		Question:  "what is chunk overlap?",
	}, func(fragment string) error {
		streamed = append(streamed, fragment)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, fx.cache.cached, res)
	assert.Equal(t, []string{"Chunk overlap repeats trailing text [S1]."}, streamed)
	assert.Zero(t, fx.vector.searchCalls, "cache hit must not re-run retrieval")

	// The cached answer counts as a completed turn: both messages and the
	// citations land in the session history.
	require.Len(t, fx.uow.messages.created, 2)
	assert.Equal(t, "what is chunk overlap?", fx.uow.messages.created[0].Content)
	assert.Equal(t, "assistant", fx.uow.messages.created[1].Role)
	assert.Equal(t, fx.cache.cached.Answer, fx.uow.messages.created[1].Content)

	require.Len(t, fx.uow.citations.created, 1)
	citation := fx.uow.citations.created[0]
	assert.Equal(t, fx.uow.messages.created[1].Id, citation.MessageId)
	assert.Equal(t, "S1", citation.Marker)
	assert.Equal(t, chunkId, citation.ChunkId)
	assert.Equal(t, documentId, citation.DocumentId)
	assert.Equal(t, 2, citation.SequenceIndex)
}
