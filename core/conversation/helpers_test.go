package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/palmistry/core/conversation"
	"github.com/dmitrymomot/palmistry/pkg/llm"
)

const (
	ownerID    = "user-owner"
	strangerID = "user-stranger"
	validQ     = "What does my heart line mean about my relationships?"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(llm.Completion), args.Error(1)
}

type mockFiles struct {
	mock.Mock
}

func (m *mockFiles) Upload(ctx context.Context, name string, data []byte) (string, error) {
	args := m.Called(ctx, name, data)
	return args.String(0), args.Error(1)
}

func (m *mockFiles) Validate(ctx context.Context, ids []string) (map[string]bool, error) {
	args := m.Called(ctx, ids)
	v, _ := args.Get(0).(map[string]bool)
	return v, args.Error(1)
}

type memoryImages struct {
	mu    sync.Mutex
	blobs map[string][]byte
	gets  int
}

func (s *memoryImages) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	b, ok := s.blobs[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return b, nil
}

func answer(text string) llm.Completion {
	return llm.Completion{Text: text, PromptTokens: 400, CompletionTokens: 100, TotalTokens: 500}
}

type fixture struct {
	repo *conversation.MemoryRepository
	llm  *mockCompleter
	svc  *conversation.Service
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("id-%04d", n.Add(1))
	}
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func newFixture(t *testing.T, opts ...conversation.Option) *fixture {
	t.Helper()

	repo := conversation.NewMemoryRepository()
	repo.PutAnalysis(conversation.Analysis{
		ID:      "analysis-done",
		UserID:  ownerID,
		Status:  conversation.AnalysisCompleted,
		Summary: "Long, deeply curved heart line; strong head line.",
		Report:  "The heart line starts under the index finger.",
	})
	repo.PutAnalysis(conversation.Analysis{
		ID:     "analysis-pending",
		UserID: ownerID,
		Status: conversation.AnalysisProcessing,
	})

	completer := &mockCompleter{}
	base := []conversation.Option{
		conversation.WithIDGenerator(sequentialIDs()),
		conversation.WithClock(fixedClock()),
	}
	svc := conversation.NewService(repo, completer, append(base, opts...)...)
	return &fixture{repo: repo, llm: completer, svc: svc}
}
