package conversation

import (
	"context"
	"slices"
	"sync"
)

// MemoryRepository is an in-process Repository for tests and local runs.
type MemoryRepository struct {
	mu            sync.Mutex
	analyses      map[string]Analysis
	conversations map[string]Conversation
	byAnalysis    map[string]string
	messages      map[string][]Message
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		analyses:      make(map[string]Analysis),
		conversations: make(map[string]Conversation),
		byAnalysis:    make(map[string]string),
		messages:      make(map[string][]Message),
	}
}

// PutAnalysis inserts or replaces an analysis.
func (r *MemoryRepository) PutAnalysis(a Analysis) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ImageKeys = slices.Clone(a.ImageKeys)
	r.analyses[a.ID] = a
}

func (r *MemoryRepository) GetAnalysis(_ context.Context, id string) (Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.analyses[id]
	if !ok {
		return Analysis{}, ErrAnalysisNotFound
	}
	a.ImageKeys = slices.Clone(a.ImageKeys)
	return a, nil
}

func (r *MemoryRepository) GetConversation(_ context.Context, id string) (Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return Conversation{}, ErrConversationNotFound
	}
	return cloneConversation(c), nil
}

func (r *MemoryRepository) GetConversationByAnalysis(_ context.Context, analysisID string) (Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byAnalysis[analysisID]
	if !ok {
		return Conversation{}, ErrConversationNotFound
	}
	return cloneConversation(r.conversations[id]), nil
}

func (r *MemoryRepository) CreateConversation(_ context.Context, c Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byAnalysis[c.AnalysisID]; ok {
		return ErrConversationExists
	}
	r.conversations[c.ID] = cloneConversation(c)
	r.byAnalysis[c.AnalysisID] = c.ID
	return nil
}

func (r *MemoryRepository) UpdateFiles(_ context.Context, conversationID string, files []FileRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return ErrConversationNotFound
	}
	c.Files = slices.Clone(files)
	r.conversations[conversationID] = c
	return nil
}

func (r *MemoryRepository) ListMessages(_ context.Context, conversationID string, limit int) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return slices.Clone(msgs), nil
}

func (r *MemoryRepository) RecordExchange(_ context.Context, conversationID string, question, answer Message) (Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return Conversation{}, ErrConversationNotFound
	}
	if c.QuestionsAsked >= c.MaxQuestions {
		return Conversation{}, ErrBudgetExhausted
	}
	c.QuestionsAsked++
	c.LastMessageAt = answer.CreatedAt
	r.conversations[conversationID] = c
	r.messages[conversationID] = append(r.messages[conversationID], question, answer)
	return cloneConversation(c), nil
}

func cloneConversation(c Conversation) Conversation {
	c.Files = slices.Clone(c.Files)
	return c
}
