package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swasthya-ai/backend/internal/model/chat"
)

var (
	ErrLanguageRequired = errors.New("language code is required")
	ErrSessionNotFound  = errors.New("session not found")
	ErrTurnInFlight     = errors.New("a turn is already in progress for this session")
)

// Service holds conversation state in memory. Transcripts are append-only
// and vanish when the process exits; nothing here touches durable storage.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
	busy     map[string]bool
}

// NewService bootstraps the in-memory conversation store.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
		busy:     make(map[string]bool),
	}
}

// CreateSession provisions an anonymous session bound to a language.
func (s *Service) CreateSession(_ context.Context, languageCode, medicalHistory string) (chat.Session, error) {
	if languageCode == "" {
		return chat.Session{}, ErrLanguageRequired
	}

	session := chat.Session{
		ID:             uuid.NewString(),
		LanguageCode:   languageCode,
		MedicalHistory: medicalHistory,
		CreatedAt:      time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// SaveMessage appends a message to the session transcript.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) (chat.Message, error) {
	if message.SessionID == "" {
		return chat.Message{}, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[message.SessionID]; !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
	return message, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// BeginTurn marks the session busy. Turns are strictly sequential: while a
// turn is in flight every new submission fails with ErrTurnInFlight.
func (s *Service) BeginTurn(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	if s.busy[sessionID] {
		return ErrTurnInFlight
	}
	s.busy[sessionID] = true
	return nil
}

// EndTurn clears the busy flag regardless of how the turn finished.
func (s *Service) EndTurn(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, sessionID)
}
