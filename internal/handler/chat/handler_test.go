package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chatmodel "github.com/swasthya-ai/backend/internal/model/chat"
	"github.com/swasthya-ai/backend/internal/model/language"
	"github.com/swasthya-ai/backend/internal/model/triage"
	chatservice "github.com/swasthya-ai/backend/internal/service/chat"
	"github.com/swasthya-ai/backend/internal/service/conversation"
)

type fakeClassifier struct {
	result triage.ClassifierResult
}

func (f *fakeClassifier) Classify(context.Context, string, string, string) (triage.ClassifierResult, error) {
	return f.result, nil
}

type fakeAdvisor struct {
	advice string
}

func (f *fakeAdvisor) Advise(context.Context, string, string, string) (triage.AdviceResult, error) {
	return triage.AdviceResult{Advice: f.advice}, nil
}

func setupRouter() (*chi.Mux, *chatservice.Service) {
	chatSvc := chatservice.NewService()
	languages := language.NewMemoryStore(language.Seed())
	orchestrator := conversation.NewOrchestrator(
		chatSvc,
		languages,
		&fakeClassifier{result: triage.ClassifierResult{DetectedCondition: "Dehydration"}},
		&fakeAdvisor{advice: "Sip oral rehydration solution."},
		nil,
		zap.NewNop(),
	)
	handler := New(chatSvc, languages, orchestrator)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func createSession(t *testing.T, r *chi.Mux, languageCode string) string {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{"languageCode": languageCode})
	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Session chatmodel.Session `json:"session"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode session response: %v", err)
	}
	return body.Session.ID
}

func TestCreateSessionSeedsGreeting(t *testing.T) {
	r, chatSvc := setupRouter()
	sessionID := createSession(t, r, "hi")

	messages, err := chatSvc.LoadTranscript(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("load transcript: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected the greeting message, got %d messages", len(messages))
	}
	if messages[0].Role != chatmodel.RoleAssistant {
		t.Fatalf("greeting role = %q", messages[0].Role)
	}
}

func TestCreateSessionUnsupportedLanguage(t *testing.T) {
	r, _ := setupRouter()
	payload, _ := json.Marshal(map[string]string{"languageCode": "fr"})

	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateSessionMissingLanguage(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestTurnProducesReply(t *testing.T) {
	r, _ := setupRouter()
	sessionID := createSession(t, r, "hi")

	payload, _ := json.Marshal(map[string]string{"message": "I feel very thirsty and dizzy"})
	req := httptest.NewRequest(http.MethodPost, "/session/"+sessionID+"/turn", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var reply chatmodel.Message
	if err := json.Unmarshal(resp.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.Role != chatmodel.RoleAssistant {
		t.Fatalf("reply role = %q", reply.Role)
	}
	if !bytes.Contains([]byte(reply.Content), []byte("Dehydration")) {
		t.Fatalf("reply missing condition: %q", reply.Content)
	}
}

func TestTurnUnknownSession(t *testing.T) {
	r, _ := setupRouter()

	payload, _ := json.Marshal(map[string]string{"message": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/session/nope/turn", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestTurnEmptyMessage(t *testing.T) {
	r, _ := setupRouter()
	sessionID := createSession(t, r, "ta")

	payload, _ := json.Marshal(map[string]string{"message": "   "})
	req := httptest.NewRequest(http.MethodPost, "/session/"+sessionID+"/turn", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestListMessages(t *testing.T) {
	r, _ := setupRouter()
	sessionID := createSession(t, r, "bn")

	req := httptest.NewRequest(http.MethodGet, "/session/"+sessionID+"/messages", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var messages []chatmodel.Message
	if err := json.Unmarshal(resp.Body.Bytes(), &messages); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected the greeting only, got %d", len(messages))
	}
}
