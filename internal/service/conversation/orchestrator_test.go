package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/swasthya-ai/backend/internal/model/chat"
	"github.com/swasthya-ai/backend/internal/model/language"
	"github.com/swasthya-ai/backend/internal/model/triage"
	chatservice "github.com/swasthya-ai/backend/internal/service/chat"
)

type stubClassifier struct {
	result   triage.ClassifierResult
	err      error
	calls    int
	language string
	history  string
}

func (s *stubClassifier) Classify(_ context.Context, _, language, history string) (triage.ClassifierResult, error) {
	s.calls++
	s.language = language
	s.history = history
	if s.err != nil {
		return triage.ClassifierResult{}, s.err
	}
	return s.result, nil
}

type stubAdvisor struct {
	result    triage.AdviceResult
	err       error
	calls     int
	condition string
}

func (s *stubAdvisor) Advise(_ context.Context, condition, _, _ string) (triage.AdviceResult, error) {
	s.calls++
	s.condition = condition
	if s.err != nil {
		return triage.AdviceResult{}, s.err
	}
	return s.result, nil
}

type recordingSpeaker struct {
	texts   []string
	locales []string
}

func (s *recordingSpeaker) Speak(_ context.Context, _, text, locale string) {
	s.texts = append(s.texts, text)
	s.locales = append(s.locales, locale)
}

func newTestSetup(t *testing.T, classifier *stubClassifier, advisor *stubAdvisor, speaker Speaker) (*Orchestrator, *chatservice.Service, chat.Session) {
	t.Helper()
	chatSvc := chatservice.NewService()
	languages := language.NewMemoryStore(language.Seed())
	orch := NewOrchestrator(chatSvc, languages, classifier, advisor, speaker, zap.NewNop())

	session, err := chatSvc.CreateSession(context.Background(), "hi", "diabetic")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	return orch, chatSvc, session
}

func TestRunProducesOneUserAndOneAssistantMessage(t *testing.T) {
	classifier := &stubClassifier{result: triage.ClassifierResult{FollowUpQuestions: "Since when?"}}
	orch, chatSvc, session := newTestSetup(t, classifier, &stubAdvisor{}, nil)

	msg, err := orch.Run(context.Background(), session.ID, "I feel unwell")
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if msg.Role != chat.RoleAssistant {
		t.Fatalf("expected assistant message, got role %q", msg.Role)
	}

	transcript, err := chatSvc.LoadTranscript(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(transcript))
	}
	if transcript[0].Role != chat.RoleUser || transcript[1].Role != chat.RoleAssistant {
		t.Fatalf("unexpected roles: %s, %s", transcript[0].Role, transcript[1].Role)
	}
}

func TestRunNoneConditionSkipsLookup(t *testing.T) {
	classifier := &stubClassifier{result: triage.ClassifierResult{
		DetectedCondition: "None",
		FollowUpQuestions: "Do you also have a cough?",
	}}
	advisor := &stubAdvisor{}
	orch, _, session := newTestSetup(t, classifier, advisor, nil)

	msg, err := orch.Run(context.Background(), session.ID, "I feel unwell")
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if msg.Content != "Do you also have a cough?" {
		t.Fatalf("expected follow-up text only, got %q", msg.Content)
	}
	if advisor.calls != 0 {
		t.Fatalf("advisor must not be called for None condition, got %d calls", advisor.calls)
	}
}

func TestRunEmptyClassifierResultAsksForClarification(t *testing.T) {
	orch, _, session := newTestSetup(t, &stubClassifier{}, &stubAdvisor{}, nil)

	msg, err := orch.Run(context.Background(), session.ID, "asdf qwer")
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if msg.Content != clarificationText {
		t.Fatalf("expected clarification request, got %q", msg.Content)
	}
}

func TestRunDetectedConditionAppendsGuidance(t *testing.T) {
	classifier := &stubClassifier{result: triage.ClassifierResult{
		DetectedCondition: "Viral Fever",
		FollowUpQuestions: "How long have you had fever?",
	}}
	advisor := &stubAdvisor{result: triage.AdviceResult{Advice: "Rest and drink fluids."}}
	orch, _, session := newTestSetup(t, classifier, advisor, nil)

	msg, err := orch.Run(context.Background(), session.ID, "I have a fever and headache")
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}

	if !strings.Contains(msg.Content, "How long have you had fever?") {
		t.Fatalf("missing follow-up question: %q", msg.Content)
	}
	if !strings.Contains(msg.Content, "it could possibly be **Viral Fever**") {
		t.Fatalf("missing condition sentence: %q", msg.Content)
	}
	if !strings.Contains(msg.Content, "### First-Aid Guidance\nRest and drink fluids.") {
		t.Fatalf("missing guidance section: %q", msg.Content)
	}
	if advisor.condition != "Viral Fever" {
		t.Fatalf("advisor called with %q", advisor.condition)
	}
	if classifier.language != "Hindi" {
		t.Fatalf("classifier called with language %q", classifier.language)
	}
	if classifier.history != "diabetic" {
		t.Fatalf("classifier called with history %q", classifier.history)
	}
}

func TestRunClassifierFailureYieldsApologyAndClearsBusyFlag(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("completion service down")}
	advisor := &stubAdvisor{}
	orch, _, session := newTestSetup(t, classifier, advisor, nil)

	msg, err := orch.Run(context.Background(), session.ID, "I have a fever")
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if msg.Content != classifierApology {
		t.Fatalf("expected apology, got %q", msg.Content)
	}
	if advisor.calls != 0 {
		t.Fatalf("advisor must not run after classifier failure, got %d calls", advisor.calls)
	}

	// Next turn must be accepted.
	classifier.err = nil
	classifier.result = triage.ClassifierResult{FollowUpQuestions: "Since when?"}
	if _, err := orch.Run(context.Background(), session.ID, "still feverish"); err != nil {
		t.Fatalf("next turn rejected: %v", err)
	}
}

func TestRunLookupFailurePreservesClassifierText(t *testing.T) {
	classifier := &stubClassifier{result: triage.ClassifierResult{
		DetectedCondition: "Viral Fever",
		FollowUpQuestions: "How long?",
	}}
	advisor := &stubAdvisor{err: errors.New("store unreachable")}
	orch, _, session := newTestSetup(t, classifier, advisor, nil)

	msg, err := orch.Run(context.Background(), session.ID, "I have a fever")
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if !strings.Contains(msg.Content, "How long?") {
		t.Fatalf("classifier text dropped: %q", msg.Content)
	}
	if !strings.Contains(msg.Content, "it could possibly be **Viral Fever**") {
		t.Fatalf("condition sentence dropped: %q", msg.Content)
	}
	if !strings.Contains(msg.Content, lookupApology) {
		t.Fatalf("missing lookup apology: %q", msg.Content)
	}
}

func TestRunRejectsConcurrentTurn(t *testing.T) {
	orch, chatSvc, session := newTestSetup(t, &stubClassifier{}, &stubAdvisor{}, nil)

	if err := chatSvc.BeginTurn(session.ID); err != nil {
		t.Fatalf("BeginTurn err: %v", err)
	}
	defer chatSvc.EndTurn(session.ID)

	if _, err := orch.Run(context.Background(), session.ID, "hello"); !errors.Is(err, chatservice.ErrTurnInFlight) {
		t.Fatalf("expected ErrTurnInFlight, got %v", err)
	}
}

func TestRunRejectsEmptyUtterance(t *testing.T) {
	orch, _, session := newTestSetup(t, &stubClassifier{}, &stubAdvisor{}, nil)

	if _, err := orch.Run(context.Background(), session.ID, "   "); !errors.Is(err, ErrEmptyUtterance) {
		t.Fatalf("expected ErrEmptyUtterance, got %v", err)
	}
}

func TestRunSpeaksAssistantMessageWithSessionLocale(t *testing.T) {
	classifier := &stubClassifier{result: triage.ClassifierResult{FollowUpQuestions: "Since when?"}}
	speaker := &recordingSpeaker{}
	orch, _, session := newTestSetup(t, classifier, &stubAdvisor{}, speaker)

	if _, err := orch.Run(context.Background(), session.ID, "I feel unwell"); err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if len(speaker.texts) != 1 || speaker.texts[0] != "Since when?" {
		t.Fatalf("unexpected speaker calls: %+v", speaker.texts)
	}
	if speaker.locales[0] != "hi-IN" {
		t.Fatalf("expected hi-IN locale, got %q", speaker.locales[0])
	}
}

func TestRunEmergencyNoticePrepended(t *testing.T) {
	classifier := &stubClassifier{result: triage.ClassifierResult{FollowUpQuestions: "Is he responsive?"}}
	orch, _, session := newTestSetup(t, classifier, &stubAdvisor{}, nil)

	msg, err := orch.Run(context.Background(), session.ID, "my father has chest pain")
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if !strings.HasPrefix(msg.Content, emergencyNotice) {
		t.Fatalf("expected emergency notice first, got %q", msg.Content)
	}
	if !strings.Contains(msg.Content, "Is he responsive?") {
		t.Fatalf("follow-up dropped: %q", msg.Content)
	}
}

func TestRunSurvivesEmptyLanguageStore(t *testing.T) {
	classifier := &stubClassifier{result: triage.ClassifierResult{FollowUpQuestions: "Since when?"}}
	chatSvc := chatservice.NewService()
	orch := NewOrchestrator(chatSvc, language.NewMemoryStore(nil), classifier, &stubAdvisor{}, nil, zap.NewNop())

	session, err := chatSvc.CreateSession(context.Background(), "hi", "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	msg, err := orch.Run(context.Background(), session.ID, "I feel unwell")
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if msg.Content != "Since when?" {
		t.Fatalf("unexpected reply: %q", msg.Content)
	}
	if classifier.language != "Hindi" {
		t.Fatalf("expected Hindi fallback, classifier got %q", classifier.language)
	}
}

func TestGreetSeedsWelcomeMessage(t *testing.T) {
	speaker := &recordingSpeaker{}
	orch, chatSvc, session := newTestSetup(t, &stubClassifier{}, &stubAdvisor{}, speaker)

	msg, err := orch.Greet(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Greet err: %v", err)
	}
	if !strings.Contains(msg.Content, "Swasthya AI assistant") {
		t.Fatalf("unexpected greeting: %q", msg.Content)
	}

	transcript, _ := chatSvc.LoadTranscript(context.Background(), session.ID)
	if len(transcript) != 1 || transcript[0].Role != chat.RoleAssistant {
		t.Fatalf("unexpected transcript after greet: %+v", transcript)
	}
	if len(speaker.texts) != 1 {
		t.Fatalf("greeting not spoken: %+v", speaker.texts)
	}
}
