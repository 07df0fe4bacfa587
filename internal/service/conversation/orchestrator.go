package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/swasthya-ai/backend/internal/analysis/urgency"
	"github.com/swasthya-ai/backend/internal/model/chat"
	"github.com/swasthya-ai/backend/internal/model/language"
	"github.com/swasthya-ai/backend/internal/model/triage"
	chatservice "github.com/swasthya-ai/backend/internal/service/chat"
)

var ErrEmptyUtterance = errors.New("utterance is empty")

// Fixed user-facing texts. The apologies replace the output of the stage
// that failed; buffered content from earlier stages is preserved.
const (
	greeting = "Hello! I am your Swasthya AI assistant. How are you feeling today? " +
		"Please tell me your symptoms by tapping the microphone."
	classifierApology = "Sorry, I couldn't process your request. Please try again."
	lookupApology     = "Sorry, I couldn't find first aid guidance for this condition."
	clarificationText = "I'm sorry, I'm having trouble understanding. " +
		"Could you please describe your symptoms again in a different way?"
	emergencyNotice = "**Important:** your symptoms may need immediate medical attention. " +
		"Please contact the nearest hospital from the facility list or call 108 right away."
)

// SymptomClassifier is the first pipeline stage.
type SymptomClassifier interface {
	Classify(ctx context.Context, symptoms, language, medicalHistory string) (triage.ClassifierResult, error)
}

// FirstAidAdvisor is the second pipeline stage.
type FirstAidAdvisor interface {
	Advise(ctx context.Context, condition, symptoms, language string) (triage.AdviceResult, error)
}

// Speaker voices an assistant message. Implementations must not block the
// turn and must cancel any utterance still in flight (last write wins).
// Speech failures never affect the transcript.
type Speaker interface {
	Speak(ctx context.Context, sessionID, text, locale string)
}

// Orchestrator drives one turn per user utterance: classifier first, then,
// when a condition was detected, the first-aid lookup. The two stages are
// never issued concurrently for the same turn, and the chat service's busy
// gate keeps turns strictly sequential per session.
type Orchestrator struct {
	chatSvc    *chatservice.Service
	languages  language.Store
	classifier SymptomClassifier
	advisor    FirstAidAdvisor
	speaker    Speaker
	assess     func(string) urgency.Decision
	logger     *zap.Logger
}

// NewOrchestrator wires the turn pipeline. speaker may be nil when no voice
// output is configured.
func NewOrchestrator(chatSvc *chatservice.Service, languages language.Store, classifier SymptomClassifier, advisor FirstAidAdvisor, speaker Speaker, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		chatSvc:    chatSvc,
		languages:  languages,
		classifier: classifier,
		advisor:    advisor,
		speaker:    speaker,
		assess:     urgency.Assess,
		logger:     logger,
	}
}

// Greet appends and voices the fixed welcome message for a fresh session.
func (o *Orchestrator) Greet(ctx context.Context, sessionID string) (chat.Message, error) {
	session, err := o.chatSvc.GetSession(ctx, sessionID)
	if err != nil {
		return chat.Message{}, err
	}
	return o.emitAssistant(ctx, session, greeting)
}

// StageFunc observes pipeline progress during a turn. Stages are "user"
// (utterance accepted and saved) and "classifier" (detected condition, or
// "none"). The final assistant message is returned, not emitted.
type StageFunc func(stage, content string)

// Run executes one turn. Every accepted utterance produces exactly one user
// message followed by exactly one assistant message; all pipeline failures
// are converted to user-visible text and the busy flag is always cleared.
func (o *Orchestrator) Run(ctx context.Context, sessionID, utterance string) (chat.Message, error) {
	return o.RunWithEvents(ctx, sessionID, utterance, nil)
}

// RunWithEvents is Run with a per-stage observer, used by the SSE transport.
func (o *Orchestrator) RunWithEvents(ctx context.Context, sessionID, utterance string, emit StageFunc) (chat.Message, error) {
	if emit == nil {
		emit = func(string, string) {}
	}

	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return chat.Message{}, ErrEmptyUtterance
	}

	session, err := o.chatSvc.GetSession(ctx, sessionID)
	if err != nil {
		return chat.Message{}, err
	}

	if err := o.chatSvc.BeginTurn(sessionID); err != nil {
		return chat.Message{}, err
	}
	defer o.chatSvc.EndTurn(sessionID)

	if _, err := o.chatSvc.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Role:      chat.RoleUser,
		Content:   utterance,
	}); err != nil {
		return chat.Message{}, err
	}
	emit("user", utterance)

	content := o.runPipeline(ctx, session, utterance, emit)
	return o.emitAssistant(ctx, session, content)
}

// runPipeline accumulates the response buffer for one turn.
func (o *Orchestrator) runPipeline(ctx context.Context, session chat.Session, utterance string, emit StageFunc) string {
	lang := o.resolveLanguage(session.LanguageCode)

	var buffer []string
	if o.assess(utterance).Level == urgency.Emergency {
		buffer = append(buffer, emergencyNotice)
	}

	result, err := o.classifier.Classify(ctx, utterance, lang.Name, session.MedicalHistory)
	if err != nil {
		o.logger.Warn("symptom classifier failed",
			zap.String("session", session.ID), zap.Error(err))
		return joinBuffer(append(buffer, classifierApology))
	}

	if result.FollowUpQuestions != "" {
		buffer = append(buffer, result.FollowUpQuestions)
	}

	condition := strings.TrimSpace(result.DetectedCondition)
	if condition == "" {
		emit("classifier", "none")
	} else {
		emit("classifier", condition)
	}
	switch {
	case condition != "" && !strings.EqualFold(condition, "none"):
		buffer = append(buffer, fmt.Sprintf("Based on your symptoms, it could possibly be **%s**.", condition))
		buffer = append(buffer, o.adviceSection(ctx, session.ID, condition, utterance, lang.Name))
	case result.FollowUpQuestions == "":
		buffer = append(buffer, clarificationText)
	}

	return joinBuffer(buffer)
}

// adviceSection runs the first-aid stage. Sentinel and generated advice are
// rendered identically; a failure yields the lookup apology without
// discarding what the classifier already contributed.
func (o *Orchestrator) adviceSection(ctx context.Context, sessionID, condition, utterance, languageName string) string {
	advice, err := o.advisor.Advise(ctx, condition, utterance, languageName)
	if err != nil {
		o.logger.Warn("first-aid lookup failed",
			zap.String("session", sessionID), zap.String("condition", condition), zap.Error(err))
		return lookupApology
	}
	return "### First-Aid Guidance\n" + advice.Advice
}

func (o *Orchestrator) emitAssistant(ctx context.Context, session chat.Session, content string) (chat.Message, error) {
	message, err := o.chatSvc.SaveMessage(ctx, chat.Message{
		SessionID: session.ID,
		Role:      chat.RoleAssistant,
		Content:   content,
	})
	if err != nil {
		return chat.Message{}, err
	}

	if o.speaker != nil {
		o.speaker.Speak(ctx, session.ID, content, o.resolveLanguage(session.LanguageCode).Locale)
	}
	return message, nil
}

// resolveLanguage falls back to the first supported language when the
// session carries an unknown code.
func (o *Orchestrator) resolveLanguage(code string) language.Language {
	if lang, ok := o.languages.FindByCode(code); ok {
		return lang
	}
	if all := o.languages.List(); len(all) > 0 {
		return all[0]
	}
	return language.Language{Name: "Hindi", Code: "hi", Locale: "hi-IN"}
}

func joinBuffer(parts []string) string {
	return strings.Join(parts, "\n\n")
}
