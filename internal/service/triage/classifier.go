package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/swasthya-ai/backend/internal/model/triage"
)

var ErrSymptomsRequired = errors.New("symptoms text is required")

const classifierSystemPrompt = "You are an AI medical assistant that helps users understand their symptoms " +
	"and possible health conditions. You detect possible conditions (non-diagnostic) from the symptoms and " +
	"medical history, and you ask simple follow-up questions to understand the user's condition better. " +
	"Respond in the user's language. " +
	"Output requirements: return exactly one JSON object with two string fields: " +
	"detectedCondition (a short condition name in English, or the word None when no condition can be inferred yet) " +
	"and followUpQuestions (relevant follow-up questions for the user, written in the user's language, " +
	"or an empty string). Do not output anything besides the JSON object."

const classifierUserPrompt = "Language: {language}\nSymptoms: {symptoms}\nMedical History: {medical_history}"

// Classifier infers a possible condition and follow-up questions from free
// symptom text. It is a pure pipeline stage: one model call, no side effects.
type Classifier struct {
	chain  compose.Runnable[map[string]any, *schema.Message]
	logger *zap.Logger
}

// NewClassifier compiles the classification chain over the supplied model.
func NewClassifier(ctx context.Context, chatModel model.ChatModel, logger *zap.Logger) (*Classifier, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage(classifierUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile classifier chain: %w", err)
	}

	return &Classifier{chain: runnable, logger: logger}, nil
}

// Classify runs one classification. Both result fields are always present
// as strings (possibly empty) when the call succeeds; a failed model call
// or an unparseable response propagates as an error, never retried here.
func (c *Classifier) Classify(ctx context.Context, symptoms, language, medicalHistory string) (triage.ClassifierResult, error) {
	if strings.TrimSpace(symptoms) == "" {
		return triage.ClassifierResult{}, ErrSymptomsRequired
	}

	input := map[string]any{
		"language":        language,
		"symptoms":        strings.TrimSpace(symptoms),
		"medical_history": strings.TrimSpace(medicalHistory),
	}

	msg, err := c.chain.Invoke(ctx, input)
	if err != nil {
		return triage.ClassifierResult{}, fmt.Errorf("classifier invoke: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return triage.ClassifierResult{}, errors.New("classifier returned empty response")
	}

	var payload struct {
		DetectedCondition string `json:"detectedCondition"`
		FollowUpQuestions string `json:"followUpQuestions"`
	}
	if err := unmarshalJSONBlock(msg.Content, &payload); err != nil {
		c.logger.Warn("classifier output parse failed", zap.Error(err))
		return triage.ClassifierResult{}, fmt.Errorf("classifier output parse: %w", err)
	}

	return triage.ClassifierResult{
		DetectedCondition: strings.TrimSpace(payload.DetectedCondition),
		FollowUpQuestions: strings.TrimSpace(payload.FollowUpQuestions),
	}, nil
}

// unmarshalJSONBlock extracts the first JSON object in the model output.
// Models occasionally wrap the object in prose or code fences.
func unmarshalJSONBlock(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return errors.New("missing json object")
	}
	return json.Unmarshal([]byte(trimmed[start:end+1]), target)
}
