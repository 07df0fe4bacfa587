package firstaid

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
	"github.com/swasthya-ai/backend/internal/repository"
)

// SentinelNoGuidance is returned when no stored record matches the
// condition. It is a defined result, not an error, and the completion
// service is never called in that case.
const SentinelNoGuidance = "No first aid guidance found for this condition."

const advisorSystemPrompt = "You are an AI assistant providing first-aid guidance. The user experiences the " +
	"symptoms described below, and a possible condition has been suggested. Provide tailored first-aid advice " +
	"with specific do's and don'ts, and say when it is important to seek professional medical help. " +
	"Respond in the requested language. " +
	"Output requirements: return exactly one JSON object with a single string field advice. " +
	"Do not output anything besides the JSON object."

const advisorUserPrompt = "Language: {language}\nCondition: {condition}\nSymptoms: {symptoms}"

// Advisor retrieves a stored condition record and produces tailored advice.
type Advisor struct {
	conditions repository.ConditionRepository
	chain      compose.Runnable[map[string]any, *schema.Message]
	logger     *zap.Logger
}

// NewAdvisor compiles the advice chain over the supplied model.
func NewAdvisor(ctx context.Context, conditions repository.ConditionRepository, chatModel model.ChatModel, logger *zap.Logger) (*Advisor, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(advisorSystemPrompt),
		schema.UserMessage(advisorUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile advisor chain: %w", err)
	}

	return &Advisor{conditions: conditions, chain: runnable, logger: logger}, nil
}

// Advise looks up the condition by exact title and asks the model for
// tailored advice. The prompt is built from the record's own stored title
// and symptoms, not from the caller's text. Advice is always a non-empty
// string on success (sentinel or generated).
func (a *Advisor) Advise(ctx context.Context, condition, symptoms, language string) (triage.AdviceResult, error) {
	record, found, err := a.conditions.FindByTitle(ctx, condition)
	if err != nil {
		return triage.AdviceResult{}, fmt.Errorf("condition lookup: %w", err)
	}
	if !found {
		a.logger.Info("no first-aid record for condition", zap.String("condition", condition))
		return triage.AdviceResult{Advice: SentinelNoGuidance}, nil
	}

	input := map[string]any{
		"language":  language,
		"condition": record.Title,
		"symptoms":  record.Symptoms,
	}

	msg, err := a.chain.Invoke(ctx, input)
	if err != nil {
		return triage.AdviceResult{}, fmt.Errorf("advisor invoke: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return triage.AdviceResult{}, errors.New("advisor returned empty response")
	}

	var payload struct {
		Advice string `json:"advice"`
	}
	if err := unmarshalJSONBlock(msg.Content, &payload); err != nil {
		a.logger.Warn("advisor output parse failed", zap.Error(err))
		return triage.AdviceResult{}, fmt.Errorf("advisor output parse: %w", err)
	}
	if strings.TrimSpace(payload.Advice) == "" {
		return triage.AdviceResult{}, errors.New("advisor returned empty advice")
	}

	return triage.AdviceResult{Advice: strings.TrimSpace(payload.Advice)}, nil
}

func unmarshalJSONBlock(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return errors.New("missing json object")
	}
	return json.Unmarshal([]byte(trimmed[start:end+1]), target)
}
