package triage

// ClassifierResult is the structured output of the symptom classifier.
// Either field may be empty; both are always present on success.
type ClassifierResult struct {
	DetectedCondition string `json:"detectedCondition"`
	FollowUpQuestions string `json:"followUpQuestions"`
}

// ConditionRecord is an externally owned first-aid document, looked up by
// exact equality on Title. Read-only from this service's perspective.
type ConditionRecord struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Symptoms string `json:"symptoms"`
}

// AdviceResult carries first-aid advice, either generated by the model or
// the fixed sentinel when no record matched.
type AdviceResult struct {
	Advice string `json:"advice"`
}
