package chat

import "time"

// Session captures a transient anonymous conversation. MedicalHistory is
// optional free text supplied at session creation and forwarded to the
// symptom classifier on every turn.
type Session struct {
	ID             string    `json:"id"`
	LanguageCode   string    `json:"languageCode"`
	MedicalHistory string    `json:"medicalHistory,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
