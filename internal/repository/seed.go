package repository

import "github.com/swasthya-ai/backend/internal/model/triage"

// DefaultConditions is the built-in first-aid set used when no document
// store is configured. Titles must match what the classifier emits.
func DefaultConditions() []triage.ConditionRecord {
	return []triage.ConditionRecord{
		{ID: 1, Title: "Viral Fever", Symptoms: "High temperature, body ache, headache, fatigue, chills lasting several days."},
		{ID: 2, Title: "Dehydration", Symptoms: "Dry mouth, dark urine, dizziness, reduced urination, extreme thirst."},
		{ID: 3, Title: "Heat Stroke", Symptoms: "Very high body temperature, hot dry skin, confusion, rapid pulse after sun exposure."},
		{ID: 4, Title: "Diarrhea", Symptoms: "Frequent loose watery stools, stomach cramps, weakness, risk of fluid loss."},
		{ID: 5, Title: "Minor Burn", Symptoms: "Red painful skin, mild swelling or blistering on the burned area."},
		{ID: 6, Title: "Snake Bite", Symptoms: "Puncture marks, swelling and pain at the bite site, nausea, blurred vision."},
		{ID: 7, Title: "Fracture", Symptoms: "Severe pain, swelling, deformity and inability to move the injured limb."},
	}
}
