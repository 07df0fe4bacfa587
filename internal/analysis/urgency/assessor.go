package urgency

import "strings"

// Level classifies how urgently an utterance suggests professional care.
type Level string

const (
	Routine   Level = "routine"
	Urgent    Level = "urgent"
	Emergency Level = "emergency"
)

// Decision is the heuristic assessment for one utterance.
type Decision struct {
	Level Level
	Score int
}

var keywordBuckets = map[Level][]string{
	Emergency: {
		"unconscious", "not breathing", "no pulse", "chest pain", "heart attack",
		"severe bleeding", "bleeding heavily", "seizure", "stroke", "paralysis",
		"snake bite", "poison", "suicide", "choking", "can't breathe", "cannot breathe",
	},
	Urgent: {
		"very high fever", "high fever", "vomiting blood", "blood in stool",
		"severe pain", "broken bone", "fracture", "deep cut", "burn", "dehydrated",
		"fainted", "dizzy", "blurred vision", "difficulty breathing", "stiff neck",
	},
}

// Assess scores an utterance against red-flag keyword buckets. It is a pure
// lexical heuristic and never replaces the classifier; it only decides
// whether the reply should carry an urgent-care notice.
func Assess(text string) Decision {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Decision{Level: Routine}
	}

	scores := make(map[Level]int)
	for level, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[level] += 3
			}
		}
	}

	if scores[Emergency] > 0 {
		return Decision{Level: Emergency, Score: scores[Emergency]}
	}
	// Repeated urgent signals escalate.
	if scores[Urgent] >= 6 {
		return Decision{Level: Emergency, Score: scores[Urgent]}
	}
	if scores[Urgent] > 0 {
		return Decision{Level: Urgent, Score: scores[Urgent]}
	}
	return Decision{Level: Routine}
}
