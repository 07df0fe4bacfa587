package language

// Language describes one supported conversation language. Locale is the
// BCP 47 tag handed to the speech engines; a few languages reuse another
// language's tag because no dedicated voice model exists for them.
type Language struct {
	Name   string `json:"name"`
	Code   string `json:"code"`
	Locale string `json:"locale"`
}

// Seed returns the fixed set of supported languages. Bhojpuri falls back to
// the Hindi voice and Odia to the Bengali voice.
func Seed() []Language {
	return []Language{
		{Name: "Hindi", Code: "hi", Locale: "hi-IN"},
		{Name: "Bhojpuri", Code: "bho", Locale: "hi-IN"},
		{Name: "Tamil", Code: "ta", Locale: "ta-IN"},
		{Name: "Bengali", Code: "bn", Locale: "bn-IN"},
		{Name: "Marathi", Code: "mr", Locale: "mr-IN"},
		{Name: "Telugu", Code: "te", Locale: "te-IN"},
		{Name: "Odia", Code: "or", Locale: "bn-IN"},
	}
}
