package prompt

import "fmt"

// Variant identifies one of the closed set of prompt scenarios the
// assistant supports. Building an unknown variant is an error; there is
// no open-ended fallback.
type Variant string

const (
	VariantQuery                  Variant = "query"
	VariantReformulateQuery       Variant = "reformulate_query"
	VariantExtractTimeTokens      Variant = "extract_time_tokens"
	VariantChunkSummary           Variant = "chunk_summary"
	VariantTranscriptChunkSummary Variant = "transcript_chunk_summary"
	VariantTranscriptGrandSummary Variant = "transcript_grand_summary"
	VariantBriefing               Variant = "briefing"
	VariantQuestionSuggestions    Variant = "question_suggestions"
	VariantRecentTopics           Variant = "recent_topics"
	VariantTopicsInsights         Variant = "topics_insights"
	VariantAttendanceInsights     Variant = "attendance_insights"
	VariantSoapNote               Variant = "soap_note"
	VariantSessionMiniSummary     Variant = "session_mini_summary"
	VariantGreeting               Variant = "greeting"
)

// Params carries every field a variant may need. Each variant validates
// the subset it requires and ignores the rest.
type Params struct {
	Query               string
	Context             string
	ChatHistory         string
	ChatHistoryIncluded bool
	LanguageCode        string
	PatientName         string
	PatientGender       string
	TherapistName       string
	SessionCount        int
	LastSessionDate     string // spelled-out form, empty when unknown
	Text                string // chunk text, session notes or transcript
	SessionDates        []string
	Today               string // spelled-out form of the current day
	Weekday             string
}

func (p Params) require(fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("missing %s param for building prompt", name)
		}
	}
	return nil
}
