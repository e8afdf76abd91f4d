package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUnknownVariantFails(t *testing.T) {
	_, _, err := Build(Variant("shopping_list"), Params{})
	assert.Error(t, err)
}

func TestBuildQuery(t *testing.T) {
	params := Params{
		PatientName:   "Dana",
		PatientGender: "female",
		Context:       "`session_date` = March 4, 2025\n`chunk_summary` = discussed sleep",
		LanguageCode:  "en-US",
		Query:         "How has her sleep been?",
	}

	system, user, err := Build(VariantQuery, params)
	require.NoError(t, err)
	assert.Contains(t, system, "a patient named Dana, who is a female")
	assert.NotContains(t, system, "chat history")
	assert.Contains(t, user, params.Context)
	assert.Contains(t, user, "language code en-US")
	assert.Contains(t, user, params.Query)
}

func TestBuildQueryWithHistoryAndLastSession(t *testing.T) {
	params := Params{
		PatientName:         "Dana",
		Context:             "ctx",
		LanguageCode:        "en-US",
		Query:               "and before that?",
		ChatHistoryIncluded: true,
		LastSessionDate:     "March 4, 2025",
	}

	system, _, err := Build(VariantQuery, params)
	require.NoError(t, err)
	assert.Contains(t, system, "consider the provided chat history")
	assert.Contains(t, system, "last session with the practitioner was on March 4, 2025")
}

func TestBuildQueryMissingParams(t *testing.T) {
	_, _, err := Build(VariantQuery, Params{PatientName: "Dana"})
	assert.Error(t, err)
}

func TestBuildReformulateQuery(t *testing.T) {
	_, user, err := Build(VariantReformulateQuery, Params{
		ChatHistory: "user: how was the last session?\nassistant: it covered work stress",
		Query:       "what about the one before?",
	})
	require.NoError(t, err)
	assert.Contains(t, user, "Chat History:")
	assert.Contains(t, user, "what about the one before?")

	_, _, err = Build(VariantReformulateQuery, Params{Query: "standalone"})
	assert.Error(t, err, "first turns have no history and must not be reformulated")
}

func TestBuildExtractTimeTokens(t *testing.T) {
	system, user, err := Build(VariantExtractTimeTokens, Params{
		Query: "what did we cover last month?",
		Today: "March 4, 2025",
	})
	require.NoError(t, err)
	assert.Contains(t, system, "`start_date` and `end_date`")
	assert.Contains(t, user, "today's date is March 4, 2025")
}

func TestBuildQuestionSuggestionsAsksForExactlyTwo(t *testing.T) {
	system, _, err := Build(VariantQuestionSuggestions, Params{
		LanguageCode: "en-US",
		Context:      "ctx",
		PatientName:  "Dana",
		Query:        "suggest questions",
	})
	require.NoError(t, err)
	assert.Contains(t, system, "exactly two")
	assert.Contains(t, system, `{"questions": ["...", "..."]}`)
}

func TestBuildBriefingRequiresTherapist(t *testing.T) {
	_, _, err := Build(VariantBriefing, Params{
		LanguageCode: "en-US",
		PatientName:  "Dana",
		Query:        "brief me",
	})
	assert.Error(t, err)

	system, _, err := Build(VariantBriefing, Params{
		LanguageCode:  "en-US",
		PatientName:   "Dana",
		TherapistName: "Dr. Reyes",
		SessionCount:  7,
		Context:       "ctx",
		Query:         "brief me",
	})
	require.NoError(t, err)
	assert.Contains(t, system, "Dr. Reyes has had 7 sessions with Dana")
	assert.Contains(t, system, "**Most Recent Sessions**")
	assert.Contains(t, system, "**Historical Themes**")
}

func TestBuildGreeting(t *testing.T) {
	system, user, err := Build(VariantGreeting, Params{
		TherapistName: "Dr. Reyes",
		LanguageCode:  "pt-BR",
		Weekday:       "Tuesday",
	})
	require.NoError(t, err)
	assert.Contains(t, system, "today being Tuesday")
	assert.Contains(t, system, "Dr. Reyes")
	assert.Contains(t, user, "language pt-BR")
}

func TestBuildGenderClauseOmittedForUnknownGender(t *testing.T) {
	system, _, err := Build(VariantQuery, Params{
		PatientName:   "Sam",
		PatientGender: "nonbinary",
		Context:       "ctx",
		LanguageCode:  "en-US",
		Query:         "q",
	})
	require.NoError(t, err)
	assert.Contains(t, system, "a patient named Sam. ")
	assert.NotContains(t, system, "who is a")
}
