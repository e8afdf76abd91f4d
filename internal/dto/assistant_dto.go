package dto

// Scope identifies whose data an assistant request operates on. The
// tenant id is the practitioner; together with the patient id it
// selects the vector namespace and keys the active conversation.
type Scope struct {
	TenantID  string `json:"tenant_id" validate:"required"`
	PatientID string `json:"patient_id" validate:"required"`
}

// Namespace renders the vector store namespace for this scope.
func (s Scope) Namespace() string {
	return s.TenantID + "-" + s.PatientID
}

type AnswerQueryRequest struct {
	Scope
	Query         string `json:"query" validate:"required"`
	PatientName   string `json:"patient_name" validate:"required"`
	PatientGender string `json:"patient_gender"`
	LanguageCode  string `json:"language_code"`
	Stream        bool   `json:"stream"`
}

type AnswerQueryResponse struct {
	Answer string `json:"answer"`
}

type SummarizeTextRequest struct {
	Text         string `json:"text" validate:"required"`
	LanguageCode string `json:"language_code"`
}

type SummarizeTextResponse struct {
	Summary string `json:"summary"`
}

type BriefingRequest struct {
	Scope
	TherapistName string `json:"therapist_name" validate:"required"`
	PatientName   string `json:"patient_name" validate:"required"`
	PatientGender string `json:"patient_gender"`
	LanguageCode  string `json:"language_code"`
}

type BriefingResponse struct {
	Briefing string `json:"briefing"`
}

type QuestionSuggestionsRequest struct {
	Scope
	PatientName   string `json:"patient_name" validate:"required"`
	PatientGender string `json:"patient_gender"`
	LanguageCode  string `json:"language_code"`
}

// QuestionSuggestionsResponse carries exactly two suggested questions.
type QuestionSuggestionsResponse struct {
	Questions []string `json:"questions"`
}

type RecentTopicsRequest struct {
	Scope
	PatientName  string `json:"patient_name" validate:"required"`
	LanguageCode string `json:"language_code"`
}

type TopicShare struct {
	Topic      string `json:"topic"`
	Percentage string `json:"percentage"` // rendered like "60%"
}

type RecentTopicsResponse struct {
	Topics []TopicShare `json:"topics"`
}

type TopicsInsightsRequest struct {
	Scope
	PatientName   string       `json:"patient_name" validate:"required"`
	PatientGender string       `json:"patient_gender"`
	Topics        []TopicShare `json:"topics" validate:"required,min=1"`
	LanguageCode  string       `json:"language_code"`
}

type TopicsInsightsResponse struct {
	Insights string `json:"insights"`
}

type AttendanceInsightsRequest struct {
	Scope
	PatientName  string   `json:"patient_name" validate:"required"`
	SessionDates []string `json:"session_dates" validate:"required,min=1"`
	LanguageCode string   `json:"language_code"`
}

type AttendanceInsightsResponse struct {
	Insights string `json:"insights"`
}

type SoapNoteRequest struct {
	Transcript   string `json:"transcript" validate:"required"`
	LanguageCode string `json:"language_code"`
}

type SoapNoteResponse struct {
	Note string `json:"note"`
}

type SessionMiniSummaryRequest struct {
	Text         string `json:"text" validate:"required"`
	LanguageCode string `json:"language_code"`
}

type SessionMiniSummaryResponse struct {
	Summary string `json:"summary"`
}

type GreetingRequest struct {
	TherapistID   string `json:"therapist_id" validate:"required"`
	TherapistName string `json:"therapist_name" validate:"required"`
	LanguageCode  string `json:"language_code"`
}

type GreetingResponse struct {
	Greeting string `json:"greeting"`
}

type IndexSessionRequest struct {
	Scope
	SessionDate string `json:"session_date" validate:"required"`
	Text        string `json:"text" validate:"required"`
	Reindex     bool   `json:"reindex"`
}

type IndexSessionResponse struct {
	Chunks int `json:"chunks"`
}

type IndexHistoryRequest struct {
	Scope
	Text    string `json:"text" validate:"required"`
	Reindex bool   `json:"reindex"`
}

type DeleteSessionRequest struct {
	Scope
	SessionDate string `json:"session_date" validate:"required"`
}

// IndexSessionMessage is the bus payload for asynchronous indexing.
type IndexSessionMessage struct {
	TenantID    string `json:"tenant_id"`
	PatientID   string `json:"patient_id"`
	SessionDate string `json:"session_date"`
	Text        string `json:"text"`
	IsHistory   bool   `json:"is_history"`
	Reindex     bool   `json:"reindex"`
}
