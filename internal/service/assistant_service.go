package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"chartnotes-be/internal/constant"
	"chartnotes-be/internal/dto"
	"chartnotes-be/internal/pkg/logger"
	"chartnotes-be/pkg/events"
	"chartnotes-be/pkg/llm"
	"chartnotes-be/pkg/rag/contextbuilder"
	"chartnotes-be/pkg/rag/indexer"
	"chartnotes-be/pkg/rag/prompt"
	"chartnotes-be/pkg/rag/state"
	"chartnotes-be/pkg/rag/synthesis"
	"chartnotes-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IEventPublisher is the slice of the NATS publisher the service needs.
type IEventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IAssistantService interface {
	AnswerQuery(ctx context.Context, req dto.AnswerQueryRequest) (*dto.AnswerQueryResponse, error)
	AnswerQueryStream(ctx context.Context, req dto.AnswerQueryRequest) (<-chan string, <-chan error)
	SummarizeText(ctx context.Context, req dto.SummarizeTextRequest) (*dto.SummarizeTextResponse, error)
	CreateBriefing(ctx context.Context, req dto.BriefingRequest) (*dto.BriefingResponse, error)
	CreateQuestionSuggestions(ctx context.Context, req dto.QuestionSuggestionsRequest) (*dto.QuestionSuggestionsResponse, error)
	FetchRecentTopics(ctx context.Context, req dto.RecentTopicsRequest) (*dto.RecentTopicsResponse, error)
	CreateTopicsInsights(ctx context.Context, req dto.TopicsInsightsRequest) (*dto.TopicsInsightsResponse, error)
	CreateAttendanceInsights(ctx context.Context, req dto.AttendanceInsightsRequest) (*dto.AttendanceInsightsResponse, error)
	CreateSoapNote(ctx context.Context, req dto.SoapNoteRequest) (*dto.SoapNoteResponse, error)
	CreateSessionMiniSummary(ctx context.Context, req dto.SessionMiniSummaryRequest) (*dto.SessionMiniSummaryResponse, error)
	CreateGreeting(ctx context.Context, req dto.GreetingRequest) (*dto.GreetingResponse, error)
	IndexSession(ctx context.Context, req dto.IndexSessionRequest) (*dto.IndexSessionResponse, error)
	EnqueueIndexSession(ctx context.Context, msg dto.IndexSessionMessage) error
	IndexHistory(ctx context.Context, req dto.IndexHistoryRequest) (*dto.IndexSessionResponse, error)
	DeleteSession(ctx context.Context, req dto.DeleteSessionRequest) error
	DeleteHistory(ctx context.Context, scope dto.Scope) error
	DeletePatient(ctx context.Context, scope dto.Scope) error
}

type assistantService struct {
	indexer    indexer.IIndexer
	assembler  contextbuilder.IAssembler
	synth      synthesis.ISynthesizer
	mapReducer synthesis.IMapReducer
	sessions   state.IManager
	publisher  IEventPublisher
	queue      message.Publisher
	indexTopic string
	logger     logger.ILogger
}

func NewAssistantService(
	ix indexer.IIndexer,
	assembler contextbuilder.IAssembler,
	synth synthesis.ISynthesizer,
	mapReducer synthesis.IMapReducer,
	sessions state.IManager,
	publisher IEventPublisher,
	queue message.Publisher,
	indexTopic string,
	log logger.ILogger,
) IAssistantService {
	return &assistantService{
		indexer:    ix,
		assembler:  assembler,
		synth:      synth,
		mapReducer: mapReducer,
		sessions:   sessions,
		publisher:  publisher,
		queue:      queue,
		indexTopic: indexTopic,
		logger:     log,
	}
}

func defaultLanguage(code string) string {
	if code == "" {
		return "en"
	}
	return code
}

// renderChatHistory flattens the stored exchange into the role-prefixed
// form the reformulation prompt expects.
func renderChatHistory(messages []llm.Message) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	return b.String()
}

// stripCodeFence removes a markdown code fence wrapper some models put
// around JSON output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

type timeRange struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

// prepareQuery resolves the effective query and date override for one
// question. Reformulation and time-token extraction are independent LLM
// calls, so they run concurrently.
func (s *assistantService) prepareQuery(ctx context.Context, req dto.AnswerQueryRequest, history []llm.Message) (string, *contextbuilder.DateOverride, error) {
	effectiveQuery := req.Query
	var override *contextbuilder.DateOverride
	var reformulateErr, extractErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if len(history) == 0 {
			return
		}
		system, user, err := prompt.Build(prompt.VariantReformulateQuery, prompt.Params{
			ChatHistory: renderChatHistory(history),
			Query:       req.Query,
		})
		if err != nil {
			reformulateErr = err
			return
		}
		reformulated, err := s.synth.Complete(ctx, "reformulate_query", system, user, llm.WithTemperature(0))
		if err != nil {
			reformulateErr = err
			return
		}
		if trimmed := strings.TrimSpace(reformulated); trimmed != "" {
			effectiveQuery = trimmed
		}
	}()

	go func() {
		defer wg.Done()
		today, err := utils.SpellOutDate(utils.Today())
		if err != nil {
			extractErr = err
			return
		}
		system, user, err := prompt.Build(prompt.VariantExtractTimeTokens, prompt.Params{
			Query: req.Query,
			Today: today,
		})
		if err != nil {
			extractErr = err
			return
		}
		raw, err := s.synth.Complete(ctx, "extract_time_tokens", system, user,
			llm.WithTemperature(0), llm.WithJSONMode())
		if err != nil {
			extractErr = err
			return
		}

		var tr timeRange
		if err := json.Unmarshal([]byte(stripCodeFence(raw)), &tr); err != nil {
			// An unparsable extraction falls back to plain similarity search.
			s.logger.Warn("assistant", "Unparsable time token extraction", map[string]interface{}{
				"output": raw,
			})
			return
		}
		if tr.StartDate == nil || *tr.StartDate == "" {
			return
		}
		end := *tr.StartDate
		if tr.EndDate != nil && *tr.EndDate != "" {
			end = *tr.EndDate
		}
		override = &contextbuilder.DateOverride{
			Type:  contextbuilder.OverrideDateRange,
			Start: *tr.StartDate,
			End:   end,
		}
	}()

	wg.Wait()
	if reformulateErr != nil {
		return "", nil, fmt.Errorf("reformulate query: %w", reformulateErr)
	}
	if extractErr != nil {
		return "", nil, fmt.Errorf("extract time tokens: %w", extractErr)
	}
	return effectiveQuery, override, nil
}

// buildAnswerPrompt runs the full retrieval pass for one question and
// returns the synthesized prompt pair.
func (s *assistantService) buildAnswerPrompt(ctx context.Context, req dto.AnswerQueryRequest, history []llm.Message) (string, string, error) {
	effectiveQuery, rangeOverride, err := s.prepareQuery(ctx, req, history)
	if err != nil {
		return "", "", err
	}

	namespace := req.Namespace()
	opts := contextbuilder.Options{IncludeHistory: true}
	lastSessionSpelled := ""

	if rangeOverride != nil {
		// Explicit time ranges replace similarity search entirely.
		opts.Overrides = []contextbuilder.DateOverride{*rangeOverride}
	} else {
		opts.TopK = contextbuilder.DefaultTopK
		opts.Rerank = true
		opts.RerankTopN = contextbuilder.DefaultRerankTopN

		dates, err := s.assembler.SessionDates(ctx, namespace)
		if err != nil {
			return "", "", err
		}
		if len(dates) > 0 {
			opts.Overrides = []contextbuilder.DateOverride{contextbuilder.NewLastSessionOverride(dates[0])}
			lastSessionSpelled, err = utils.SpellOutDate(dates[0])
			if err != nil {
				return "", "", err
			}
		}
	}

	contextText, err := s.assembler.Assemble(ctx, effectiveQuery, namespace, opts)
	if err != nil {
		return "", "", err
	}

	return prompt.Build(prompt.VariantQuery, prompt.Params{
		Query:               effectiveQuery,
		Context:             contextText,
		ChatHistoryIncluded: len(history) > 0,
		LanguageCode:        defaultLanguage(req.LanguageCode),
		PatientName:         req.PatientName,
		PatientGender:       req.PatientGender,
		LastSessionDate:     lastSessionSpelled,
	})
}

func (s *assistantService) AnswerQuery(ctx context.Context, req dto.AnswerQueryRequest) (*dto.AnswerQueryResponse, error) {
	history, err := s.sessions.History(ctx, req.TenantID, req.PatientID)
	if err != nil {
		return nil, err
	}

	system, user, err := s.buildAnswerPrompt(ctx, req, history)
	if err != nil {
		return nil, err
	}

	answer, err := s.synth.Complete(ctx, "answer_query", system, user)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Append(ctx, req.TenantID, req.PatientID, req.Query, answer); err != nil {
		s.logger.Warn("assistant", "Failed to persist conversation turn", map[string]interface{}{
			"tenant_id": req.TenantID,
			"error":     err.Error(),
		})
	}
	return &dto.AnswerQueryResponse{Answer: answer}, nil
}

// AnswerQueryStream streams answer tokens as they arrive. The exchange
// is recorded in the conversation once the stream completes cleanly.
func (s *assistantService) AnswerQueryStream(ctx context.Context, req dto.AnswerQueryRequest) (<-chan string, <-chan error) {
	out := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		history, err := s.sessions.History(ctx, req.TenantID, req.PatientID)
		if err != nil {
			errCh <- err
			return
		}

		system, user, err := s.buildAnswerPrompt(ctx, req, history)
		if err != nil {
			errCh <- err
			return
		}

		textCh, streamErrCh := s.synth.CompleteStream(ctx, "answer_query", system, user)
		var full strings.Builder
		for token := range textCh {
			full.WriteString(token)
			out <- token
		}
		if err := <-streamErrCh; err != nil {
			errCh <- err
			return
		}

		if err := s.sessions.Append(ctx, req.TenantID, req.PatientID, req.Query, full.String()); err != nil {
			s.logger.Warn("assistant", "Failed to persist conversation turn", map[string]interface{}{
				"tenant_id": req.TenantID,
				"error":     err.Error(),
			})
		}
	}()

	return out, errCh
}

// SummarizeText condenses arbitrary session text. When the whole text
// fits the response budget it is summarized in one pass, otherwise it
// goes through the chunked map-reduce path.
func (s *assistantService) SummarizeText(ctx context.Context, req dto.SummarizeTextRequest) (*dto.SummarizeTextResponse, error) {
	language := defaultLanguage(req.LanguageCode)

	system, user, err := prompt.Build(prompt.VariantTranscriptChunkSummary, prompt.Params{
		Text:         req.Text,
		LanguageCode: language,
	})
	if err != nil {
		return nil, err
	}

	var summary string
	if s.synth.FitsBudget(system, user) {
		summary, err = s.synth.Complete(ctx, "summarize_text", system, user, llm.WithTemperature(0.2))
	} else {
		summary, err = s.mapReducer.Summarize(ctx, req.Text, language)
	}
	if err != nil {
		return nil, err
	}
	return &dto.SummarizeTextResponse{Summary: summary}, nil
}

// recentSessionsOptions builds an assembly pass over the patient's N
// most recent sessions, with no similarity search. Returns the options
// and the total number of indexed sessions.
func (s *assistantService) recentSessionsOptions(ctx context.Context, namespace string, limit int) (contextbuilder.Options, int, error) {
	dates, err := s.assembler.SessionDates(ctx, namespace)
	if err != nil {
		return contextbuilder.Options{}, 0, err
	}

	recent := dates
	if len(recent) > limit {
		recent = recent[:limit]
	}

	opts := contextbuilder.Options{IncludeHistory: true}
	for _, date := range recent {
		opts.Overrides = append(opts.Overrides, contextbuilder.DateOverride{
			Type:  contextbuilder.OverrideSingleDate,
			Start: date,
		})
	}
	return opts, len(dates), nil
}

func (s *assistantService) CreateBriefing(ctx context.Context, req dto.BriefingRequest) (*dto.BriefingResponse, error) {
	namespace := req.Namespace()
	opts, sessionCount, err := s.recentSessionsOptions(ctx, namespace, constant.BriefingSessionCap)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("Please provide the briefing on %s's session history.", req.PatientName)
	contextText, err := s.assembler.Assemble(ctx, query, namespace, opts)
	if err != nil {
		return nil, err
	}

	system, user, err := prompt.Build(prompt.VariantBriefing, prompt.Params{
		Query:         query,
		Context:       contextText,
		LanguageCode:  defaultLanguage(req.LanguageCode),
		PatientName:   req.PatientName,
		PatientGender: req.PatientGender,
		TherapistName: req.TherapistName,
		SessionCount:  sessionCount,
	})
	if err != nil {
		return nil, err
	}

	briefing, err := s.synth.Complete(ctx, "create_briefing", system, user,
		llm.WithCache(synthesis.CacheTTLSeconds,
			synthesis.ShardKey(namespace, constant.ActionBriefing, utils.Today())))
	if err != nil {
		return nil, err
	}
	return &dto.BriefingResponse{Briefing: briefing}, nil
}

func (s *assistantService) CreateQuestionSuggestions(ctx context.Context, req dto.QuestionSuggestionsRequest) (*dto.QuestionSuggestionsResponse, error) {
	namespace := req.Namespace()
	opts, _, err := s.recentSessionsOptions(ctx, namespace, constant.QuestionsSessionCap)
	if err != nil {
		return nil, err
	}

	query := "Please suggest two questions about the patient's session history."
	contextText, err := s.assembler.Assemble(ctx, query, namespace, opts)
	if err != nil {
		return nil, err
	}

	system, user, err := prompt.Build(prompt.VariantQuestionSuggestions, prompt.Params{
		Query:         query,
		Context:       contextText,
		LanguageCode:  defaultLanguage(req.LanguageCode),
		PatientName:   req.PatientName,
		PatientGender: req.PatientGender,
	})
	if err != nil {
		return nil, err
	}

	raw, err := s.synth.Complete(ctx, "question_suggestions", system, user,
		llm.WithJSONMode(),
		llm.WithCache(synthesis.CacheTTLSeconds,
			synthesis.ShardKey(namespace, constant.ActionQuestionSugges, utils.Today())))
	if err != nil {
		return nil, err
	}

	var parsed dto.QuestionSuggestionsResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse question suggestions: %w", err)
	}
	if len(parsed.Questions) != 2 {
		return nil, fmt.Errorf("expected exactly two question suggestions, got %d", len(parsed.Questions))
	}
	return &parsed, nil
}

func (s *assistantService) FetchRecentTopics(ctx context.Context, req dto.RecentTopicsRequest) (*dto.RecentTopicsResponse, error) {
	namespace := req.Namespace()
	opts, _, err := s.recentSessionsOptions(ctx, namespace, constant.TopicsSessionCap)
	if err != nil {
		return nil, err
	}
	// Topics come from session content only, never from pre-existing history.
	opts.IncludeHistory = false

	query := "What topics has the patient been discussing the most recently?"
	contextText, err := s.assembler.Assemble(ctx, query, namespace, opts)
	if err != nil {
		return nil, err
	}

	system, user, err := prompt.Build(prompt.VariantRecentTopics, prompt.Params{
		Query:        query,
		Context:      contextText,
		LanguageCode: defaultLanguage(req.LanguageCode),
		PatientName:  req.PatientName,
	})
	if err != nil {
		return nil, err
	}

	raw, err := s.synth.Complete(ctx, "recent_topics", system, user,
		llm.WithJSONMode(),
		llm.WithCache(synthesis.CacheTTLSeconds,
			synthesis.ShardKey(namespace, constant.ActionRecentTopics, utils.Today())))
	if err != nil {
		return nil, err
	}

	var parsed dto.RecentTopicsResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse recent topics: %w", err)
	}
	return &parsed, nil
}

func (s *assistantService) CreateTopicsInsights(ctx context.Context, req dto.TopicsInsightsRequest) (*dto.TopicsInsightsResponse, error) {
	topicsJSON, err := json.Marshal(req.Topics)
	if err != nil {
		return nil, fmt.Errorf("encode topics: %w", err)
	}

	query := "What do these topics and their frequencies tell us about the patient?"
	system, user, err := prompt.Build(prompt.VariantTopicsInsights, prompt.Params{
		Query:         query,
		Context:       string(topicsJSON),
		LanguageCode:  defaultLanguage(req.LanguageCode),
		PatientName:   req.PatientName,
		PatientGender: req.PatientGender,
	})
	if err != nil {
		return nil, err
	}

	insights, err := s.synth.Complete(ctx, "topics_insights", system, user,
		llm.WithCache(synthesis.CacheTTLSeconds,
			synthesis.ShardKey(req.Namespace(), constant.ActionTopicsInsights, utils.Today())))
	if err != nil {
		return nil, err
	}
	return &dto.TopicsInsightsResponse{Insights: insights}, nil
}

func (s *assistantService) CreateAttendanceInsights(ctx context.Context, req dto.AttendanceInsightsRequest) (*dto.AttendanceInsightsResponse, error) {
	dates := req.SessionDates
	if len(dates) > constant.AttendanceSessionCap {
		dates = dates[len(dates)-constant.AttendanceSessionCap:]
	}

	system, user, err := prompt.Build(prompt.VariantAttendanceInsights, prompt.Params{
		LanguageCode: defaultLanguage(req.LanguageCode),
		PatientName:  req.PatientName,
		SessionDates: dates,
	})
	if err != nil {
		return nil, err
	}

	insights, err := s.synth.Complete(ctx, "attendance_insights", system, user,
		llm.WithCache(synthesis.CacheTTLSeconds,
			synthesis.ShardKey(req.Namespace(), constant.ActionAttendanceInsights, utils.Today())))
	if err != nil {
		return nil, err
	}
	return &dto.AttendanceInsightsResponse{Insights: insights}, nil
}

func (s *assistantService) CreateSoapNote(ctx context.Context, req dto.SoapNoteRequest) (*dto.SoapNoteResponse, error) {
	system, user, err := prompt.Build(prompt.VariantSoapNote, prompt.Params{Text: req.Transcript})
	if err != nil {
		return nil, err
	}

	note, err := s.synth.Complete(ctx, "create_soap_note", system, user)
	if err != nil {
		return nil, err
	}
	return &dto.SoapNoteResponse{Note: note}, nil
}

func (s *assistantService) CreateSessionMiniSummary(ctx context.Context, req dto.SessionMiniSummaryRequest) (*dto.SessionMiniSummaryResponse, error) {
	system, user, err := prompt.Build(prompt.VariantSessionMiniSummary, prompt.Params{
		Text:         req.Text,
		LanguageCode: defaultLanguage(req.LanguageCode),
	})
	if err != nil {
		return nil, err
	}

	summary, err := s.synth.Complete(ctx, "session_mini_summary", system, user, llm.WithTemperature(0.2))
	if err != nil {
		return nil, err
	}
	return &dto.SessionMiniSummaryResponse{Summary: summary}, nil
}

func (s *assistantService) CreateGreeting(ctx context.Context, req dto.GreetingRequest) (*dto.GreetingResponse, error) {
	system, user, err := prompt.Build(prompt.VariantGreeting, prompt.Params{
		TherapistName: req.TherapistName,
		LanguageCode:  defaultLanguage(req.LanguageCode),
		Weekday:       time.Now().Weekday().String(),
	})
	if err != nil {
		return nil, err
	}

	greeting, err := s.synth.Complete(ctx, "create_greeting", system, user,
		llm.WithCache(synthesis.CacheTTLSeconds,
			synthesis.ShardKey(req.TherapistID, constant.ActionGreeting, utils.Today())))
	if err != nil {
		return nil, err
	}
	return &dto.GreetingResponse{Greeting: greeting}, nil
}

func (s *assistantService) IndexSession(ctx context.Context, req dto.IndexSessionRequest) (*dto.IndexSessionResponse, error) {
	namespace := req.Namespace()

	var chunks int
	var err error
	if req.Reindex {
		chunks, err = s.indexer.Reindex(ctx, namespace, req.SessionDate, req.Text)
	} else {
		chunks, err = s.indexer.Index(ctx, namespace, req.SessionDate, req.Text)
	}
	if err != nil {
		return nil, err
	}

	s.resetConversation(ctx, req.TenantID, req.PatientID)
	s.publishEvent(ctx, events.NewSessionIndexed(req.TenantID, req.PatientID, req.SessionDate, chunks))
	return &dto.IndexSessionResponse{Chunks: chunks}, nil
}

// EnqueueIndexSession hands the indexing work to the background
// consumer. The caller gets an immediate acknowledgment.
func (s *assistantService) EnqueueIndexSession(_ context.Context, payload dto.IndexSessionMessage) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode index message: %w", err)
	}
	return s.queue.Publish(s.indexTopic, message.NewMessage(watermill.NewUUID(), data))
}

func (s *assistantService) IndexHistory(ctx context.Context, req dto.IndexHistoryRequest) (*dto.IndexSessionResponse, error) {
	namespace := req.Namespace()

	var chunks int
	var err error
	if req.Reindex {
		chunks, err = s.indexer.ReindexHistory(ctx, namespace, req.Text)
	} else {
		chunks, err = s.indexer.IndexHistory(ctx, namespace, req.Text)
	}
	if err != nil {
		return nil, err
	}

	s.resetConversation(ctx, req.TenantID, req.PatientID)
	s.publishEvent(ctx, events.NewSessionIndexed(req.TenantID, req.PatientID, "", chunks))
	return &dto.IndexSessionResponse{Chunks: chunks}, nil
}

func (s *assistantService) DeleteSession(ctx context.Context, req dto.DeleteSessionRequest) error {
	if err := s.indexer.DeleteByDate(ctx, req.Namespace(), req.SessionDate); err != nil {
		return err
	}
	s.resetConversation(ctx, req.TenantID, req.PatientID)
	s.publishEvent(ctx, events.NewSessionRemoved(req.TenantID, req.PatientID, req.SessionDate))
	return nil
}

func (s *assistantService) DeleteHistory(ctx context.Context, scope dto.Scope) error {
	if err := s.indexer.DeleteHistory(ctx, scope.Namespace()); err != nil {
		return err
	}
	s.resetConversation(ctx, scope.TenantID, scope.PatientID)
	s.publishEvent(ctx, events.NewSessionRemoved(scope.TenantID, scope.PatientID, ""))
	return nil
}

func (s *assistantService) DeletePatient(ctx context.Context, scope dto.Scope) error {
	if err := s.indexer.DeleteNamespace(ctx, scope.Namespace()); err != nil {
		return err
	}
	s.resetConversation(ctx, scope.TenantID, scope.PatientID)
	s.publishEvent(ctx, events.NewSessionRemoved(scope.TenantID, scope.PatientID, ""))
	return nil
}

// resetConversation drops the therapist's chat history after their
// active patient's data changed, so follow-up turns are answered from
// the updated index. Namespaces are `<therapist>-<patient>`, so the
// tenant id doubles as the conversation key.
func (s *assistantService) resetConversation(ctx context.Context, tenantID, patientID string) {
	if err := s.sessions.ResetIfActive(ctx, tenantID, patientID); err != nil {
		s.logger.Warn("assistant", "Failed to reset conversation after data change", map[string]interface{}{
			"tenant_id":  tenantID,
			"patient_id": patientID,
			"error":      err.Error(),
		})
	}
}

// publishEvent is best-effort. A failed publish must not fail the write
// it describes.
func (s *assistantService) publishEvent(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("assistant", "Failed to publish event", map[string]interface{}{
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
	}
}
