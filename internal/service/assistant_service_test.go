package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"chartnotes-be/internal/constant"
	"chartnotes-be/internal/dto"
	"chartnotes-be/internal/pkg/logger"
	"chartnotes-be/internal/repository/memory"
	"chartnotes-be/pkg/events"
	"chartnotes-be/pkg/llm"
	"chartnotes-be/pkg/rag/contextbuilder"
	"chartnotes-be/pkg/rag/state"
	"chartnotes-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSynthesizer scripts one reply per incoming method and records the
// options each call carried.
type fakeSynthesizer struct {
	replies    map[string]string
	capturedBy map[string]llm.Options
	methods    []string
	tightFit   bool
}

func newFakeSynthesizer() *fakeSynthesizer {
	return &fakeSynthesizer{
		replies:    map[string]string{},
		capturedBy: map[string]llm.Options{},
	}
}

func (f *fakeSynthesizer) Complete(_ context.Context, incomingMethod, _, _ string, opts ...llm.Option) (string, error) {
	f.methods = append(f.methods, incomingMethod)
	f.capturedBy[incomingMethod] = *llm.ApplyOptions(opts...)
	if reply, ok := f.replies[incomingMethod]; ok {
		return reply, nil
	}
	return "canned answer", nil
}

func (f *fakeSynthesizer) CompleteStream(ctx context.Context, incomingMethod, system, user string, opts ...llm.Option) (<-chan string, <-chan error) {
	textCh := make(chan string, 1)
	errCh := make(chan error, 1)
	out, err := f.Complete(ctx, incomingMethod, system, user, opts...)
	if err != nil {
		errCh <- err
	} else {
		textCh <- out
	}
	close(textCh)
	close(errCh)
	return textCh, errCh
}

func (f *fakeSynthesizer) FitsBudget(_, _ string) bool { return !f.tightFit }

func (f *fakeSynthesizer) called(method string) bool {
	_, ok := f.capturedBy[method]
	return ok
}

type fakeMapReducer struct {
	calls int
}

func (f *fakeMapReducer) Summarize(context.Context, string, string) (string, error) {
	f.calls++
	return "map-reduced summary", nil
}

type fakeAssembler struct {
	contextText  string
	sessionDates []string
	lastQuery    string
	lastOpts     contextbuilder.Options
}

func (f *fakeAssembler) Assemble(_ context.Context, query, _ string, opts contextbuilder.Options) (string, error) {
	f.lastQuery = query
	f.lastOpts = opts
	return f.contextText, nil
}

func (f *fakeAssembler) SessionDates(context.Context, string) ([]string, error) {
	return f.sessionDates, nil
}

type fakeIndexer struct {
	chunks     int
	indexed    int
	reindexed  int
	deleted    int
	namespaces []string
}

func (f *fakeIndexer) Index(_ context.Context, namespace, _, _ string) (int, error) {
	f.indexed++
	f.namespaces = append(f.namespaces, namespace)
	return f.chunks, nil
}

func (f *fakeIndexer) Reindex(_ context.Context, namespace, _, _ string) (int, error) {
	f.reindexed++
	f.namespaces = append(f.namespaces, namespace)
	return f.chunks, nil
}

func (f *fakeIndexer) DeleteByDate(context.Context, string, string) error {
	f.deleted++
	return nil
}

func (f *fakeIndexer) DeleteNamespace(context.Context, string) error {
	f.deleted++
	return nil
}

func (f *fakeIndexer) IndexHistory(_ context.Context, namespace, _ string) (int, error) {
	f.indexed++
	f.namespaces = append(f.namespaces, namespace)
	return f.chunks, nil
}

func (f *fakeIndexer) ReindexHistory(_ context.Context, namespace, _ string) (int, error) {
	f.reindexed++
	f.namespaces = append(f.namespaces, namespace)
	return f.chunks, nil
}

func (f *fakeIndexer) DeleteHistory(context.Context, string) error {
	f.deleted++
	return nil
}

type fakeEventPublisher struct {
	published []events.Event
	fail      bool
}

func (f *fakeEventPublisher) Publish(_ context.Context, event events.Event) error {
	if f.fail {
		return errors.New("bus down")
	}
	f.published = append(f.published, event)
	return nil
}

type fakeQueue struct {
	topic    string
	payloads []*message.Message
}

func (f *fakeQueue) Publish(topic string, messages ...*message.Message) error {
	f.topic = topic
	f.payloads = append(f.payloads, messages...)
	return nil
}

func (f *fakeQueue) Close() error { return nil }

type fixture struct {
	svc       IAssistantService
	synth     *fakeSynthesizer
	mapRed    *fakeMapReducer
	assembler *fakeAssembler
	indexer   *fakeIndexer
	publisher *fakeEventPublisher
	queue     *fakeQueue
	sessions  *state.Manager
}

func newFixture() *fixture {
	f := &fixture{
		synth:     newFakeSynthesizer(),
		mapRed:    &fakeMapReducer{},
		assembler: &fakeAssembler{contextText: "`session_date` = March 4, 2025\n`chunk_summary` = Discussed sleep.\n"},
		indexer:   &fakeIndexer{chunks: 3},
		publisher: &fakeEventPublisher{},
		queue:     &fakeQueue{},
		sessions:  state.NewManager(memory.NewSessionRepository(time.Hour)),
	}
	// No time range implied unless a test overrides this.
	f.synth.replies["extract_time_tokens"] = `{"start_date": null, "end_date": null}`
	f.svc = NewAssistantService(
		f.indexer, f.assembler, f.synth, f.mapRed, f.sessions,
		f.publisher, f.queue, "INDEX_SESSION", logger.NewNopLogger(),
	)
	return f
}

func queryRequest() dto.AnswerQueryRequest {
	return dto.AnswerQueryRequest{
		Scope:       dto.Scope{TenantID: "t1", PatientID: "p1"},
		Query:       "How has the patient been sleeping?",
		PatientName: "Alex",
	}
}

func TestAnswerQueryFirstTurnSkipsReformulation(t *testing.T) {
	f := newFixture()
	f.assembler.sessionDates = []string{"2025-03-11", "2025-03-04"}

	res, err := f.svc.AnswerQuery(context.Background(), queryRequest())
	require.NoError(t, err)
	assert.Equal(t, "canned answer", res.Answer)

	assert.False(t, f.synth.called("reformulate_query"), "no history, nothing to reformulate")
	assert.True(t, f.synth.called("extract_time_tokens"))

	// Similarity search with rerank, plus a forced most-recent-session override.
	assert.Equal(t, contextbuilder.DefaultTopK, f.assembler.lastOpts.TopK)
	assert.True(t, f.assembler.lastOpts.Rerank)
	require.Len(t, f.assembler.lastOpts.Overrides, 1)
	assert.Equal(t, "2025-03-11", f.assembler.lastOpts.Overrides[0].Start)
}

func TestAnswerQueryRecordsConversation(t *testing.T) {
	f := newFixture()
	req := queryRequest()

	_, err := f.svc.AnswerQuery(context.Background(), req)
	require.NoError(t, err)

	history, err := f.sessions.History(context.Background(), req.TenantID, req.PatientID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, req.Query, history[0].Content)
	assert.Equal(t, "canned answer", history[1].Content)
}

func TestAnswerQueryFollowUpReformulates(t *testing.T) {
	f := newFixture()
	f.synth.replies["reformulate_query"] = "How has Alex been sleeping since March?"
	req := queryRequest()

	_, err := f.svc.AnswerQuery(context.Background(), req)
	require.NoError(t, err)

	req.Query = "And since March?"
	_, err = f.svc.AnswerQuery(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, f.synth.called("reformulate_query"))
	assert.Equal(t, "How has Alex been sleeping since March?", f.assembler.lastQuery)
}

func TestAnswerQueryTimeRangeDisablesSimilaritySearch(t *testing.T) {
	f := newFixture()
	f.synth.replies["extract_time_tokens"] = `{"start_date": "2025-03-01", "end_date": "2025-03-15"}`

	_, err := f.svc.AnswerQuery(context.Background(), queryRequest())
	require.NoError(t, err)

	assert.Zero(t, f.assembler.lastOpts.TopK)
	assert.False(t, f.assembler.lastOpts.Rerank)
	require.Len(t, f.assembler.lastOpts.Overrides, 1)
	override := f.assembler.lastOpts.Overrides[0]
	assert.Equal(t, contextbuilder.OverrideDateRange, override.Type)
	assert.Equal(t, "2025-03-01", override.Start)
	assert.Equal(t, "2025-03-15", override.End)
}

func TestSummarizeTextDirectWhenItFits(t *testing.T) {
	f := newFixture()
	f.synth.replies["summarize_text"] = "short recap"

	res, err := f.svc.SummarizeText(context.Background(), dto.SummarizeTextRequest{Text: "notes"})
	require.NoError(t, err)
	assert.Equal(t, "short recap", res.Summary)
	assert.Zero(t, f.mapRed.calls)
}

func TestSummarizeTextFallsBackToMapReduce(t *testing.T) {
	f := newFixture()
	f.synth.tightFit = true

	res, err := f.svc.SummarizeText(context.Background(), dto.SummarizeTextRequest{Text: "very long transcript"})
	require.NoError(t, err)
	assert.Equal(t, "map-reduced summary", res.Summary)
	assert.Equal(t, 1, f.mapRed.calls)
}

func TestCreateBriefingUsesRecentSessionsAndDayCache(t *testing.T) {
	f := newFixture()
	f.assembler.sessionDates = []string{"2025-03-25", "2025-03-18", "2025-03-11", "2025-03-04", "2025-02-25"}

	_, err := f.svc.CreateBriefing(context.Background(), dto.BriefingRequest{
		Scope:         dto.Scope{TenantID: "t1", PatientID: "p1"},
		TherapistName: "Dr. Kim",
		PatientName:   "Alex",
	})
	require.NoError(t, err)

	// Only the most recent sessions are forced in, similarity search stays off.
	assert.Zero(t, f.assembler.lastOpts.TopK)
	assert.Len(t, f.assembler.lastOpts.Overrides, constant.BriefingSessionCap)
	assert.True(t, f.assembler.lastOpts.IncludeHistory)

	opts := f.capturedCacheOptions(t, "create_briefing")
	assert.Equal(t, "t1-p1-patient-briefing-"+utils.Today(), opts.Cache.ShardKey)
	assert.Equal(t, 86400, opts.Cache.MaxAgeSeconds)
}

func (f *fixture) capturedCacheOptions(t *testing.T, method string) llm.Options {
	t.Helper()
	opts, ok := f.synth.capturedBy[method]
	require.True(t, ok, "expected a %s completion", method)
	require.NotNil(t, opts.Cache)
	return opts
}

func TestCreateQuestionSuggestionsParsesExactlyTwo(t *testing.T) {
	f := newFixture()
	f.synth.replies["question_suggestions"] = `{"questions": ["How is their sleep?", "Any journaling progress?"]}`

	res, err := f.svc.CreateQuestionSuggestions(context.Background(), dto.QuestionSuggestionsRequest{
		Scope:       dto.Scope{TenantID: "t1", PatientID: "p1"},
		PatientName: "Alex",
	})
	require.NoError(t, err)
	assert.Len(t, res.Questions, 2)
}

func TestCreateQuestionSuggestionsRejectsWrongCount(t *testing.T) {
	f := newFixture()
	f.synth.replies["question_suggestions"] = `{"questions": ["only one"]}`

	_, err := f.svc.CreateQuestionSuggestions(context.Background(), dto.QuestionSuggestionsRequest{
		Scope:       dto.Scope{TenantID: "t1", PatientID: "p1"},
		PatientName: "Alex",
	})
	assert.Error(t, err)
}

func TestFetchRecentTopicsParsesFencedJSON(t *testing.T) {
	f := newFixture()
	f.synth.replies["recent_topics"] = "```json\n{\"topics\": [{\"topic\": \"Sleep\", \"percentage\": \"60%\"}, {\"topic\": \"Work stress\", \"percentage\": \"40%\"}]}\n```"

	res, err := f.svc.FetchRecentTopics(context.Background(), dto.RecentTopicsRequest{
		Scope:       dto.Scope{TenantID: "t1", PatientID: "p1"},
		PatientName: "Alex",
	})
	require.NoError(t, err)
	require.Len(t, res.Topics, 2)
	assert.Equal(t, "Sleep", res.Topics[0].Topic)
	assert.Equal(t, "60%", res.Topics[0].Percentage)
	assert.False(t, f.assembler.lastOpts.IncludeHistory, "topics come from sessions only")
}

func TestCreateGreetingCachesPerTherapistPerDay(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateGreeting(context.Background(), dto.GreetingRequest{
		TherapistID:   "th9",
		TherapistName: "Dr. Kim",
	})
	require.NoError(t, err)

	opts := f.capturedCacheOptions(t, "create_greeting")
	assert.Equal(t, "th9-greeting-"+utils.Today(), opts.Cache.ShardKey)
}

func TestIndexSessionPublishesEvent(t *testing.T) {
	f := newFixture()

	res, err := f.svc.IndexSession(context.Background(), dto.IndexSessionRequest{
		Scope:       dto.Scope{TenantID: "t1", PatientID: "p1"},
		SessionDate: "2025-03-04",
		Text:        "session notes",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, 1, f.indexer.indexed)
	assert.Equal(t, []string{"t1-p1"}, f.indexer.namespaces)

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, events.TypeSessionIndexed, f.publisher.published[0].EventType())
}

func TestMutationClearsRecordedConversation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := queryRequest()

	_, err := f.svc.AnswerQuery(ctx, req)
	require.NoError(t, err)

	history, err := f.sessions.History(ctx, req.TenantID, req.PatientID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Indexing new data for the same scope invalidates the conversation
	// the query recorded.
	_, err = f.svc.IndexSession(ctx, dto.IndexSessionRequest{
		Scope:       req.Scope,
		SessionDate: "2025-03-04",
		Text:        "session notes",
	})
	require.NoError(t, err)

	history, err = f.sessions.History(ctx, req.TenantID, req.PatientID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestIndexSessionResetsActiveConversation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.sessions.Append(ctx, "t1", "p1", "q", "a"))
	require.NoError(t, f.sessions.Append(ctx, "t2", "p1", "q", "a"))

	_, err := f.svc.IndexSession(ctx, dto.IndexSessionRequest{
		Scope:       dto.Scope{TenantID: "t1", PatientID: "p1"},
		SessionDate: "2025-03-04",
		Text:        "session notes",
	})
	require.NoError(t, err)

	// New data invalidates the active conversation for that patient only.
	history, err := f.sessions.History(ctx, "t1", "p1")
	require.NoError(t, err)
	assert.Empty(t, history)

	history, err = f.sessions.History(ctx, "t2", "p1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestIndexSessionSurvivesEventBusOutage(t *testing.T) {
	f := newFixture()
	f.publisher.fail = true

	_, err := f.svc.IndexSession(context.Background(), dto.IndexSessionRequest{
		Scope:       dto.Scope{TenantID: "t1", PatientID: "p1"},
		SessionDate: "2025-03-04",
		Text:        "session notes",
	})
	assert.NoError(t, err)
}

func TestEnqueueIndexSession(t *testing.T) {
	f := newFixture()

	err := f.svc.EnqueueIndexSession(context.Background(), dto.IndexSessionMessage{
		TenantID:    "t1",
		PatientID:   "p1",
		SessionDate: "2025-03-04",
		Text:        "session notes",
	})
	require.NoError(t, err)
	assert.Equal(t, "INDEX_SESSION", f.queue.topic)
	require.Len(t, f.queue.payloads, 1)
	assert.Contains(t, string(f.queue.payloads[0].Payload), `"session_date":"2025-03-04"`)
}

func TestDeletePatientPublishesRemoval(t *testing.T) {
	f := newFixture()

	err := f.svc.DeletePatient(context.Background(), dto.Scope{TenantID: "t1", PatientID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.indexer.deleted)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, events.TypeSessionRemoved, f.publisher.published[0].EventType())
}
