package constant

// Action names used in cache shard keys. Changing one invalidates the
// gateway cache for that action.
const (
	ActionGreeting           = "greeting"
	ActionBriefing           = "patient-briefing"
	ActionQuestionSugges     = "question-suggestions"
	ActionRecentTopics       = "recent-topics"
	ActionTopicsInsights     = "topics-insights"
	ActionAttendanceInsights = "attendance-insights"
)

// How many recent session dates each derived artifact draws from.
const (
	BriefingSessionCap   = 4
	QuestionsSessionCap  = 4
	TopicsSessionCap     = 4
	AttendanceSessionCap = 52
)
