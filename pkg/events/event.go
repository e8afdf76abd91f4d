package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_INDEXED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const (
	TypeSessionIndexed = "SESSION_INDEXED"
	TypeSessionRemoved = "SESSION_REMOVED"
)

// NewSessionIndexed signals that a patient's session chunks were written
// to the vector store. Downstream consumers invalidate anything derived
// from the patient's previous index state.
func NewSessionIndexed(tenantID, patientID, sessionDate string, chunks int) Event {
	return BaseEvent{
		Type: TypeSessionIndexed,
		Data: map[string]interface{}{
			"tenant_id":    tenantID,
			"patient_id":   patientID,
			"session_date": sessionDate,
			"chunks":       chunks,
		},
		OccurredAt: time.Now(),
	}
}

// NewSessionRemoved signals that a session's vectors (or a patient's
// whole namespace) were deleted.
func NewSessionRemoved(tenantID, patientID, sessionDate string) Event {
	return BaseEvent{
		Type: TypeSessionRemoved,
		Data: map[string]interface{}{
			"tenant_id":    tenantID,
			"patient_id":   patientID,
			"session_date": sessionDate,
		},
		OccurredAt: time.Now(),
	}
}
