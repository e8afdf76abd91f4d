package state

import (
	"context"
	"time"

	"chartnotes-be/pkg/llm"
)

// MaxHistoryMessages caps how many chat messages one conversation keeps.
// Older turns are dropped from the front.
const MaxHistoryMessages = 20

// Conversation is one therapist's rolling assistant session. History is
// scoped to the active patient; switching patients discards it.
type Conversation struct {
	TherapistID     string        `json:"therapist_id"`
	ActivePatientID string        `json:"active_patient_id"`
	Messages        []llm.Message `json:"messages"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type Repository interface {
	Get(ctx context.Context, therapistID string) (*Conversation, bool, error)
	Save(ctx context.Context, conversation *Conversation) error
	Delete(ctx context.Context, therapistID string) error
}

type IManager interface {
	History(ctx context.Context, therapistID, patientID string) ([]llm.Message, error)
	Append(ctx context.Context, therapistID, patientID, question, answer string) error
	Reset(ctx context.Context, therapistID string) error
	ResetIfActive(ctx context.Context, therapistID, patientID string) error
	Clear(ctx context.Context, therapistID string) error
}

// Manager enforces the patient-scoping rules on top of a Repository.
type Manager struct {
	repo Repository
}

var _ IManager = &Manager{}

func NewManager(repo Repository) *Manager {
	return &Manager{repo: repo}
}

// History returns the chat history for the therapist's conversation with
// this patient. A patient switch rebinds the conversation and starts the
// history fresh.
func (m *Manager) History(ctx context.Context, therapistID, patientID string) ([]llm.Message, error) {
	conversation, found, err := m.repo.Get(ctx, therapistID)
	if err != nil {
		return nil, err
	}
	if !found || conversation.ActivePatientID != patientID {
		return nil, nil
	}
	return conversation.Messages, nil
}

// Append records one question/answer exchange, rebinding the
// conversation first if the patient changed.
func (m *Manager) Append(ctx context.Context, therapistID, patientID, question, answer string) error {
	conversation, found, err := m.repo.Get(ctx, therapistID)
	if err != nil {
		return err
	}
	if !found || conversation.ActivePatientID != patientID {
		conversation = &Conversation{
			TherapistID:     therapistID,
			ActivePatientID: patientID,
		}
	}

	conversation.Messages = append(conversation.Messages,
		llm.Message{Role: "user", Content: question},
		llm.Message{Role: "assistant", Content: answer},
	)
	if len(conversation.Messages) > MaxHistoryMessages {
		conversation.Messages = conversation.Messages[len(conversation.Messages)-MaxHistoryMessages:]
	}
	conversation.UpdatedAt = time.Now()

	return m.repo.Save(ctx, conversation)
}

// Reset drops the chat history but keeps the conversation bound to the
// active patient. Used after the patient's underlying data changes, so
// stale answers can't leak into follow-up turns.
func (m *Manager) Reset(ctx context.Context, therapistID string) error {
	conversation, found, err := m.repo.Get(ctx, therapistID)
	if err != nil || !found {
		return err
	}
	conversation.Messages = nil
	conversation.UpdatedAt = time.Now()
	return m.repo.Save(ctx, conversation)
}

// ResetIfActive drops the chat history only when the conversation is
// currently bound to this patient. Other patients' sessions are left
// alone.
func (m *Manager) ResetIfActive(ctx context.Context, therapistID, patientID string) error {
	conversation, found, err := m.repo.Get(ctx, therapistID)
	if err != nil || !found {
		return err
	}
	if conversation.ActivePatientID != patientID {
		return nil
	}
	conversation.Messages = nil
	conversation.UpdatedAt = time.Now()
	return m.repo.Save(ctx, conversation)
}

// Clear removes the conversation entirely.
func (m *Manager) Clear(ctx context.Context, therapistID string) error {
	return m.repo.Delete(ctx, therapistID)
}
