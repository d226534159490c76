package service

import (
	"encoding/json"
	"testing"

	"backend/internal/model"
	"backend/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveEvent(t *testing.T, hub *websocket.Hub) NotificationEvent {
	t.Helper()
	var event NotificationEvent
	select {
	case payload := <-hub.Broadcast:
		require.NoError(t, json.Unmarshal(payload, &event))
	default:
		t.Fatal("no event emitted")
	}
	return event
}

func TestDocumentCreated_ResolvesUnloadedRecipients(t *testing.T) {
	e := newTestEnv(t)
	hub := websocket.NewHub()
	notifier := NewHubNotifier(hub, e.users, e.logger)

	submitter := e.createUser(t, "NTF001", "staff")
	approver := e.createUser(t, "NTF002", "approver")
	doc := e.createDocument(t, submitter, "M1")

	// Members come back from the store id-only; the notifier must look the
	// users up itself.
	members := []model.DocumentMember{
		{DocumentID: doc.ID, UserID: submitter.ID, MemberRole: "SUBMITTER"},
		{DocumentID: doc.ID, UserID: approver.ID, MemberRole: "APPROVER"},
	}
	notifier.DocumentCreated(doc, members)

	event := receiveEvent(t, hub)
	assert.Equal(t, "DOCUMENT_CREATED", event.Type)
	assert.Equal(t, doc.ID.String(), event.DocumentID)
	assert.Equal(t, []string{submitter.Email, approver.Email}, event.Recipients)
}

func TestDocumentCreated_UnknownRecipientFallsBackToID(t *testing.T) {
	e := newTestEnv(t)
	hub := websocket.NewHub()
	notifier := NewHubNotifier(hub, e.users, e.logger)

	submitter := e.createUser(t, "NTF003", "staff")
	doc := e.createDocument(t, submitter, "M1")

	ghost := e.createUser(t, "NTF004", "approver")
	require.NoError(t, e.db.Unscoped().Delete(ghost).Error)

	members := []model.DocumentMember{
		{DocumentID: doc.ID, UserID: ghost.ID, MemberRole: "APPROVER"},
	}
	notifier.DocumentCreated(doc, members)

	event := receiveEvent(t, hub)
	assert.Equal(t, []string{ghost.ID.String()}, event.Recipients)
}

func TestDecisionApplied_BuffersWithoutRunningHub(t *testing.T) {
	e := newTestEnv(t)
	hub := websocket.NewHub()
	notifier := NewHubNotifier(hub, e.users, e.logger)

	submitter := e.createUser(t, "NTF005", "staff")
	doc := e.createDocument(t, submitter, "M1")
	step := &model.ApprovalStep{
		DocumentID: doc.ID,
		ApproverID: submitter.ID,
		Approver:   submitter,
		Status:     model.StepStatusApproved,
	}

	// The hub dispatch loop is not running; the buffered channel still
	// accepts the event instead of dropping it.
	notifier.DecisionApplied(doc, step, "looks good")

	event := receiveEvent(t, hub)
	assert.Equal(t, "DECISION_APPLIED", event.Type)
	assert.Equal(t, submitter.DisplayName, event.ActorName)
	assert.Equal(t, model.StepStatusApproved, event.StepStatus)
	assert.Equal(t, "looks good", event.Note)
}
