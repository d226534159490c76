package service

import (
	"context"
	"encoding/json"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// NotificationEvent is the payload broadcast after a committed engine action.
type NotificationEvent struct {
	Type       string    `json:"type"` // DOCUMENT_CREATED, DECISION_APPLIED, BYPASS_APPLIED
	DocumentID string    `json:"document_id"`
	DocNumber  string    `json:"doc_number"`
	DocStatus  string    `json:"doc_status"`
	Progress   int       `json:"progress"`
	ActorID    string    `json:"actor_id"`
	ActorName  string    `json:"actor_name,omitempty"`
	StepStatus string    `json:"step_status,omitempty"`
	Note       string    `json:"note,omitempty"`
	Recipients []string  `json:"recipients,omitempty"`
	At         time.Time `json:"at"`
}

// Notifier delivers engine events to interested clients. Delivery is
// best-effort and post-commit: a notifier failure is logged and never rolls
// back or blocks the committed operation.
type Notifier interface {
	DocumentCreated(doc *model.Document, recipients []model.DocumentMember)
	DecisionApplied(doc *model.Document, step *model.ApprovalStep, note string)
	BypassApplied(doc *model.Document, log *model.BypassLog)
}

type hubNotifier struct {
	hub    *websocket.Hub
	users  repository.UserRepository
	logger zerolog.Logger
}

func NewHubNotifier(hub *websocket.Hub, users repository.UserRepository, logger zerolog.Logger) Notifier {
	return &hubNotifier{hub: hub, users: users, logger: logger}
}

const recipientLookupTimeout = 5 * time.Second

func (n *hubNotifier) DocumentCreated(doc *model.Document, recipients []model.DocumentMember) {
	event := n.baseEvent("DOCUMENT_CREATED", doc)
	event.ActorID = doc.SubmitterID.String()

	// Members are persisted id-only at chain creation; any not carrying a
	// preloaded user are looked up concurrently and joined before the event
	// is emitted, so a slow lookup never leaks a goroutine.
	ctx, cancel := context.WithTimeout(context.Background(), recipientLookupTimeout)
	defer cancel()

	var g errgroup.Group
	names := make([]string, len(recipients))
	for i, m := range recipients {
		i, m := i, m
		g.Go(func() error {
			if m.User != nil {
				names[i] = m.User.Email
				return nil
			}
			user, err := n.users.GetByID(ctx, m.UserID.String())
			if err != nil {
				names[i] = m.UserID.String()
				return err
			}
			names[i] = user.Email
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		n.logger.Warn().Err(err).Msg("notification recipient resolution failed")
	}
	event.Recipients = names

	n.emit(event)
}

func (n *hubNotifier) DecisionApplied(doc *model.Document, step *model.ApprovalStep, note string) {
	event := n.baseEvent("DECISION_APPLIED", doc)
	event.ActorID = step.ApproverID.String()
	if step.Approver != nil {
		event.ActorName = step.Approver.DisplayName
	}
	event.StepStatus = step.Status
	event.Note = note
	n.emit(event)
}

func (n *hubNotifier) BypassApplied(doc *model.Document, log *model.BypassLog) {
	event := n.baseEvent("BYPASS_APPLIED", doc)
	event.ActorID = log.AdminID.String()
	event.StepStatus = log.Strategy
	event.Note = log.Reason
	n.emit(event)
}

func (n *hubNotifier) baseEvent(eventType string, doc *model.Document) NotificationEvent {
	return NotificationEvent{
		Type:       eventType,
		DocumentID: doc.ID.String(),
		DocNumber:  doc.DocNumber,
		DocStatus:  doc.Status,
		Progress:   doc.Progress,
		At:         time.Now(),
	}
}

func (n *hubNotifier) emit(event NotificationEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to encode notification")
		return
	}
	// Non-blocking send: if the hub is saturated the event is dropped, never
	// the request.
	select {
	case n.hub.Broadcast <- payload:
	default:
		n.logger.Warn().Str("type", event.Type).Msg("notification hub saturated, event dropped")
	}
}
