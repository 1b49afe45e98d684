package service

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// MembershipEvent describes a committed membership change. Events are
// best-effort fan-out for realtime consumers; they are published after the
// transaction commits and never participate in it.
type MembershipEvent struct {
	Action      string    `json:"action"`
	StudentID   uint      `json:"student_id"`
	FromGroupID *uint     `json:"from_group_id,omitempty"`
	GroupID     uint      `json:"group_id"`
	GroupName   string    `json:"group_name"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventPublisher fans committed membership changes out to interested
// consumers.
type EventPublisher interface {
	PublishMembershipChange(event MembershipEvent)
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher builds a publisher over the given connection. A nil
// connection yields a nil publisher, which callers treat as disabled.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) EventPublisher {
	if conn == nil {
		return nil
	}
	if subject == "" {
		subject = "grouper.membership"
	}
	return &natsPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) PublishMembershipChange(event MembershipEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to encode membership event")
		return
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", p.subject).Msg("failed to publish membership event")
	}
}
