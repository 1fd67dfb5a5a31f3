package lifecycle

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/kdimtricp/xgtag/internal/models"
)

type GateState string

const (
	GatePending   GateState = "pending"
	GateConfirmed GateState = "confirmed"
	GateCancelled GateState = "cancelled"
)

// Confirmation is a submission suspended by the duplicate gate. It leaves the
// pending state only through Resolve.
type Confirmation struct {
	Token       string            `json:"token"`
	State       GateState         `json:"state"`
	DuplicateOf []string          `json:"duplicate_of"`
	Fields      models.ShotFields `json:"fields"`
	CreatedAt   time.Time         `json:"created_at"`

	media []byte
}

// DefaultConfirmationTTL is how long an unanswered confirmation, and the
// clip it holds, is kept.
const DefaultConfirmationTTL = 30 * time.Minute

func (c *Confirmation) snapshot() Confirmation {
	return Confirmation{
		Token:       c.Token,
		State:       c.State,
		DuplicateOf: slices.Clone(c.DuplicateOf),
		Fields:      c.Fields,
		CreatedAt:   c.CreatedAt,
	}
}

// holdLocked registers c, first dropping expired confirmations and any older
// one for the same game, which c supersedes. The caller holds mu.
func (m *Manager) holdLocked(c *Confirmation) {
	now := m.now()
	for token, old := range m.pending {
		switch {
		case m.expired(old, now):
			m.log.Info("Duplicate confirmation expired", "token", token)
		case old.Fields.SameGame(c.Fields):
			m.log.Info("Duplicate confirmation superseded", "token", token, "by", c.Token)
		default:
			continue
		}
		delete(m.pending, token)
	}
	m.pending[c.Token] = c
}

func (m *Manager) expired(c *Confirmation, now time.Time) bool {
	return m.confirmationTTL > 0 && now.Sub(c.CreatedAt) > m.confirmationTTL
}

// lookupLocked returns the live confirmation under token. Expired entries
// are removed on sight. The caller holds mu.
func (m *Manager) lookupLocked(token string) (*Confirmation, bool) {
	token = strings.TrimSpace(token)
	c, ok := m.pending[token]
	if !ok {
		return nil, false
	}
	if m.expired(c, m.now()) {
		delete(m.pending, token)
		return nil, false
	}
	return c, true
}

// Pending returns the confirmation waiting under token, if any.
func (m *Manager) Pending(token string) (Confirmation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.lookupLocked(token)
	if !ok {
		return Confirmation{}, false
	}
	return c.snapshot(), true
}

// Resolve answers a pending confirmation. accept persists the suspended
// submission as a new, distinct shot; decline discards it. Either way the
// token is spent, as is one left unanswered for longer than the TTL. If
// persisting fails the confirmation stays pending so the
// operator can answer again.
func (m *Manager) Resolve(ctx context.Context, token string, accept bool) (SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token = strings.TrimSpace(token)
	c, ok := m.lookupLocked(token)
	if !ok || c.State != GatePending {
		return SubmitResult{}, ErrUnknownConfirmation
	}

	if !accept {
		c.State = GateCancelled
		delete(m.pending, token)
		m.log.Info("Duplicate shot discarded", "token", token)
		snapshot := c.snapshot()
		return SubmitResult{Outcome: OutcomeCancelled, Confirmation: &snapshot}, nil
	}

	id, err := m.persist(ctx, c.Fields, c.media)
	if err != nil {
		return SubmitResult{}, err
	}
	c.State = GateConfirmed
	delete(m.pending, token)
	m.log.Info("Duplicate shot confirmed", "token", token, "shot_id", id)
	snapshot := c.snapshot()
	return SubmitResult{Outcome: OutcomeCreated, ShotID: id, Confirmation: &snapshot}, nil
}
