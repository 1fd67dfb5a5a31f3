package lifecycle

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kdimtricp/xgtag/internal/logger"
	"github.com/kdimtricp/xgtag/internal/models"
	"github.com/kdimtricp/xgtag/internal/records"
	"github.com/kdimtricp/xgtag/internal/storage"
)

const maxIDAttempts = 16

type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomePending   Outcome = "pending_confirmation"
	OutcomeCancelled Outcome = "cancelled"
)

type SubmitResult struct {
	Outcome      Outcome       `json:"outcome"`
	ShotID       string        `json:"shot_id,omitempty"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
}

// Manager owns shot creation and the annotated flag.
type Manager struct {
	repo  *records.Repository
	media storage.Storage
	log   *logger.Logger
	now   func() time.Time
	newID func() string

	confirmationTTL time.Duration

	mu      sync.Mutex
	pending map[string]*Confirmation
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// WithConfirmationTTL sets how long a duplicate confirmation waits for an
// answer. Zero keeps confirmations until they are resolved or purged.
func WithConfirmationTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.confirmationTTL = ttl }
}

func NewManager(repo *records.Repository, media storage.Storage, baseLog *logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		repo:    repo,
		media:   media,
		log:     baseLog.With("service", "ShotLifecycle"),
		now:     time.Now,
		newID:   NewShotID,
		pending: make(map[string]*Confirmation),

		confirmationTTL: DefaultConfirmationTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewShotID returns an id of the form shot_<6 hex chars>.
func NewShotID() string {
	u := uuid.New()
	return "shot_" + hex.EncodeToString(u[:3])
}

// Submit validates a new shot and persists it, unless a shot for the same
// team, opponent and date already exists. In that case nothing is written
// and the result carries a confirmation that must be resolved with Resolve.
func (m *Manager) Submit(ctx context.Context, fields models.ShotFields, media []byte) (SubmitResult, error) {
	fields = m.prepare(fields)
	if err := validate(fields, media); err != nil {
		return SubmitResult{}, err
	}

	shots, _, err := m.repo.Shots(ctx)
	if err != nil {
		return SubmitResult{}, err
	}
	var duplicates []string
	for _, s := range shots {
		if s.SameGame(fields) {
			duplicates = append(duplicates, s.ShotID)
		}
	}

	if len(duplicates) > 0 {
		c := &Confirmation{
			Token:       uuid.NewString(),
			State:       GatePending,
			DuplicateOf: duplicates,
			Fields:      fields,
			CreatedAt:   m.now().UTC(),
			media:       bytes.Clone(media),
		}
		m.mu.Lock()
		m.holdLocked(c)
		m.mu.Unlock()

		m.log.Info("Duplicate shot needs confirmation", "token", c.Token, "duplicate_of", duplicates)
		snapshot := c.snapshot()
		return SubmitResult{Outcome: OutcomePending, Confirmation: &snapshot}, nil
	}

	id, err := m.persist(ctx, fields, media)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Outcome: OutcomeCreated, ShotID: id}, nil
}

// prepare normalizes fields and defaults a missing game date to today.
func (m *Manager) prepare(fields models.ShotFields) models.ShotFields {
	fields = fields.Normalize()
	if fields.DateOfGame == "" {
		fields.DateOfGame = m.now().Format(models.DateLayout)
	}
	return fields
}

func validate(fields models.ShotFields, media []byte) error {
	verr := checkFields(fields)
	if len(media) == 0 {
		verr.Missing = append(verr.Missing, "video")
	}
	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return verr
	}
	return nil
}

func checkFields(fields models.ShotFields) *ValidationError {
	verr := &ValidationError{}
	if fields.TeamShooting == "" {
		verr.Missing = append(verr.Missing, "team_shooting")
	}
	if fields.Opponent == "" {
		verr.Missing = append(verr.Missing, "opponent")
	}
	if _, err := time.Parse(models.DateLayout, fields.DateOfGame); err != nil {
		verr.Invalid = append(verr.Invalid, "date_of_game")
	}
	if fields.MatchMinute < 0 || fields.MatchMinute > models.MaxMatchMinute {
		verr.Invalid = append(verr.Invalid, "match_minute")
	}
	return verr
}

// Reject builds the validation error for a submission already refused
// because of the named invalid fields, adding whatever else is wrong with
// fields so every problem is reported together.
func (m *Manager) Reject(fields models.ShotFields, invalid ...string) *ValidationError {
	verr := checkFields(m.prepare(fields))
	verr.Invalid = append(verr.Invalid, invalid...)
	return verr
}

// persist writes the media blob first and the record second. If the record
// write fails the blob is removed again.
func (m *Manager) persist(ctx context.Context, fields models.ShotFields, media []byte) (string, error) {
	id, err := m.allocateID(ctx)
	if err != nil {
		return "", err
	}

	if err := m.media.Put(ctx, id, bytes.NewReader(media)); err != nil {
		return "", fmt.Errorf("failed to store video for %s: %w", id, err)
	}

	shot := models.NewShot(id, fields, m.now())
	if err := m.repo.PutShot(ctx, shot); err != nil {
		if derr := m.media.Delete(ctx, id); derr != nil {
			m.log.Error("Failed to remove orphaned video", "shot_id", id, "error", derr)
		}
		return "", err
	}

	m.log.Info("Shot created", "shot_id", id, "team", shot.TeamShooting, "opponent", shot.Opponent, "date", shot.DateOfGame)
	return id, nil
}

func (m *Manager) allocateID(ctx context.Context) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := m.newID()
		taken, err := m.repo.Exists(ctx, records.KindShot, id)
		if err != nil {
			return "", err
		}
		if taken {
			continue
		}
		orphan, err := m.media.Exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !orphan {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique shot id after %d attempts", maxIDAttempts)
}

// MarkAnnotated flags a shot as annotated. Call it only after the shot's
// annotation has been written.
func (m *Manager) MarkAnnotated(ctx context.Context, shotID string) error {
	shot, err := m.repo.Shot(ctx, shotID)
	if err != nil {
		return err
	}
	if shot.Annotated {
		return nil
	}
	shot.Annotated = true
	return m.repo.PutShot(ctx, shot)
}

type PurgeReport struct {
	Annotations  int `json:"annotations"`
	Shots        int `json:"shots"`
	Media        int `json:"media"`
	KindsCleared int `json:"kinds_cleared"`
}

// Purge deletes every annotation, shot and media blob, in that order, and
// drops pending confirmations. Deletion continues past failures; the report
// counts what was cleared.
func (m *Manager) Purge(ctx context.Context) (PurgeReport, error) {
	var report PurgeReport
	var errs []error

	for _, kind := range records.Kinds {
		n, err := m.repo.DeleteAll(ctx, kind)
		switch kind {
		case records.KindAnnotation:
			report.Annotations = n
		case records.KindShot:
			report.Shots = n
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		report.KindsCleared++
	}

	n, err := m.media.DeleteAll(ctx)
	report.Media = n
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to delete media: %w", err))
	} else {
		report.KindsCleared++
	}

	m.mu.Lock()
	clear(m.pending)
	m.mu.Unlock()

	m.log.Warn("All data cleared",
		"annotations", report.Annotations,
		"shots", report.Shots,
		"media", report.Media,
		"kinds_cleared", report.KindsCleared,
	)
	return report, errors.Join(errs...)
}

type ReconcileReport struct {
	// Flagged shots had an annotation but were not marked annotated.
	Flagged []string `json:"flagged"`
	// Unbacked shots are marked annotated without an annotation record.
	Unbacked []string `json:"unbacked"`
	// Dangling annotations reference a shot that does not exist.
	Dangling []string          `json:"dangling"`
	Warnings []records.Warning `json:"warnings,omitempty"`
}

func (r ReconcileReport) InSync() bool {
	return len(r.Flagged) == 0 && len(r.Unbacked) == 0 && len(r.Dangling) == 0
}

// Reconcile repairs the one partial failure submit can leave behind (an
// annotation whose shot was never flagged) and reports inconsistencies it
// cannot repair.
func (m *Manager) Reconcile(ctx context.Context) (ReconcileReport, error) {
	report := ReconcileReport{Flagged: []string{}, Unbacked: []string{}, Dangling: []string{}}

	shots, shotWarnings, err := m.repo.Shots(ctx)
	if err != nil {
		return report, err
	}
	annotations, annotationWarnings, err := m.repo.Annotations(ctx)
	if err != nil {
		return report, err
	}
	report.Warnings = append(shotWarnings, annotationWarnings...)

	annotated := make(map[string]bool, len(annotations))
	for _, a := range annotations {
		annotated[a.ShotID] = true
	}
	known := make(map[string]bool, len(shots))
	for _, s := range shots {
		known[s.ShotID] = true
		switch {
		case annotated[s.ShotID] && !s.Annotated:
			if err := m.MarkAnnotated(ctx, s.ShotID); err != nil {
				return report, fmt.Errorf("failed to flag %s: %w", s.ShotID, err)
			}
			report.Flagged = append(report.Flagged, s.ShotID)
		case !annotated[s.ShotID] && s.Annotated:
			report.Unbacked = append(report.Unbacked, s.ShotID)
		}
	}
	for _, a := range annotations {
		if !known[a.ShotID] {
			report.Dangling = append(report.Dangling, a.ShotID)
		}
	}

	if !report.InSync() {
		m.log.Warn("Reconcile found inconsistencies",
			"flagged", report.Flagged,
			"unbacked", report.Unbacked,
			"dangling", report.Dangling,
		)
	}
	return report, nil
}
