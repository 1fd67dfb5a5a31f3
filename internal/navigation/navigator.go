package navigation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kdimtricp/xgtag/internal/lifecycle"
	"github.com/kdimtricp/xgtag/internal/logger"
	"github.com/kdimtricp/xgtag/internal/models"
	"github.com/kdimtricp/xgtag/internal/records"
	"github.com/kdimtricp/xgtag/internal/storage"
)

var (
	ErrNotEditing   = errors.New("no shot is open for annotation")
	ErrEditConflict = errors.New("annotation is for a different shot than the one being edited")
)

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseTargeting Phase = "targeting"
	PhaseEditing   Phase = "editing"
)

// FormError lists the annotation fields whose values are not allowed.
type FormError struct {
	Fields []string `json:"fields"`
}

func (e *FormError) Error() string {
	return "invalid annotation fields: " + strings.Join(e.Fields, ", ")
}

// State is a copy of the navigator's session. Shot and Form are set only
// while editing.
type State struct {
	Phase          Phase              `json:"phase"`
	ShotID         string             `json:"shot_id,omitempty"`
	Shot           *models.Shot       `json:"shot,omitempty"`
	Form           *models.Annotation `json:"form,omitempty"`
	Prior          bool               `json:"prior"`
	MediaAvailable bool               `json:"media_available"`
	Warnings       []string           `json:"warnings,omitempty"`
}

// Navigator tracks which shot is open for annotation. One per operator
// session.
type Navigator struct {
	repo      *records.Repository
	media     storage.Storage
	lifecycle *lifecycle.Manager
	log       *logger.Logger
	now       func() time.Time

	mu    sync.Mutex
	state State
}

func NewNavigator(repo *records.Repository, media storage.Storage, lm *lifecycle.Manager, baseLog *logger.Logger) *Navigator {
	return &Navigator{
		repo:      repo,
		media:     media,
		lifecycle: lm,
		log:       baseLog.With("service", "AnnotationNavigator"),
		now:       time.Now,
		state:     State{Phase: PhaseIdle},
	}
}

// State returns a copy of the current session.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.clone()
}

// Select opens shotID for editing.
func (n *Navigator) Select(ctx context.Context, shotID string) (State, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target(ctx, strings.TrimSpace(shotID))
}

// Enter resolves the annotation view. A non-empty deep link wins over any
// earlier selection; without one the current target is reloaded.
func (n *Navigator) Enter(ctx context.Context, deepLink string) (State, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if id := strings.TrimSpace(deepLink); id != "" {
		return n.target(ctx, id)
	}
	if n.state.Phase == PhaseIdle {
		return n.state.clone(), nil
	}
	return n.target(ctx, n.state.ShotID)
}

// target moves to Targeting(id) and immediately loads it. The caller holds mu.
func (n *Navigator) target(ctx context.Context, shotID string) (State, error) {
	n.state = State{Phase: PhaseTargeting, ShotID: shotID}

	if err := records.ValidateID(shotID); err != nil {
		n.reset()
		return n.state.clone(), fmt.Errorf("%w: %s", records.ErrNotFound, err)
	}

	shot, err := n.repo.Shot(ctx, shotID)
	if err != nil {
		n.reset()
		if errors.Is(err, records.ErrNotFound) {
			n.log.Warn("Selected shot does not exist", "shot_id", shotID)
		}
		return n.state.clone(), err
	}

	form, prior, err := n.loadForm(ctx, shotID)
	if err != nil {
		n.reset()
		return n.state.clone(), err
	}

	editing := State{
		Phase:  PhaseEditing,
		ShotID: shotID,
		Shot:   shot,
		Form:   &form,
		Prior:  prior,
	}
	available, err := n.media.Exists(ctx, shotID)
	switch {
	case err != nil:
		n.log.Error("Failed to check video", "shot_id", shotID, "error", err)
		editing.Warnings = append(editing.Warnings, fmt.Sprintf("video for %s could not be checked", shotID))
	case !available:
		n.log.Warn("Video file missing", "shot_id", shotID)
		editing.Warnings = append(editing.Warnings, fmt.Sprintf("video for %s is missing", shotID))
	}
	editing.MediaAvailable = available

	n.state = editing
	return n.state.clone(), nil
}

func (n *Navigator) loadForm(ctx context.Context, shotID string) (models.Annotation, bool, error) {
	a, err := n.repo.Annotation(ctx, shotID)
	if errors.Is(err, records.ErrNotFound) {
		return models.DefaultAnnotation(shotID), false, nil
	}
	if err != nil {
		return models.Annotation{}, false, err
	}
	if a.GoalkeeperPosition == nil {
		a.GoalkeeperPosition = []models.GoalkeeperPosition{}
	}
	return *a, true, nil
}

// Submit saves the form as the annotation of the shot being edited, flags
// the shot annotated and returns to Idle. The form's shot id is ignored.
func (n *Navigator) Submit(ctx context.Context, form models.Annotation) (models.Annotation, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state.Phase != PhaseEditing {
		return models.Annotation{}, ErrNotEditing
	}
	return n.save(ctx, form)
}

// Edit applies patch to a copy of the open form and saves the result, all
// while holding the session, so the patch cannot land on a shot selected in
// the meantime. A patch that names another shot fails with ErrEditConflict.
func (n *Navigator) Edit(ctx context.Context, patch func(*models.Annotation) error) (models.Annotation, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state.Phase != PhaseEditing || n.state.Form == nil {
		return models.Annotation{}, ErrNotEditing
	}
	form := *n.state.clone().Form
	if err := patch(&form); err != nil {
		return models.Annotation{}, err
	}
	if id := strings.TrimSpace(form.ShotID); id != "" && id != n.state.ShotID {
		return models.Annotation{}, fmt.Errorf("%w: editing %s, got %s", ErrEditConflict, n.state.ShotID, id)
	}
	return n.save(ctx, form)
}

// save validates and stores form for the shot being edited. The caller
// holds mu and has checked the phase.
func (n *Navigator) save(ctx context.Context, form models.Annotation) (models.Annotation, error) {
	shotID := n.state.ShotID

	form.ShotID = shotID
	if form.GoalkeeperPosition == nil {
		form.GoalkeeperPosition = []models.GoalkeeperPosition{}
	}
	form = form.Normalize()
	if bad := form.InvalidFields(); len(bad) > 0 {
		return models.Annotation{}, &FormError{Fields: bad}
	}

	// The shot may have been purged since it was opened.
	if _, err := n.repo.Shot(ctx, shotID); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			n.reset()
		}
		return models.Annotation{}, err
	}

	form.UpdatedAt = n.now().UTC().Truncate(time.Second)
	if err := n.repo.PutAnnotation(ctx, &form); err != nil {
		return models.Annotation{}, err
	}
	if err := n.lifecycle.MarkAnnotated(ctx, shotID); err != nil {
		return models.Annotation{}, fmt.Errorf("annotation saved but shot %s not flagged: %w", shotID, err)
	}

	n.log.Info("Annotation saved", "shot_id", shotID, "touches", form.Touches)
	n.reset()
	return form, nil
}

// Cancel abandons the current edit.
func (n *Navigator) Cancel() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reset()
	return n.state.clone()
}

func (n *Navigator) reset() {
	n.state = State{Phase: PhaseIdle}
}

func (s State) clone() State {
	out := s
	if s.Shot != nil {
		shot := *s.Shot
		out.Shot = &shot
	}
	if s.Form != nil {
		form := *s.Form
		form.GoalkeeperPosition = append([]models.GoalkeeperPosition{}, s.Form.GoalkeeperPosition...)
		out.Form = &form
	}
	if s.Warnings != nil {
		out.Warnings = append([]string{}, s.Warnings...)
	}
	return out
}
