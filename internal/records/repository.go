package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kdimtricp/xgtag/internal/logger"
	"github.com/kdimtricp/xgtag/internal/models"
)

// Repository gives typed access to shots and annotations on top of a Store.
// Nothing is cached: every call goes to the store.
type Repository struct {
	store Store
	log   *logger.Logger
}

func NewRepository(store Store, baseLog *logger.Logger) *Repository {
	return &Repository{store: store, log: baseLog.With("repo", "RecordRepository")}
}

func (r *Repository) Store() Store {
	return r.store
}

// Shots lists every decodable shot. Units that fail to decode are skipped and
// reported in the returned warnings.
func (r *Repository) Shots(ctx context.Context) ([]models.Shot, []Warning, error) {
	units, warnings, err := r.store.List(ctx, KindShot)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list shots: %w", err)
	}
	shots := make([]models.Shot, 0, len(units))
	for _, u := range units {
		var shot models.Shot
		if err := decodeUnit(u, &shot, &shot.ShotID); err != nil {
			warnings = append(warnings, Warning{Kind: KindShot, Unit: KindShot.UnitName(u.ID), Reason: err.Error()})
			continue
		}
		shots = append(shots, shot)
	}
	r.logWarnings(warnings)
	return shots, warnings, nil
}

func (r *Repository) Annotations(ctx context.Context) ([]models.Annotation, []Warning, error) {
	units, warnings, err := r.store.List(ctx, KindAnnotation)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list annotations: %w", err)
	}
	annotations := make([]models.Annotation, 0, len(units))
	for _, u := range units {
		var a models.Annotation
		if err := decodeUnit(u, &a, &a.ShotID); err != nil {
			warnings = append(warnings, Warning{Kind: KindAnnotation, Unit: KindAnnotation.UnitName(u.ID), Reason: err.Error()})
			continue
		}
		annotations = append(annotations, a)
	}
	r.logWarnings(warnings)
	return annotations, warnings, nil
}

// Shot loads one shot. A unit that exists but cannot be decoded is treated as
// absent, the same way listings skip it.
func (r *Repository) Shot(ctx context.Context, id string) (*models.Shot, error) {
	u, err := r.store.Get(ctx, KindShot, id)
	if err != nil {
		return nil, err
	}
	var shot models.Shot
	if err := decodeUnit(u, &shot, &shot.ShotID); err != nil {
		r.logWarnings([]Warning{{Kind: KindShot, Unit: KindShot.UnitName(id), Reason: err.Error()}})
		return nil, fmt.Errorf("%w: %s is unreadable", ErrNotFound, KindShot.UnitName(id))
	}
	return &shot, nil
}

// Annotation loads the annotation of a shot; ErrNotFound when there is none.
func (r *Repository) Annotation(ctx context.Context, shotID string) (*models.Annotation, error) {
	u, err := r.store.Get(ctx, KindAnnotation, shotID)
	if err != nil {
		return nil, err
	}
	var a models.Annotation
	if err := decodeUnit(u, &a, &a.ShotID); err != nil {
		r.logWarnings([]Warning{{Kind: KindAnnotation, Unit: KindAnnotation.UnitName(shotID), Reason: err.Error()}})
		return nil, fmt.Errorf("%w: %s is unreadable", ErrNotFound, KindAnnotation.UnitName(shotID))
	}
	return &a, nil
}

// Exists reports whether any unit, readable or not, is stored under id.
func (r *Repository) Exists(ctx context.Context, kind Kind, id string) (bool, error) {
	_, err := r.store.Get(ctx, kind, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (r *Repository) PutShot(ctx context.Context, shot *models.Shot) error {
	data, err := json.MarshalIndent(shot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode shot: %w", err)
	}
	if err := r.store.Put(ctx, KindShot, shot.ShotID, data); err != nil {
		return fmt.Errorf("failed to save shot %s: %w", shot.ShotID, err)
	}
	return nil
}

func (r *Repository) PutAnnotation(ctx context.Context, a *models.Annotation) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode annotation: %w", err)
	}
	if err := r.store.Put(ctx, KindAnnotation, a.ShotID, data); err != nil {
		return fmt.Errorf("failed to save annotation %s: %w", a.ShotID, err)
	}
	return nil
}

func (r *Repository) DeleteAll(ctx context.Context, kind Kind) (int, error) {
	n, err := r.store.DeleteAll(ctx, kind)
	if err != nil {
		return n, fmt.Errorf("failed to delete %s records: %w", kind, err)
	}
	return n, nil
}

func (r *Repository) logWarnings(warnings []Warning) {
	for _, w := range warnings {
		r.log.Warn("Skipped unreadable record", "kind", w.Kind, "unit", w.Unit, "reason", w.Reason)
	}
}

// decodeUnit unmarshals u into dst and checks that the embedded id matches
// the unit it was stored under.
func decodeUnit(u Unit, dst any, id *string) error {
	if err := json.Unmarshal(u.Data, dst); err != nil {
		return fmt.Errorf("unparseable record: %w", err)
	}
	if *id == "" {
		return fmt.Errorf("record has no shot_id")
	}
	if *id != u.ID {
		return fmt.Errorf("record shot_id %q does not match unit", *id)
	}
	return nil
}
