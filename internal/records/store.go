package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrInvalidID = errors.New("invalid record id")
)

type Kind string

const (
	KindShot       Kind = "shot"
	KindAnnotation Kind = "annotation"
)

// Kinds lists every record kind in deletion order: annotations go before the
// shots they reference.
var Kinds = []Kind{KindAnnotation, KindShot}

const annotationPrefix = "annotation_"

// UnitName is the storage name of a record. Annotation names carry a prefix
// so both kinds can share one namespace.
func (k Kind) UnitName(id string) string {
	if k == KindAnnotation {
		return annotationPrefix + id
	}
	return id
}

// IDFromUnit reverses UnitName. ok is false when name belongs to another kind.
func (k Kind) IDFromUnit(name string) (id string, ok bool) {
	isAnnotation := strings.HasPrefix(name, annotationPrefix)
	switch k {
	case KindAnnotation:
		if !isAnnotation {
			return "", false
		}
		return strings.TrimPrefix(name, annotationPrefix), true
	case KindShot:
		return name, !isAnnotation
	default:
		return "", false
	}
}

// Unit is one stored record in its serialized form.
type Unit struct {
	Kind Kind
	ID   string
	Data []byte
}

// Warning reports a unit that was skipped while listing.
type Warning struct {
	Kind   Kind   `json:"kind"`
	Unit   string `json:"unit"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("could not load %s: %s", w.Unit, w.Reason)
}

// Store persists records as independent whole-object units.
type Store interface {
	// List returns every readable unit of kind. Unreadable units are skipped
	// and reported as warnings.
	List(ctx context.Context, kind Kind) ([]Unit, []Warning, error)
	Get(ctx context.Context, kind Kind, id string) (Unit, error)
	// Put overwrites the unit completely.
	Put(ctx context.Context, kind Kind, id string, data []byte) error
	DeleteAll(ctx context.Context, kind Kind) (int, error)
}

func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" ||
		strings.ContainsAny(id, `/\`) ||
		strings.Contains(id, "..") ||
		strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
