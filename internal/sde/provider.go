package sde

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a lookup yields no reference data for the
// given identifier. Absence is a valid outcome; callers degrade to typed
// validation or calculation errors rather than aborting.
var ErrNotFound = errors.New("sde: not found")

// Provider supplies immutable game reference data keyed by numeric type
// identifiers. Implementations may be backed by files, a database, or a
// remote service; data may be refreshed between calls, and the core consumes
// whatever snapshot is current at call time.
//
// Lookups are possibly I/O-bound and possibly failing; implementations must
// not retry internally — retry/backoff policy belongs to the backend.
type Provider interface {
	// ShipTemplate returns the hull template for the given type ID.
	ShipTemplate(ctx context.Context, typeID int32) (*ShipTemplate, error)
	// ModuleTemplate returns the module template for the given type ID.
	ModuleTemplate(ctx context.Context, typeID int32) (*ModuleTemplate, error)
	// AttributeDefinition returns the dogma attribute definition for the given ID.
	AttributeDefinition(ctx context.Context, attrID int32) (*AttributeDefinition, error)
	// SkillBonuses returns the skill bonus table for ships of the given group.
	SkillBonuses(ctx context.Context, shipGroupID int32) ([]SkillBonus, error)
	// SearchByName returns up to limit types whose names match the query,
	// best matches first.
	SearchByName(ctx context.Context, query string, limit int) ([]TypeSummary, error)
}
