package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/korallis/eve-cortex/internal/sde"
)

// TypeStore implements sde.Provider over the migrated SDE tables. Lookups
// hit the database on every call; the store performs no caching and no
// retries — both belong to the deployment around it.
type TypeStore struct {
	db *pgxpool.Pool
}

// NewTypeStore creates a TypeStore backed by the given pool.
//
// Precondition: db must be a valid, open connection pool over a migrated schema.
func NewTypeStore(db *pgxpool.Pool) *TypeStore {
	return &TypeStore{db: db}
}

// ShipTemplate implements sde.Provider.
func (s *TypeStore) ShipTemplate(ctx context.Context, typeID int32) (*sde.ShipTemplate, error) {
	info, err := s.loadType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	layout := sde.SlotLayout{
		High:      int(info.Attribute(sde.AttrHighSlots, 0)),
		Med:       int(info.Attribute(sde.AttrMedSlots, 0)),
		Low:       int(info.Attribute(sde.AttrLowSlots, 0)),
		Rig:       int(info.Attribute(sde.AttrRigSlots, 0)),
		Subsystem: int(info.Attribute(sde.AttrSubsystemSlots, 0)),
	}
	return &sde.ShipTemplate{Type: info, SlotLayout: layout}, nil
}

// ModuleTemplate implements sde.Provider.
func (s *TypeStore) ModuleTemplate(ctx context.Context, typeID int32) (*sde.ModuleTemplate, error) {
	info, err := s.loadType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	return &sde.ModuleTemplate{Type: info, Slot: info.Slot}, nil
}

// AttributeDefinition implements sde.Provider.
func (s *TypeStore) AttributeDefinition(ctx context.Context, attrID int32) (*sde.AttributeDefinition, error) {
	var def sde.AttributeDefinition
	err := s.db.QueryRow(ctx, `
		SELECT id, name, display_name, default_value, high_is_good, stackable
		FROM attribute_defs WHERE id = $1`,
		attrID,
	).Scan(&def.ID, &def.Name, &def.DisplayName, &def.DefaultValue, &def.HighIsGood, &def.Stackable)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("attribute %d: %w", attrID, sde.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying attribute %d: %w", attrID, err)
	}
	return &def, nil
}

// SkillBonuses implements sde.Provider.
//
// Postcondition: Returns an empty slice, not an error, for groups with no
// bonus table.
func (s *TypeStore) SkillBonuses(ctx context.Context, shipGroupID int32) ([]sde.SkillBonus, error) {
	rows, err := s.db.Query(ctx, `
		SELECT skill_type_id, attribute_id, kind, per_level, cap_level
		FROM skill_bonuses WHERE ship_group_id = $1 ORDER BY skill_type_id`,
		shipGroupID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying skill bonuses for group %d: %w", shipGroupID, err)
	}
	defer rows.Close()

	var bonuses []sde.SkillBonus
	for rows.Next() {
		var b sde.SkillBonus
		var kind string
		if err := rows.Scan(&b.SkillTypeID, &b.Attribute, &kind, &b.PerLevel, &b.CapLevel); err != nil {
			return nil, fmt.Errorf("scanning skill bonus: %w", err)
		}
		b.Kind = sde.BonusKind(kind)
		bonuses = append(bonuses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading skill bonuses: %w", err)
	}
	return bonuses, nil
}

// SearchByName implements sde.Provider. Exact matches rank before prefix
// matches, which rank before substring matches; ties sort by name.
func (s *TypeStore) SearchByName(ctx context.Context, query string, limit int) ([]sde.TypeSummary, error) {
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, name, group_id, category_id
		FROM eve_types
		WHERE lower(name) LIKE '%' || lower($1) || '%'
		ORDER BY CASE
			WHEN lower(name) = lower($1) THEN 0
			WHEN lower(name) LIKE lower($1) || '%' THEN 1
			ELSE 2
		END, name
		LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching types for %q: %w", query, err)
	}
	defer rows.Close()

	var out []sde.TypeSummary
	for rows.Next() {
		var t sde.TypeSummary
		if err := rows.Scan(&t.ID, &t.Name, &t.GroupID, &t.CategoryID); err != nil {
			return nil, fmt.Errorf("scanning type summary: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}
	return out, nil
}

// loadType assembles a full TypeInfo: the type row, its attribute values,
// and its declared effects.
func (s *TypeStore) loadType(ctx context.Context, typeID int32) (*sde.TypeInfo, error) {
	var info sde.TypeInfo
	var slot string
	err := s.db.QueryRow(ctx, `
		SELECT id, name, group_id, category_id, slot, published
		FROM eve_types WHERE id = $1`,
		typeID,
	).Scan(&info.ID, &info.Name, &info.GroupID, &info.CategoryID, &slot, &info.Published)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("type %d: %w", typeID, sde.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying type %d: %w", typeID, err)
	}
	info.Slot = sde.SlotKind(slot)

	info.Attributes = make(map[int32]float64)
	attrRows, err := s.db.Query(ctx, `
		SELECT attribute_id, value FROM type_attributes WHERE type_id = $1`,
		typeID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying attributes for type %d: %w", typeID, err)
	}
	defer attrRows.Close()
	for attrRows.Next() {
		var id int32
		var value float64
		if err := attrRows.Scan(&id, &value); err != nil {
			return nil, fmt.Errorf("scanning attribute for type %d: %w", typeID, err)
		}
		info.Attributes[id] = value
	}
	if err := attrRows.Err(); err != nil {
		return nil, fmt.Errorf("reading attributes for type %d: %w", typeID, err)
	}

	effRows, err := s.db.Query(ctx, `
		SELECT name, category, attribute_id, op, value
		FROM type_effects WHERE type_id = $1 ORDER BY name`,
		typeID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying effects for type %d: %w", typeID, err)
	}
	defer effRows.Close()
	for effRows.Next() {
		var eff sde.EffectRef
		var category string
		if err := effRows.Scan(&eff.Name, &category, &eff.Attribute, &eff.Op, &eff.Value); err != nil {
			return nil, fmt.Errorf("scanning effect for type %d: %w", typeID, err)
		}
		eff.Category = sde.EffectCategory(category)
		info.Effects = append(info.Effects, eff)
	}
	if err := effRows.Err(); err != nil {
		return nil, fmt.Errorf("reading effects for type %d: %w", typeID, err)
	}

	return &info, nil
}
