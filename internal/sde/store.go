package sde

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Snapshot file names within an SDE directory.
const (
	attributesFile = "attributes.yaml"
	typesFile      = "types.yaml"
	bonusesFile    = "bonuses.yaml"
)

type snapshot struct {
	attributes map[int32]*AttributeDefinition
	types      map[int32]*TypeInfo
	bonuses    map[int32][]SkillBonus
}

func newSnapshot() *snapshot {
	return &snapshot{
		attributes: make(map[int32]*AttributeDefinition),
		types:      make(map[int32]*TypeInfo),
		bonuses:    make(map[int32][]SkillBonus),
	}
}

// Store is an in-memory reference-data snapshot implementing Provider.
// A Store loaded from a directory can be refreshed in place; readers always
// see a complete snapshot, never a partially loaded one.
type Store struct {
	mu   sync.RWMutex
	snap *snapshot
	dir  string
}

// NewStore returns an empty Store.
//
// Postcondition: All lookups on the returned Store yield ErrNotFound until
// data is registered or loaded.
func NewStore() *Store {
	return &Store{snap: newSnapshot()}
}

// LoadDir reads an SDE snapshot from dir and returns a Store serving it.
// The directory must contain attributes.yaml, types.yaml, and bonuses.yaml.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a fully populated Store or a non-nil error; on
// error no partial Store is returned.
func LoadDir(dir string) (*Store, error) {
	snap, err := loadSnapshot(dir)
	if err != nil {
		return nil, err
	}
	return &Store{snap: snap, dir: dir}, nil
}

// Refresh reloads the snapshot from the directory the Store was loaded from.
// On error the previous snapshot remains in service.
//
// Precondition: The Store must have been created via LoadDir.
func (s *Store) Refresh() error {
	if s.dir == "" {
		return fmt.Errorf("sde: store was not loaded from a directory")
	}
	snap, err := loadSnapshot(s.dir)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return nil
}

// RegisterAttribute adds or replaces an attribute definition.
//
// Precondition: def must be non-nil with a non-zero ID.
func (s *Store) RegisterAttribute(def *AttributeDefinition) {
	if def == nil || def.ID == 0 {
		panic("sde: RegisterAttribute: precondition violated: def must be non-nil with non-zero ID")
	}
	s.mu.Lock()
	s.snap.attributes[def.ID] = def
	s.mu.Unlock()
}

// RegisterType adds or replaces a type template.
//
// Precondition: info must be non-nil with a non-zero ID.
func (s *Store) RegisterType(info *TypeInfo) {
	if info == nil || info.ID == 0 {
		panic("sde: RegisterType: precondition violated: info must be non-nil with non-zero ID")
	}
	s.mu.Lock()
	s.snap.types[info.ID] = info
	s.mu.Unlock()
}

// RegisterBonuses sets the skill bonus table for a ship group.
func (s *Store) RegisterBonuses(shipGroupID int32, bonuses []SkillBonus) {
	s.mu.Lock()
	s.snap.bonuses[shipGroupID] = bonuses
	s.mu.Unlock()
}

// Attributes returns a snapshot slice of all attribute definitions.
func (s *Store) Attributes() []*AttributeDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*AttributeDefinition, 0, len(s.snap.attributes))
	for _, def := range s.snap.attributes {
		out = append(out, def)
	}
	return out
}

// Types returns a snapshot slice of all type templates.
func (s *Store) Types() []*TypeInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*TypeInfo, 0, len(s.snap.types))
	for _, t := range s.snap.types {
		out = append(out, t)
	}
	return out
}

// Bonuses returns a snapshot copy of the skill bonus tables keyed by ship group.
func (s *Store) Bonuses() map[int32][]SkillBonus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int32][]SkillBonus, len(s.snap.bonuses))
	for group, bonuses := range s.snap.bonuses {
		out[group] = bonuses
	}
	return out
}

// Type returns the raw TypeInfo for the given ID.
func (s *Store) Type(typeID int32) (*TypeInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.snap.types[typeID]
	return t, ok
}

// ShipTemplate implements Provider.
//
// Postcondition: Returns ErrNotFound for unknown IDs. A hull without a
// declared slot layout derives one from its slot-count attributes.
func (s *Store) ShipTemplate(_ context.Context, typeID int32) (*ShipTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.snap.types[typeID]
	if !ok {
		return nil, fmt.Errorf("ship template %d: %w", typeID, ErrNotFound)
	}
	layout := t.SlotLayout
	if layout == (SlotLayout{}) {
		layout = SlotLayout{
			High:      int(t.Attribute(AttrHighSlots, 0)),
			Med:       int(t.Attribute(AttrMedSlots, 0)),
			Low:       int(t.Attribute(AttrLowSlots, 0)),
			Rig:       int(t.Attribute(AttrRigSlots, 0)),
			Subsystem: int(t.Attribute(AttrSubsystemSlots, 0)),
		}
	}
	return &ShipTemplate{Type: t, SlotLayout: layout}, nil
}

// ModuleTemplate implements Provider.
//
// Postcondition: Returns ErrNotFound for unknown IDs. The slot kind may be
// SlotNone for types that cannot be fitted; the validator reports that.
func (s *Store) ModuleTemplate(_ context.Context, typeID int32) (*ModuleTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.snap.types[typeID]
	if !ok {
		return nil, fmt.Errorf("module template %d: %w", typeID, ErrNotFound)
	}
	return &ModuleTemplate{Type: t, Slot: t.Slot}, nil
}

// AttributeDefinition implements Provider.
func (s *Store) AttributeDefinition(_ context.Context, attrID int32) (*AttributeDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.snap.attributes[attrID]
	if !ok {
		return nil, fmt.Errorf("attribute %d: %w", attrID, ErrNotFound)
	}
	return def, nil
}

// SkillBonuses implements Provider.
//
// Postcondition: Returns an empty slice, not an error, for groups with no
// bonus table.
func (s *Store) SkillBonuses(_ context.Context, shipGroupID int32) ([]SkillBonus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.bonuses[shipGroupID], nil
}

// SearchByName implements Provider. Matching is case-insensitive; exact
// matches rank before prefix matches, which rank before substring matches.
//
// Postcondition: Returns at most limit results; limit <= 0 means no limit.
func (s *Store) SearchByName(_ context.Context, query string, limit int) ([]TypeSummary, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	type ranked struct {
		rank int
		sum  TypeSummary
	}

	s.mu.RLock()
	var matches []ranked
	for _, t := range s.snap.types {
		name := strings.ToLower(t.Name)
		var rank int
		switch {
		case name == q:
			rank = 0
		case strings.HasPrefix(name, q):
			rank = 1
		case strings.Contains(name, q):
			rank = 2
		default:
			continue
		}
		matches = append(matches, ranked{rank: rank, sum: TypeSummary{
			ID: t.ID, Name: t.Name, GroupID: t.GroupID, CategoryID: t.CategoryID,
		}})
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].rank != matches[j].rank {
			return matches[i].rank < matches[j].rank
		}
		return matches[i].sum.Name < matches[j].sum.Name
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]TypeSummary, len(matches))
	for i, m := range matches {
		out[i] = m.sum
	}
	return out, nil
}

type attributesDoc struct {
	Attributes []*AttributeDefinition `yaml:"attributes"`
}

type typesDoc struct {
	Types []*TypeInfo `yaml:"types"`
}

type bonusesDoc struct {
	Bonuses map[int32][]SkillBonus `yaml:"bonuses"`
}

func loadSnapshot(dir string) (*snapshot, error) {
	snap := newSnapshot()

	var attrs attributesDoc
	if err := decodeFile(filepath.Join(dir, attributesFile), &attrs); err != nil {
		return nil, err
	}
	for _, def := range attrs.Attributes {
		if def.ID == 0 {
			return nil, fmt.Errorf("parsing %s: attribute with zero ID", attributesFile)
		}
		snap.attributes[def.ID] = def
	}

	var types typesDoc
	if err := decodeFile(filepath.Join(dir, typesFile), &types); err != nil {
		return nil, err
	}
	for _, t := range types.Types {
		if t.ID == 0 {
			return nil, fmt.Errorf("parsing %s: type with zero ID", typesFile)
		}
		snap.types[t.ID] = t
	}

	var bonuses bonusesDoc
	if err := decodeFile(filepath.Join(dir, bonusesFile), &bonuses); err != nil {
		return nil, err
	}
	snap.bonuses = bonuses.Bonuses
	if snap.bonuses == nil {
		snap.bonuses = make(map[int32][]SkillBonus)
	}

	return snap, nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parsing %q: %w", path, err)
	}
	return nil
}
