package sde_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korallis/eve-cortex/internal/sde"
)

const snapshotAttributes = `
attributes:
  - {id: 37, name: maxVelocity, display_name: Maximum Velocity, high_is_good: true, stackable: false}
  - {id: 48, name: cpuOutput, display_name: CPU Output, high_is_good: true, stackable: false}
`

const snapshotTypes = `
types:
  - id: 587
    name: Rifter
    group_id: 25
    category_id: 6
    published: true
    attributes:
      14: 4
      13: 3
      12: 3
      1137: 3
  - id: 439
    name: 1MN Afterburner I
    group_id: 46
    category_id: 7
    slot: med
    published: true
    effects:
      - {name: speedBoost, category: active, attribute: 37, op: percent, value: 112.5}
  - id: 440
    name: 1MN Afterburner II
    group_id: 46
    category_id: 7
    slot: med
    published: true
`

const snapshotBonuses = `
bonuses:
  25:
    - {skill_type_id: 3300, attribute: 64, kind: linear, per_level: 5, cap_level: 5}
`

// writeSnapshot writes the three snapshot files into dir.
func writeSnapshot(t *testing.T, dir, attributes, types, bonuses string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "attributes.yaml"), []byte(attributes), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "types.yaml"), []byte(types), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bonuses.yaml"), []byte(bonuses), 0o644))
}

// TestLoadDir verifies a complete snapshot loads and serves every provider
// lookup.
func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, snapshotAttributes, snapshotTypes, snapshotBonuses)

	store, err := sde.LoadDir(dir)
	require.NoError(t, err)

	ctx := context.Background()

	ship, err := store.ShipTemplate(ctx, 587)
	require.NoError(t, err)
	assert.Equal(t, "Rifter", ship.Type.Name)
	// No declared layout: the slot counts derive from the hull attributes.
	assert.Equal(t, 4, ship.SlotLayout.High)
	assert.Equal(t, 3, ship.SlotLayout.Med)
	assert.Equal(t, 3, ship.SlotLayout.Low)
	assert.Equal(t, 3, ship.SlotLayout.Rig)

	mod, err := store.ModuleTemplate(ctx, 439)
	require.NoError(t, err)
	assert.Equal(t, sde.SlotMed, mod.Slot)
	require.Len(t, mod.Type.Effects, 1)
	assert.Equal(t, sde.EffectActive, mod.Type.Effects[0].Category)

	def, err := store.AttributeDefinition(ctx, 37)
	require.NoError(t, err)
	assert.False(t, def.Stackable)

	bonuses, err := store.SkillBonuses(ctx, 25)
	require.NoError(t, err)
	require.Len(t, bonuses, 1)
	assert.Equal(t, int32(3300), bonuses[0].SkillTypeID)
	assert.Equal(t, sde.BonusLinear, bonuses[0].Kind)
}

// TestLoadDir_UnknownField verifies strict decoding: a snapshot with an
// unrecognized key is rejected instead of silently ignored.
func TestLoadDir_UnknownField(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, `
attributes:
  - {id: 37, name: maxVelocity, typo_field: true}
`, snapshotTypes, snapshotBonuses)

	_, err := sde.LoadDir(dir)
	assert.Error(t, err)
}

// TestLoadDir_ZeroID verifies types without an ID are rejected at load time.
func TestLoadDir_ZeroID(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, snapshotAttributes, `
types:
  - name: Nameless
    group_id: 25
`, snapshotBonuses)

	_, err := sde.LoadDir(dir)
	assert.Error(t, err)
}

// TestLoadDir_MissingFile verifies an incomplete snapshot directory fails.
func TestLoadDir_MissingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "attributes.yaml"), []byte(snapshotAttributes), 0o644))

	_, err := sde.LoadDir(dir)
	assert.Error(t, err)
}

// TestStore_Refresh verifies a reload picks up new data, and a failed reload
// keeps the previous snapshot in service.
func TestStore_Refresh(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, snapshotAttributes, snapshotTypes, snapshotBonuses)

	store, err := sde.LoadDir(dir)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = store.ModuleTemplate(ctx, 900)
	require.ErrorIs(t, err, sde.ErrNotFound)

	extended := snapshotTypes + `
  - id: 900
    name: Shiny New Module
    group_id: 46
    category_id: 7
    slot: med
    published: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "types.yaml"), []byte(extended), 0o644))
	require.NoError(t, store.Refresh())

	mod, err := store.ModuleTemplate(ctx, 900)
	require.NoError(t, err)
	assert.Equal(t, "Shiny New Module", mod.Type.Name)

	// A corrupt snapshot must not evict the working one.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "types.yaml"), []byte("types: [{bogus"), 0o644))
	assert.Error(t, store.Refresh())

	mod, err = store.ModuleTemplate(ctx, 900)
	require.NoError(t, err, "the previous snapshot must remain in service after a failed refresh")
	assert.Equal(t, "Shiny New Module", mod.Type.Name)
}

// TestStore_RefreshWithoutDir verifies Refresh on a hand-built store fails.
func TestStore_RefreshWithoutDir(t *testing.T) {
	assert.Error(t, sde.NewStore().Refresh())
}

// TestStore_NotFound verifies every lookup wraps ErrNotFound for unknown IDs.
func TestStore_NotFound(t *testing.T) {
	store := sde.NewStore()
	ctx := context.Background()

	_, err := store.ShipTemplate(ctx, 1)
	assert.ErrorIs(t, err, sde.ErrNotFound)
	_, err = store.ModuleTemplate(ctx, 1)
	assert.ErrorIs(t, err, sde.ErrNotFound)
	_, err = store.AttributeDefinition(ctx, 1)
	assert.ErrorIs(t, err, sde.ErrNotFound)

	// Bonus tables are optional per group: absent means empty, not an error.
	bonuses, err := store.SkillBonuses(ctx, 1)
	assert.NoError(t, err)
	assert.Empty(t, bonuses)
}

// TestStore_RegisterPreconditions verifies nil and zero-ID registrations
// panic per the documented preconditions.
func TestStore_RegisterPreconditions(t *testing.T) {
	store := sde.NewStore()
	assert.Panics(t, func() { store.RegisterType(nil) })
	assert.Panics(t, func() { store.RegisterType(&sde.TypeInfo{}) })
	assert.Panics(t, func() { store.RegisterAttribute(nil) })
	assert.Panics(t, func() { store.RegisterAttribute(&sde.AttributeDefinition{}) })
}

// TestStore_SearchByName verifies ranking: exact match first, then prefix,
// then substring, with a name tie-break and limit clamping.
func TestStore_SearchByName(t *testing.T) {
	store := sde.NewStore()
	for id, name := range map[int32]string{
		1: "Rifter",
		2: "Rifter Fleet Issue",
		3: "Thrifter",
		4: "Wolf",
	} {
		store.RegisterType(&sde.TypeInfo{ID: id, Name: name, Published: true})
	}

	ctx := context.Background()
	results, err := store.SearchByName(ctx, "rifter", 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Rifter", results[0].Name, "exact match must rank first")
	assert.Equal(t, "Rifter Fleet Issue", results[1].Name, "prefix match must rank before substring")
	assert.Equal(t, "Thrifter", results[2].Name)

	results, err = store.SearchByName(ctx, "rifter", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = store.SearchByName(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

// TestStore_ErrNotFoundIsSentinel verifies callers can switch on the
// sentinel through wrapped errors.
func TestStore_ErrNotFoundIsSentinel(t *testing.T) {
	store := sde.NewStore()
	_, err := store.ShipTemplate(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sde.ErrNotFound))
	assert.Contains(t, err.Error(), "42")
}
