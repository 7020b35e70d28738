package sde_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korallis/eve-cortex/internal/sde"
)

// TestRequiredSkills verifies prerequisite extraction from the paired
// skill-ID and skill-level attributes.
func TestRequiredSkills(t *testing.T) {
	attrs := map[int32]float64{
		sde.AttrPrimarySkillID:       3300,
		sde.AttrPrimarySkillLevel:    3,
		sde.AttrSecondarySkillID:     3301,
		sde.AttrTertiarySkillID:      0,
		sde.AttrQuaternarySkillID:    3302,
		sde.AttrQuaternarySkillLevel: 5,
	}

	reqs := sde.RequiredSkills(attrs)
	require.Len(t, reqs, 3)
	assert.Equal(t, sde.SkillRequirement{SkillTypeID: 3300, Level: 3}, reqs[0])
	assert.Equal(t, sde.SkillRequirement{SkillTypeID: 3301, Level: 1},
		reqs[1], "a skill without a level pair defaults to level 1")
	assert.Equal(t, sde.SkillRequirement{SkillTypeID: 3302, Level: 5}, reqs[2])
}

// TestRequiredSkills_Empty verifies a type with no skill attributes yields
// no requirements.
func TestRequiredSkills_Empty(t *testing.T) {
	assert.Empty(t, sde.RequiredSkills(map[int32]float64{sde.AttrCPUUsage: 20}))
	assert.Empty(t, sde.RequiredSkills(nil))
}

// TestModuleTemplate_ChargeGroups verifies charge-group extraction across
// the five declaration slots.
func TestModuleTemplate_ChargeGroups(t *testing.T) {
	tmpl := &sde.ModuleTemplate{Type: &sde.TypeInfo{
		ID: 1,
		Attributes: map[int32]float64{
			sde.AttrChargeGroup1: 83,
			sde.AttrChargeGroup3: 85,
		},
	}}
	assert.Equal(t, []int32{83, 85}, tmpl.ChargeGroups())

	empty := &sde.ModuleTemplate{Type: &sde.TypeInfo{ID: 2}}
	assert.Empty(t, empty.ChargeGroups())
}

// TestSlotLayout_Capacity verifies per-kind capacity lookup including the
// unfittable kind.
func TestSlotLayout_Capacity(t *testing.T) {
	layout := sde.SlotLayout{High: 4, Med: 3, Low: 2, Rig: 3, Subsystem: 5}
	assert.Equal(t, 4, layout.Capacity(sde.SlotHigh))
	assert.Equal(t, 3, layout.Capacity(sde.SlotMed))
	assert.Equal(t, 2, layout.Capacity(sde.SlotLow))
	assert.Equal(t, 3, layout.Capacity(sde.SlotRig))
	assert.Equal(t, 5, layout.Capacity(sde.SlotSubsystem))
	assert.Equal(t, 0, layout.Capacity(sde.SlotNone))
}

// TestTypeInfo_Attribute verifies the fallback path for undeclared
// attributes.
func TestTypeInfo_Attribute(t *testing.T) {
	info := &sde.TypeInfo{ID: 1, Attributes: map[int32]float64{sde.AttrMass: 1000}}
	assert.Equal(t, 1000.0, info.Attribute(sde.AttrMass, 0))
	assert.Equal(t, 1.0, info.Attribute(sde.AttrShieldEMResonance, 1))
}

// TestBuiltin verifies the fallback tables define every attribute the
// calculation core resolves.
func TestBuiltin(t *testing.T) {
	store := sde.Builtin()
	ctx := context.Background()

	engineAttrs := []int32{
		sde.AttrMass, sde.AttrCapacitorNeed, sde.AttrHullHP, sde.AttrPowerOutput,
		sde.AttrMaxVelocity, sde.AttrPowerUsage, sde.AttrCPUOutput, sde.AttrCPUUsage,
		sde.AttrCycleTime, sde.AttrCapRechargeTime, sde.AttrDamageMultiplier,
		sde.AttrInertiaModifier, sde.AttrMaxTargetRange, sde.AttrEMDamage,
		sde.AttrExplosiveDamage, sde.AttrKineticDamage, sde.AttrThermalDamage,
		sde.AttrChargeSize, sde.AttrOptimalRange, sde.AttrFalloff,
		sde.AttrMaxLockedTargets, sde.AttrShieldCapacity, sde.AttrArmorHP,
		sde.AttrShieldRechargeTime, sde.AttrCapacitorCapacity, sde.AttrSignatureRadius,
		sde.AttrScanResolution, sde.AttrRigSlots, sde.AttrUpgradeCapacity,
		sde.AttrUpgradeCost, sde.AttrSubsystemSlots,
		sde.AttrHullEMResonance, sde.AttrHullThermalResonance,
		sde.AttrHullKineticResonance, sde.AttrHullExplosiveResonance,
		sde.AttrArmorEMResonance, sde.AttrArmorThermalResonance,
		sde.AttrArmorKineticResonance, sde.AttrArmorExplosiveResonance,
		sde.AttrShieldEMResonance, sde.AttrShieldThermalResonance,
		sde.AttrShieldKineticResonance, sde.AttrShieldExplosiveResonance,
	}
	for _, id := range engineAttrs {
		def, err := store.AttributeDefinition(ctx, id)
		require.NoError(t, err, "builtin table must define attribute %d", id)
		assert.Equal(t, id, def.ID)
	}

	bonuses, err := store.SkillBonuses(ctx, sde.GroupFrigate)
	require.NoError(t, err)
	require.NotEmpty(t, bonuses)
	assert.Equal(t, sde.SkillGunnery, bonuses[0].SkillTypeID)
}

// TestBuiltin_ResonancesNotStackable verifies the penalty flag on the
// resistance attributes, which repeated hardeners must not bypass.
func TestBuiltin_ResonancesNotStackable(t *testing.T) {
	store := sde.Builtin()
	for _, id := range []int32{
		sde.AttrShieldEMResonance, sde.AttrArmorThermalResonance, sde.AttrHullKineticResonance,
		sde.AttrMaxVelocity, sde.AttrDamageMultiplier, sde.AttrShieldCapacity,
	} {
		def, err := store.AttributeDefinition(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, def.Stackable, "attribute %d must be stacking-penalized", id)
	}
}
