package fitting_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/korallis/eve-cortex/internal/config"
	"github.com/korallis/eve-cortex/internal/fitting"
	"github.com/korallis/eve-cortex/internal/sde"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// penalizedCompound applies n identical percentage bonuses with the
// published stacking-penalty multipliers.
func penalizedCompound(base, percent float64, n int) float64 {
	value := base
	for rank := 0; rank < n; rank++ {
		penalty := 0.0
		if rank < len(fitting.StackingPenalties) {
			penalty = fitting.StackingPenalties[rank]
		}
		value *= 1 + percent*penalty/100
	}
	return value
}

// TestCalculate_StackingPenaltyTable verifies the exact penalized values for
// one through nine identical +10% bonuses on a non-stackable attribute.
func TestCalculate_StackingPenaltyTable(t *testing.T) {
	for n := 1; n <= 9; n++ {
		store := newTestStore()
		calc := newCalculator(t, store)

		fit := &fitting.Fit{ShipTypeID: testShipID}
		fit.Modules = lowSlotModules(store, n, nil, percentEffect(sde.AttrMaxVelocity, 10))

		res, err := calc.Calculate(context.Background(), sde.AttrMaxVelocity, 365, fit, nil)
		require.NoError(t, err)

		expected := round2(penalizedCompound(365, 10, n))
		assert.InDelta(t, expected, res.Modified, 1e-9,
			"%d identical bonuses must compound with the published penalty table", n)
	}
}

// TestCalculate_NinthBonusContributesNothing verifies that bonuses past rank
// eight have zero effective value.
func TestCalculate_NinthBonusContributesNothing(t *testing.T) {
	values := make([]float64, 2)
	for i, n := range []int{8, 9} {
		store := newTestStore()
		calc := newCalculator(t, store)
		fit := &fitting.Fit{ShipTypeID: testShipID}
		fit.Modules = lowSlotModules(store, n, nil, percentEffect(sde.AttrMaxVelocity, 10))

		res, err := calc.Calculate(context.Background(), sde.AttrMaxVelocity, 365, fit, nil)
		require.NoError(t, err)
		values[i] = res.Modified
	}
	assert.Equal(t, values[0], values[1], "a ninth identical bonus must not change the result")
}

// TestCalculate_PenaltyRanksByMagnitude verifies that the strongest bonus
// takes the unpenalized rank regardless of collection order.
func TestCalculate_PenaltyRanksByMagnitude(t *testing.T) {
	store := newTestStore()
	calc := newCalculator(t, store)

	weak := int32(9100)
	strong := int32(9101)
	registerModule(store, weak, "Weak Bonus", sde.SlotLow, nil, percentEffect(sde.AttrMaxVelocity, 10))
	registerModule(store, strong, "Strong Bonus", sde.SlotLow, nil, percentEffect(sde.AttrMaxVelocity, 20))

	// Weak module collected first; the 20% bonus must still rank first.
	fit := &fitting.Fit{
		ShipTypeID: testShipID,
		Modules: []fitting.FittedModule{
			{TypeID: weak, Slot: sde.SlotLow, Index: 0, Online: true},
			{TypeID: strong, Slot: sde.SlotLow, Index: 1, Online: true},
		},
	}

	res, err := calc.Calculate(context.Background(), sde.AttrMaxVelocity, 100, fit, nil)
	require.NoError(t, err)

	expected := round2(100 * (1 + 20.0/100) * (1 + 10.0*fitting.StackingPenalties[1]/100))
	assert.InDelta(t, expected, res.Modified, 1e-9)
}

// TestCalculate_StackableAttributeUnpenalized verifies that percentage
// bonuses on a stackable attribute compound at full strength.
func TestCalculate_StackableAttributeUnpenalized(t *testing.T) {
	store := newTestStore()
	calc := newCalculator(t, store)

	// Hull HP is stackable in the builtin attribute table.
	fit := &fitting.Fit{ShipTypeID: testShipID}
	fit.Modules = lowSlotModules(store, 3, nil, percentEffect(sde.AttrHullHP, 10))

	res, err := calc.Calculate(context.Background(), sde.AttrHullHP, 350, fit, nil)
	require.NoError(t, err)
	assert.InDelta(t, round2(350*1.1*1.1*1.1), res.Modified, 1e-9)
}

// TestCalculate_PenaltiesDisabled verifies the config toggle: with stacking
// penalties off, every bonus applies at full strength.
func TestCalculate_PenaltiesDisabled(t *testing.T) {
	store := newTestStore()
	cfg := config.DefaultEngineConfig()
	cfg.StackingPenalties = false
	calc := fitting.NewCalculator(store, cfg, zaptest.NewLogger(t))

	fit := &fitting.Fit{ShipTypeID: testShipID}
	fit.Modules = lowSlotModules(store, 3, nil, percentEffect(sde.AttrMaxVelocity, 10))

	res, err := calc.Calculate(context.Background(), sde.AttrMaxVelocity, 100, fit, nil)
	require.NoError(t, err)
	assert.InDelta(t, round2(100*1.1*1.1*1.1), res.Modified, 1e-9)
}

// TestCalculate_ApplicationOrder verifies the fixed operation order: set,
// then add, then percent, then multiply, with the last set winning.
func TestCalculate_ApplicationOrder(t *testing.T) {
	store := newTestStore()
	calc := newCalculator(t, store)

	extra := []fitting.Modifier{
		{Source: fitting.SourceExternal, Attribute: sde.AttrHullHP, Op: fitting.OpMultiply, Value: 2},
		{Source: fitting.SourceExternal, Attribute: sde.AttrHullHP, Op: fitting.OpPercent, Value: 10},
		{Source: fitting.SourceExternal, Attribute: sde.AttrHullHP, Op: fitting.OpSet, Value: 200},
		{Source: fitting.SourceExternal, Attribute: sde.AttrHullHP, Op: fitting.OpAdd, Value: 50},
		{Source: fitting.SourceExternal, Attribute: sde.AttrHullHP, Op: fitting.OpSet, Value: 80},
	}

	fit := &fitting.Fit{ShipTypeID: testShipID}
	res, err := calc.Calculate(context.Background(), sde.AttrHullHP, 100, fit, extra)
	require.NoError(t, err)

	// Last set wins: (80 + 50) * 1.10 * 2 = 286.
	assert.InDelta(t, 286, res.Modified, 1e-9)

	ops := make([]fitting.Operation, 0, len(res.Applied))
	for _, m := range res.Applied {
		ops = append(ops, m.Op)
	}
	assert.Equal(t, []fitting.Operation{
		fitting.OpSet, fitting.OpSet, fitting.OpAdd, fitting.OpPercent, fitting.OpMultiply,
	}, ops, "applied modifiers must be recorded in application order")
}

// TestCalculate_ExtraModifiersFiltered verifies that caller-supplied
// modifiers targeting other attributes are ignored.
func TestCalculate_ExtraModifiersFiltered(t *testing.T) {
	store := newTestStore()
	calc := newCalculator(t, store)

	extra := []fitting.Modifier{
		{Source: fitting.SourceExternal, Attribute: sde.AttrArmorHP, Op: fitting.OpAdd, Value: 1000},
	}
	fit := &fitting.Fit{ShipTypeID: testShipID}
	res, err := calc.Calculate(context.Background(), sde.AttrHullHP, 100, fit, extra)
	require.NoError(t, err)
	assert.InDelta(t, 100, res.Modified, 1e-9)
	assert.Empty(t, res.Applied)
}

// TestCalculate_ActiveEffectNeedsActiveModule verifies that active-category
// effects contribute only while the module is actually cycling.
func TestCalculate_ActiveEffectNeedsActiveModule(t *testing.T) {
	store := newTestStore()
	calc := newCalculator(t, store)

	registerModule(store, testAfterburnerID, "1MN Afterburner I", sde.SlotMed, nil, sde.EffectRef{
		Name: "speedBoost", Category: sde.EffectActive, Attribute: sde.AttrMaxVelocity, Op: "percent", Value: 112.5,
	})

	onlineOnly := &fitting.Fit{ShipTypeID: testShipID, Modules: []fitting.FittedModule{
		{TypeID: testAfterburnerID, Slot: sde.SlotMed, Online: true},
	}}
	res, err := calc.Calculate(context.Background(), sde.AttrMaxVelocity, 365, onlineOnly, nil)
	require.NoError(t, err)
	assert.InDelta(t, 365, res.Modified, 1e-9, "active effect must not apply while merely online")

	active := &fitting.Fit{ShipTypeID: testShipID, Modules: []fitting.FittedModule{
		{TypeID: testAfterburnerID, Slot: sde.SlotMed, Online: true, Active: true},
	}}
	res, err = calc.Calculate(context.Background(), sde.AttrMaxVelocity, 365, active, nil)
	require.NoError(t, err)
	assert.InDelta(t, round2(365*2.125), res.Modified, 1e-9)
}

// TestCalculate_OfflineModuleContributesNothing verifies that offline
// modules produce no modifiers even when flagged online.
func TestCalculate_OfflineModuleContributesNothing(t *testing.T) {
	store := newTestStore()
	calc := newCalculator(t, store)

	fit := &fitting.Fit{ShipTypeID: testShipID}
	fit.Modules = lowSlotModules(store, 1, nil, percentEffect(sde.AttrMaxVelocity, 10))
	fit.Modules[0].Offline = true

	res, err := calc.Calculate(context.Background(), sde.AttrMaxVelocity, 365, fit, nil)
	require.NoError(t, err)
	assert.InDelta(t, 365, res.Modified, 1e-9)
}

// TestCalculate_SkillBonusLinear verifies the builtin frigate table: the
// turret damage skill at level 4 grants +20% on the damage multiplier.
func TestCalculate_SkillBonusLinear(t *testing.T) {
	store := newTestStore()
	calc := newCalculator(t, store)

	fit := &fitting.Fit{
		ShipTypeID: testShipID,
		Pilot: fitting.PilotData{Skills: []fitting.TrainedSkill{
			{TypeID: sde.SkillGunnery, Level: 4},
		}},
	}
	res, err := calc.Calculate(context.Background(), sde.AttrDamageMultiplier, 100, fit, nil)
	require.NoError(t, err)
	assert.InDelta(t, 120, res.Modified, 1e-9, "level 4 of a 5-per-level linear skill must grant +20 percent")
}

// TestCalculate_SkillBonusCurves verifies the exponential and threshold
// scaling kinds against a custom bonus table.
func TestCalculate_SkillBonusCurves(t *testing.T) {
	store := newTestStore()
	calc := newCalculator(t, store)

	const customGroup int32 = 999
	const customShip int32 = 9999
	store.RegisterType(&sde.TypeInfo{
		ID: customShip, Name: "Custom Hull", GroupID: customGroup, CategoryID: sde.CategoryShip, Published: true,
	})
	store.RegisterBonuses(customGroup, []sde.SkillBonus{
		{SkillTypeID: 100, Attribute: sde.AttrMaxVelocity, Kind: sde.BonusExponential, PerLevel: 1},
		{SkillTypeID: 101, Attribute: sde.AttrArmorHP, Kind: sde.BonusThreshold, PerLevel: 25, CapLevel: 5},
	})

	fit := &fitting.Fit{
		ShipTypeID: customShip,
		Pilot: fitting.PilotData{Skills: []fitting.TrainedSkill{
			{TypeID: 100, Level: 3},
			{TypeID: 101, Level: 4},
		}},
	}

	res, err := calc.Calculate(context.Background(), sde.AttrMaxVelocity, 100, fit, nil)
	require.NoError(t, err)
	assert.InDelta(t, 109, res.Modified, 1e-9, "exponential bonus at level 3 must scale with level squared")

	res, err = calc.Calculate(context.Background(), sde.AttrArmorHP, 100, fit, nil)
	require.NoError(t, err)
	assert.InDelta(t, 100, res.Modified, 1e-9, "threshold bonus must grant nothing below the cap level")

	fit.Pilot.Skills[1].Level = 5
	res, err = calc.Calculate(context.Background(), sde.AttrArmorHP, 100, fit, nil)
	require.NoError(t, err)
	assert.InDelta(t, 125, res.Modified, 1e-9, "threshold bonus must grant the full value at the cap level")
}

// TestCalculate_SkillBonusesDisabled verifies the config toggle for
// skill-derived modifiers.
func TestCalculate_SkillBonusesDisabled(t *testing.T) {
	store := newTestStore()
	cfg := config.DefaultEngineConfig()
	cfg.SkillBonuses = false
	calc := fitting.NewCalculator(store, cfg, zaptest.NewLogger(t))

	fit := &fitting.Fit{
		ShipTypeID: testShipID,
		Pilot: fitting.PilotData{Skills: []fitting.TrainedSkill{
			{TypeID: sde.SkillGunnery, Level: 5},
		}},
	}
	res, err := calc.Calculate(context.Background(), sde.AttrDamageMultiplier, 100, fit, nil)
	require.NoError(t, err)
	assert.InDelta(t, 100, res.Modified, 1e-9)
}

// TestCalculate_MissingShipSkipped verifies that an unknown hull degrades to
// no hull or skill modifiers instead of failing the calculation.
func TestCalculate_MissingShipSkipped(t *testing.T) {
	store := newTestStore()
	calc := newCalculator(t, store)

	fit := &fitting.Fit{ShipTypeID: 424242}
	res, err := calc.Calculate(context.Background(), sde.AttrMaxVelocity, 365, fit, nil)
	require.NoError(t, err)
	assert.InDelta(t, 365, res.Modified, 1e-9)
}

// TestCalculate_Deterministic uses property-based testing to verify that
// identical inputs always produce identical output.
func TestCalculate_Deterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.Float64Range(1, 10000).Draw(rt, "base")
		n := rapid.IntRange(0, 6).Draw(rt, "n")
		var extra []fitting.Modifier
		for i := 0; i < n; i++ {
			extra = append(extra, fitting.Modifier{
				Source:    fitting.SourceExternal,
				Attribute: sde.AttrMaxVelocity,
				Op:        fitting.OpPercent,
				Value:     rapid.Float64Range(-50, 50).Draw(rt, "value"),
			})
		}

		store := newTestStore()
		calc := fitting.NewCalculator(store, config.DefaultEngineConfig(), zaptest.NewLogger(t))
		fit := &fitting.Fit{ShipTypeID: testShipID}

		first, err := calc.Calculate(context.Background(), sde.AttrMaxVelocity, base, fit, extra)
		require.NoError(rt, err)
		second, err := calc.Calculate(context.Background(), sde.AttrMaxVelocity, base, fit, extra)
		require.NoError(rt, err)
		assert.Equal(rt, first.Modified, second.Modified,
			"identical inputs must yield identical results")
	})
}

// TestCalculate_PenaltyWeakensRepeatedBonuses uses property-based testing to
// verify that two or more identical positive bonuses on a non-stackable
// attribute always land below their unpenalized compound, and a single bonus
// matches it exactly.
func TestCalculate_PenaltyWeakensRepeatedBonuses(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.Float64Range(100, 1000).Draw(rt, "base")
		percent := rapid.Float64Range(5, 50).Draw(rt, "percent")
		n := rapid.IntRange(1, 8).Draw(rt, "n")

		store := newTestStore()
		calc := fitting.NewCalculator(store, config.DefaultEngineConfig(), zaptest.NewLogger(t))
		fit := &fitting.Fit{ShipTypeID: testShipID}
		fit.Modules = lowSlotModules(store, n, nil, percentEffect(sde.AttrMaxVelocity, percent))

		res, err := calc.Calculate(context.Background(), sde.AttrMaxVelocity, base, fit, nil)
		require.NoError(rt, err)

		naive := base
		for i := 0; i < n; i++ {
			naive *= 1 + percent/100
		}
		if n == 1 {
			assert.InDelta(rt, round2(naive), res.Modified, 1e-9,
				"a single bonus must apply at full strength")
		} else {
			assert.Less(rt, res.Modified, naive,
				"repeated bonuses must land below the unpenalized compound")
			assert.Greater(rt, res.Modified, base,
				"positive bonuses must still increase the value")
		}
	})
}
