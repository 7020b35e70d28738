package fitting_test

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/korallis/eve-cortex/internal/config"
	"github.com/korallis/eve-cortex/internal/fitting"
	"github.com/korallis/eve-cortex/internal/sde"
)

// Fixture type IDs. They only need to be unique within a test store.
const (
	testShipID        int32 = 587
	testGunID         int32 = 484
	testChargeID      int32 = 178
	testAfterburnerID int32 = 439
	testGyroID        int32 = 518
	testRigID         int32 = 31524
	testSkillID       int32 = 3300
)

// newTestStore returns a builtin-seeded store with a frigate hull registered
// under testShipID. Additional types are registered per test.
func newTestStore() *sde.Store {
	s := sde.Builtin()
	registerShip(s, testShipID, map[int32]float64{
		sde.AttrMass:               1067000,
		sde.AttrHullHP:             350,
		sde.AttrPowerOutput:        41,
		sde.AttrMaxVelocity:        365,
		sde.AttrCPUOutput:          130,
		sde.AttrCapRechargeTime:    125000,
		sde.AttrInertiaModifier:    3.19,
		sde.AttrMaxTargetRange:     22500,
		sde.AttrMaxLockedTargets:   4,
		sde.AttrShieldCapacity:     450,
		sde.AttrArmorHP:            400,
		sde.AttrShieldRechargeTime: 625000,
		sde.AttrCapacitorCapacity:  250,
		sde.AttrSignatureRadius:    35,
		sde.AttrScanResolution:     660,
		sde.AttrUpgradeCapacity:    400,
	}, sde.SlotLayout{High: 4, Med: 3, Low: 3, Rig: 3})
	return s
}

func registerShip(s *sde.Store, id int32, attrs map[int32]float64, layout sde.SlotLayout) {
	s.RegisterType(&sde.TypeInfo{
		ID:         id,
		Name:       "Test Hull",
		GroupID:    sde.GroupFrigate,
		CategoryID: sde.CategoryShip,
		Attributes: attrs,
		SlotLayout: layout,
		Published:  true,
	})
}

func registerModule(s *sde.Store, id int32, name string, slot sde.SlotKind, attrs map[int32]float64, effects ...sde.EffectRef) {
	s.RegisterType(&sde.TypeInfo{
		ID:         id,
		Name:       name,
		GroupID:    100,
		CategoryID: sde.CategoryModule,
		Slot:       slot,
		Attributes: attrs,
		Effects:    effects,
		Published:  true,
	})
}

// percentEffect is a passive percentage bonus on the given attribute.
func percentEffect(attr int32, value float64) sde.EffectRef {
	return sde.EffectRef{Name: "testBonus", Category: sde.EffectPassive, Attribute: attr, Op: "percent", Value: value}
}

func newCalculator(t *testing.T, s *sde.Store) *fitting.Calculator {
	t.Helper()
	return fitting.NewCalculator(s, config.DefaultEngineConfig(), zaptest.NewLogger(t))
}

func newEngine(t *testing.T, s *sde.Store) *fitting.Engine {
	t.Helper()
	return fitting.NewEngine(s, config.DefaultEngineConfig(), zaptest.NewLogger(t))
}

// lowSlotModules builds n powered low-slot modules of distinct types, each
// registered with the given effects.
func lowSlotModules(s *sde.Store, n int, attrs map[int32]float64, effects ...sde.EffectRef) []fitting.FittedModule {
	mods := make([]fitting.FittedModule, 0, n)
	for i := 0; i < n; i++ {
		id := int32(9000 + i)
		registerModule(s, id, "Test Low Module", sde.SlotLow, attrs, effects...)
		mods = append(mods, fitting.FittedModule{TypeID: id, Slot: sde.SlotLow, Index: i, Online: true})
	}
	return mods
}
