package sde

// Dogma attribute IDs used directly by the calculation core. These are the
// published identifiers from the game's static data export; everything else
// is looked up dynamically through the Provider.
const (
	AttrMass               int32 = 4
	AttrCapacitorNeed      int32 = 6
	AttrHullHP             int32 = 9
	AttrPowerOutput        int32 = 11
	AttrLowSlots           int32 = 12
	AttrMedSlots           int32 = 13
	AttrHighSlots          int32 = 14
	AttrMaxVelocity        int32 = 37
	AttrPowerUsage         int32 = 30
	AttrCPUOutput          int32 = 48
	AttrCPUUsage           int32 = 50
	AttrCycleTime          int32 = 51
	AttrCapRechargeTime    int32 = 55
	AttrDamageMultiplier   int32 = 64
	AttrInertiaModifier    int32 = 70
	AttrMaxTargetRange     int32 = 76
	AttrEMDamage           int32 = 114
	AttrExplosiveDamage    int32 = 116
	AttrKineticDamage      int32 = 117
	AttrThermalDamage      int32 = 118
	AttrChargeSize         int32 = 128
	AttrOptimalRange       int32 = 54
	AttrFalloff            int32 = 158
	AttrMaxLockedTargets   int32 = 192
	AttrShieldCapacity     int32 = 263
	AttrArmorHP            int32 = 265
	AttrShieldRechargeTime int32 = 479
	AttrCapacitorCapacity  int32 = 482
	AttrSignatureRadius    int32 = 552
	AttrScanResolution     int32 = 564
	AttrRigSlots           int32 = 1137
	AttrUpgradeCapacity    int32 = 1132
	AttrUpgradeCost        int32 = 1153
	AttrSubsystemSlots     int32 = 1367
)

// Hull damage resonances (resonance = 1 - resistance).
const (
	AttrHullEMResonance        int32 = 113
	AttrHullThermalResonance   int32 = 110
	AttrHullKineticResonance   int32 = 109
	AttrHullExplosiveResonance int32 = 111
)

// Armor damage resonances.
const (
	AttrArmorEMResonance        int32 = 267
	AttrArmorExplosiveResonance int32 = 268
	AttrArmorKineticResonance   int32 = 269
	AttrArmorThermalResonance   int32 = 270
)

// Shield damage resonances.
const (
	AttrShieldEMResonance        int32 = 271
	AttrShieldExplosiveResonance int32 = 272
	AttrShieldKineticResonance   int32 = 273
	AttrShieldThermalResonance   int32 = 274
)

// Required-skill attribute pairs: the module template declares up to six
// prerequisite skills as (skill type ID, minimum level) attribute pairs.
const (
	AttrPrimarySkillID       int32 = 182
	AttrPrimarySkillLevel    int32 = 277
	AttrSecondarySkillID     int32 = 183
	AttrSecondarySkillLevel  int32 = 278
	AttrTertiarySkillID      int32 = 184
	AttrTertiarySkillLevel   int32 = 279
	AttrQuaternarySkillID    int32 = 1285
	AttrQuaternarySkillLevel int32 = 1286
	AttrQuinarySkillID       int32 = 1289
	AttrQuinarySkillLevel    int32 = 1287
	AttrSenarySkillID        int32 = 1290
	AttrSenarySkillLevel     int32 = 1288
)

// Charge compatibility attributes: a module accepts charges whose group ID
// matches one of its declared charge groups and whose size matches.
const (
	AttrChargeGroup1 int32 = 604
	AttrChargeGroup2 int32 = 605
	AttrChargeGroup3 int32 = 606
	AttrChargeGroup4 int32 = 609
	AttrChargeGroup5 int32 = 610
)

// ChargeGroupAttrs lists the charge-group attribute IDs in declaration order.
var ChargeGroupAttrs = [5]int32{
	AttrChargeGroup1, AttrChargeGroup2, AttrChargeGroup3, AttrChargeGroup4, AttrChargeGroup5,
}

// AttributeDefinition is the static definition of a dogma attribute.
// Attributes are read-only reference data and are never mutated at runtime.
type AttributeDefinition struct {
	ID           int32   `yaml:"id"`
	Name         string  `yaml:"name"`
	DisplayName  string  `yaml:"display_name"`
	DefaultValue float64 `yaml:"default_value"`
	// HighIsGood declares whether larger values are beneficial.
	HighIsGood bool `yaml:"high_is_good"`
	// Stackable declares whether repeated percentage bonuses compound freely.
	// Non-stackable attributes are subject to the stacking penalty.
	Stackable bool `yaml:"stackable"`
}

// SkillRequirement is one prerequisite skill extracted from a module template.
type SkillRequirement struct {
	SkillTypeID int32
	Level       int
}

// requiredSkillAttrs pairs each skill-ID attribute with its level attribute.
var requiredSkillAttrs = [6][2]int32{
	{AttrPrimarySkillID, AttrPrimarySkillLevel},
	{AttrSecondarySkillID, AttrSecondarySkillLevel},
	{AttrTertiarySkillID, AttrTertiarySkillLevel},
	{AttrQuaternarySkillID, AttrQuaternarySkillLevel},
	{AttrQuinarySkillID, AttrQuinarySkillLevel},
	{AttrSenarySkillID, AttrSenarySkillLevel},
}

// RequiredSkills extracts the prerequisite skills declared on a type's
// attribute set. A skill-ID attribute without a level pair defaults to level 1.
//
// Postcondition: Returns a slice (may be empty), never nil entries.
func RequiredSkills(attrs map[int32]float64) []SkillRequirement {
	var reqs []SkillRequirement
	for _, pair := range requiredSkillAttrs {
		id, ok := attrs[pair[0]]
		if !ok || id <= 0 {
			continue
		}
		level := 1
		if lv, ok := attrs[pair[1]]; ok && lv > 0 {
			level = int(lv)
		}
		reqs = append(reqs, SkillRequirement{SkillTypeID: int32(id), Level: level})
	}
	return reqs
}
