package sde

// Builtin returns a Store pre-seeded with the fallback reference tables:
// definitions for every dogma attribute the calculation core reads, plus a
// minimal frigate skill-bonus table. It exists for bootstrap and testing;
// production deployments load a full SDE snapshot over it.
//
// Postcondition: AttributeDefinition succeeds for every Attr* constant in
// this package that the fitting engine resolves.
func Builtin() *Store {
	s := NewStore()
	for i := range builtinAttributes {
		s.RegisterAttribute(&builtinAttributes[i])
	}
	s.RegisterBonuses(GroupFrigate, builtinFrigateBonuses)
	return s
}

// Well-known group and category IDs referenced by the builtin tables.
const (
	GroupFrigate      int32 = 25
	GroupEnergyWeapon int32 = 53
	GroupProjectile   int32 = 55
	GroupHybridWeapon int32 = 74
	GroupPropulsion   int32 = 46
	GroupGunnery      int32 = 256
	CategoryShip      int32 = 6
	CategoryModule    int32 = 7
	CategoryCharge    int32 = 8
	CategorySkill     int32 = 16
	CategoryImplant   int32 = 20
	CategorySubsystem int32 = 32
)

// SkillGunnery is the baseline turret damage skill used by the builtin
// frigate bonus table.
const SkillGunnery int32 = 3300

var builtinAttributes = []AttributeDefinition{
	{ID: AttrMass, Name: "mass", DisplayName: "Mass", HighIsGood: false, Stackable: true},
	{ID: AttrCapacitorNeed, Name: "capacitorNeed", DisplayName: "Activation Cost", HighIsGood: false, Stackable: true},
	{ID: AttrHullHP, Name: "hp", DisplayName: "Structure Hitpoints", HighIsGood: true, Stackable: true},
	{ID: AttrPowerOutput, Name: "powerOutput", DisplayName: "Powergrid Output", HighIsGood: true, Stackable: false},
	{ID: AttrLowSlots, Name: "lowSlots", DisplayName: "Low Slots", HighIsGood: true, Stackable: true},
	{ID: AttrMedSlots, Name: "medSlots", DisplayName: "Med Slots", HighIsGood: true, Stackable: true},
	{ID: AttrHighSlots, Name: "hiSlots", DisplayName: "High Slots", HighIsGood: true, Stackable: true},
	{ID: AttrMaxVelocity, Name: "maxVelocity", DisplayName: "Maximum Velocity", HighIsGood: true, Stackable: false},
	{ID: AttrPowerUsage, Name: "power", DisplayName: "Powergrid Usage", HighIsGood: false, Stackable: true},
	{ID: AttrCPUOutput, Name: "cpuOutput", DisplayName: "CPU Output", HighIsGood: true, Stackable: false},
	{ID: AttrCPUUsage, Name: "cpu", DisplayName: "CPU Usage", HighIsGood: false, Stackable: true},
	{ID: AttrCycleTime, Name: "speed", DisplayName: "Activation Time", HighIsGood: false, Stackable: false},
	{ID: AttrCapRechargeTime, Name: "rechargeRate", DisplayName: "Capacitor Recharge Time", HighIsGood: false, Stackable: false},
	{ID: AttrDamageMultiplier, Name: "damageMultiplier", DisplayName: "Damage Modifier", HighIsGood: true, Stackable: false},
	{ID: AttrInertiaModifier, Name: "agility", DisplayName: "Inertia Modifier", HighIsGood: false, Stackable: false},
	{ID: AttrMaxTargetRange, Name: "maxTargetRange", DisplayName: "Maximum Targeting Range", HighIsGood: true, Stackable: false},
	{ID: AttrEMDamage, Name: "emDamage", DisplayName: "EM Damage", HighIsGood: true, Stackable: true},
	{ID: AttrExplosiveDamage, Name: "explosiveDamage", DisplayName: "Explosive Damage", HighIsGood: true, Stackable: true},
	{ID: AttrKineticDamage, Name: "kineticDamage", DisplayName: "Kinetic Damage", HighIsGood: true, Stackable: true},
	{ID: AttrThermalDamage, Name: "thermalDamage", DisplayName: "Thermal Damage", HighIsGood: true, Stackable: true},
	{ID: AttrChargeSize, Name: "chargeSize", DisplayName: "Charge Size", HighIsGood: true, Stackable: true},
	{ID: AttrOptimalRange, Name: "maxRange", DisplayName: "Optimal Range", HighIsGood: true, Stackable: false},
	{ID: AttrFalloff, Name: "falloff", DisplayName: "Accuracy Falloff", HighIsGood: true, Stackable: false},
	{ID: AttrMaxLockedTargets, Name: "maxLockedTargets", DisplayName: "Maximum Locked Targets", HighIsGood: true, Stackable: true},
	{ID: AttrShieldCapacity, Name: "shieldCapacity", DisplayName: "Shield Capacity", HighIsGood: true, Stackable: false},
	{ID: AttrArmorHP, Name: "armorHP", DisplayName: "Armor Hitpoints", HighIsGood: true, Stackable: false},
	{ID: AttrShieldRechargeTime, Name: "shieldRechargeRate", DisplayName: "Shield Recharge Time", HighIsGood: false, Stackable: false},
	{ID: AttrCapacitorCapacity, Name: "capacitorCapacity", DisplayName: "Capacitor Capacity", HighIsGood: true, Stackable: false},
	{ID: AttrSignatureRadius, Name: "signatureRadius", DisplayName: "Signature Radius", HighIsGood: false, Stackable: false},
	{ID: AttrScanResolution, Name: "scanResolution", DisplayName: "Scan Resolution", HighIsGood: true, Stackable: false},
	{ID: AttrRigSlots, Name: "rigSlots", DisplayName: "Rig Slots", HighIsGood: true, Stackable: true},
	{ID: AttrUpgradeCapacity, Name: "upgradeCapacity", DisplayName: "Calibration", HighIsGood: true, Stackable: true},
	{ID: AttrUpgradeCost, Name: "upgradeCost", DisplayName: "Calibration Cost", HighIsGood: false, Stackable: true},
	{ID: AttrSubsystemSlots, Name: "maxSubSystems", DisplayName: "Subsystem Slots", HighIsGood: true, Stackable: true},

	{ID: AttrHullEMResonance, Name: "emDamageResonance", DisplayName: "Structure EM Damage Resistance", HighIsGood: false, Stackable: false},
	{ID: AttrHullThermalResonance, Name: "thermalDamageResonance", DisplayName: "Structure Thermal Damage Resistance", HighIsGood: false, Stackable: false},
	{ID: AttrHullKineticResonance, Name: "kineticDamageResonance", DisplayName: "Structure Kinetic Damage Resistance", HighIsGood: false, Stackable: false},
	{ID: AttrHullExplosiveResonance, Name: "explosiveDamageResonance", DisplayName: "Structure Explosive Damage Resistance", HighIsGood: false, Stackable: false},
	{ID: AttrArmorEMResonance, Name: "armorEmDamageResonance", DisplayName: "Armor EM Damage Resistance", HighIsGood: false, Stackable: false},
	{ID: AttrArmorExplosiveResonance, Name: "armorExplosiveDamageResonance", DisplayName: "Armor Explosive Damage Resistance", HighIsGood: false, Stackable: false},
	{ID: AttrArmorKineticResonance, Name: "armorKineticDamageResonance", DisplayName: "Armor Kinetic Damage Resistance", HighIsGood: false, Stackable: false},
	{ID: AttrArmorThermalResonance, Name: "armorThermalDamageResonance", DisplayName: "Armor Thermal Damage Resistance", HighIsGood: false, Stackable: false},
	{ID: AttrShieldEMResonance, Name: "shieldEmDamageResonance", DisplayName: "Shield EM Damage Resistance", HighIsGood: false, Stackable: false},
	{ID: AttrShieldExplosiveResonance, Name: "shieldExplosiveDamageResonance", DisplayName: "Shield Explosive Damage Resistance", HighIsGood: false, Stackable: false},
	{ID: AttrShieldKineticResonance, Name: "shieldKineticDamageResonance", DisplayName: "Shield Kinetic Damage Resistance", HighIsGood: false, Stackable: false},
	{ID: AttrShieldThermalResonance, Name: "shieldThermalDamageResonance", DisplayName: "Shield Thermal Damage Resistance", HighIsGood: false, Stackable: false},

	{ID: AttrPrimarySkillID, Name: "requiredSkill1", DisplayName: "Primary Skill Required", HighIsGood: true, Stackable: true},
	{ID: AttrPrimarySkillLevel, Name: "requiredSkill1Level", DisplayName: "Primary Skill Level", HighIsGood: true, Stackable: true},
	{ID: AttrSecondarySkillID, Name: "requiredSkill2", DisplayName: "Secondary Skill Required", HighIsGood: true, Stackable: true},
	{ID: AttrSecondarySkillLevel, Name: "requiredSkill2Level", DisplayName: "Secondary Skill Level", HighIsGood: true, Stackable: true},
	{ID: AttrTertiarySkillID, Name: "requiredSkill3", DisplayName: "Tertiary Skill Required", HighIsGood: true, Stackable: true},
	{ID: AttrTertiarySkillLevel, Name: "requiredSkill3Level", DisplayName: "Tertiary Skill Level", HighIsGood: true, Stackable: true},

	{ID: AttrChargeGroup1, Name: "chargeGroup1", DisplayName: "Charge Group", HighIsGood: true, Stackable: true},
	{ID: AttrChargeGroup2, Name: "chargeGroup2", DisplayName: "Charge Group", HighIsGood: true, Stackable: true},
	{ID: AttrChargeGroup3, Name: "chargeGroup3", DisplayName: "Charge Group", HighIsGood: true, Stackable: true},
	{ID: AttrChargeGroup4, Name: "chargeGroup4", DisplayName: "Charge Group", HighIsGood: true, Stackable: true},
	{ID: AttrChargeGroup5, Name: "chargeGroup5", DisplayName: "Charge Group", HighIsGood: true, Stackable: true},
}

// builtinFrigateBonuses is the minimal per-ship-group bonus table: the
// baseline turret damage skill for frigate hulls. Full tables come from the
// loaded SDE snapshot.
var builtinFrigateBonuses = []SkillBonus{
	{SkillTypeID: SkillGunnery, Attribute: AttrDamageMultiplier, Kind: BonusLinear, PerLevel: 5, CapLevel: 5},
}
