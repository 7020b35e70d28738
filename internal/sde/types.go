// Package sde models the game's static data export: type templates, dogma
// attribute definitions, effects, and skill bonus tables. All of it is
// immutable reference data consumed by the fitting calculation core.
package sde

// SlotKind identifies the slot category a module occupies.
type SlotKind string

const (
	SlotHigh      SlotKind = "high"
	SlotMed       SlotKind = "med"
	SlotLow       SlotKind = "low"
	SlotRig       SlotKind = "rig"
	SlotSubsystem SlotKind = "subsystem"
	// SlotNone marks types that cannot be fitted (ships, charges, skills).
	SlotNone SlotKind = ""
)

// SlotKinds lists the fittable slot categories in display order.
var SlotKinds = [5]SlotKind{SlotHigh, SlotMed, SlotLow, SlotRig, SlotSubsystem}

// SlotLayout holds a ship's declared slot capacities per category.
type SlotLayout struct {
	High      int `yaml:"high"`
	Med       int `yaml:"med"`
	Low       int `yaml:"low"`
	Rig       int `yaml:"rig"`
	Subsystem int `yaml:"subsystem"`
}

// Capacity returns the slot count for the given kind.
//
// Postcondition: Returns 0 for SlotNone or an unknown kind.
func (l SlotLayout) Capacity(kind SlotKind) int {
	switch kind {
	case SlotHigh:
		return l.High
	case SlotMed:
		return l.Med
	case SlotLow:
		return l.Low
	case SlotRig:
		return l.Rig
	case SlotSubsystem:
		return l.Subsystem
	default:
		return 0
	}
}

// EffectCategory classifies when an effect's modifiers apply.
type EffectCategory string

const (
	// EffectPassive modifiers apply whenever the module is at least online.
	EffectPassive EffectCategory = "passive"
	// EffectActive modifiers apply only while the module is cycling.
	EffectActive EffectCategory = "active"
)

// EffectRef is a declared effect on a type: a modifier the type projects onto
// a target attribute when fitted. The mapping from bonus to target attribute
// is data, not logic; the provider owns it.
type EffectRef struct {
	// Name identifies the effect for display and conflict detection.
	Name string `yaml:"name"`
	// Category controls whether the effect needs the module active or merely online.
	Category EffectCategory `yaml:"category"`
	// Attribute is the target dogma attribute the effect modifies.
	Attribute int32 `yaml:"attribute"`
	// Op is the modifier operation: "set", "add", "percent", or "multiply".
	Op string `yaml:"op"`
	// Value is the modifier magnitude.
	Value float64 `yaml:"value"`
}

// TypeInfo is the template for any game type: ship hull, module, charge, or
// skill. Ships carry a slot layout; modules carry the slot kind they occupy.
type TypeInfo struct {
	ID         int32             `yaml:"id"`
	Name       string            `yaml:"name"`
	GroupID    int32             `yaml:"group_id"`
	CategoryID int32             `yaml:"category_id"`
	Slot       SlotKind          `yaml:"slot"`
	Attributes map[int32]float64 `yaml:"attributes"`
	Effects    []EffectRef       `yaml:"effects"`
	SlotLayout SlotLayout        `yaml:"slot_layout"`
	Published  bool              `yaml:"published"`
}

// Attribute returns the type's value for the given attribute ID, or the
// provided fallback when the type does not declare it.
func (t *TypeInfo) Attribute(id int32, fallback float64) float64 {
	if v, ok := t.Attributes[id]; ok {
		return v
	}
	return fallback
}

// ShipTemplate is the provider's view of a ship hull: base attributes plus
// declared slot capacities.
type ShipTemplate struct {
	Type       *TypeInfo
	SlotLayout SlotLayout
}

// ModuleTemplate is the provider's view of a fittable module: base
// attributes, declared effects, and the slot category it occupies.
type ModuleTemplate struct {
	Type *TypeInfo
	Slot SlotKind
}

// RequiredSkills returns the module's prerequisite skills.
func (m *ModuleTemplate) RequiredSkills() []SkillRequirement {
	return RequiredSkills(m.Type.Attributes)
}

// ChargeGroups returns the charge group IDs this module accepts.
//
// Postcondition: Returns an empty slice for modules that take no charge.
func (m *ModuleTemplate) ChargeGroups() []int32 {
	var groups []int32
	for _, attr := range ChargeGroupAttrs {
		if g, ok := m.Type.Attributes[attr]; ok && g > 0 {
			groups = append(groups, int32(g))
		}
	}
	return groups
}

// TypeSummary is a search result row.
type TypeSummary struct {
	ID         int32
	Name       string
	GroupID    int32
	CategoryID int32
}

// BonusKind selects the skill-level scaling curve for a skill bonus.
type BonusKind string

const (
	// BonusLinear scales as perLevel * min(trainedLevel, capLevel).
	BonusLinear BonusKind = "linear"
	// BonusExponential scales as perLevel * trainedLevel^2.
	BonusExponential BonusKind = "exponential"
	// BonusThreshold grants perLevel once trainedLevel >= capLevel, else nothing.
	BonusThreshold BonusKind = "threshold"
)

// SkillBonus maps a trained skill to a percentage bonus on a target
// attribute for ships of a particular group. These tables are reference
// data keyed by ship group ID.
type SkillBonus struct {
	SkillTypeID int32     `yaml:"skill_type_id"`
	Attribute   int32     `yaml:"attribute"`
	Kind        BonusKind `yaml:"kind"`
	PerLevel    float64   `yaml:"per_level"`
	CapLevel    int       `yaml:"cap_level"`
}
