package fitting

import "github.com/korallis/eve-cortex/internal/sde"

// SourceKind identifies where a modifier came from. Downstream logic
// switches on the operation, never on the source kind; the kind exists for
// reporting and ordering.
type SourceKind string

const (
	SourceShip     SourceKind = "ship"
	SourceModule   SourceKind = "module"
	SourceSkill    SourceKind = "skill"
	SourceImplant  SourceKind = "implant"
	SourceBooster  SourceKind = "booster"
	SourceExternal SourceKind = "external"
)

// Operation selects how a modifier combines with the running value.
type Operation string

const (
	// OpSet overrides the base value; the last set modifier in collection
	// order wins.
	OpSet Operation = "set"
	// OpAdd is summed onto the value after sets.
	OpAdd Operation = "add"
	// OpPercent is a percentage bonus, subject to stacking penalties on
	// non-stackable attributes.
	OpPercent Operation = "percent"
	// OpMultiply scales the value last, in collection order.
	OpMultiply Operation = "multiply"
)

// Modifier is the unit of computation: one source adjusting one attribute.
// Modifiers are derived from the fitting context on every calculation and
// never cached as mutable state.
type Modifier struct {
	Source    SourceKind
	SourceID  int32
	Attribute int32
	Op        Operation
	Value     float64
	// Penalty is the stacking-penalty multiplier that was applied, filled in
	// during application. 1 for unpenalized modifiers.
	Penalty float64
}

// modifierFromEffect converts a declared effect into a modifier, or returns
// false when the effect targets a different attribute or names an unknown
// operation.
func modifierFromEffect(source SourceKind, sourceID int32, eff sde.EffectRef, attrID int32) (Modifier, bool) {
	if eff.Attribute != attrID {
		return Modifier{}, false
	}
	op := Operation(eff.Op)
	switch op {
	case OpSet, OpAdd, OpPercent, OpMultiply:
	default:
		return Modifier{}, false
	}
	return Modifier{
		Source:    source,
		SourceID:  sourceID,
		Attribute: attrID,
		Op:        op,
		Value:     eff.Value,
		Penalty:   1,
	}, true
}
