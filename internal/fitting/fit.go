// Package fitting implements the ship fitting calculation core: attribute
// resolution with stacking penalties, fitting validation, and derived
// performance metrics. The package is a pure function of a fitting context
// and the reference-data snapshot current at call time; it holds no mutable
// state between calls, so concurrent calculations need no coordination.
package fitting

import (
	"fmt"

	"github.com/korallis/eve-cortex/internal/sde"
)

// TrainedSkill is one trained proficiency: type ID, level 0-5, and
// accumulated skill points.
type TrainedSkill struct {
	TypeID      int32
	Level       int
	SkillPoints int64
}

// PilotData holds a pilot's trained skills and character attributes. The
// five character attributes influence training time elsewhere but are also
// read by some bonus formulas.
type PilotData struct {
	Skills       []TrainedSkill
	Intelligence float64
	Memory       float64
	Perception   float64
	Willpower    float64
	Charisma     float64
}

// SkillLevel returns the trained level for the given skill type ID, or 0 if
// the skill is untrained.
func (p *PilotData) SkillLevel(typeID int32) int {
	for _, s := range p.Skills {
		if s.TypeID == typeID {
			return s.Level
		}
	}
	return 0
}

// DuplicateSkills returns the skill type IDs that appear more than once.
// Duplicates are a data-integrity error, not a valid pilot state.
func (p *PilotData) DuplicateSkills() []int32 {
	seen := make(map[int32]int, len(p.Skills))
	var dups []int32
	for _, s := range p.Skills {
		seen[s.TypeID]++
		if seen[s.TypeID] == 2 {
			dups = append(dups, s.TypeID)
		}
	}
	return dups
}

// FittedModule is a piece of equipment occupying one slot. The three state
// flags are independent as data; Active implying Online is enforced by the
// validator, not assumed here.
type FittedModule struct {
	TypeID int32
	Slot   sde.SlotKind
	// Index orders modules within a slot category for display; it carries no
	// calculation semantics.
	Index        int
	ChargeTypeID int32
	Offline      bool
	Online       bool
	Active       bool
}

// Powered reports whether the module contributes modifiers at all.
func (m FittedModule) Powered() bool {
	return (m.Online || m.Active) && !m.Offline
}

// Fit is the fitting context: one ship, its fitted modules, the pilot, and
// auxiliary boosts. A Fit is constructed fresh per calculation request and
// never mutated by the core.
type Fit struct {
	ShipTypeID int32
	Modules    []FittedModule
	Pilot      PilotData
	Implants   []int32
	Boosters   []int32
}

// ModulesInSlot returns the fitted modules occupying the given slot kind.
func (f *Fit) ModulesInSlot(kind sde.SlotKind) []FittedModule {
	var out []FittedModule
	for _, m := range f.Modules {
		if m.Slot == kind {
			out = append(out, m)
		}
	}
	return out
}

// DuplicateSlotIndexes returns an error message per (slot kind, index) pair
// occupied by more than one module. Slot occupancy must be unique per index
// within a category.
func (f *Fit) DuplicateSlotIndexes() []string {
	type key struct {
		kind  sde.SlotKind
		index int
	}
	seen := make(map[key]int, len(f.Modules))
	var msgs []string
	for _, m := range f.Modules {
		k := key{kind: m.Slot, index: m.Index}
		seen[k]++
		if seen[k] == 2 {
			msgs = append(msgs, fmt.Sprintf("%s slot %d is occupied by more than one module", m.Slot, m.Index))
		}
	}
	return msgs
}
