package fitting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/korallis/eve-cortex/internal/config"
	"github.com/korallis/eve-cortex/internal/sde"
)

// StackingPenalties are the diminishing-returns multipliers applied to
// ranked percentage modifiers on a non-stackable attribute. Rank 8 and
// beyond contribute zero effective value. The exact constants are part of
// the game's published formula and must not drift.
var StackingPenalties = [8]float64{1.0, 0.8691, 0.5707, 0.2830, 0.1059, 0.0299, 0.0071, 0.0015}

// AttributeResult is the outcome of resolving one attribute: the base
// value, the fully modified value, and the modifiers applied in order.
type AttributeResult struct {
	Attribute int32
	Base      float64
	Modified  float64
	Applied   []Modifier
}

// Calculator resolves the final modified value of any attribute for a
// fitting context. It is stateless; every call recomputes modifiers from
// scratch against the provider's current snapshot.
type Calculator struct {
	provider sde.Provider
	cfg      config.EngineConfig
	logger   *zap.Logger
}

// NewCalculator creates a Calculator.
//
// Precondition: provider and logger must be non-nil.
func NewCalculator(provider sde.Provider, cfg config.EngineConfig, logger *zap.Logger) *Calculator {
	return &Calculator{provider: provider, cfg: cfg, logger: logger}
}

// Calculate resolves attrID from the given base value and fitting context.
// Extra modifiers supplied by the caller are filtered to the target
// attribute and appended after all context-derived sources.
//
// Postcondition: Identical inputs against an unchanged reference snapshot
// yield identical output. Sources whose reference data is absent contribute
// nothing rather than failing the calculation.
func (c *Calculator) Calculate(ctx context.Context, attrID int32, base float64, fit *Fit, extra []Modifier) (AttributeResult, error) {
	mods, err := c.collectModifiers(ctx, attrID, fit)
	if err != nil {
		return AttributeResult{}, err
	}
	for _, m := range extra {
		if m.Attribute != attrID {
			continue
		}
		if m.Penalty == 0 {
			m.Penalty = 1
		}
		mods = append(mods, m)
	}

	stackable := c.attributeStackable(ctx, attrID)
	modified, applied := c.apply(base, mods, stackable)

	return AttributeResult{
		Attribute: attrID,
		Base:      base,
		Modified:  c.round(modified),
		Applied:   applied,
	}, nil
}

// collectModifiers gathers candidate modifiers for attrID in the fixed
// source order: ship-intrinsic bonuses, powered modules, skills, implants,
// boosters. Disabled bonus classes are skipped entirely.
func (c *Calculator) collectModifiers(ctx context.Context, attrID int32, fit *Fit) ([]Modifier, error) {
	var mods []Modifier

	ship, err := c.provider.ShipTemplate(ctx, fit.ShipTypeID)
	switch {
	case errors.Is(err, sde.ErrNotFound):
		c.logger.Debug("ship template missing, skipping hull bonuses", zap.Int32("type_id", fit.ShipTypeID))
		ship = nil
	case err != nil:
		return nil, fmt.Errorf("resolving ship template %d: %w", fit.ShipTypeID, err)
	default:
		for _, eff := range ship.Type.Effects {
			if m, ok := modifierFromEffect(SourceShip, ship.Type.ID, eff, attrID); ok {
				mods = append(mods, m)
			}
		}
	}

	for _, fitted := range fit.Modules {
		if !fitted.Powered() {
			continue
		}
		tmpl, err := c.provider.ModuleTemplate(ctx, fitted.TypeID)
		if errors.Is(err, sde.ErrNotFound) {
			c.logger.Debug("module template missing, skipping", zap.Int32("type_id", fitted.TypeID))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolving module template %d: %w", fitted.TypeID, err)
		}
		for _, eff := range tmpl.Type.Effects {
			if eff.Category == sde.EffectActive && !fitted.Active {
				continue
			}
			if m, ok := modifierFromEffect(SourceModule, fitted.TypeID, eff, attrID); ok {
				mods = append(mods, m)
			}
		}
	}

	if c.cfg.SkillBonuses && ship != nil {
		skillMods, err := c.skillModifiers(ctx, attrID, ship.Type.GroupID, &fit.Pilot)
		if err != nil {
			return nil, err
		}
		mods = append(mods, skillMods...)
	}

	if c.cfg.ImplantBonuses {
		implantMods, err := c.typeListModifiers(ctx, attrID, SourceImplant, fit.Implants)
		if err != nil {
			return nil, err
		}
		mods = append(mods, implantMods...)
	}

	if c.cfg.BoosterBonuses {
		boosterMods, err := c.typeListModifiers(ctx, attrID, SourceBooster, fit.Boosters)
		if err != nil {
			return nil, err
		}
		mods = append(mods, boosterMods...)
	}

	return mods, nil
}

// skillModifiers derives percentage modifiers from the ship group's skill
// bonus table and the pilot's trained levels. Untrained skills and
// zero-magnitude bonuses contribute nothing.
func (c *Calculator) skillModifiers(ctx context.Context, attrID, shipGroupID int32, pilot *PilotData) ([]Modifier, error) {
	bonuses, err := c.provider.SkillBonuses(ctx, shipGroupID)
	if err != nil {
		if errors.Is(err, sde.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolving skill bonuses for group %d: %w", shipGroupID, err)
	}
	var mods []Modifier
	for _, b := range bonuses {
		if b.Attribute != attrID {
			continue
		}
		magnitude := skillBonusMagnitude(b, pilot.SkillLevel(b.SkillTypeID))
		if magnitude == 0 {
			continue
		}
		mods = append(mods, Modifier{
			Source:    SourceSkill,
			SourceID:  b.SkillTypeID,
			Attribute: attrID,
			Op:        OpPercent,
			Value:     magnitude,
			Penalty:   1,
		})
	}
	return mods, nil
}

// skillBonusMagnitude evaluates the bonus curve for a trained level.
// Linear: perLevel * min(level, cap). Exponential: perLevel * level².
// Threshold: all-or-nothing perLevel once the cap level is reached.
func skillBonusMagnitude(b sde.SkillBonus, level int) float64 {
	if level <= 0 {
		return 0
	}
	switch b.Kind {
	case sde.BonusExponential:
		return b.PerLevel * float64(level*level)
	case sde.BonusThreshold:
		if b.CapLevel > 0 && level >= b.CapLevel {
			return b.PerLevel
		}
		return 0
	default:
		if b.CapLevel > 0 && level > b.CapLevel {
			level = b.CapLevel
		}
		return b.PerLevel * float64(level)
	}
}

// typeListModifiers collects passive effect modifiers from a list of type
// IDs (implants, boosters). Missing templates are skipped.
func (c *Calculator) typeListModifiers(ctx context.Context, attrID int32, source SourceKind, typeIDs []int32) ([]Modifier, error) {
	var mods []Modifier
	for _, id := range typeIDs {
		tmpl, err := c.provider.ModuleTemplate(ctx, id)
		if errors.Is(err, sde.ErrNotFound) {
			c.logger.Debug("template missing, skipping", zap.String("source", string(source)), zap.Int32("type_id", id))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolving %s template %d: %w", source, id, err)
		}
		for _, eff := range tmpl.Type.Effects {
			if m, ok := modifierFromEffect(source, id, eff, attrID); ok {
				mods = append(mods, m)
			}
		}
	}
	return mods, nil
}

// apply runs the fixed application order: absolute sets (last wins), then
// additive modifiers, then percentage modifiers with stacking penalties,
// then multiplicative modifiers in sequence. Returns the result and the
// modifiers in the order they took effect.
func (c *Calculator) apply(base float64, mods []Modifier, stackable bool) (float64, []Modifier) {
	var sets, adds, percents, multiplies []Modifier
	for _, m := range mods {
		switch m.Op {
		case OpSet:
			sets = append(sets, m)
		case OpAdd:
			adds = append(adds, m)
		case OpPercent:
			percents = append(percents, m)
		case OpMultiply:
			multiplies = append(multiplies, m)
		}
	}

	value := base
	applied := make([]Modifier, 0, len(mods))

	if len(sets) > 0 {
		value = sets[len(sets)-1].Value
		applied = append(applied, sets...)
	}

	for _, m := range adds {
		value += m.Value
		applied = append(applied, m)
	}

	if len(percents) > 0 {
		penalized := c.cfg.StackingPenalties && !stackable
		if penalized {
			// Rank by descending absolute magnitude; ties keep collection order.
			sort.SliceStable(percents, func(i, j int) bool {
				return math.Abs(percents[i].Value) > math.Abs(percents[j].Value)
			})
		}
		for rank, m := range percents {
			penalty := 1.0
			if penalized {
				if rank < len(StackingPenalties) {
					penalty = StackingPenalties[rank]
				} else {
					penalty = 0
				}
			}
			value *= 1 + m.Value*penalty/100
			m.Penalty = penalty
			applied = append(applied, m)
		}
	}

	for _, m := range multiplies {
		value *= m.Value
		applied = append(applied, m)
	}

	return value, applied
}

// attributeStackable reports whether percentage bonuses on attrID compound
// without penalty. Attributes without a definition default to penalized.
func (c *Calculator) attributeStackable(ctx context.Context, attrID int32) bool {
	def, err := c.provider.AttributeDefinition(ctx, attrID)
	if err != nil {
		return false
	}
	return def.Stackable
}

func (c *Calculator) round(v float64) float64 {
	p := math.Pow10(c.cfg.Precision)
	return math.Round(v*p) / p
}
