package fitting

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/korallis/eve-cortex/internal/sde"
)

// DamageProfile splits damage (or DPS) across the four damage types.
type DamageProfile struct {
	EM        float64
	Thermal   float64
	Kinetic   float64
	Explosive float64
}

// Total returns the sum across all four damage types.
func (d DamageProfile) Total() float64 {
	return d.EM + d.Thermal + d.Kinetic + d.Explosive
}

func (d DamageProfile) add(other DamageProfile) DamageProfile {
	return DamageProfile{
		EM:        d.EM + other.EM,
		Thermal:   d.Thermal + other.Thermal,
		Kinetic:   d.Kinetic + other.Kinetic,
		Explosive: d.Explosive + other.Explosive,
	}
}

func (d DamageProfile) scale(f float64) DamageProfile {
	return DamageProfile{EM: d.EM * f, Thermal: d.Thermal * f, Kinetic: d.Kinetic * f, Explosive: d.Explosive * f}
}

// LayerDefense is one hit point layer with its resistances and effective
// hit points.
type LayerDefense struct {
	HP      float64
	EHP     float64
	Resists DamageProfile
}

// DefenseSummary aggregates the three defensive layers.
type DefenseSummary struct {
	Shield LayerDefense
	Armor  LayerDefense
	Hull   LayerDefense
	// TotalEHP is the sum of the three layers' effective hit points.
	TotalEHP float64
	// ShieldRechargeRate is the simplified average shield regeneration in
	// HP/s: shieldHP / (rechargeTime / 1000). This is deliberately not the
	// true peak-at-25%-capacity curve; downstream consumers depend on the
	// approximation's numbers.
	ShieldRechargeRate float64
}

// WeaponDPS is one weapon module's damage contribution.
type WeaponDPS struct {
	TypeID      int32
	DPS         float64
	Volley      float64
	Profile     DamageProfile
	Optimal     float64
	Falloff     float64
	CycleTimeMs float64
}

// OffenseSummary aggregates weapon damage output.
type OffenseSummary struct {
	TotalDPS float64
	Volley   float64
	// Profile is the DPS-weighted blend of each weapon's damage types.
	Profile DamageProfile
	Weapons []WeaponDPS
}

// MobilitySummary holds speed and agility metrics.
type MobilitySummary struct {
	MaxVelocity float64
	Mass        float64
	Agility     float64
	// AlignTimeSeconds is -ln(0.25) * mass * agility / 1e6.
	AlignTimeSeconds float64
}

// CapacitorSummary holds energy stability metrics.
type CapacitorSummary struct {
	Capacity       float64
	RechargeTimeMs float64
	// PeakRecharge approximates the recharge rate at 25% capacity:
	// capacity * 2.5 / (rechargeTime/1000) * 0.25.
	PeakRecharge float64
	// TotalDraw is the continuous GJ/s drawn by active modules.
	TotalDraw float64
	Stable    bool
	// DepletionSeconds is how long the capacitor lasts when unstable; 0 when stable.
	DepletionSeconds float64
}

// TargetingSummary holds sensor and locking metrics.
type TargetingSummary struct {
	MaxTargets      int
	MaxRangeMeters  float64
	ScanResolution  float64
	SignatureRadius float64
}

// Performance is the full derived performance snapshot for a fitting.
type Performance struct {
	Defense   DefenseSummary
	Offense   OffenseSummary
	Mobility  MobilitySummary
	Capacitor CapacitorSummary
	Targeting TargetingSummary
}

// RangeEffectiveness returns a weapon's damage effectiveness at the given
// distance: 1 at or under optimal, then 0.5^(((d-optimal)/falloff)^2)
// beyond. Zero falloff means a hard cutoff past optimal, not a linear
// cliff.
//
// Postcondition: Returns a value in [0, 1].
func RangeEffectiveness(distance, optimal, falloff float64) float64 {
	if distance <= optimal {
		return 1
	}
	if falloff <= 0 {
		return 0
	}
	x := (distance - optimal) / falloff
	return math.Pow(0.5, x*x)
}

// PerformanceCalculator derives the combat and mobility snapshot from
// already-modified attribute values.
type PerformanceCalculator struct {
	provider sde.Provider
	calc     *Calculator
	logger   *zap.Logger
}

// NewPerformanceCalculator creates a PerformanceCalculator.
//
// Precondition: provider, calc, and logger must be non-nil.
func NewPerformanceCalculator(provider sde.Provider, calc *Calculator, logger *zap.Logger) *PerformanceCalculator {
	return &PerformanceCalculator{provider: provider, calc: calc, logger: logger}
}

// Calculate produces the performance snapshot for the fitting. Failures are
// isolated per branch: a sub-metric that cannot be computed yields its
// zero value plus a calculation issue, and every other branch still runs.
//
// Postcondition: Always returns a non-nil Performance, even when issues are
// reported.
func (p *PerformanceCalculator) Calculate(ctx context.Context, fit *Fit) (*Performance, []Issue) {
	perf := &Performance{}
	var issues []Issue

	ship, err := p.provider.ShipTemplate(ctx, fit.ShipTypeID)
	if err != nil {
		iss := errorIssue(CategoryCalculation, CodeMissingData,
			fmt.Sprintf("ship type %d could not be resolved: %v", fit.ShipTypeID, err))
		if errors.Is(err, sde.ErrNotFound) {
			iss.Category = CategoryData
		}
		iss.TypeID = fit.ShipTypeID
		return perf, append(issues, iss)
	}

	if defense, err := p.defense(ctx, ship, fit); err != nil {
		issues = append(issues, calcIssue("defense", err))
	} else {
		perf.Defense = defense
	}

	offense, offIssues := p.offense(ctx, fit)
	perf.Offense = offense
	issues = append(issues, offIssues...)

	if mobility, err := p.mobility(ctx, ship, fit); err != nil {
		issues = append(issues, calcIssue("mobility", err))
	} else {
		perf.Mobility = mobility
	}

	if capacitor, err := p.capacitor(ctx, ship, fit); err != nil {
		issues = append(issues, calcIssue("capacitor", err))
	} else {
		perf.Capacitor = capacitor
	}

	if targeting, err := p.targeting(ctx, ship, fit); err != nil {
		issues = append(issues, calcIssue("targeting", err))
	} else {
		perf.Targeting = targeting
	}

	return perf, issues
}

func calcIssue(branch string, err error) Issue {
	return errorIssue(CategoryCalculation, CodeCalculation,
		fmt.Sprintf("computing %s metrics: %v", branch, err))
}

// shipAttr resolves a modified ship attribute, falling back to the given
// default when the hull does not declare it.
func (p *PerformanceCalculator) shipAttr(ctx context.Context, ship *sde.ShipTemplate, fit *Fit, attrID int32, fallback float64) (float64, error) {
	res, err := p.calc.Calculate(ctx, attrID, ship.Type.Attribute(attrID, fallback), fit, nil)
	if err != nil {
		return 0, err
	}
	return res.Modified, nil
}

var layerAttrs = []struct {
	hp         int32
	resonances [4]int32
}{
	{sde.AttrShieldCapacity, [4]int32{sde.AttrShieldEMResonance, sde.AttrShieldThermalResonance, sde.AttrShieldKineticResonance, sde.AttrShieldExplosiveResonance}},
	{sde.AttrArmorHP, [4]int32{sde.AttrArmorEMResonance, sde.AttrArmorThermalResonance, sde.AttrArmorKineticResonance, sde.AttrArmorExplosiveResonance}},
	{sde.AttrHullHP, [4]int32{sde.AttrHullEMResonance, sde.AttrHullThermalResonance, sde.AttrHullKineticResonance, sde.AttrHullExplosiveResonance}},
}

func (p *PerformanceCalculator) defense(ctx context.Context, ship *sde.ShipTemplate, fit *Fit) (DefenseSummary, error) {
	var layers [3]LayerDefense
	for i, spec := range layerAttrs {
		hp, err := p.shipAttr(ctx, ship, fit, spec.hp, 0)
		if err != nil {
			return DefenseSummary{}, err
		}
		var resists [4]float64
		for j, resAttr := range spec.resonances {
			resonance, err := p.shipAttr(ctx, ship, fit, resAttr, 1)
			if err != nil {
				return DefenseSummary{}, err
			}
			resists[j] = clamp01(1 - resonance)
		}
		layers[i] = LayerDefense{
			HP: hp,
			Resists: DamageProfile{
				EM: resists[0], Thermal: resists[1], Kinetic: resists[2], Explosive: resists[3],
			},
			EHP: effectiveHP(hp, resists),
		}
	}

	rechargeMs, err := p.shipAttr(ctx, ship, fit, sde.AttrShieldRechargeTime, 0)
	if err != nil {
		return DefenseSummary{}, err
	}
	summary := DefenseSummary{
		Shield:   layers[0],
		Armor:    layers[1],
		Hull:     layers[2],
		TotalEHP: layers[0].EHP + layers[1].EHP + layers[2].EHP,
	}
	if rechargeMs > 0 {
		summary.ShieldRechargeRate = layers[0].HP / (rechargeMs / 1000)
	}
	return summary, nil
}

// effectiveHP divides raw hit points by (1 - average resistance). The
// average is the unweighted mean of the four clamped resistances.
func effectiveHP(hp float64, resists [4]float64) float64 {
	avg := (resists[0] + resists[1] + resists[2] + resists[3]) / 4
	denom := 1 - avg
	if denom <= 0 {
		return math.Inf(1)
	}
	return hp / denom
}

// offense sums DPS over active weapon modules. A weapon is any active
// module with a positive cycle time and a non-zero damage profile (its own
// or the loaded charge's). Failures for one weapon do not suppress the
// others.
func (p *PerformanceCalculator) offense(ctx context.Context, fit *Fit) (OffenseSummary, []Issue) {
	var summary OffenseSummary
	var issues []Issue

	for _, fitted := range fit.Modules {
		if !fitted.Active {
			continue
		}
		tmpl, err := p.provider.ModuleTemplate(ctx, fitted.TypeID)
		if err != nil {
			if !errors.Is(err, sde.ErrNotFound) {
				issues = append(issues, calcIssue(fmt.Sprintf("weapon %d", fitted.TypeID), err))
			}
			continue
		}

		profile, ok := p.weaponProfile(ctx, fitted, tmpl)
		if !ok {
			continue
		}

		weapon, err := p.weaponDPS(ctx, fitted, tmpl, profile, fit)
		if err != nil {
			issues = append(issues, calcIssue(fmt.Sprintf("weapon %d", fitted.TypeID), err))
			continue
		}
		summary.Weapons = append(summary.Weapons, weapon)
		summary.TotalDPS += weapon.DPS
		summary.Volley += weapon.Volley
		summary.Profile = summary.Profile.add(weapon.Profile)
	}
	return summary, issues
}

// weaponProfile returns the per-shot damage profile, preferring the loaded
// charge, and reports whether the module deals damage at all.
func (p *PerformanceCalculator) weaponProfile(ctx context.Context, fitted FittedModule, tmpl *sde.ModuleTemplate) (DamageProfile, bool) {
	attrs := tmpl.Type.Attributes
	if fitted.ChargeTypeID != 0 {
		if charge, err := p.provider.ModuleTemplate(ctx, fitted.ChargeTypeID); err == nil {
			attrs = charge.Type.Attributes
		}
	}
	profile := DamageProfile{
		EM:        attrs[sde.AttrEMDamage],
		Thermal:   attrs[sde.AttrThermalDamage],
		Kinetic:   attrs[sde.AttrKineticDamage],
		Explosive: attrs[sde.AttrExplosiveDamage],
	}
	return profile, profile.Total() > 0
}

func (p *PerformanceCalculator) weaponDPS(ctx context.Context, fitted FittedModule, tmpl *sde.ModuleTemplate, profile DamageProfile, fit *Fit) (WeaponDPS, error) {
	cycleRes, err := p.calc.Calculate(ctx, sde.AttrCycleTime, tmpl.Type.Attribute(sde.AttrCycleTime, 0), fit, nil)
	if err != nil {
		return WeaponDPS{}, err
	}
	if cycleRes.Modified <= 0 {
		return WeaponDPS{}, fmt.Errorf("weapon %d has no cycle time", fitted.TypeID)
	}

	// Damage multiplier is percentage-scaled: 100 means unmodified damage.
	multRes, err := p.calc.Calculate(ctx, sde.AttrDamageMultiplier, tmpl.Type.Attribute(sde.AttrDamageMultiplier, 100), fit, nil)
	if err != nil {
		return WeaponDPS{}, err
	}

	optimalRes, err := p.calc.Calculate(ctx, sde.AttrOptimalRange, tmpl.Type.Attribute(sde.AttrOptimalRange, 0), fit, nil)
	if err != nil {
		return WeaponDPS{}, err
	}
	falloffRes, err := p.calc.Calculate(ctx, sde.AttrFalloff, tmpl.Type.Attribute(sde.AttrFalloff, 0), fit, nil)
	if err != nil {
		return WeaponDPS{}, err
	}

	volleyProfile := profile.scale(multRes.Modified / 100)
	volley := volleyProfile.Total()
	cycleSeconds := cycleRes.Modified / 1000

	return WeaponDPS{
		TypeID:      fitted.TypeID,
		DPS:         volley / cycleSeconds,
		Volley:      volley,
		Profile:     volleyProfile.scale(1 / cycleSeconds),
		Optimal:     optimalRes.Modified,
		Falloff:     falloffRes.Modified,
		CycleTimeMs: cycleRes.Modified,
	}, nil
}

func (p *PerformanceCalculator) mobility(ctx context.Context, ship *sde.ShipTemplate, fit *Fit) (MobilitySummary, error) {
	velocity, err := p.shipAttr(ctx, ship, fit, sde.AttrMaxVelocity, 0)
	if err != nil {
		return MobilitySummary{}, err
	}
	mass, err := p.shipAttr(ctx, ship, fit, sde.AttrMass, 0)
	if err != nil {
		return MobilitySummary{}, err
	}
	agility, err := p.shipAttr(ctx, ship, fit, sde.AttrInertiaModifier, 0)
	if err != nil {
		return MobilitySummary{}, err
	}
	return MobilitySummary{
		MaxVelocity:      velocity,
		Mass:             mass,
		Agility:          agility,
		AlignTimeSeconds: -math.Log(0.25) * mass * agility / 1e6,
	}, nil
}

func (p *PerformanceCalculator) capacitor(ctx context.Context, ship *sde.ShipTemplate, fit *Fit) (CapacitorSummary, error) {
	capacity, err := p.shipAttr(ctx, ship, fit, sde.AttrCapacitorCapacity, 0)
	if err != nil {
		return CapacitorSummary{}, err
	}
	rechargeMs, err := p.shipAttr(ctx, ship, fit, sde.AttrCapRechargeTime, 0)
	if err != nil {
		return CapacitorSummary{}, err
	}

	var draw float64
	for _, fitted := range fit.Modules {
		if !fitted.Active {
			continue
		}
		tmpl, err := p.provider.ModuleTemplate(ctx, fitted.TypeID)
		if err != nil {
			continue
		}
		need := tmpl.Type.Attribute(sde.AttrCapacitorNeed, 0)
		cycle := tmpl.Type.Attribute(sde.AttrCycleTime, 0)
		if need > 0 && cycle > 0 {
			draw += need / (cycle / 1000)
		}
	}

	summary := CapacitorSummary{
		Capacity:       capacity,
		RechargeTimeMs: rechargeMs,
		TotalDraw:      draw,
	}
	if rechargeMs > 0 {
		// Steady-state recharge approximated at 25% of capacity.
		summary.PeakRecharge = capacity * 2.5 / (rechargeMs / 1000) * 0.25
	}
	summary.Stable = draw <= summary.PeakRecharge
	if !summary.Stable && draw > summary.PeakRecharge {
		summary.DepletionSeconds = capacity / (draw - summary.PeakRecharge)
	}
	return summary, nil
}

func (p *PerformanceCalculator) targeting(ctx context.Context, ship *sde.ShipTemplate, fit *Fit) (TargetingSummary, error) {
	maxTargets, err := p.shipAttr(ctx, ship, fit, sde.AttrMaxLockedTargets, 0)
	if err != nil {
		return TargetingSummary{}, err
	}
	maxRange, err := p.shipAttr(ctx, ship, fit, sde.AttrMaxTargetRange, 0)
	if err != nil {
		return TargetingSummary{}, err
	}
	scanRes, err := p.shipAttr(ctx, ship, fit, sde.AttrScanResolution, 0)
	if err != nil {
		return TargetingSummary{}, err
	}
	sig, err := p.shipAttr(ctx, ship, fit, sde.AttrSignatureRadius, 0)
	if err != nil {
		return TargetingSummary{}, err
	}
	return TargetingSummary{
		MaxTargets:      int(maxTargets),
		MaxRangeMeters:  maxRange,
		ScanResolution:  scanRes,
		SignatureRadius: sig,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
