package fitting

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/korallis/eve-cortex/internal/sde"
)

// ResourceBudget is one aggregate resource: how much the fitting uses
// against the ship's modified capacity.
type ResourceBudget struct {
	Used      float64
	Available float64
	Percent   float64
}

func budget(used, available float64) ResourceBudget {
	b := ResourceBudget{Used: used, Available: available}
	if available > 0 {
		b.Percent = used / available * 100
	}
	return b
}

// ResourceUsage aggregates the three fitting resource budgets.
type ResourceUsage struct {
	CPU         ResourceBudget
	Powergrid   ResourceBudget
	Calibration ResourceBudget
}

// ValidationReport is the outcome of validating a complete fitting.
type ValidationReport struct {
	Valid     bool
	Errors    []Issue
	Warnings  []Issue
	Resources ResourceUsage
}

// ModuleReport is the outcome of validating a single candidate module
// against a fitting context.
type ModuleReport struct {
	Valid          bool
	Errors         []Issue
	Warnings       []Issue
	RequiredSkills []sde.SkillRequirement
	CPUUsage       float64
	PowergridUsage float64
}

// Validator determines whether a fitting is legal: slot compatibility,
// per-category capacity, skill prerequisites, and aggregate resource
// budgets. All resource figures flow through the attribute calculator so
// they reflect pilot and implant discounts.
type Validator struct {
	provider sde.Provider
	calc     *Calculator
	logger   *zap.Logger
}

// NewValidator creates a Validator.
//
// Precondition: provider, calc, and logger must be non-nil.
func NewValidator(provider sde.Provider, calc *Calculator, logger *zap.Logger) *Validator {
	return &Validator{provider: provider, calc: calc, logger: logger}
}

// ValidateFitting checks the complete fitting context and returns the
// report. Validation and data problems are collected into the report, never
// returned as errors; the error return covers only provider failures other
// than missing data.
//
// Postcondition: report.Valid is true iff report.Errors is empty.
func (v *Validator) ValidateFitting(ctx context.Context, fit *Fit) (*ValidationReport, error) {
	report := &ValidationReport{}

	for _, id := range fit.Pilot.DuplicateSkills() {
		iss := errorIssue(CategoryData, CodeDuplicateSkill,
			fmt.Sprintf("skill %d appears more than once in pilot data", id))
		iss.TypeID = id
		report.Errors = append(report.Errors, iss)
	}

	for _, msg := range fit.DuplicateSlotIndexes() {
		report.Errors = append(report.Errors, errorIssue(CategoryValidation, CodeSlotOccupancy, msg))
	}

	ship, err := v.provider.ShipTemplate(ctx, fit.ShipTypeID)
	switch {
	case errors.Is(err, sde.ErrNotFound):
		iss := errorIssue(CategoryData, CodeMissingData,
			fmt.Sprintf("ship type %d has no reference data", fit.ShipTypeID))
		iss.TypeID = fit.ShipTypeID
		report.Errors = append(report.Errors, iss)
		ship = nil
	case err != nil:
		return nil, fmt.Errorf("resolving ship template %d: %w", fit.ShipTypeID, err)
	}

	var cpuUsed, pgUsed, calUsed float64
	for _, fitted := range fit.Modules {
		tmpl, err := v.provider.ModuleTemplate(ctx, fitted.TypeID)
		if errors.Is(err, sde.ErrNotFound) {
			iss := errorIssue(CategoryData, CodeMissingData,
				fmt.Sprintf("module type %d has no reference data", fitted.TypeID))
			iss.TypeID = fitted.TypeID
			report.Errors = append(report.Errors, iss)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolving module template %d: %w", fitted.TypeID, err)
		}

		v.validateModuleAgainst(tmpl, fitted.Slot, &fit.Pilot, report)
		v.validateState(fitted, tmpl, report)
		v.validateCharge(ctx, fitted, tmpl, report)

		// Offline modules hold their slot but draw no CPU or powergrid.
		if fitted.Powered() {
			cpu, pg, err := v.moduleResourceUsage(ctx, tmpl, fit)
			if err != nil {
				return nil, err
			}
			cpuUsed += cpu
			pgUsed += pg
		}
		if fitted.Slot == sde.SlotRig {
			calUsed += tmpl.Type.Attribute(sde.AttrUpgradeCost, 0)
		}
	}

	v.validateSlotCounts(fit, ship, report)

	cpuOut, pgOut, calOut, err := v.shipCapacities(ctx, ship, fit)
	if err != nil {
		return nil, err
	}
	report.Resources = ResourceUsage{
		CPU:         budget(cpuUsed, cpuOut),
		Powergrid:   budget(pgUsed, pgOut),
		Calibration: budget(calUsed, calOut),
	}
	v.validateBudgets(report)

	v.combinationChecks(ctx, fit, report)

	report.Valid = len(report.Errors) == 0
	return report, nil
}

// ValidateModule evaluates a single candidate module of the given type in
// the given slot category against the current fitting context, without
// mutating it.
func (v *Validator) ValidateModule(ctx context.Context, typeID int32, slot sde.SlotKind, fit *Fit) (*ModuleReport, error) {
	report := &ModuleReport{}

	tmpl, err := v.provider.ModuleTemplate(ctx, typeID)
	if errors.Is(err, sde.ErrNotFound) {
		iss := errorIssue(CategoryData, CodeMissingData,
			fmt.Sprintf("module type %d has no reference data", typeID))
		iss.TypeID = typeID
		report.Errors = append(report.Errors, iss)
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving module template %d: %w", typeID, err)
	}

	report.RequiredSkills = tmpl.RequiredSkills()

	inner := &ValidationReport{}
	v.validateModuleAgainst(tmpl, slot, &fit.Pilot, inner)
	report.Errors = inner.Errors
	report.Warnings = inner.Warnings

	cpu, pg, err := v.moduleResourceUsage(ctx, tmpl, fit)
	if err != nil {
		return nil, err
	}
	report.CPUUsage = cpu
	report.PowergridUsage = pg

	report.Valid = len(report.Errors) == 0
	return report, nil
}

// validateModuleAgainst checks skill prerequisites and slot compatibility
// for one module template.
func (v *Validator) validateModuleAgainst(tmpl *sde.ModuleTemplate, slot sde.SlotKind, pilot *PilotData, report *ValidationReport) {
	for _, req := range tmpl.RequiredSkills() {
		current := pilot.SkillLevel(req.SkillTypeID)
		if current >= req.Level {
			continue
		}
		iss := errorIssue(CategoryValidation, CodeSkillRequirement,
			fmt.Sprintf("%s requires skill %d at level %d, trained level is %d",
				tmpl.Type.Name, req.SkillTypeID, req.Level, current))
		iss.TypeID = tmpl.Type.ID
		iss.Required = float64(req.Level)
		iss.Current = float64(current)
		report.Errors = append(report.Errors, iss)
	}

	if tmpl.Slot != slot {
		iss := errorIssue(CategoryValidation, CodeSlotRestriction,
			fmt.Sprintf("%s fits a %s slot, not a %s slot", tmpl.Type.Name, slotName(tmpl.Slot), slotName(slot)))
		iss.TypeID = tmpl.Type.ID
		report.Errors = append(report.Errors, iss)
	}
}

// validateState flags inconsistent module state. Active without online is a
// high-severity warning; the validator never auto-corrects state.
func (v *Validator) validateState(fitted FittedModule, tmpl *sde.ModuleTemplate, report *ValidationReport) {
	if fitted.Active && !fitted.Online {
		iss := warningIssue(CodeModuleState,
			fmt.Sprintf("%s is flagged active but not online", tmpl.Type.Name))
		iss.Severity = SeverityHigh
		iss.TypeID = tmpl.Type.ID
		report.Warnings = append(report.Warnings, iss)
	}
}

// validateCharge checks loaded-charge compatibility: the charge's group
// must be one the module accepts, and the sizes must agree when both
// declare one.
func (v *Validator) validateCharge(ctx context.Context, fitted FittedModule, tmpl *sde.ModuleTemplate, report *ValidationReport) {
	if fitted.ChargeTypeID == 0 {
		return
	}
	charge, err := v.provider.ModuleTemplate(ctx, fitted.ChargeTypeID)
	if errors.Is(err, sde.ErrNotFound) {
		iss := errorIssue(CategoryData, CodeMissingData,
			fmt.Sprintf("charge type %d has no reference data", fitted.ChargeTypeID))
		iss.TypeID = fitted.ChargeTypeID
		report.Errors = append(report.Errors, iss)
		return
	}
	if err != nil {
		v.logger.Warn("resolving charge template", zap.Int32("type_id", fitted.ChargeTypeID), zap.Error(err))
		return
	}

	groups := tmpl.ChargeGroups()
	if len(groups) > 0 {
		ok := false
		for _, g := range groups {
			if g == charge.Type.GroupID {
				ok = true
				break
			}
		}
		if !ok {
			iss := errorIssue(CategoryValidation, CodeChargeMismatch,
				fmt.Sprintf("%s cannot load %s", tmpl.Type.Name, charge.Type.Name))
			iss.TypeID = fitted.TypeID
			report.Errors = append(report.Errors, iss)
			return
		}
	}

	modSize := tmpl.Type.Attribute(sde.AttrChargeSize, 0)
	chargeSize := charge.Type.Attribute(sde.AttrChargeSize, 0)
	if modSize > 0 && chargeSize > 0 && modSize != chargeSize {
		iss := errorIssue(CategoryValidation, CodeChargeMismatch,
			fmt.Sprintf("%s takes size %.0f charges, %s is size %.0f",
				tmpl.Type.Name, modSize, charge.Type.Name, chargeSize))
		iss.TypeID = fitted.TypeID
		report.Errors = append(report.Errors, iss)
	}
}

// validateSlotCounts compares fitted module counts per slot category with
// the ship's layout. Overflow is an error, never a silent truncation.
func (v *Validator) validateSlotCounts(fit *Fit, ship *sde.ShipTemplate, report *ValidationReport) {
	if ship == nil {
		return
	}
	counts := make(map[sde.SlotKind]int)
	for _, m := range fit.Modules {
		counts[m.Slot]++
	}
	for _, kind := range sde.SlotKinds {
		capacity := ship.SlotLayout.Capacity(kind)
		if counts[kind] > capacity {
			iss := errorIssue(CategoryValidation, CodeSlotCapacity,
				fmt.Sprintf("%d modules fitted to %d %s slots", counts[kind], capacity, slotName(kind)))
			iss.Required = float64(counts[kind])
			iss.Current = float64(capacity)
			report.Errors = append(report.Errors, iss)
		}
	}
}

// shipCapacities resolves the ship's modified CPU, powergrid, and
// calibration capacities. A missing ship yields zero capacities.
func (v *Validator) shipCapacities(ctx context.Context, ship *sde.ShipTemplate, fit *Fit) (cpu, pg, cal float64, err error) {
	if ship == nil {
		return 0, 0, 0, nil
	}
	cpuRes, err := v.calc.Calculate(ctx, sde.AttrCPUOutput, ship.Type.Attribute(sde.AttrCPUOutput, 0), fit, nil)
	if err != nil {
		return 0, 0, 0, err
	}
	pgRes, err := v.calc.Calculate(ctx, sde.AttrPowerOutput, ship.Type.Attribute(sde.AttrPowerOutput, 0), fit, nil)
	if err != nil {
		return 0, 0, 0, err
	}
	calRes, err := v.calc.Calculate(ctx, sde.AttrUpgradeCapacity, ship.Type.Attribute(sde.AttrUpgradeCapacity, 0), fit, nil)
	if err != nil {
		return 0, 0, 0, err
	}
	return cpuRes.Modified, pgRes.Modified, calRes.Modified, nil
}

// moduleResourceUsage resolves a module's CPU and powergrid requirements
// through the attribute calculator so pilot and implant discounts apply.
func (v *Validator) moduleResourceUsage(ctx context.Context, tmpl *sde.ModuleTemplate, fit *Fit) (cpu, pg float64, err error) {
	cpuRes, err := v.calc.Calculate(ctx, sde.AttrCPUUsage, tmpl.Type.Attribute(sde.AttrCPUUsage, 0), fit, nil)
	if err != nil {
		return 0, 0, err
	}
	pgRes, err := v.calc.Calculate(ctx, sde.AttrPowerUsage, tmpl.Type.Attribute(sde.AttrPowerUsage, 0), fit, nil)
	if err != nil {
		return 0, 0, err
	}
	return cpuRes.Modified, pgRes.Modified, nil
}

// validateBudgets turns overflowing resource budgets into errors carrying
// the exact used/available numbers.
func (v *Validator) validateBudgets(report *ValidationReport) {
	checks := []struct {
		budget ResourceBudget
		code   string
		label  string
	}{
		{report.Resources.CPU, CodeCPUOverflow, "CPU"},
		{report.Resources.Powergrid, CodePowergridOverflow, "powergrid"},
		{report.Resources.Calibration, CodeCalibration, "calibration"},
	}
	for _, c := range checks {
		if c.budget.Used > c.budget.Available {
			iss := errorIssue(CategoryValidation, c.code,
				fmt.Sprintf("%s requirement %.2f exceeds capacity %.2f", c.label, c.budget.Used, c.budget.Available))
			iss.Required = c.budget.Used
			iss.Current = c.budget.Available
			report.Errors = append(report.Errors, iss)
		}
	}
}

// combinationChecks emits the non-fatal fitting-quality warnings: multiple
// active propulsion modules, three or more weapon damage families, and
// duplicate modules whose bonuses do not stack.
func (v *Validator) combinationChecks(ctx context.Context, fit *Fit, report *ValidationReport) {
	activeProp := 0
	damageFamilies := make(map[int32]bool)
	typeCounts := make(map[int32]int)

	for _, fitted := range fit.Modules {
		tmpl, err := v.provider.ModuleTemplate(ctx, fitted.TypeID)
		if err != nil {
			continue
		}
		typeCounts[fitted.TypeID]++

		if fitted.Active && tmpl.Type.GroupID == sde.GroupPropulsion {
			activeProp++
		}

		profile := v.moduleDamageProfile(ctx, fitted, tmpl)
		for attr, dmg := range map[int32]float64{
			sde.AttrEMDamage:        profile.EM,
			sde.AttrThermalDamage:   profile.Thermal,
			sde.AttrKineticDamage:   profile.Kinetic,
			sde.AttrExplosiveDamage: profile.Explosive,
		} {
			if dmg > 0 {
				damageFamilies[attr] = true
			}
		}
	}

	if activeProp > 1 {
		report.Warnings = append(report.Warnings, warningIssue(CodePropulsionConflict,
			fmt.Sprintf("%d propulsion modules active; only one can run at a time", activeProp)))
	}

	if len(damageFamilies) >= 3 {
		report.Warnings = append(report.Warnings, warningIssue(CodeDamageTypeMix,
			fmt.Sprintf("fitting mixes %d damage types; resist profiles favor focused damage", len(damageFamilies))))
	}

	for typeID, count := range typeCounts {
		if count < 2 {
			continue
		}
		tmpl, err := v.provider.ModuleTemplate(ctx, typeID)
		if err != nil {
			continue
		}
		if v.hasPenalizedBonus(ctx, tmpl) {
			iss := warningIssue(CodeDuplicateBonus,
				fmt.Sprintf("%d x %s: repeated bonuses on the same attribute suffer stacking penalties", count, tmpl.Type.Name))
			iss.TypeID = typeID
			report.Warnings = append(report.Warnings, iss)
		}
	}
}

// moduleDamageProfile reads the module's damage attributes, preferring the
// loaded charge's profile when one is present.
func (v *Validator) moduleDamageProfile(ctx context.Context, fitted FittedModule, tmpl *sde.ModuleTemplate) DamageProfile {
	attrs := tmpl.Type.Attributes
	if fitted.ChargeTypeID != 0 {
		if charge, err := v.provider.ModuleTemplate(ctx, fitted.ChargeTypeID); err == nil {
			attrs = charge.Type.Attributes
		}
	}
	return DamageProfile{
		EM:        attrs[sde.AttrEMDamage],
		Thermal:   attrs[sde.AttrThermalDamage],
		Kinetic:   attrs[sde.AttrKineticDamage],
		Explosive: attrs[sde.AttrExplosiveDamage],
	}
}

// hasPenalizedBonus reports whether any of the template's percentage
// effects target a non-stackable attribute.
func (v *Validator) hasPenalizedBonus(ctx context.Context, tmpl *sde.ModuleTemplate) bool {
	for _, eff := range tmpl.Type.Effects {
		if Operation(eff.Op) != OpPercent {
			continue
		}
		def, err := v.provider.AttributeDefinition(ctx, eff.Attribute)
		if err != nil || !def.Stackable {
			return true
		}
	}
	return false
}

func slotName(kind sde.SlotKind) string {
	if kind == sde.SlotNone {
		return "no"
	}
	return string(kind)
}
