package fitting

import "fmt"

// IssueCategory is the error taxonomy: validation (illegal configuration),
// calculation (a derived metric could not be computed), and data (reference
// data inconsistent or absent). Every failure mode in the core resolves to a
// typed Issue; nothing is thrown past the request boundary.
type IssueCategory string

const (
	CategoryValidation  IssueCategory = "validation"
	CategoryCalculation IssueCategory = "calculation"
	CategoryData        IssueCategory = "data"
)

// Severity grades an issue. Errors make a fitting invalid; warnings do not.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityHigh    Severity = "high"
)

// Issue codes.
const (
	CodeSkillRequirement   = "skill_requirement"
	CodeSlotRestriction    = "slot_restriction"
	CodeSlotCapacity       = "slot_capacity"
	CodeSlotOccupancy      = "slot_occupancy"
	CodeCPUOverflow        = "cpu_overflow"
	CodePowergridOverflow  = "powergrid_overflow"
	CodeCalibration        = "calibration_overflow"
	CodeModuleState        = "module_state"
	CodeChargeMismatch     = "charge_mismatch"
	CodePropulsionConflict = "propulsion_conflict"
	CodeDamageTypeMix      = "damage_type_mix"
	CodeDuplicateBonus     = "duplicate_bonus"
	CodeDuplicateSkill     = "duplicate_skill"
	CodeMissingData        = "missing_data"
	CodeCalculation        = "calculation_failed"
)

// Issue is one typed error or warning produced by validation or calculation.
type Issue struct {
	Category IssueCategory
	Code     string
	Severity Severity
	Message  string
	// TypeID is the type the issue concerns, when applicable.
	TypeID int32
	// Attribute is the attribute the issue concerns, when applicable.
	Attribute int32
	// Required and Current carry the exact numbers for threshold issues
	// (required vs available resource, required vs trained skill level).
	Required float64
	Current  float64
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s/%s] %s", i.Category, i.Code, i.Message)
}

// IsError reports whether the issue invalidates a fitting.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError
}

func errorIssue(cat IssueCategory, code, msg string) Issue {
	return Issue{Category: cat, Code: code, Severity: SeverityError, Message: msg}
}

func warningIssue(code, msg string) Issue {
	return Issue{Category: CategoryValidation, Code: code, Severity: SeverityWarning, Message: msg}
}
