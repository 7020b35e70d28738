package fitting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/korallis/eve-cortex/internal/config"
	"github.com/korallis/eve-cortex/internal/sde"
)

// CalculationResult is the response to a full performance calculation:
// partial results stay usable even when the fitting is invalid or some
// sub-metrics failed.
type CalculationResult struct {
	// RequestID identifies this calculation for logging and correlation.
	RequestID uuid.UUID
	// Success is true when no errors of any category were produced.
	Success           bool
	Performance       *Performance
	Validation        *ValidationReport
	Errors            []Issue
	Warnings          []Issue
	CalculationTimeMs float64
}

// Engine is the produced interface of the fitting core. It is stateless and
// safe for concurrent use; every call is a pure function of the fitting
// context and the provider's current snapshot.
type Engine struct {
	calc      *Calculator
	validator *Validator
	perf      *PerformanceCalculator
	logger    *zap.Logger
}

// NewEngine wires the attribute calculator, validator, and performance
// calculator over a shared provider.
//
// Precondition: provider and logger must be non-nil.
func NewEngine(provider sde.Provider, cfg config.EngineConfig, logger *zap.Logger) *Engine {
	calc := NewCalculator(provider, cfg, logger)
	return &Engine{
		calc:      calc,
		validator: NewValidator(provider, calc, logger),
		perf:      NewPerformanceCalculator(provider, calc, logger),
		logger:    logger,
	}
}

// Calculator exposes the attribute calculator for callers composing their
// own metrics.
func (e *Engine) Calculator() *Calculator { return e.calc }

// CalculatePerformance validates the fitting and computes its performance
// snapshot. Validation runs first but never gates the performance pass:
// invalid fittings still get best-effort numbers.
//
// Postcondition: Returns a non-nil result with a non-nil Performance;
// Success is false iff any error-severity issue was collected.
func (e *Engine) CalculatePerformance(ctx context.Context, fit *Fit) *CalculationResult {
	start := time.Now()
	result := &CalculationResult{RequestID: uuid.New()}

	validation, err := e.validator.ValidateFitting(ctx, fit)
	if err != nil {
		// Provider failure: degrade to a data issue and keep going.
		validation = &ValidationReport{}
		validation.Errors = append(validation.Errors,
			errorIssue(CategoryData, CodeMissingData, err.Error()))
	}
	result.Validation = validation
	result.Errors = append(result.Errors, validation.Errors...)
	result.Warnings = append(result.Warnings, validation.Warnings...)

	perf, perfIssues := e.perf.Calculate(ctx, fit)
	result.Performance = perf
	for _, iss := range perfIssues {
		if iss.IsError() {
			result.Errors = append(result.Errors, iss)
		} else {
			result.Warnings = append(result.Warnings, iss)
		}
	}

	result.Success = len(result.Errors) == 0
	result.CalculationTimeMs = float64(time.Since(start).Microseconds()) / 1000

	e.logger.Debug("performance calculated",
		zap.String("request_id", result.RequestID.String()),
		zap.Int32("ship_type_id", fit.ShipTypeID),
		zap.Int("modules", len(fit.Modules)),
		zap.Bool("success", result.Success),
		zap.Int("errors", len(result.Errors)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Float64("elapsed_ms", result.CalculationTimeMs),
	)
	return result
}

// ValidateFitting checks whether the fitting is legal and returns the
// typed report with aggregate resource usage.
func (e *Engine) ValidateFitting(ctx context.Context, fit *Fit) (*ValidationReport, error) {
	return e.validator.ValidateFitting(ctx, fit)
}

// ValidateModule evaluates fitting a single module of the given type into
// the given slot category against the current context.
func (e *Engine) ValidateModule(ctx context.Context, typeID int32, slot sde.SlotKind, fit *Fit) (*ModuleReport, error) {
	return e.validator.ValidateModule(ctx, typeID, slot, fit)
}

// CalculateAttribute resolves one attribute's fully modified value along
// with the ordered modifiers that produced it.
func (e *Engine) CalculateAttribute(ctx context.Context, attrID int32, base float64, fit *Fit) (AttributeResult, error) {
	return e.calc.Calculate(ctx, attrID, base, fit, nil)
}
