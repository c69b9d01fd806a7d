package compensation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/performance"
)

// =============================================================================
// VALIDATOR - shared struct validation for engine inputs
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so errors match what the dashboard sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// gte/lte on decimals compare their float value; bounds are small integers.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// Validator exposes the configured instance to the ingestion and API layers.
func Validator() *validator.Validate { return validate }

// structError converts the first validator failure into an EngineError of kind.
func structError(kind generic.ErrorKind, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return generic.NewEngineError(kind, "", "%v", err)
	}
	fe := verrs[0]
	return generic.NewEngineError(kind, fe.Field(), "%s", describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "required", "required_without_all":
		return "is required"
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}

// =============================================================================
// INPUT VALIDATION - runs before any arithmetic
// =============================================================================

// ValidateConfig checks an employee configuration for use by the engine.
func ValidateConfig(cfg *EmployeeConfig) error {
	if cfg == nil {
		return generic.NewEngineError(generic.KindEmployeeNotConfigured, "", "no configuration")
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return generic.NewEngineError(generic.KindEmployeeNotConfigured, "name", "configuration has no employee name")
	}
	if !cfg.RoleType.Valid() {
		return generic.NewEngineError(generic.KindEmployeeNotConfigured, "role_type",
			"%q has no configuration for role %q", cfg.Name, cfg.RoleType)
	}
	if !cfg.EmploymentType.Valid() {
		return generic.NewEngineError(generic.KindInvalidEmploymentType, "employment_type",
			"%q is not one of full_time, part_time", cfg.EmploymentType)
	}
	if err := validate.Struct(cfg); err != nil {
		return structError(generic.KindInvalidAdjustment, err)
	}
	return nil
}

var overridableItems = map[LineItemKey]bool{
	ItemBaseAmount:             true,
	ItemCommission:             true,
	ItemPerformanceSystemBonus: true,
}

// ValidateAdjustments checks manual inputs against the employee's pay model.
func ValidateAdjustments(adj ManualAdjustments) error {
	if err := validate.Struct(adj); err != nil {
		return structError(generic.KindInvalidAdjustment, err)
	}
	for _, key := range sortedOverrideKeys(adj.Overrides) {
		if !overridableItems[key] {
			return generic.NewEngineError(generic.KindInvalidAdjustment, "overrides",
				"line item %q cannot be overridden", key)
		}
	}
	return nil
}

// ValidateRevenueRecord checks a row at the ingestion boundary.
// The engine itself never rejects records; rows lacking the role field are
// simply not attributed.
func ValidateRevenueRecord(r RevenueRecord) error {
	if r.Date.IsZero() {
		return generic.NewEngineError(generic.KindInvalidAdjustment, "date", "is required")
	}
	if err := validate.Struct(r); err != nil {
		return structError(generic.KindInvalidAdjustment, err)
	}
	return nil
}

// Validate runs every check in the order errors are reported:
// period, configuration, employment type, performance score, adjustments.
func Validate(in Input, schedule performance.Schedule) error {
	if err := in.Period.Validate(); err != nil {
		return err
	}
	if err := ValidateConfig(in.Employee); err != nil {
		return err
	}
	if err := schedule.ValidateInput(in.Performance, in.Employee.HasPerformanceBonus); err != nil {
		return err
	}
	return ValidateAdjustments(in.Adjustments)
}

func sortedOverrideKeys(m map[LineItemKey]decimal.Decimal) []LineItemKey {
	keys := make([]LineItemKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
