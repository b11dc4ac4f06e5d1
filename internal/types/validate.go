package types

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by action and decision validation. Initialized in init()
// with the nonblank rule and json field names.
var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("nonblank", validateNonBlank)
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validateNonBlank rejects strings that are empty after trimming whitespace.
func validateNonBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// ValidateAction checks that an action's required parameters are present.
// Errors wrap ErrValidation, e.g. "read_file: path must not be empty".
func ValidateAction(a Action) error {
	if a == nil {
		return fmt.Errorf("%w: action is missing", ErrValidation)
	}
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrValidation, a.Type(), describe(err))
	}
	return nil
}

// ValidateDecision checks that understanding and every confidence dimension
// lie in [0,1] and that a continuing decision carries an action.
func ValidateDecision(d *Decision) error {
	if d == nil {
		return fmt.Errorf("%w: decision is missing", ErrValidation)
	}
	for _, v := range []float64{
		d.UnderstandingLevel,
		d.ConfidenceScore.Architecture,
		d.ConfidenceScore.DataFlow,
		d.ConfidenceScore.IntegrationPoints,
		d.ConfidenceScore.ImplementationDetails,
	} {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: decision: score is not a number", ErrValidation)
		}
	}
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: decision: %s", ErrValidation, describe(err))
	}
	if d.ContinueExploration && d.Action == nil {
		return fmt.Errorf("%w: decision: action is required when continuing exploration", ErrValidation)
	}
	return nil
}

// describe renders validator errors using json field names.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "nonblank":
			msgs = append(msgs, field+" must not be empty")
		case "gte", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be within [0,1], got %v", field, fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
