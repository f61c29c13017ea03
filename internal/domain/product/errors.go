package product

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrValidation      = errors.New("validation failed")
	ErrMalformedJSON   = errors.New("request body is not valid JSON")
)

// ValidationError reports malformed, missing or mistyped product data.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "Invalid product: " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
