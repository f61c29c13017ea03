package product

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"example.com/product-catalog/internal/domain/category"
)

const badBody = "body of request contained bad or no data"

var validate = newValidator()

// payload is the checked shape of an incoming product document.
type payload struct {
	Name        string           `json:"name" validate:"required,max=100"`
	Description string           `json:"description" validate:"max=250"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Available   *bool            `json:"available" validate:"required"`
	Category    string           `json:"category" validate:"omitempty,category"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	if err := v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return category.Category(fl.Field().String()).IsValid()
	}); err != nil {
		panic(err)
	}
	return v
}

// Serialize returns the wire form of p. The price keeps its two decimal
// places as a string and an unset id is null.
func (p *Product) Serialize() map[string]any {
	var id any
	if p.ID != 0 {
		id = p.ID
	}
	return map[string]any{
		"id":          id,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price.StringFixed(PriceScale),
		"available":   p.Available,
		"category":    p.Category.String(),
	}
}

// Deserialize fills p from a decoded JSON object. The id key is ignored.
// On error p is left untouched.
func (p *Product) Deserialize(data map[string]any) error {
	if data == nil {
		return &ValidationError{Reason: badBody}
	}

	var in payload
	if v, ok := data["name"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return typeError("string", "name", v)
		}
		in.Name = s
	}
	if v, ok := data["description"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return typeError("string", "description", v)
		}
		in.Description = s
	}
	if v, ok := data["price"]; ok && v != nil {
		price, err := ParsePrice(v)
		if err != nil {
			return err
		}
		in.Price = &price
	}
	if v, ok := data["available"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return typeError("boolean", "available", v)
		}
		in.Available = &b
	}
	if v, ok := data["category"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return typeError("string", "category", v)
		}
		in.Category = s
	}

	if err := validate.Struct(in); err != nil {
		return translateValidation(err, in)
	}

	p.Name = in.Name
	p.Description = in.Description
	p.Price = *in.Price
	p.Available = *in.Available
	p.Category = category.Unknown
	if in.Category != "" {
		p.Category = category.Category(in.Category)
	}
	return nil
}

// DecodeJSON parses a request body into a new Product. A body that is not
// JSON at all yields ErrMalformedJSON; valid JSON that is not a product
// object yields a ValidationError.
func DecodeJSON(body []byte) (*Product, error) {
	var data map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &ValidationError{Reason: badBody}
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedJSON)
	}

	p := &Product{}
	if err := p.Deserialize(data); err != nil {
		return nil, err
	}
	return p, nil
}

// PriceScale is the number of fractional digits kept for prices.
const PriceScale = 2

const (
	// maxPriceIntegerDigits matches the NUMERIC(14, 2) price column.
	maxPriceIntegerDigits = 12
	// maxPriceInputScale bounds the fractional digits accepted before rounding.
	maxPriceInputScale = 32
)

// MaxPrice is the largest price the store can hold.
var MaxPrice = decimal.RequireFromString("999999999999.99")

// ParsePrice coerces a numeric value or numeric string into the decimal
// domain, rounded to PriceScale places. "19.99" and 19.99 parse equal.
// Negative prices and prices above MaxPrice are rejected.
func ParsePrice(v any) (decimal.Decimal, error) {
	var (
		d   decimal.Decimal
		err error
	)
	switch x := v.(type) {
	case decimal.Decimal:
		d = x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, &ValidationError{Field: "price", Reason: "missing price"}
		}
		d = *x
	case json.Number:
		d, err = decimal.NewFromString(x.String())
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(x))
	case float64:
		d = decimal.NewFromFloat(x)
	case float32:
		d = decimal.NewFromFloat32(x)
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case int32:
		d = decimal.NewFromInt32(x)
	default:
		return decimal.Zero, typeError("decimal", "price", v)
	}
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "price", Reason: fmt.Sprintf("malformed price %q", fmt.Sprint(v))}
	}
	if err := checkPriceRange(d); err != nil {
		return decimal.Zero, err
	}
	d = normalizePrice(d)
	if d.GreaterThan(MaxPrice) {
		return decimal.Zero, priceTooLarge()
	}
	return d, nil
}

// checkPriceRange rejects out of range values by looking at digits and
// exponent only, so no large power of ten is ever materialised.
func checkPriceRange(d decimal.Decimal) error {
	if d.Sign() < 0 {
		return &ValidationError{Field: "price", Reason: "price must not be negative"}
	}
	if d.Sign() == 0 {
		return nil
	}
	if d.Exponent() < -maxPriceInputScale {
		return &ValidationError{Field: "price", Reason: fmt.Sprintf("price has more than %d fractional digits", maxPriceInputScale)}
	}
	if int64(d.NumDigits())+int64(d.Exponent()) > maxPriceIntegerDigits {
		return priceTooLarge()
	}
	return nil
}

func priceTooLarge() error {
	return &ValidationError{Field: "price", Reason: "price exceeds " + MaxPrice.StringFixed(PriceScale)}
}

func normalizePrice(d decimal.Decimal) decimal.Decimal {
	if d.Sign() == 0 {
		return decimal.Zero
	}
	return d.Round(PriceScale)
}

func typeError(kind, field string, v any) error {
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf("invalid type for %s [%s]: %s", kind, field, jsonKind(v)),
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int32, int64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func translateValidation(err error, in payload) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Reason: err.Error()}
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Reason: "missing " + field}
	case "category":
		return &ValidationError{Field: field, Reason: fmt.Sprintf("invalid attribute [category]: %s", in.Category)}
	case "max":
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%s exceeds %s characters", field, fe.Param())}
	default:
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%s failed %s check", field, fe.Tag())}
	}
}
