package category

import "fmt"

// Category is the closed set of labels a product can be filed under.
// The label itself is what gets stored and sent over the wire.
type Category string

const (
	Unknown    Category = "UNKNOWN"
	Cloths     Category = "CLOTHS"
	Food       Category = "FOOD"
	Housewares Category = "HOUSEWARES"
	Automotive Category = "AUTOMOTIVE"
	Tools      Category = "TOOLS"
)

var all = []Category{Unknown, Cloths, Food, Housewares, Automotive, Tools}

// All returns every category in declaration order.
func All() []Category {
	out := make([]Category, len(all))
	copy(out, all)
	return out
}

func (c Category) IsValid() bool {
	for _, known := range all {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Parse looks a category up by its exact name. Lookup is case-sensitive,
// matching the names produced by String.
func Parse(name string) (Category, error) {
	c := Category(name)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidCategory, name)
	}
	return c, nil
}
