package regression

import (
	"fmt"
	"strings"
)

// ModelKind selects the regression family
type ModelKind string

const (
	KindLinear     ModelKind = "linear"
	KindLogistic   ModelKind = "logistic"
	KindPolynomial ModelKind = "polynomial"
)

// ModelKinds lists the supported kinds in display order
var ModelKinds = []ModelKind{KindLinear, KindLogistic, KindPolynomial}

// ParseModelKind accepts a kind name case-insensitively
func ParseModelKind(s string) (ModelKind, error) {
	k := ModelKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindLinear, KindLogistic, KindPolynomial:
		return k, nil
	}
	return "", fmt.Errorf("unknown model kind %q (want linear, logistic or polynomial)", s)
}

// Title is the capitalised display name
func (k ModelKind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// Hint is the one-line guidance shown next to the kind selector
func (k ModelKind) Hint() string {
	switch k {
	case KindLinear:
		return "Best for continuous dependent variables"
	case KindLogistic:
		return "Best for binary dependent variables"
	case KindPolynomial:
		return "Best for non-linear relationships"
	}
	return ""
}

// VariableType describes the measurement level of a variable
type VariableType string

const (
	TypeContinuous  VariableType = "continuous"
	TypeCategorical VariableType = "categorical"
	TypeBinary      VariableType = "binary"
)

// Variable is one selectable column
type Variable struct {
	Name        string       `json:"name" yaml:"name"`
	Type        VariableType `json:"type" yaml:"type"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// Catalog is the ordered set of variables offered by the selection step
type Catalog []Variable

// DefaultCatalog is the built-in sample variable set
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: "GDP", Type: TypeContinuous, Description: "Gross Domestic Product"},
		{Name: "inflation_rate", Type: TypeContinuous, Description: "Annual inflation rate"},
		{Name: "unemployment", Type: TypeContinuous, Description: "Unemployment rate"},
		{Name: "education_level", Type: TypeCategorical, Description: "Educational attainment"},
		{Name: "urban", Type: TypeBinary, Description: "Urban vs rural location"},
		{Name: "age", Type: TypeContinuous, Description: "Age in years"},
		{Name: "income", Type: TypeContinuous, Description: "Annual income"},
		{Name: "gender", Type: TypeBinary, Description: "Gender indicator"},
		{Name: "experience", Type: TypeContinuous, Description: "Years of experience"},
		{Name: "region", Type: TypeCategorical, Description: "Geographic region"},
	}
}

// Lookup finds a variable by name
func (c Catalog) Lookup(name string) (Variable, bool) {
	for _, v := range c {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Validate rejects empty names, duplicates and unknown types
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("variable catalog is empty")
	}
	seen := make(map[string]bool, len(c))
	for i, v := range c {
		if strings.TrimSpace(v.Name) == "" {
			return fmt.Errorf("variable %d has no name", i)
		}
		if seen[v.Name] {
			return fmt.Errorf("duplicate variable %q", v.Name)
		}
		seen[v.Name] = true
		switch v.Type {
		case TypeContinuous, TypeCategorical, TypeBinary:
		default:
			return fmt.Errorf("variable %q has unknown type %q", v.Name, v.Type)
		}
	}
	return nil
}
