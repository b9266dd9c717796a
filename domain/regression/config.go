package regression

import (
	"strings"

	"regdash/internal/errors"
)

// ModelConfiguration is what the selection step builds up.
// INVARIANTS:
// - IndependentVariables keeps insertion order and has no duplicates
// - DependentVariable never appears in IndependentVariables
type ModelConfiguration struct {
	Kind                 ModelKind `json:"kind"`
	DependentVariable    string    `json:"dependentVariable"`
	IndependentVariables []string  `json:"independentVariables"`
}

// NewModelConfiguration returns an empty linear configuration
func NewModelConfiguration() ModelConfiguration {
	return ModelConfiguration{Kind: KindLinear, IndependentVariables: []string{}}
}

// Clone returns a deep copy
func (c ModelConfiguration) Clone() ModelConfiguration {
	out := c
	out.IndependentVariables = append([]string(nil), c.IndependentVariables...)
	return out
}

// SetKind changes the model kind
func (c *ModelConfiguration) SetKind(kind ModelKind) {
	c.Kind = kind
}

// SetDependent selects the dependent variable. A variable promoted from the
// independent list is removed from it.
func (c *ModelConfiguration) SetDependent(name string) {
	name = strings.TrimSpace(name)
	c.DependentVariable = name
	c.RemoveIndependent(name)
}

// AddIndependent appends a predictor. It reports false, leaving the
// configuration untouched, for duplicates and for the dependent variable.
func (c *ModelConfiguration) AddIndependent(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || name == c.DependentVariable || c.HasIndependent(name) {
		return false
	}
	c.IndependentVariables = append(c.IndependentVariables, name)
	return true
}

// RemoveIndependent drops a predictor if present
func (c *ModelConfiguration) RemoveIndependent(name string) bool {
	for i, v := range c.IndependentVariables {
		if v == name {
			c.IndependentVariables = append(c.IndependentVariables[:i:i], c.IndependentVariables[i+1:]...)
			return true
		}
	}
	return false
}

// HasIndependent reports whether name is a selected predictor
func (c ModelConfiguration) HasIndependent(name string) bool {
	for _, v := range c.IndependentVariables {
		if v == name {
			return true
		}
	}
	return false
}

// CanAdvance reports whether the results step may be entered
func (c ModelConfiguration) CanAdvance() bool {
	return c.DependentVariable != "" && len(c.IndependentVariables) > 0
}

// Validate checks the invariants plus the advance precondition
func (c ModelConfiguration) Validate() error {
	if _, err := ParseModelKind(string(c.Kind)); err != nil {
		return errors.InvalidInput(err.Error())
	}
	if c.DependentVariable == "" {
		return errors.InvalidInput("dependent variable is required")
	}
	if len(c.IndependentVariables) == 0 {
		return errors.InvalidInput("at least one independent variable is required")
	}
	seen := make(map[string]bool, len(c.IndependentVariables))
	for _, v := range c.IndependentVariables {
		if v == c.DependentVariable {
			return errors.InvalidInput("dependent variable " + v + " cannot also be independent")
		}
		if seen[v] {
			return errors.InvalidInput("independent variable " + v + " is listed twice")
		}
		seen[v] = true
	}
	return nil
}

// ValidateAgainst additionally requires every variable to exist in the catalog
func (c ModelConfiguration) ValidateAgainst(catalog Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for _, name := range append([]string{c.DependentVariable}, c.IndependentVariables...) {
		if _, ok := catalog.Lookup(name); !ok {
			return errors.InvalidInput("unknown variable " + name)
		}
	}
	return nil
}
