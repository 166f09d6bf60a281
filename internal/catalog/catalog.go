// Package catalog defines the ordered set of lifecycle stages every project
// is created with.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed stages.yaml
var defaultCatalog []byte

// StageDef is one lifecycle stage definition.
type StageDef struct {
	Code         string `yaml:"code"`
	Name         string `yaml:"name"`
	DurationDays int    `yaml:"duration_days"`
}

// Catalog is the ordered stage list.
type Catalog struct {
	Stages []StageDef `yaml:"stages"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded stage catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from path, falling back to the embedded one when path
// is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stage catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML. Codes are upper-cased and names
// title-cased.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing stage catalog: %w", err)
	}
	if len(c.Stages) == 0 {
		return nil, fmt.Errorf("stage catalog has no stages")
	}
	caser := cases.Title(language.English)
	seen := make(map[string]bool, len(c.Stages))
	for i := range c.Stages {
		s := &c.Stages[i]
		s.Code = strings.ToUpper(strings.TrimSpace(s.Code))
		if s.Code == "" {
			return nil, fmt.Errorf("stage %d has no code", i+1)
		}
		if seen[s.Code] {
			return nil, fmt.Errorf("duplicate stage code %q", s.Code)
		}
		seen[s.Code] = true
		if s.DurationDays < 1 {
			return nil, fmt.Errorf("stage %s: duration_days must be at least 1", s.Code)
		}
		s.Name = caser.String(strings.TrimSpace(s.Name))
		if s.Name == "" {
			s.Name = s.Code
		}
	}
	return &c, nil
}

// Lookup returns the definition for code.
func (c *Catalog) Lookup(code string) (StageDef, bool) {
	code = strings.ToUpper(code)
	for _, s := range c.Stages {
		if s.Code == code {
			return s, true
		}
	}
	return StageDef{}, false
}

// Codes returns stage codes in schedule order.
func (c *Catalog) Codes() []string {
	codes := make([]string, len(c.Stages))
	for i, s := range c.Stages {
		codes[i] = s.Code
	}
	return codes
}
