// Package definition loads condition-bearing definitions and compiles them
// as a unit.
//
// A definition file is YAML:
//
//	definitions:
//	  - name: Plague
//	    conditions:
//	      - name: Trigger
//	        mode: simple            # simple | complex | text
//	        result: bool            # any registered type name
//	        text: Subject.Health <= 0
//	        variables:
//	          - {name: Subject, type: Site}
//
// Bind compiles every condition of a definition; a definition with any
// failing condition is unusable.
package definition

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sandrolain/gocondition/pkg/types"
)

// File is the root of a definition file.
type File struct {
	Definitions []Definition `yaml:"definitions"`
}

// Definition groups the conditions of one designer-authored entity.
type Definition struct {
	Name       string      `yaml:"name"`
	Conditions []Condition `yaml:"conditions"`
}

// Condition is one condition-bearing property.
type Condition struct {
	Name      string     `yaml:"name"`
	Mode      string     `yaml:"mode"`
	Result    string     `yaml:"result"`
	Text      string     `yaml:"text"`
	Variables []Variable `yaml:"variables"`
}

// Variable declares one signature entry by type name.
type Variable struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// ResultType returns the declared result type name, defaulting to string for
// formatted text and bool otherwise.
func (c Condition) ResultType() string {
	if c.Result != "" {
		return c.Result
	}
	if m, err := types.ParseMode(c.Mode); err == nil && m == types.ModeFormattedText {
		return "string"
	}
	return "bool"
}

// Load decodes and validates a definition file. Unknown fields are rejected.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("failed to decode definitions: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile reads and parses a definition file.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open definitions %s: %w", path, err)
	}
	defer fh.Close()

	f, err := Load(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Validate checks the structure of the file. Condition texts are not
// compiled here; see Bind.
func (f *File) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(f.Definitions))
	for i, d := range f.Definitions {
		if d.Name == "" {
			errs = append(errs, fmt.Errorf("definition %d has no name", i))
			continue
		}
		if seen[d.Name] {
			errs = append(errs, fmt.Errorf("duplicate definition %q", d.Name))
		}
		seen[d.Name] = true

		conds := make(map[string]bool, len(d.Conditions))
		for j, c := range d.Conditions {
			switch {
			case c.Name == "":
				errs = append(errs, fmt.Errorf("definition %q: condition %d has no name", d.Name, j))
			case conds[c.Name]:
				errs = append(errs, fmt.Errorf("definition %q: duplicate condition %q", d.Name, c.Name))
			}
			conds[c.Name] = true
			if _, err := types.ParseMode(c.Mode); err != nil {
				errs = append(errs, fmt.Errorf("definition %q, condition %q: %w", d.Name, c.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}
