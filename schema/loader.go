// Package schema loads and validates an AppSchema from a file path or an
// inline byte slice, accepting either JSON or YAML source. This is an
// external collaborator boundary per SPEC_FULL.md §4.6: it produces a
// validated model.AppSchema or a fatal, typed error; the coordinator never
// re-validates a schema it has been handed.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/bold-minds/includekit-go/model"
)

// ErrInvalid wraps a schema that failed struct-tag validation. Callers
// should treat it as fatal at startup, matching the reference loader's
// documented validation failure policy.
type ErrInvalid struct {
	Err error
}

func (e *ErrInvalid) Error() string {
	return fmt.Sprintf("includekit/schema: schema failed validation: %v", e.Err)
}

func (e *ErrInvalid) Unwrap() error { return e.Err }

var validate = validator.New()

// Format enumerates the source encodings the loader accepts.
type Format int

const (
	// FormatAuto is the zero value. LoadFile does not use it (it always infers
	// the format from the file extension); LoadBytes decodes FormatAuto, like
	// every value other than FormatYAML, as JSON.
	FormatAuto Format = iota
	FormatJSON
	FormatYAML
)

// LoadFile reads and validates an AppSchema from path, inferring JSON vs.
// YAML from the file extension.
func LoadFile(path string) (model.AppSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.AppSchema{}, fmt.Errorf("includekit/schema: reading schema file %q: %w", path, err)
	}

	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}
	return LoadBytes(data, format)
}

// LoadBytes decodes and validates an AppSchema from an inline byte slice in
// the given format.
func LoadBytes(data []byte, format Format) (model.AppSchema, error) {
	var schema model.AppSchema

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &schema); err != nil {
			return model.AppSchema{}, fmt.Errorf("includekit/schema: decoding YAML schema: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &schema); err != nil {
			return model.AppSchema{}, fmt.Errorf("includekit/schema: decoding JSON schema: %w", err)
		}
	}

	if err := validate.Struct(schema); err != nil {
		return model.AppSchema{}, &ErrInvalid{Err: err}
	}

	for _, m := range schema.Models {
		if m.ID.Kind == model.IDKindComposite && len(m.ID.Fields) == 0 {
			return model.AppSchema{}, &ErrInvalid{Err: fmt.Errorf("model %q declares a composite id with no fields", m.Name)}
		}
	}

	return schema, nil
}
