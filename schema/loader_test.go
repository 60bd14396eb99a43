package schema

import (
	"errors"
	"os"
	"testing"
)

const jsonSchema = `{
  "version": 1,
  "models": [
    {
      "name": "User",
      "id": {"kind": "string"},
      "relations": [
        {"name": "posts", "model": "Post", "cardinality": "one-to-many", "foreignKey": "authorId"}
      ]
    }
  ]
}`

const yamlSchema = `
version: 1
models:
  - name: User
    id:
      kind: string
`

func TestLoadBytes_JSON(t *testing.T) {
	s, err := LoadBytes([]byte(jsonSchema), FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Version != 1 {
		t.Errorf("expected version 1, got %d", s.Version)
	}
	if len(s.Models) != 1 || s.Models[0].Name != "User" {
		t.Fatalf("expected a single User model, got %+v", s.Models)
	}
	if len(s.Models[0].Relations) != 1 || s.Models[0].Relations[0].Name != "posts" {
		t.Errorf("expected a 'posts' relation, got %+v", s.Models[0].Relations)
	}
}

func TestLoadBytes_YAML(t *testing.T) {
	s, err := LoadBytes([]byte(yamlSchema), FormatYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Models) != 1 || s.Models[0].Name != "User" {
		t.Fatalf("expected a single User model, got %+v", s.Models)
	}
}

func TestLoadBytes_MissingVersionIsInvalid(t *testing.T) {
	_, err := LoadBytes([]byte(`{"models":[{"name":"User","id":{"kind":"string"}}]}`), FormatJSON)
	var invalid *ErrInvalid
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *ErrInvalid, got %v", err)
	}
}

func TestLoadBytes_EmptyModelsIsInvalid(t *testing.T) {
	_, err := LoadBytes([]byte(`{"version":1,"models":[]}`), FormatJSON)
	var invalid *ErrInvalid
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *ErrInvalid, got %v", err)
	}
}

func TestLoadBytes_CompositeIdWithoutFieldsIsInvalid(t *testing.T) {
	src := `{"version":1,"models":[{"name":"Order","id":{"kind":"composite","fields":[]}}]}`
	_, err := LoadBytes([]byte(src), FormatJSON)
	var invalid *ErrInvalid
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *ErrInvalid, got %v", err)
	}
}

func TestLoadFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/schema.json"
	if err := writeFile(path, jsonSchema); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Version != 1 {
		t.Errorf("expected version 1, got %d", s.Version)
	}
}

func TestLoadFile_YAMLExtension(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/schema.yaml"
	if err := writeFile(path, yamlSchema); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Models) != 1 {
		t.Errorf("expected one model, got %d", len(s.Models))
	}
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}
