package level

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformed marks level descriptions that are missing required fields or
// fail schema validation. It is distinct from an unsolvable level.
var ErrMalformed = errors.New("malformed level")

//go:embed schema/level.schema.json
var schemaJSON string

const schemaURL = "https://mazeforge.ai/schemas/level.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString(schemaURL, schemaJSON)
	})
	return schema, schemaErr
}

// Load reads and validates one level file.
func Load(path string) (*Level, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lv, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if lv.ID == "" {
		lv.ID = trimExt(filepath.Base(path))
	}
	return lv, nil
}

func Decode(r io.Reader) (*Level, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse validates raw JSON against the level schema and decodes it.
func Parse(raw []byte) (*Level, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	var lv Level
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&lv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &lv, nil
}

// Validate checks raw JSON against the embedded level schema.
func Validate(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("level schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
