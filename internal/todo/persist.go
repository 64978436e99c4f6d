package todo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// StorageKey is the default key the state is stored under.
const StorageKey = "projects"

// KV is a string key-value store.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// ErrCorruptState wraps the reason stored data was discarded.
var ErrCorruptState = errors.New("stored state is corrupt")

// Load reads the state stored under key. The returned state is always
// usable: when the key is absent, unreadable or holds data that fails to
// parse or validate, it is the default state. A non-nil error explains why
// stored data was not used.
func Load(kv KV, key string) (State, error) {
	raw, ok, err := kv.Get(key)
	if err != nil {
		return NewState(), fmt.Errorf("read %q: %w", key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return NewState(), nil
	}
	projects, err := Decode([]byte(raw))
	if err != nil {
		return NewState(), err
	}
	return FromProjects(projects), nil
}

// Save overwrites key with the JSON encoding of s.
func Save(kv KV, key string, s State) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := kv.Set(key, string(data)); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

// Encode marshals the projects of s in storage order.
func Encode(s State) ([]byte, error) {
	data, err := json.Marshal(s.stored())
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return data, nil
}

// Decode validates data against the state schema and unmarshals it.
func Decode(data []byte) ([]Project, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	schema, err := stateSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	var projects []Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return projects, nil
}

const schemaURL = "todos-state.json"

const schemaSource = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "array",
	"items": {
		"type": "object",
		"required": ["name", "todos"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"todos": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["name", "dueDate"],
					"properties": {
						"id": {"type": "string"},
						"name": {"type": "string"},
						"description": {"type": "string"},
						"dueDate": {"type": "string"},
						"priority": {"enum": ["", "low", "medium", "high"]},
						"completed": {"type": "boolean"}
					}
				}
			}
		}
	}
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func stateSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}
