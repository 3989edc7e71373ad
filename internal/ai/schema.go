package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"google.golang.org/genai"
)

// decodeStrict strips an optional Markdown fence, checks the payload
// against schema and only then decodes it into out.
func decodeStrict(raw string, schema *genai.Schema, out any) error {
	body := stripFence(raw)
	if body == "" {
		return errors.New("empty JSON payload")
	}
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	if dec.More() {
		return errors.New("parse JSON: trailing data after value")
	}
	if err := validateValue("$", generic, schema); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}
	return nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the info string, e.g. ```json
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// validateValue covers the subset of the schema vocabulary the reports use:
// type, required, properties, items and enum.
func validateValue(path string, v any, schema *genai.Schema) error {
	if schema == nil {
		return nil
	}
	if v == nil {
		if schema.Nullable != nil && *schema.Nullable {
			return nil
		}
		return fmt.Errorf("%s: null value", path)
	}
	switch schema.Type {
	case genai.TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object, got %s", path, jsonKind(v))
		}
		for _, name := range schema.Required {
			if _, ok := obj[name]; !ok {
				return fmt.Errorf("%s: missing required property %q", path, name)
			}
		}
		for name, prop := range schema.Properties {
			val, ok := obj[name]
			if !ok {
				continue
			}
			if err := validateValue(path+"."+name, val, prop); err != nil {
				return err
			}
		}
	case genai.TypeArray:
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%s: expected array, got %s", path, jsonKind(v))
		}
		for i, item := range arr {
			if err := validateValue(fmt.Sprintf("%s[%d]", path, i), item, schema.Items); err != nil {
				return err
			}
		}
	case genai.TypeString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s: expected string, got %s", path, jsonKind(v))
		}
		if len(schema.Enum) > 0 && !slices.Contains(schema.Enum, s) {
			return fmt.Errorf("%s: %q is not one of %v", path, s, schema.Enum)
		}
	case genai.TypeNumber:
		if _, ok := v.(json.Number); !ok {
			return fmt.Errorf("%s: expected number, got %s", path, jsonKind(v))
		}
	case genai.TypeInteger:
		n, ok := v.(json.Number)
		if !ok {
			return fmt.Errorf("%s: expected integer, got %s", path, jsonKind(v))
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) {
			return fmt.Errorf("%s: expected integer, got %s", path, n)
		}
	case genai.TypeBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%s: expected boolean, got %s", path, jsonKind(v))
		}
	}
	return nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// describeSchema renders schema as a compact JSON outline for prompts that
// cannot carry a response schema.
func describeSchema(schema *genai.Schema) string {
	b, err := json.Marshal(schema)
	if err != nil {
		return ""
	}
	return string(b)
}
