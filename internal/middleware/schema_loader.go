package middleware

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	contextutils "learnapp/internal/utils"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v2"
)

//go:embed schemas/*.yaml
var embeddedSchemas embed.FS

// SchemaLoader holds compiled JSON schemas for request bodies, keyed by name
type SchemaLoader struct {
	schemas map[string]*gojsonschema.Schema
}

// NewSchemaLoader creates an empty schema loader
func NewSchemaLoader() *SchemaLoader {
	return &SchemaLoader{
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// LoadEmbeddedSchemas compiles the request schemas shipped with the binary.
func LoadEmbeddedSchemas() (*SchemaLoader, error) {
	loader := NewSchemaLoader()
	if err := loader.LoadSchemas(embeddedSchemas, "schemas"); err != nil {
		return nil, err
	}
	return loader, nil
}

// LoadSchemas compiles every *.yaml file under dir. The schema name is the file name without extension.
func (sl *SchemaLoader) LoadSchemas(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return contextutils.WrapError(err, "failed to read schema directory")
	}

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return contextutils.WrapErrorf(err, "failed to read schema %s", entry.Name())
		}
		name := strings.TrimSuffix(entry.Name(), ".yaml")
		if err := sl.AddSchema(name, data); err != nil {
			return err
		}
	}
	return nil
}

// AddSchema compiles a YAML schema document and registers it under name.
func (sl *SchemaLoader) AddSchema(name string, yamlData []byte) error {
	var raw interface{}
	if err := yaml.Unmarshal(yamlData, &raw); err != nil {
		return contextutils.WrapErrorf(err, "failed to parse schema %s as YAML", name)
	}

	converted, err := convertToJSONCompatible(raw)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to convert schema %s", name)
	}
	doc, ok := converted.(map[string]interface{})
	if !ok {
		return contextutils.ErrorWithContextf("schema %s is not an object", name)
	}
	doc["$schema"] = "http://json-schema.org/draft-07/schema#"

	schemaBytes, err := json.Marshal(doc)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to marshal schema %s", name)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaBytes))
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to compile schema %s", name)
	}
	sl.schemas[name] = schema
	return nil
}

// Has reports whether a schema named name is loaded.
func (sl *SchemaLoader) Has(name string) bool {
	_, ok := sl.schemas[name]
	return ok
}

// Names lists the loaded schema names in sorted order.
func (sl *SchemaLoader) Names() []string {
	names := make([]string, 0, len(sl.schemas))
	for name := range sl.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// convertToJSONCompatible turns YAML maps into JSON objects and rewrites
// OpenAPI-style `nullable: true` into a JSON-schema union with null.
func convertToJSONCompatible(data interface{}) (interface{}, error) {
	switch v := data.(type) {
	case map[interface{}]interface{}:
		result := make(map[string]interface{})
		hasNullable := false

		for k, val := range v {
			keyStr, ok := k.(string)
			if !ok {
				return nil, contextutils.ErrorWithContextf("key is not a string: %v", k)
			}

			if keyStr == "nullable" {
				if nullable, ok := val.(bool); ok && nullable {
					hasNullable = true
				}
				continue
			}

			convertedVal, err := convertToJSONCompatible(val)
			if err != nil {
				return nil, err
			}
			result[keyStr] = convertedVal
		}

		if hasNullable {
			if ref, hasRef := result["$ref"].(string); hasRef {
				result["oneOf"] = []interface{}{
					map[string]interface{}{"$ref": ref},
					map[string]interface{}{"type": "null"},
				}
				delete(result, "$ref")
			} else if typeVal, hasType := result["type"].(string); hasType {
				result["type"] = []interface{}{typeVal, "null"}
				if enum, hasEnum := result["enum"].([]interface{}); hasEnum {
					result["enum"] = append(enum, nil)
				}
			}
		}

		return result, nil
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, val := range v {
			convertedVal, err := convertToJSONCompatible(val)
			if err != nil {
				return nil, err
			}
			result[i] = convertedVal
		}
		return result, nil
	default:
		return data, nil
	}
}

// ValidateJSON validates a raw JSON document against the named schema
func (sl *SchemaLoader) ValidateJSON(body []byte, schemaName string) error {
	schema, exists := sl.schemas[schemaName]
	if !exists {
		return contextutils.ErrorWithContextf("schema %s not found", schemaName)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeInvalidFormat, contextutils.SeverityWarn,
			"request body is not valid JSON", "", err)
	}

	if !result.Valid() {
		validationErrors := make([]string, 0, len(result.Errors()))
		for _, validationErr := range result.Errors() {
			validationErrors = append(validationErrors, fmt.Sprintf("%s: %s", validationErr.Field(), validationErr.Description()))
		}
		return contextutils.NewAppError(contextutils.ErrorCodeValidationFailed, contextutils.SeverityInfo,
			"request does not match schema "+schemaName, strings.Join(validationErrors, "; "))
	}
	return nil
}
