package agent

// unsupportedSchemaKeys are JSON Schema decorations some providers reject
// in function-calling parameter schemas. They carry no execution semantics
// and are stripped before the manifest is handed to the model.
var unsupportedSchemaKeys = []string{
	"title",
	"$defs",
	"definitions",
	"anyOf",
	"allOf",
	"oneOf",
	"default",
	"examples",
	"example",
	"deprecated",
	"readOnly",
	"writeOnly",
	"xml",
	"externalDocs",
}

// SanitizeSchema returns a deep copy of a tool input schema with unsupported
// decoration keys removed at every nesting level. The input is never
// mutated, and sanitizing an already-clean schema is a no-op copy.
func SanitizeSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		out[k] = v
	}
	for _, key := range unsupportedSchemaKeys {
		delete(out, key)
	}

	if props, ok := out["properties"].(map[string]any); ok {
		clean := make(map[string]any, len(props))
		for name, sub := range props {
			if subSchema, ok := sub.(map[string]any); ok {
				clean[name] = SanitizeSchema(subSchema)
			} else {
				clean[name] = sub
			}
		}
		out["properties"] = clean
	}
	if items, ok := out["items"].(map[string]any); ok {
		out["items"] = SanitizeSchema(items)
	}
	if add, ok := out["additionalProperties"].(map[string]any); ok {
		out["additionalProperties"] = SanitizeSchema(add)
	}
	return out
}
