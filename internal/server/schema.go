package server

// param describes one tool argument for JSON schema generation.
type param struct {
	Name        string
	Type        string // JSON schema type: string, number, boolean, object, array
	Description string
	Required    bool
}

// inputSchema builds a JSON schema object from parameter descriptors.
func inputSchema(params []param) map[string]any {
	properties := make(map[string]any, len(params))
	var required []string
	for _, p := range params {
		prop := map[string]any{
			"description": p.Description,
		}
		// An empty type means any JSON value is accepted.
		if p.Type != "" {
			prop["type"] = p.Type
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// portParam is shared by every tool that talks to the app.
var portParam = param{
	Name:        "port",
	Type:        "number",
	Description: "BRP port of the target app (default from config)",
}
