package anthropic

// Tool describes a function the model may call.
type Tool struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	InputSchema JSONSchema `json:"input_schema"`
}

// JSONSchema is the object schema for a tool's input.
type JSONSchema struct {
	Type       string                 `json:"type"` // "object"
	Properties map[string]PropertyDef `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`
}

// PropertyDef describes one property of a tool input schema.
type PropertyDef struct {
	Type        string       `json:"type"`
	Description string       `json:"description,omitempty"`
	Enum        []string     `json:"enum,omitempty"`
	Items       *PropertyDef `json:"items,omitempty"`
}

// NewTool returns a tool with an empty object schema.
func NewTool(name string) *Tool {
	return &Tool{
		Name:        name,
		InputSchema: JSONSchema{Type: "object"},
	}
}

// Describe sets the tool description.
func (t *Tool) Describe(desc string) *Tool {
	t.Description = desc
	return t
}

func (t *Tool) addProperty(name string, def PropertyDef, required bool) *Tool {
	if t.InputSchema.Properties == nil {
		t.InputSchema.Properties = make(map[string]PropertyDef)
	}
	t.InputSchema.Properties[name] = def
	if required {
		t.InputSchema.Required = append(t.InputSchema.Required, name)
	}
	return t
}

// StringProperty adds a string property to the input schema.
func (t *Tool) StringProperty(name, desc string, required bool) *Tool {
	return t.addProperty(name, PropertyDef{Type: "string", Description: desc}, required)
}

// NumberProperty adds a number property to the input schema.
func (t *Tool) NumberProperty(name, desc string, required bool) *Tool {
	return t.addProperty(name, PropertyDef{Type: "number", Description: desc}, required)
}

// IntegerProperty adds an integer property to the input schema.
func (t *Tool) IntegerProperty(name, desc string, required bool) *Tool {
	return t.addProperty(name, PropertyDef{Type: "integer", Description: desc}, required)
}

// BooleanProperty adds a boolean property to the input schema.
func (t *Tool) BooleanProperty(name, desc string, required bool) *Tool {
	return t.addProperty(name, PropertyDef{Type: "boolean", Description: desc}, required)
}

// EnumProperty adds a string property restricted to the given values.
func (t *Tool) EnumProperty(name, desc string, values []string, required bool) *Tool {
	return t.addProperty(name, PropertyDef{Type: "string", Description: desc, Enum: values}, required)
}

// ArrayProperty adds an array property with the given item schema.
func (t *Tool) ArrayProperty(name, desc string, items PropertyDef, required bool) *Tool {
	return t.addProperty(name, PropertyDef{Type: "array", Description: desc, Items: &items}, required)
}
