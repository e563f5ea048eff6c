package anthropic

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestToolBuilder(t *testing.T) {
	t.Parallel()

	tool := NewTool("search").
		Describe("Search for information").
		StringProperty("query", "Search query", true).
		IntegerProperty("limit", "Max results", false).
		EnumProperty("sort", "Sort order", []string{"asc", "desc"}, false)

	if tool.Name != "search" {
		t.Errorf("name = %q", tool.Name)
	}
	if len(tool.InputSchema.Properties) != 3 {
		t.Fatalf("properties = %d, want 3", len(tool.InputSchema.Properties))
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "query" {
		t.Errorf("required = %v", tool.InputSchema.Required)
	}
	if tool.InputSchema.Properties["sort"].Enum[1] != "desc" {
		t.Errorf("enum = %v", tool.InputSchema.Properties["sort"].Enum)
	}
}

func TestToolMarshal(t *testing.T) {
	t.Parallel()

	tool := NewTool("get_weather").
		Describe("Current weather for a city").
		StringProperty("city", "City name", true)

	raw, err := json.Marshal(tool)
	if err != nil {
		t.Fatal(err)
	}
	s := string(raw)
	for _, want := range []string{`"name":"get_weather"`, `"input_schema"`, `"type":"object"`, `"required":["city"]`} {
		if !strings.Contains(s, want) {
			t.Errorf("marshal missing %s: %s", want, s)
		}
	}
}

func TestToolArrayProperty(t *testing.T) {
	t.Parallel()

	tool := NewTool("tag").
		ArrayProperty("labels", "Labels to apply", PropertyDef{Type: "string"}, true)

	p := tool.InputSchema.Properties["labels"]
	if p.Type != "array" || p.Items == nil || p.Items.Type != "string" {
		t.Errorf("labels = %+v", p)
	}
}
