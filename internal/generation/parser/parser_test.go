package parser

import "testing"

func TestParseFencedBlock(t *testing.T) {
	raw := "Here is the component:\n```tsx\nexport default function Todo(){}\n```\nUse it anywhere."

	result := Parse(raw)
	if !result.HasCode() {
		t.Fatal("Expected a code artifact")
	}
	if result.Code != "export default function Todo(){}" {
		t.Errorf("Unexpected code: %q", result.Code)
	}
	if result.Language != "tsx" {
		t.Errorf("Expected language tsx, got %q", result.Language)
	}
}

func TestParseNoLanguageTag(t *testing.T) {
	result := Parse("```\nconsole.log('hi')\n```")
	if result.Language != DefaultLanguage {
		t.Errorf("Expected default language, got %q", result.Language)
	}
}

func TestParseNoFence(t *testing.T) {
	result := Parse("Just an explanation with no code at all.")
	if result.HasCode() {
		t.Errorf("Prose-only completion must yield no artifact, got %q", result.Code)
	}
}

func TestParseFirstBlockWins(t *testing.T) {
	raw := "```sql\nCREATE TABLE a (id TEXT);\n```\nand also\n```js\nconsole.log('second')\n```"

	result := Parse(raw)
	if result.Language != "sql" {
		t.Errorf("Expected first block's language, got %q", result.Language)
	}
	if result.Code != "CREATE TABLE a (id TEXT);" {
		t.Errorf("Expected first block's code, got %q", result.Code)
	}
}

func TestParseDeterministic(t *testing.T) {
	raw := "```typescript\nconst x = 1\n```"
	if Parse(raw) != Parse(raw) {
		t.Error("Parse must be deterministic")
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		agentID  string
		language string
		want     string
	}{
		{"orchestrator", "json", "project-config.json"},
		{"orchestrator", "javascript", "project-config.js"},
		{"ui", "tsx", "components/App.tsx"},
		{"ui", "typescript", "components/App.tsx"},
		{"ui", "jsx", "components/App.jsx"},
		{"ui", "javascript", "components/App.jsx"},
		{"backend", "typescript", "api/routes.ts"},
		{"database", "sql", "schema/database.sql"},
		{"database", "javascript", "schema/database.sql"},
		{"tester", "typescript", "tests/app.test.ts"},
		{"deployment", "json", "vercel.json"},
		{"deployment", "yaml", "vercel.json"},
		{"reviewer", "typescript", "reviewer.ts"},
		{"reviewer", "unknown", "reviewer.js"},
	}

	for _, tt := range tests {
		if got := Filename(tt.agentID, tt.language); got != tt.want {
			t.Errorf("Filename(%q, %q) = %q, want %q", tt.agentID, tt.language, got, tt.want)
		}
	}
}
