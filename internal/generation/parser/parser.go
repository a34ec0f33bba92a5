// Package parser extracts code artifacts from completion output.
package parser

import (
	"regexp"
	"strings"
)

// fencedBlock matches the first triple-backtick block, with an optional
// language tag on the opening fence.
var fencedBlock = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)```")

// DefaultLanguage is assumed when a fence carries no language tag.
const DefaultLanguage = "javascript"

// Result is the outcome of parsing one completion. A completion with no
// fenced code block is valid: Code is empty and HasCode reports false.
type Result struct {
	Code     string
	Language string
}

// HasCode reports whether the completion contained a code artifact.
func (r Result) HasCode() bool {
	return r.Code != ""
}

// Parse scans raw completion text for the first fenced code block. Parsing is
// pure: the same input always yields the same result, and prose-only
// completions return an empty Result rather than an error.
func Parse(raw string) Result {
	m := fencedBlock.FindStringSubmatch(raw)
	if m == nil {
		return Result{}
	}

	language := m[1]
	if language == "" {
		language = DefaultLanguage
	}

	return Result{
		Code:     strings.TrimSpace(m[2]),
		Language: strings.ToLower(language),
	}
}

// extensions maps language tags to file extensions. Unknown tags fall back
// to .js, matching the default language assumption.
var extensions = map[string]string{
	"javascript": ".js",
	"typescript": ".ts",
	"jsx":        ".jsx",
	"tsx":        ".tsx",
	"css":        ".css",
	"scss":       ".scss",
	"html":       ".html",
	"sql":        ".sql",
	"json":       ".json",
	"yaml":       ".yml",
	"dockerfile": "Dockerfile",
	"prisma":     ".prisma",
}

// Filename derives the canonical output path for an agent's artifact. The
// mapping is total and deterministic: every (agentID, language) pair produces
// a path, with agent IDs outside the fixed table falling back to
// {agentID}{ext}.
func Filename(agentID, language string) string {
	ext, ok := extensions[strings.ToLower(language)]
	if !ok {
		ext = ".js"
	}

	switch agentID {
	case "orchestrator":
		return "project-config" + ext
	case "ui":
		if strings.Contains(ext, "ts") {
			return "components/App.tsx"
		}
		return "components/App.jsx"
	case "backend":
		return "api/routes" + ext
	case "database":
		// Schema output lands in one place no matter how it was tagged.
		return "schema/database.sql"
	case "tester":
		return "tests/app.test" + ext
	case "deployment":
		return "vercel.json"
	default:
		return agentID + ext
	}
}
