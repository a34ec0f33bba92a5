// Package prompt composes the system and user instructions sent to the
// completion provider for each agent. Composition is pure string work with no
// failure modes.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/appgenius/appgenius/internal/agent/registry"
)

const systemTemplate = `You are %s, a %s.

ROLE: %s
GOAL: %s
BACKSTORY: %s

You are part of a collaborative AI team building web applications. Your specific expertise is crucial for the project's success.

GUIDELINES:
- Generate complete, production-ready code without TODOs or placeholders
- Follow modern development best practices
- Use TypeScript and React when applicable
- Include proper error handling and validation
- Write clean, well-documented code
- Ensure code is immediately deployable
- Focus on your specific area of expertise

OUTPUT FORMAT:
Please provide your response in the following format:
1. Brief explanation of your approach
2. Complete code implementation
3. Any additional notes or recommendations

Wrap all code in appropriate code blocks with language specification.`

// userTemplates maps agent IDs to their role-specialized instruction. The
// user prompt is substituted for the single %s in each template. Agent IDs
// without an entry fall back to the raw prompt unchanged, so unregistered
// agents still produce a usable request.
var userTemplates = map[string]string{
	"orchestrator": `Analyze the following project requirements and create a comprehensive project structure and configuration:

%s

Please provide:
1. Project architecture overview
2. Technology stack recommendations
3. File structure
4. Configuration files (package.json, etc.)
5. Development workflow recommendations`,

	"ui": `Create a beautiful, modern React component for the following requirement:

%s

Please provide:
1. Complete React component with TypeScript
2. Tailwind CSS styling (modern, responsive design)
3. Proper component structure and props
4. Accessibility considerations
5. Mobile-responsive design`,

	"backend": `Design and implement the backend API for the following requirement:

%s

Please provide:
1. Complete API endpoints with TypeScript
2. Request/response interfaces
3. Error handling
4. Input validation
5. Database integration code`,

	"database": `Design the database schema for the following requirement:

%s

Please provide:
1. Database schema (SQL or Prisma)
2. Relationships and indexes
3. Data migration scripts
4. Seed data examples
5. Query optimization recommendations`,

	"tester": `Create comprehensive tests for the following requirement:

%s

Please provide:
1. Unit tests
2. Integration tests
3. Test utilities and helpers
4. Mock data and fixtures
5. Testing best practices`,

	"deployment": `Create deployment configuration for the following requirement:

%s

Please provide:
1. Deployment configuration files
2. Environment setup
3. CI/CD pipeline configuration
4. Docker configuration (if needed)
5. Monitoring and logging setup`,
}

// Build returns the system and user instructions for one agent invocation.
// Context, when non-nil, is appended to the system instruction as JSON.
func Build(agent registry.Agent, userPrompt string, context any) (system, user string) {
	system = fmt.Sprintf(systemTemplate, agent.Name, agent.Role, agent.Role, agent.Goal, agent.Backstory)

	if context != nil {
		if data, err := json.MarshalIndent(context, "", "  "); err == nil {
			system += "\n\nCONTEXT: " + string(data)
		}
	}

	tmpl, ok := userTemplates[agent.ID]
	if !ok {
		return system, userPrompt
	}
	return system, fmt.Sprintf(tmpl, strings.TrimSpace(userPrompt))
}
