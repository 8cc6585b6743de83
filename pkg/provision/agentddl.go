package provision

import (
	"encoding/json"
	"fmt"
	"strings"
)

// agentDDL renders the agent definition wiring the semantic view (Cortex
// Analyst) and the search service (Cortex Search) as tools.
func agentDDL(database, schema, agentName, viewName, serviceName string, plan DemoPlan) string {
	spec := map[string]any{
		"models": map[string]any{"orchestration": "auto"},
		"instructions": map[string]any{
			"response": fmt.Sprintf("You are a helpful analyst for the %s demo. Answer with data from the semantic view and the document search service, and include charts where useful.", plan.Title),
		},
		"tools": []map[string]any{
			{
				"tool_spec": map[string]any{
					"type": "cortex_analyst_text_to_sql",
					"name": "analyst",
				},
			},
			{
				"tool_spec": map[string]any{
					"type": "cortex_search",
					"name": "search",
				},
			},
		},
		"tool_resources": map[string]any{
			"analyst": map[string]any{
				"semantic_view": fmt.Sprintf("%s.%s.%s", database, schema, viewName),
			},
			"search": map[string]any{
				"name": fmt.Sprintf("%s.%s.%s", database, schema, serviceName),
			},
		},
	}
	raw, _ := json.Marshal(spec)

	return fmt.Sprintf(`CREATE OR REPLACE AGENT %s.%s
WITH PROFILE = '{"display_name": "%s"}'
COMMENT = '%s'
FROM SPECIFICATION $$%s$$`,
		schema, agentName,
		strings.ReplaceAll(plan.Title, `"`, ``),
		sqlString(plan.Description),
		string(raw))
}
