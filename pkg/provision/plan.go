package provision

import (
	"context"
	"encoding/json"
	"fmt"
)

func planPrompt(c CompanyProfile) string {
	useCases := ""
	if c.UseCases != "" {
		useCases = fmt.Sprintf("\n- Use cases: %s", c.UseCases)
	}
	return fmt.Sprintf(`You are designing a Snowflake demo for a prospective customer.

Company:
- Name: %s
- Domain: %s
- Vertical: %s
- Sub-vertical: %s
- Audience: %s%s

Design a demo with a title, a one-paragraph description, and exactly three
tables: two structured tables that join on a shared entity, and one
unstructured table of text chunks whose name ends in _CHUNKS.

Return ONLY a JSON object with this structure and no additional text:
{
  "title": "Demo title",
  "description": "What the demo shows",
  "structured_1": {"name": "TABLE_NAME", "description": "...", "purpose": "..."},
  "structured_2": {"name": "TABLE_NAME", "description": "...", "purpose": "..."},
  "unstructured": {"name": "TABLE_NAME_CHUNKS", "description": "...", "purpose": "..."}
}`,
		c.Name, c.Domain, c.Vertical, c.SubVertical, c.Audience, useCases)
}

// plan asks the model for a demo plan and falls back to a deterministic one
// when the completion cannot be parsed.
func (p *Pipeline) plan(ctx context.Context) DemoPlan {
	response, err := p.complete(ctx, planPrompt(p.cfg.Company))
	if err != nil {
		p.logger.Warn("demo plan generation failed, using fallback", "error", err)
		return fallbackPlan(p.cfg.Company)
	}

	raw, ok := extractJSONObject(response)
	if !ok {
		p.logger.Debug("demo plan response had no JSON object, using fallback")
		return fallbackPlan(p.cfg.Company)
	}

	var plan DemoPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		p.logger.Debug("demo plan response unparseable, using fallback", "error", err)
		return fallbackPlan(p.cfg.Company)
	}
	if plan.Title == "" || plan.Structured1.Name == "" || plan.Structured2.Name == "" || plan.Unstructured.Name == "" {
		return fallbackPlan(p.cfg.Company)
	}

	plan.Structured1.Name = identifier(plan.Structured1.Name)
	plan.Structured2.Name = identifier(plan.Structured2.Name)
	plan.Unstructured.Name = identifier(plan.Unstructured.Name)
	return plan
}

func fallbackPlan(c CompanyProfile) DemoPlan {
	company := identifier(c.Name)
	return DemoPlan{
		Title:       fmt.Sprintf("%s Analytics Demo", c.Name),
		Description: fmt.Sprintf("Unified analytics and search demo for %s covering the %s vertical.", c.Name, c.Vertical),
		Structured1: TableInfo{
			Name:        company + "_ENTITIES",
			Description: "Core business entities",
			Purpose:     "Primary entity records for analytical joins",
		},
		Structured2: TableInfo{
			Name:        company + "_METRICS",
			Description: "Performance metrics per entity",
			Purpose:     "Numeric measures joined to entities",
		},
		Unstructured: TableInfo{
			Name:        company + "_DOCUMENTS_CHUNKS",
			Description: "Searchable document chunks",
			Purpose:     "Text content for semantic search",
		},
	}
}
