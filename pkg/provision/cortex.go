package provision

import (
	"context"
	"fmt"

	"github.com/demoforge/demoforge/pkg/snowsql"
)

const completeSQL = "SELECT SNOWFLAKE.CORTEX.COMPLETE(?, ?) AS LLM_RESPONSE"

// complete runs a Cortex COMPLETE call and returns the raw completion text.
func (p *Pipeline) complete(ctx context.Context, prompt string) (string, error) {
	res, err := p.exec.Exec(ctx, snowsql.Statement{
		SQL: completeSQL,
		Bindings: map[string]snowsql.Binding{
			"1": {Type: "TEXT", Value: p.cfg.Model},
			"2": {Type: "TEXT", Value: prompt},
		},
		Database:  p.cfg.Database,
		Schema:    p.cfg.Schema,
		Warehouse: p.cfg.Warehouse,
	})
	if err != nil {
		return "", fmt.Errorf("cortex complete: %w", err)
	}
	return res.FirstCell()
}
