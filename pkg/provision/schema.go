package provision

import (
	"context"
	"encoding/json"
	"fmt"
)

func schemaPrompt(table TableInfo, company string) string {
	return fmt.Sprintf(`You are a data architect creating a realistic table schema for a Snowflake demo.

Table Information:
- Name: %s
- Description: %s
- Purpose: %s
- Company: %s

IMPORTANT: Include an 'ENTITY_ID' column as the first column with type
'NUMBER'. It is the primary key used to join with other tables.

Generate a realistic schema with 6-10 columns. Use the data types STRING,
NUMBER, FLOAT, DATE, TIMESTAMP and BOOLEAN, business-relevant column names,
and three sample values per column.

Return ONLY a JSON object with this structure and no additional text:
{
  "columns": [
    {
      "name": "COLUMN_NAME",
      "type": "DATA_TYPE",
      "description": "What this column represents",
      "sample_values": ["example1", "example2", "example3"]
    }
  ]
}`,
		table.Name, table.Description, table.Purpose, company)
}

// tableSchema asks the model for a schema and falls back to a fixed one on
// parse failure. ENTITY_ID is forced to the front either way.
func (p *Pipeline) tableSchema(ctx context.Context, table TableInfo) TableSchema {
	response, err := p.complete(ctx, schemaPrompt(table, p.cfg.Company.Name))
	if err != nil {
		p.logger.Warn("schema generation failed, using fallback", "table", table.Name, "error", err)
		return fallbackSchema()
	}

	raw, ok := extractJSONObject(response)
	if !ok {
		return fallbackSchema()
	}

	var schema TableSchema
	if err := json.Unmarshal([]byte(raw), &schema); err != nil || len(schema.Columns) == 0 {
		p.logger.Debug("schema response unparseable, using fallback", "table", table.Name)
		return fallbackSchema()
	}

	return ensureEntityID(schema)
}

// ensureEntityID makes ENTITY_ID the first column with type NUMBER.
func ensureEntityID(schema TableSchema) TableSchema {
	cols := make([]Column, 0, len(schema.Columns)+1)
	cols = append(cols, Column{Name: "ENTITY_ID", Type: "NUMBER", Description: "Join key"})
	for _, col := range schema.Columns {
		if identifier(col.Name) == "ENTITY_ID" {
			continue
		}
		col.Name = identifier(col.Name)
		cols = append(cols, col)
	}
	return TableSchema{Columns: cols}
}

func fallbackSchema() TableSchema {
	return TableSchema{Columns: []Column{
		{Name: "ENTITY_ID", Type: "NUMBER", Description: "Join key"},
		{Name: "NAME", Type: "STRING", Description: "Record name", SampleValues: []string{"Alpha", "Beta", "Gamma"}},
		{Name: "CATEGORY", Type: "STRING", Description: "Category", SampleValues: []string{"A", "B", "Premium"}},
		{Name: "VALUE", Type: "FLOAT", Description: "Numeric value"},
		{Name: "STATUS", Type: "STRING", Description: "Record status", SampleValues: []string{"Active", "Inactive", "Pending"}},
		{Name: "CREATED_DATE", Type: "DATE", Description: "Creation date"},
		{Name: "MODIFIED_TIMESTAMP", Type: "TIMESTAMP", Description: "Last modification"},
	}}
}
