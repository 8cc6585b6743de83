package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// semanticElement is one fact or dimension of the semantic view.
type semanticElement struct {
	TableColumn string   `json:"table_column"`
	Name        string   `json:"name"`
	Synonyms    []string `json:"synonyms"`
	Comment     string   `json:"comment"`
}

type semanticElements struct {
	Facts         []semanticElement `json:"facts"`
	Dimensions    []semanticElement `json:"dimensions"`
	SampleQueries []string          `json:"sample_queries"`
}

func elementsPrompt(plan DemoPlan, company string, t1, t2 string, s1, s2 TableSchema) string {
	return fmt.Sprintf(`You are creating a comprehensive Snowflake semantic view for a demo. Generate facts, dimensions, synonyms and comments.

Demo Context:
- Title: %s
- Description: %s
- Company: %s
- Table 1: %s with columns: %s
- Table 2: %s with columns: %s

FACTS are numeric columns (NUMBER, FLOAT). DIMENSIONS are categorical or
temporal columns (STRING, DATE, TIMESTAMP, BOOLEAN). For each element give
5-8 synonyms using underscores instead of spaces, a business-relevant
comment, and a TABLE_NAME.COLUMN_NAME reference. The "name" field must equal
the column name. Always include ENTITY_ID from each table as a fact.

Return ONLY a JSON object with this structure:
{
  "facts": [
    {"table_column": "TABLE_NAME.COLUMN_NAME", "name": "COLUMN_NAME", "synonyms": ["synonym_1", "synonym_2"], "comment": "..."}
  ],
  "dimensions": [
    {"table_column": "TABLE_NAME.COLUMN_NAME", "name": "COLUMN_NAME", "synonyms": ["synonym_1", "synonym_2"], "comment": "..."}
  ],
  "sample_queries": ["question 1", "question 2", "question 3"]
}`,
		plan.Title, plan.Description, company,
		t1, schemaSummary(s1), t2, schemaSummary(s2))
}

func schemaSummary(s TableSchema) string {
	parts := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		parts[i] = fmt.Sprintf("%s (%s)", col.Name, col.Type)
	}
	return strings.Join(parts, ", ")
}

// semanticView generates the semantic view elements and returns the DDL plus
// the example queries baked into it.
func (p *Pipeline) semanticView(ctx context.Context, plan DemoPlan, s1, s2 TableSchema) (ddl string, viewName string, queries []string) {
	t1 := plan.Structured1.Name
	t2 := plan.Structured2.Name

	elems := p.semanticElements(ctx, plan, t1, t2, s1, s2)
	elems = ensureEntityIDFacts(elems, t1, t2)

	queries = elems.SampleQueries
	if len(queries) == 0 {
		queries = fallbackQueries(plan.Title)
	}

	viewName = identifier(p.cfg.Company.Name) + "_SEMANTIC_VIEW"
	schema := p.cfg.Schema

	description := sqlString(fmt.Sprintf("Semantic view for %s combining %s and %s data", plan.Title, t1, t2))
	ca := caExtension(t1, s1, t2, s2, elems)

	ddl = fmt.Sprintf(`CREATE OR REPLACE SEMANTIC VIEW %s.%s
TABLES (
    %s.%s PRIMARY KEY (ENTITY_ID),
    %s.%s PRIMARY KEY (ENTITY_ID)
)
RELATIONSHIPS (
    ENTITY_LINK AS %s(ENTITY_ID) REFERENCES %s(ENTITY_ID)
)
FACTS (
%s
)
DIMENSIONS (
%s
)
COMMENT = '%s'
WITH EXTENSION (CA='%s')`,
		schema, viewName,
		schema, t1,
		schema, t2,
		t1, t2,
		renderElements(elems.Facts),
		renderElements(elems.Dimensions),
		description, ca)

	return ddl, viewName, queries
}

func (p *Pipeline) semanticElements(ctx context.Context, plan DemoPlan, t1, t2 string, s1, s2 TableSchema) semanticElements {
	response, err := p.complete(ctx, elementsPrompt(plan, p.cfg.Company.Name, t1, t2, s1, s2))
	if err != nil {
		p.logger.Warn("semantic element generation failed, using fallback", "error", err)
		return fallbackElements(t1, s1, t2, s2)
	}

	raw, ok := extractJSONObject(response)
	if !ok {
		return fallbackElements(t1, s1, t2, s2)
	}

	var elems semanticElements
	if err := json.Unmarshal([]byte(raw), &elems); err != nil || (len(elems.Facts) == 0 && len(elems.Dimensions) == 0) {
		p.logger.Debug("semantic element response unparseable, using fallback")
		return fallbackElements(t1, s1, t2, s2)
	}
	return elems
}

// ensureEntityIDFacts adds ENTITY_ID facts for any table the model omitted.
func ensureEntityIDFacts(elems semanticElements, tables ...string) semanticElements {
	have := map[string]bool{}
	for _, f := range elems.Facts {
		if table, col, ok := strings.Cut(f.TableColumn, "."); ok && col == "ENTITY_ID" {
			have[table] = true
		}
	}
	for _, table := range tables {
		if have[table] {
			continue
		}
		elems.Facts = append(elems.Facts, semanticElement{
			TableColumn: table + ".ENTITY_ID",
			Name:        "ENTITY_ID",
			Synonyms:    []string{"id", "entity_key", "record_id", "unique_identifier", "identifier"},
			Comment:     "Unique identifier for joining tables from " + table,
		})
	}
	return elems
}

// renderElements renders the FACTS or DIMENSIONS clause body.
func renderElements(elems []semanticElement) string {
	lines := make([]string, 0, len(elems))
	for _, e := range elems {
		synonyms := make([]string, len(e.Synonyms))
		for i, syn := range e.Synonyms {
			syn = strings.ReplaceAll(syn, " ", "_")
			synonyms[i] = strings.ReplaceAll(syn, "-", "_")
		}
		lines = append(lines, fmt.Sprintf("    %s as %s with synonyms=('%s') comment='%s'",
			e.TableColumn, e.Name, strings.Join(synonyms, "','"), sqlString(e.Comment)))
	}
	return strings.Join(lines, ",\n")
}

func fallbackElements(t1 string, s1 TableSchema, t2 string, s2 TableSchema) semanticElements {
	var elems semanticElements

	for _, pair := range []struct {
		table  string
		schema TableSchema
	}{{t1, s1}, {t2, s2}} {
		for _, col := range pair.schema.Columns {
			if col.Name == "ENTITY_ID" {
				continue
			}
			switch snowflakeType(col.Type) {
			case "NUMBER", "FLOAT":
				elems.Facts = append(elems.Facts, semanticElement{
					TableColumn: pair.table + "." + col.Name,
					Name:        col.Name,
					Synonyms:    []string{"value", "amount", "quantity", "measure", "metric"},
					Comment:     "Numeric value from " + pair.table,
				})
			case "DATE", "TIMESTAMP":
				elems.Dimensions = append(elems.Dimensions, semanticElement{
					TableColumn: pair.table + "." + col.Name,
					Name:        col.Name,
					Synonyms:    []string{"date", "time", "timestamp", "when", "period"},
					Comment:     "Date/time dimension from " + pair.table,
				})
			default:
				elems.Dimensions = append(elems.Dimensions, semanticElement{
					TableColumn: pair.table + "." + col.Name,
					Name:        col.Name,
					Synonyms:    []string{"name", "title", "label", "description", "category"},
					Comment:     "Text dimension from " + pair.table,
				})
			}
		}
	}

	// Keep the clauses small when the model gives us nothing to go on.
	if len(elems.Facts) > 4 {
		elems.Facts = elems.Facts[:4]
	}
	if len(elems.Dimensions) > 3 {
		elems.Dimensions = elems.Dimensions[:3]
	}
	return elems
}

// caExtension builds the CA extension JSON with sample values per element
// and the verified query list, escaped for embedding in the DDL literal.
func caExtension(t1 string, s1 TableSchema, t2 string, s2 TableSchema, elems semanticElements) string {
	type caField struct {
		Name         string   `json:"name"`
		SampleValues []string `json:"sample_values"`
	}
	type caTable struct {
		Name           string    `json:"name"`
		Dimensions     []caField `json:"dimensions"`
		Facts          []caField `json:"facts"`
		TimeDimensions []caField `json:"time_dimensions"`
	}
	type caQuery struct {
		Name       string `json:"name"`
		Question   string `json:"question"`
		SQL        string `json:"sql"`
		Onboarding bool   `json:"use_as_onboarding_question"`
		VerifiedBy string `json:"verified_by"`
		VerifiedAt int64  `json:"verified_at"`
	}

	tables := map[string]*caTable{
		t1: {Name: t1, Dimensions: []caField{}, Facts: []caField{}, TimeDimensions: []caField{}},
		t2: {Name: t2, Dimensions: []caField{}, Facts: []caField{}, TimeDimensions: []caField{}},
	}
	schemas := map[string]TableSchema{t1: s1, t2: s2}

	columnType := func(table, col string) string {
		for _, c := range schemas[table].Columns {
			if c.Name == col {
				return snowflakeType(c.Type)
			}
		}
		return "STRING"
	}

	for _, dim := range elems.Dimensions {
		table, col, ok := strings.Cut(dim.TableColumn, ".")
		if !ok || tables[table] == nil {
			continue
		}
		field := caField{Name: col, SampleValues: caSampleValues(col, columnType(table, col))}
		if t := columnType(table, col); t == "DATE" || t == "TIMESTAMP" {
			tables[table].TimeDimensions = append(tables[table].TimeDimensions, field)
		} else {
			tables[table].Dimensions = append(tables[table].Dimensions, field)
		}
	}
	for _, fact := range elems.Facts {
		table, col, ok := strings.Cut(fact.TableColumn, ".")
		if !ok || tables[table] == nil {
			continue
		}
		tables[table].Facts = append(tables[table].Facts, caField{
			Name:         col,
			SampleValues: caSampleValues(col, columnType(table, col)),
		})
	}

	queries := make([]caQuery, 0, len(elems.SampleQueries))
	for _, q := range elems.SampleQueries {
		queries = append(queries, caQuery{
			Name:       q,
			Question:   q,
			SQL:        fmt.Sprintf("SELECT * FROM %s LIMIT 10", t1),
			VerifiedBy: "Demo Generator",
			VerifiedAt: time.Now().Unix(),
		})
	}

	payload := map[string]any{
		"tables":           []*caTable{tables[t1], tables[t2]},
		"verified_queries": queries,
	}
	raw, _ := json.Marshal(payload)
	return strings.ReplaceAll(string(raw), `"`, `\"`)
}

func caSampleValues(name, sfType string) []string {
	upper := strings.ToUpper(name)
	switch sfType {
	case "NUMBER", "FLOAT":
		if strings.Contains(upper, "ID") {
			return []string{"17", "42", "108"}
		}
		return []string{"125.50", "740.25", "310.00"}
	case "DATE":
		return []string{"2024-01-15", "2024-02-20", "2024-03-10"}
	case "TIMESTAMP":
		return []string{"2024-01-15T10:30:00.000+0000", "2024-02-20T14:15:00.000+0000", "2024-03-10T09:45:00.000+0000"}
	case "BOOLEAN":
		return []string{"TRUE", "FALSE", "TRUE"}
	default:
		switch {
		case strings.Contains(upper, "NAME"):
			return []string{"Alpha", "Beta", "Gamma"}
		case strings.Contains(upper, "STATUS"):
			return []string{"Active", "Inactive", "Pending"}
		default:
			return []string{"Value_A", "Value_B", "Value_C"}
		}
	}
}

func fallbackQueries(title string) []string {
	return []string{
		fmt.Sprintf("What are the top performing entities in the %s data this quarter?", title),
		"Show me trends and patterns across all data over the last 6 months",
		"Which categories have the highest performance and lowest costs?",
	}
}
