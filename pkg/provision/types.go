// Package provision synthesizes a demo environment in Snowflake: two
// joinable structured tables, one unstructured chunk table, a semantic view,
// a Cortex Search service, and an agent definition, all generated from
// Cortex COMPLETE calls with deterministic fallbacks.
package provision

import (
	"context"

	"github.com/demoforge/demoforge/pkg/snowsql"
)

// Executor runs SQL statements. *snowsql.Client satisfies it.
type Executor interface {
	Exec(ctx context.Context, stmt snowsql.Statement) (*snowsql.Result, error)
}

// CompanyProfile describes the company the demo is built for.
type CompanyProfile struct {
	Name        string
	Domain      string
	Vertical    string
	SubVertical string
	Audience    string
	UseCases    string
}

// TableInfo names one table in the demo plan.
type TableInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Purpose     string `json:"purpose"`
}

// DemoPlan is the overall shape of the demo: a title, a description and
// three tables (two structured, one unstructured chunk table).
type DemoPlan struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Structured1  TableInfo `json:"structured_1"`
	Structured2  TableInfo `json:"structured_2"`
	Unstructured TableInfo `json:"unstructured"`
}

// Column is one column of a generated table schema.
type Column struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Description  string   `json:"description"`
	SampleValues []string `json:"sample_values"`
}

// TableSchema is an LLM-generated schema for a structured table.
type TableSchema struct {
	Columns []Column `json:"columns"`
}

// TableResult summarizes one created object.
type TableResult struct {
	Name        string
	Records     int
	Description string
	Columns     []string
}

// Outcome is everything the pipeline created.
type Outcome struct {
	Plan           DemoPlan
	Tables         []TableResult
	SemanticView   string
	ExampleQueries []string
	SearchService  string
	AgentName      string
	Guide          string
}

// Config controls a provisioning run.
type Config struct {
	Company   CompanyProfile
	Database  string
	Schema    string
	Warehouse string
	AgentName string

	// Model is the Cortex COMPLETE model used for generation.
	Model string
	// RowCount is the number of rows per structured table.
	RowCount int
	// MaxChunks caps the number of text samples requested for the
	// unstructured table.
	MaxChunks int

	// Seed fixes the random source. Zero means time-seeded.
	Seed int64

	// OnStep, when set, receives a short description as each pipeline
	// stage starts.
	OnStep func(step string)
}
