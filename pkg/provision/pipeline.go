package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/demoforge/demoforge/pkg/snowsql"
)

// Pipeline runs the provisioning stages in order. A single bad completion
// never fails a run; every generation stage has a deterministic fallback.
// Only SQL execution errors abort.
type Pipeline struct {
	cfg    Config
	exec   Executor
	logger *slog.Logger
	rng    *rand.Rand
}

// NewPipeline validates the config and builds a pipeline.
func NewPipeline(cfg Config, exec Executor, logger *slog.Logger) (*Pipeline, error) {
	if exec == nil {
		return nil, errors.New("provision: executor is required")
	}
	if cfg.Company.Name == "" {
		return nil, errors.New("provision: company name is required")
	}
	if cfg.Schema == "" {
		return nil, errors.New("provision: schema is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("provision: model is required")
	}
	if cfg.RowCount < 1 {
		return nil, errors.New("provision: row count must be at least 1")
	}
	if cfg.MaxChunks < 1 {
		return nil, errors.New("provision: max chunks must be at least 1")
	}
	if logger == nil {
		logger = slog.Default()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Pipeline{
		cfg:    cfg,
		exec:   exec,
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

func (p *Pipeline) step(name string) {
	p.logger.Info("provisioning", "step", name)
	if p.cfg.OnStep != nil {
		p.cfg.OnStep(name)
	}
}

func (p *Pipeline) execSQL(ctx context.Context, sql string) error {
	_, err := p.exec.Exec(ctx, snowsql.Statement{
		SQL:       sql,
		Database:  p.cfg.Database,
		Schema:    p.cfg.Schema,
		Warehouse: p.cfg.Warehouse,
	})
	return err
}

// Run executes the full pipeline and returns the outcome.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	p.step("Creating schema")
	if err := p.execSQL(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", p.cfg.Schema)); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	p.step("Planning demo")
	plan := p.plan(ctx)
	out := &Outcome{Plan: plan, AgentName: p.cfg.AgentName}

	ids1, ids2 := entityIDPools(p.cfg.RowCount, p.rng)

	schema1, err := p.createStructuredTable(ctx, plan.Structured1, ids1)
	if err != nil {
		return nil, err
	}
	out.Tables = append(out.Tables, tableResult(plan.Structured1, schema1, p.cfg.RowCount))

	schema2, err := p.createStructuredTable(ctx, plan.Structured2, ids2)
	if err != nil {
		return nil, err
	}
	out.Tables = append(out.Tables, tableResult(plan.Structured2, schema2, p.cfg.RowCount))

	chunkCount, err := p.createChunkTable(ctx, plan.Unstructured)
	if err != nil {
		return nil, err
	}
	out.Tables = append(out.Tables, tableResult(plan.Unstructured, chunkSchema(), chunkCount))

	p.step("Creating semantic view")
	viewDDL, viewName, queries := p.semanticView(ctx, plan, schema1, schema2)
	if err := p.execSQL(ctx, viewDDL); err != nil {
		return nil, fmt.Errorf("creating semantic view: %w", err)
	}
	out.SemanticView = viewName
	out.ExampleQueries = queries

	p.step("Creating search service")
	serviceDDL, serviceName := searchServiceDDL(p.cfg.Schema, plan.Unstructured.Name, p.cfg.Warehouse)
	if err := p.execSQL(ctx, serviceDDL); err != nil {
		return nil, fmt.Errorf("creating search service: %w", err)
	}
	out.SearchService = serviceName

	p.step("Creating agent")
	if err := p.execSQL(ctx, agentDDL(p.cfg.Database, p.cfg.Schema, p.cfg.AgentName, viewName, serviceName, plan)); err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}

	p.step("Writing demo guide")
	out.Guide = buildGuide(p.cfg.Company.Name, out)

	return out, nil
}

func (p *Pipeline) createStructuredTable(ctx context.Context, table TableInfo, entityIDs []int) (TableSchema, error) {
	p.step("Generating " + table.Name)
	schema := p.tableSchema(ctx, table)
	rows := rowsFromSchema(schema, p.cfg.RowCount, entityIDs, p.rng)

	if err := p.execSQL(ctx, createTableDDL(p.cfg.Schema, table.Name, schema)); err != nil {
		return TableSchema{}, fmt.Errorf("creating table %s: %w", table.Name, err)
	}
	for _, stmt := range insertStatements(p.cfg.Schema, table.Name, schema, rows) {
		if err := p.execSQL(ctx, stmt); err != nil {
			return TableSchema{}, fmt.Errorf("loading table %s: %w", table.Name, err)
		}
	}
	return schema, nil
}

func (p *Pipeline) createChunkTable(ctx context.Context, table TableInfo) (int, error) {
	p.step("Generating " + table.Name)
	samples := p.textSamples(ctx, table)
	rows := chunkRows(samples, p.cfg.RowCount, table, p.cfg.Company.Name, p.rng)

	if err := p.execSQL(ctx, createTableDDL(p.cfg.Schema, table.Name, chunkSchema())); err != nil {
		return 0, fmt.Errorf("creating table %s: %w", table.Name, err)
	}
	for _, stmt := range insertStatements(p.cfg.Schema, table.Name, chunkSchema(), rows) {
		if err := p.execSQL(ctx, stmt); err != nil {
			return 0, fmt.Errorf("loading table %s: %w", table.Name, err)
		}
	}
	return len(rows), nil
}

func tableResult(info TableInfo, schema TableSchema, records int) TableResult {
	cols := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		cols[i] = col.Name
	}
	return TableResult{
		Name:        info.Name,
		Records:     records,
		Description: info.Description,
		Columns:     cols,
	}
}
