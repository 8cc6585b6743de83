package provision

import (
	"context"
	"math/rand"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/demoforge/demoforge/pkg/logger"
	"github.com/demoforge/demoforge/pkg/snowsql"
)

// fakeExecutor answers Cortex COMPLETE calls from a queue of canned
// completions and records every other statement.
type fakeExecutor struct {
	completions []string
	statements  []snowsql.Statement
}

func (f *fakeExecutor) Exec(_ context.Context, stmt snowsql.Statement) (*snowsql.Result, error) {
	if stmt.SQL == completeSQL {
		response := "not json at all"
		if len(f.completions) > 0 {
			response = f.completions[0]
			f.completions = f.completions[1:]
		}
		return &snowsql.Result{Rows: [][]*string{{&response}}}, nil
	}
	f.statements = append(f.statements, stmt)
	return &snowsql.Result{}, nil
}

func (f *fakeExecutor) sqlContaining(fragment string) []string {
	var out []string
	for _, stmt := range f.statements {
		if strings.Contains(stmt.SQL, fragment) {
			out = append(out, stmt.SQL)
		}
	}
	return out
}

func testConfig() Config {
	return Config{
		Company: CompanyProfile{
			Name:     "Acme Corp",
			Domain:   "acme.com",
			Vertical: "Retail",
			Audience: "Executives",
		},
		Database:  "DEMOFORGE_DB",
		Schema:    "DEMOS",
		Warehouse: "DEMOFORGE_WH",
		AgentName: "DEMOFORGE_AGENT",
		Model:     "claude-4-sonnet",
		RowCount:  10,
		MaxChunks: 200,
		Seed:      42,
	}
}

var _ = Describe("entityIDPools", func() {
	rng := rand.New(rand.NewSource(1))

	It("gives each table the requested number of IDs", func() {
		first, second := entityIDPools(40, rng)
		Expect(first).To(HaveLen(40))
		Expect(second).To(HaveLen(40))
	})

	It("keeps IDs unique within each table", func() {
		first, second := entityIDPools(40, rng)
		for _, ids := range [][]int{first, second} {
			seen := map[int]bool{}
			for _, id := range ids {
				Expect(seen[id]).To(BeFalse())
				seen[id] = true
			}
		}
	})

	It("overlaps 70 percent of the second table with the first", func() {
		first, second := entityIDPools(40, rng)
		inFirst := map[int]bool{}
		for _, id := range first {
			inFirst[id] = true
		}
		shared := 0
		for _, id := range second {
			if inFirst[id] {
				shared++
			}
		}
		Expect(shared).To(Equal(28))
	})
})

var _ = Describe("planPrompt", func() {
	It("includes the use cases when given", func() {
		prompt := planPrompt(CompanyProfile{
			Name:     "Acme Corp",
			Domain:   "acme.com",
			Vertical: "Retail",
			Audience: "executives",
			UseCases: "sales analytics, support search",
		})
		Expect(prompt).To(ContainSubstring("- Use cases: sales analytics, support search"))
	})

	It("omits the use cases line when empty", func() {
		prompt := planPrompt(CompanyProfile{
			Name:     "Acme Corp",
			Domain:   "acme.com",
			Vertical: "Retail",
			Audience: "executives",
		})
		Expect(prompt).NotTo(ContainSubstring("Use cases"))
	})
})

var _ = Describe("extractJSONObject", func() {
	It("pulls the object out of surrounding prose", func() {
		raw, ok := extractJSONObject("Here you go:\n```json\n{\"a\": 1}\n```\nEnjoy!")
		Expect(ok).To(BeTrue())
		Expect(raw).To(Equal(`{"a": 1}`))
	})

	It("reports failure when no object is present", func() {
		_, ok := extractJSONObject("no json here")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("extractJSONArray", func() {
	It("pulls the array span", func() {
		raw, ok := extractJSONArray(`sure: ["a", "b"] done`)
		Expect(ok).To(BeTrue())
		Expect(raw).To(Equal(`["a", "b"]`))
	})
})

var _ = Describe("ensureEntityID", func() {
	It("forces ENTITY_ID to the front", func() {
		schema := ensureEntityID(TableSchema{Columns: []Column{
			{Name: "revenue", Type: "FLOAT"},
			{Name: "entity_id", Type: "NUMBER"},
		}})
		Expect(schema.Columns[0].Name).To(Equal("ENTITY_ID"))
		Expect(schema.Columns[0].Type).To(Equal("NUMBER"))
		Expect(schema.Columns).To(HaveLen(2))
		Expect(schema.Columns[1].Name).To(Equal("REVENUE"))
	})
})

var _ = Describe("createTableDDL", func() {
	It("renders ENTITY_ID as the primary key", func() {
		ddl := createTableDDL("DEMOS", "ORDERS", fallbackSchema())
		Expect(ddl).To(ContainSubstring("CREATE OR REPLACE TABLE DEMOS.ORDERS"))
		Expect(ddl).To(ContainSubstring("ENTITY_ID NUMBER PRIMARY KEY"))
		Expect(ddl).To(ContainSubstring("VALUE FLOAT"))
		Expect(ddl).To(ContainSubstring("CREATED_DATE DATE"))
	})
})

var _ = Describe("insertStatements", func() {
	It("batches rows and escapes quotes", func() {
		schema := TableSchema{Columns: []Column{{Name: "NAME", Type: "STRING"}}}
		rows := make([][]string, 120)
		for i := range rows {
			rows[i] = []string{"O'Brien"}
		}

		stmts := insertStatements("DEMOS", "T", schema, rows)
		Expect(stmts).To(HaveLen(3))
		Expect(stmts[0]).To(ContainSubstring("INSERT INTO DEMOS.T (NAME) VALUES"))
		Expect(stmts[0]).To(ContainSubstring("('O''Brien')"))
		Expect(strings.Count(stmts[2], "(")).To(Equal(21))
	})
})

var _ = Describe("chunkRows", func() {
	rng := rand.New(rand.NewSource(7))
	table := TableInfo{Name: "ACME_DOCS_CHUNKS"}

	It("assigns sequential chunk and document IDs", func() {
		rows := chunkRows(fallbackTexts(), 5, table, "Acme Corp", rng)
		Expect(rows).NotTo(BeEmpty())
		Expect(rows[0][0]).To(Equal("CHUNK_00000001"))
		Expect(rows[0][1]).To(Equal("DOC_000001"))
		Expect(rows[len(rows)-1][1]).To(Equal("DOC_000005"))
	})

	It("terminates every chunk with a period and fills metadata", func() {
		rows := chunkRows(fallbackTexts(), 3, table, "Acme Corp", rng)
		for _, row := range rows {
			Expect(strings.HasSuffix(row[2], ".")).To(BeTrue())
			Expect(row[5]).To(Equal("acme_docs"))
			Expect(row[6]).To(Equal("ACME_CORP"))
			Expect(row[8]).To(ContainSubstring("sentence_boundary"))
		}
	})
})

var _ = Describe("semantic elements", func() {
	It("falls back to type-driven facts and dimensions", func() {
		elems := fallbackElements("T1", fallbackSchema(), "T2", fallbackSchema())
		Expect(elems.Facts).NotTo(BeEmpty())
		Expect(elems.Dimensions).NotTo(BeEmpty())
		Expect(elems.Facts[0].TableColumn).To(Equal("T1.VALUE"))
	})

	It("adds missing ENTITY_ID facts per table", func() {
		elems := ensureEntityIDFacts(semanticElements{
			Facts: []semanticElement{{TableColumn: "T1.ENTITY_ID", Name: "ENTITY_ID"}},
		}, "T1", "T2")

		var tables []string
		for _, f := range elems.Facts {
			if strings.HasSuffix(f.TableColumn, ".ENTITY_ID") {
				tables = append(tables, strings.TrimSuffix(f.TableColumn, ".ENTITY_ID"))
			}
		}
		Expect(tables).To(ConsistOf("T1", "T2"))
	})

	It("renders synonyms with underscores and escaped comments", func() {
		sql := renderElements([]semanticElement{{
			TableColumn: "T1.REVENUE",
			Name:        "REVENUE",
			Synonyms:    []string{"total sales", "gross-income"},
			Comment:     "Acme's revenue",
		}})
		Expect(sql).To(ContainSubstring("T1.REVENUE as REVENUE"))
		Expect(sql).To(ContainSubstring("synonyms=('total_sales','gross_income')"))
		Expect(sql).To(ContainSubstring("comment='Acme''s revenue'"))
	})
})

var _ = Describe("searchServiceDDL", func() {
	It("indexes CHUNK_TEXT with the standard attributes", func() {
		ddl, name := searchServiceDDL("DEMOS", "ACME_DOCS_CHUNKS", "DEMOFORGE_WH")
		Expect(name).To(Equal("ACME_DOCS_CHUNKS_SEARCH_SERVICE"))
		Expect(ddl).To(ContainSubstring("CREATE OR REPLACE CORTEX SEARCH SERVICE DEMOS.ACME_DOCS_CHUNKS_SEARCH_SERVICE"))
		Expect(ddl).To(ContainSubstring("ON CHUNK_TEXT"))
		Expect(ddl).To(ContainSubstring("TARGET_LAG = '1 minute'"))
		Expect(ddl).To(ContainSubstring("WAREHOUSE = DEMOFORGE_WH"))
	})
})

var _ = Describe("Pipeline", func() {
	It("rejects a zero row count", func() {
		cfg := testConfig()
		cfg.RowCount = 0
		_, err := NewPipeline(cfg, &fakeExecutor{}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("provisions the full environment from fallbacks when completions are garbage", func() {
		exec := &fakeExecutor{}
		var steps []string

		cfg := testConfig()
		cfg.OnStep = func(s string) { steps = append(steps, s) }

		p, err := NewPipeline(cfg, exec, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		out, err := p.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(exec.sqlContaining("CREATE SCHEMA IF NOT EXISTS DEMOS")).To(HaveLen(1))
		Expect(exec.sqlContaining("CREATE OR REPLACE TABLE")).To(HaveLen(3))
		Expect(exec.sqlContaining("INSERT INTO")).NotTo(BeEmpty())
		Expect(exec.sqlContaining("CREATE OR REPLACE SEMANTIC VIEW")).To(HaveLen(1))
		Expect(exec.sqlContaining("CREATE OR REPLACE CORTEX SEARCH SERVICE")).To(HaveLen(1))
		Expect(exec.sqlContaining("CREATE OR REPLACE AGENT")).To(HaveLen(1))

		Expect(out.Tables).To(HaveLen(3))
		Expect(out.Tables[0].Name).To(Equal("ACME_CORP_ENTITIES"))
		Expect(out.Tables[0].Records).To(Equal(10))
		Expect(out.SemanticView).To(Equal("ACME_CORP_SEMANTIC_VIEW"))
		Expect(out.SearchService).To(HaveSuffix("_SEARCH_SERVICE"))
		Expect(out.AgentName).To(Equal("DEMOFORGE_AGENT"))
		Expect(out.ExampleQueries).NotTo(BeEmpty())
		Expect(out.Guide).To(ContainSubstring("Acme Corp"))
		Expect(out.Guide).To(ContainSubstring("DEMOFORGE_AGENT"))

		Expect(steps).To(ContainElement("Planning demo"))
		Expect(steps).To(ContainElement("Creating agent"))
	})

	It("uses model-provided plan and schemas when they parse", func() {
		exec := &fakeExecutor{completions: []string{
			// plan
			`{"title": "Retail Insights", "description": "Orders and returns.",
			  "structured_1": {"name": "orders", "description": "Orders", "purpose": "Order analytics"},
			  "structured_2": {"name": "returns", "description": "Returns", "purpose": "Return analytics"},
			  "unstructured": {"name": "policies_chunks", "description": "Policies", "purpose": "Search"}}`,
			// schema for ORDERS
			`{"columns": [
			   {"name": "ENTITY_ID", "type": "NUMBER", "description": "Key"},
			   {"name": "ORDER_TOTAL", "type": "FLOAT", "description": "Total", "sample_values": ["10.50", "99.99"]}
			 ]}`,
			// schema for RETURNS
			`{"columns": [
			   {"name": "REASON", "type": "STRING", "description": "Reason", "sample_values": ["Damaged", "Late"]}
			 ]}`,
			// text samples
			`["Return windows were extended during the holiday season. Customers responded positively."]`,
			// semantic elements
			`{"facts": [{"table_column": "ORDERS.ORDER_TOTAL", "name": "ORDER_TOTAL", "synonyms": ["revenue"], "comment": "Order value"}],
			  "dimensions": [{"table_column": "RETURNS.REASON", "name": "REASON", "synonyms": ["cause"], "comment": "Return reason"}],
			  "sample_queries": ["What is the total order value by return reason?"]}`,
		}}

		p, err := NewPipeline(testConfig(), exec, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		out, err := p.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(out.Plan.Title).To(Equal("Retail Insights"))
		Expect(out.Tables[0].Name).To(Equal("ORDERS"))
		Expect(out.Tables[1].Name).To(Equal("RETURNS"))
		Expect(out.Tables[2].Name).To(Equal("POLICIES_CHUNKS"))
		Expect(out.ExampleQueries).To(Equal([]string{"What is the total order value by return reason?"}))

		viewDDL := exec.sqlContaining("CREATE OR REPLACE SEMANTIC VIEW")[0]
		Expect(viewDDL).To(ContainSubstring("ORDERS.ORDER_TOTAL as ORDER_TOTAL"))
		Expect(viewDDL).To(ContainSubstring("ORDERS.ENTITY_ID"))
		Expect(viewDDL).To(ContainSubstring("RETURNS.ENTITY_ID"))
		Expect(viewDDL).To(ContainSubstring("ENTITY_LINK AS ORDERS(ENTITY_ID) REFERENCES RETURNS(ENTITY_ID)"))

		agent := exec.sqlContaining("CREATE OR REPLACE AGENT")[0]
		Expect(agent).To(ContainSubstring("DEMOS.DEMOFORGE_AGENT"))
		Expect(agent).To(ContainSubstring("ACME_CORP_SEMANTIC_VIEW"))
	})
})
