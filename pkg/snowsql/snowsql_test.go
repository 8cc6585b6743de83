package snowsql_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/demoforge/demoforge/pkg/logger"
	"github.com/demoforge/demoforge/pkg/snowsql"
)

func newClient(serverURL string) *snowsql.Client {
	c, err := snowsql.New(snowsql.Config{
		AccountURL: serverURL,
		Token:      "sf-token",
	}, logger.Nop(), snowsql.WithPollInterval(5*time.Millisecond))
	Expect(err).NotTo(HaveOccurred())
	return c
}

var _ = Describe("New", func() {
	It("requires an account URL", func() {
		_, err := snowsql.New(snowsql.Config{Token: "t"}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("requires a token", func() {
		_, err := snowsql.New(snowsql.Config{AccountURL: "https://x"}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Exec", func() {
	It("posts the statement with context fields and returns rows", func() {
		var gotPath, gotAuth string
		var gotBody map[string]any

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			raw, _ := io.ReadAll(r.Body)
			Expect(json.Unmarshal(raw, &gotBody)).To(Succeed())

			io.WriteString(w, `{
				"statementHandle": "h-1",
				"resultSetMetaData": {"rowType": [{"name": "ID"}, {"name": "NAME"}]},
				"data": [["1", "alpha"], ["2", null]]
			}`)
		}))
		defer server.Close()

		c := newClient(server.URL)

		res, err := c.Exec(context.Background(), snowsql.Statement{
			SQL:       "SELECT * FROM T",
			Database:  "DEMOFORGE_DB",
			Schema:    "DEMOS",
			Warehouse: "DEMOFORGE_WH",
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(gotPath).To(Equal("/api/v2/statements"))
		Expect(gotAuth).To(Equal("Bearer sf-token"))
		Expect(gotBody["statement"]).To(Equal("SELECT * FROM T"))
		Expect(gotBody["database"]).To(Equal("DEMOFORGE_DB"))
		Expect(gotBody["schema"]).To(Equal("DEMOS"))
		Expect(gotBody["warehouse"]).To(Equal("DEMOFORGE_WH"))

		Expect(res.Columns).To(Equal([]string{"ID", "NAME"}))
		Expect(res.Rows).To(HaveLen(2))
		Expect(*res.Rows[0][0]).To(Equal("1"))
		Expect(*res.Rows[0][1]).To(Equal("alpha"))
		Expect(res.Rows[1][1]).To(BeNil())
	})

	It("sends bindings when present", func() {
		var gotBody struct {
			Bindings map[string]snowsql.Binding `json:"bindings"`
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			Expect(json.Unmarshal(raw, &gotBody)).To(Succeed())
			io.WriteString(w, `{"data": [["ok"]]}`)
		}))
		defer server.Close()

		c := newClient(server.URL)

		_, err := c.Exec(context.Background(), snowsql.Statement{
			SQL: "SELECT ?",
			Bindings: map[string]snowsql.Binding{
				"1": {Type: "TEXT", Value: "hello"},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(gotBody.Bindings).To(HaveKeyWithValue("1", snowsql.Binding{Type: "TEXT", Value: "hello"}))
	})

	It("polls the handle after a 202 until the statement completes", func() {
		var polls int

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Method == http.MethodPost:
				w.WriteHeader(http.StatusAccepted)
				io.WriteString(w, `{"statementHandle": "h-async", "message": "Statement executing"}`)
			case r.Method == http.MethodGet && r.URL.Path == "/api/v2/statements/h-async":
				polls++
				if polls < 3 {
					w.WriteHeader(http.StatusAccepted)
					io.WriteString(w, `{"statementHandle": "h-async"}`)
					return
				}
				io.WriteString(w, `{"statementHandle": "h-async", "data": [["done"]]}`)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		c := newClient(server.URL)

		res, err := c.Exec(context.Background(), snowsql.Statement{SQL: "CALL LONG_RUNNING()"})
		Expect(err).NotTo(HaveOccurred())
		Expect(polls).To(Equal(3))

		cell, err := res.FirstCell()
		Expect(err).NotTo(HaveOccurred())
		Expect(cell).To(Equal("done"))
	})

	It("stops polling when the context is cancelled", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			io.WriteString(w, `{"statementHandle": "h-stuck"}`)
		}))
		defer server.Close()

		c := newClient(server.URL)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		_, err := c.Exec(ctx, snowsql.Statement{SQL: "CALL NEVER_DONE()"})
		Expect(err).To(HaveOccurred())
	})

	It("returns a truncated error body on failure statuses", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			io.WriteString(w, `{"message": "SQL compilation error"}`)
		}))
		defer server.Close()

		c := newClient(server.URL)

		_, err := c.Exec(context.Background(), snowsql.Statement{SQL: "SELECT FROM"})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("status 422"))
		Expect(err.Error()).To(ContainSubstring("SQL compilation error"))
	})

	It("rejects an empty statement", func() {
		c := newClient("https://unused.example")
		_, err := c.Exec(context.Background(), snowsql.Statement{})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("FirstCell", func() {
	It("errors on an empty result", func() {
		res := &snowsql.Result{}
		_, err := res.FirstCell()
		Expect(err).To(HaveOccurred())
	})

	It("errors on a NULL cell", func() {
		res := &snowsql.Result{Rows: [][]*string{{nil}}}
		_, err := res.FirstCell()
		Expect(err).To(HaveOccurred())
	})
})
