package sqlite_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/demoforge/demoforge/pkg/storage"
	"github.com/demoforge/demoforge/pkg/storage/sqlite"
)

func testSession(id string) *storage.Session {
	now := time.Now().UTC()
	return &storage.Session{
		ID:              id,
		CompanyName:     "Acme Corp",
		Domain:          "acme.com",
		Vertical:        "Retail",
		Audience:        "Executives",
		RecordsPerTable: 40,
		State:           "form",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

var _ = Describe("Driver", func() {
	var (
		driver *sqlite.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		driver, err = sqlite.NewDriver(":memory:")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(driver.Close()).To(Succeed())
	})

	Describe("sessions", func() {
		It("round-trips a session", func() {
			s := testSession("s-1")
			Expect(driver.PutSession(ctx, s)).To(Succeed())

			got, err := driver.GetSession(ctx, "s-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.CompanyName).To(Equal("Acme Corp"))
			Expect(got.RecordsPerTable).To(Equal(40))
			Expect(got.CreatedAt).To(BeTemporally("~", s.CreatedAt, time.Second))
		})

		It("updates an existing session in place", func() {
			s := testSession("s-1")
			Expect(driver.PutSession(ctx, s)).To(Succeed())

			s.State = "chat"
			s.LogoURL = "https://cdn/logo.svg"
			s.ColorHex = "#112233"
			Expect(driver.PutSession(ctx, s)).To(Succeed())

			got, err := driver.GetSession(ctx, "s-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.State).To(Equal("chat"))
			Expect(got.LogoURL).To(Equal("https://cdn/logo.svg"))

			sessions, err := driver.ListSessions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(1))
		})

		It("returns ErrNotFound for a missing session", func() {
			_, err := driver.GetSession(ctx, "nope")
			Expect(err).To(MatchError(storage.ErrNotFound{ID: "nope"}))
		})

		It("lists sessions newest first", func() {
			older := testSession("s-old")
			older.CreatedAt = time.Now().UTC().Add(-time.Hour)
			Expect(driver.PutSession(ctx, older)).To(Succeed())
			Expect(driver.PutSession(ctx, testSession("s-new"))).To(Succeed())

			sessions, err := driver.ListSessions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(2))
			Expect(sessions[0].ID).To(Equal("s-new"))
		})
	})

	Describe("turns", func() {
		BeforeEach(func() {
			Expect(driver.PutSession(ctx, testSession("s-1"))).To(Succeed())
		})

		It("round-trips turns with charts in order", func() {
			first := &storage.Turn{
				ID:        "t-1",
				SessionID: "s-1",
				Question:  "show revenue",
				Answer:    "Revenue is up.",
				Thinking:  "querying the view",
				Charts:    []string{`{"mark":"bar"}`, `{"mark":"line"}`},
				CreatedAt: time.Now().UTC().Add(-time.Minute),
			}
			second := &storage.Turn{
				ID:        "t-2",
				SessionID: "s-1",
				Question:  "and costs?",
				Answer:    "Costs are flat.",
				CreatedAt: time.Now().UTC(),
			}
			Expect(driver.PutTurn(ctx, first)).To(Succeed())
			Expect(driver.PutTurn(ctx, second)).To(Succeed())

			turns, err := driver.ListTurns(ctx, "s-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(turns).To(HaveLen(2))
			Expect(turns[0].ID).To(Equal("t-1"))
			Expect(turns[0].Charts).To(Equal([]string{`{"mark":"bar"}`, `{"mark":"line"}`}))
			Expect(turns[1].Charts).To(BeEmpty())
		})

		It("returns no turns for an unknown session", func() {
			turns, err := driver.ListTurns(ctx, "other")
			Expect(err).NotTo(HaveOccurred())
			Expect(turns).To(BeEmpty())
		})
	})
})
