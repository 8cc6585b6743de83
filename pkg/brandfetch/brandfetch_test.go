package brandfetch_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/demoforge/demoforge/pkg/brandfetch"
	"github.com/demoforge/demoforge/pkg/logger"
)

const brandJSON = `{
	"name": "Acme",
	"domain": "acme.com",
	"logos": [
		{"theme": "dark", "type": "logo", "formats": [
			{"src": "https://cdn.example.com/acme-dark.svg", "format": "svg"},
			{"src": "https://cdn.example.com/acme-dark.png", "format": "png"}
		]},
		{"theme": "light", "type": "icon", "formats": [
			{"src": "https://cdn.example.com/acme-icon.png", "format": "png"}
		]}
	],
	"colors": [
		{"hex": "#102030", "type": "dark"},
		{"hex": "#ffffff", "type": "light"},
		{"hex": "#ff6600", "type": "accent"},
		{"hex": "#00ff66", "type": "brand"}
	]
}`

var _ = Describe("New", func() {
	It("requires a token", func() {
		_, err := brandfetch.New("", logger.Nop())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Brand", func() {
	It("fetches and decodes a brand by domain", func() {
		var gotPath, gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			io.WriteString(w, brandJSON)
		}))
		defer server.Close()

		c, err := brandfetch.New("bf-token", logger.Nop(), brandfetch.WithBaseURL(server.URL))
		Expect(err).NotTo(HaveOccurred())

		brand, err := c.Brand(context.Background(), "acme.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(brand.Name).To(Equal("Acme"))
		Expect(brand.Domain).To(Equal("acme.com"))
		Expect(brand.Logos).To(HaveLen(2))
		Expect(brand.Colors).To(HaveLen(4))

		Expect(gotPath).To(Equal("/v2/brands/acme.com"))
		Expect(gotAuth).To(Equal("Bearer bf-token"))
	})

	It("rejects an empty domain", func() {
		c, err := brandfetch.New("bf-token", logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		_, err = c.Brand(context.Background(), "")
		Expect(err).To(HaveOccurred())
	})

	It("returns an error with status and body on non-200", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"brand not found"}`)
		}))
		defer server.Close()

		c, err := brandfetch.New("bf-token", logger.Nop(), brandfetch.WithBaseURL(server.URL))
		Expect(err).NotTo(HaveOccurred())

		_, err = c.Brand(context.Background(), "nope.example")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("status 404"))
		Expect(err.Error()).To(ContainSubstring("brand not found"))
	})

	It("returns an error for malformed JSON", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "{not json")
		}))
		defer server.Close()

		c, err := brandfetch.New("bf-token", logger.Nop(), brandfetch.WithBaseURL(server.URL))
		Expect(err).NotTo(HaveOccurred())

		_, err = c.Brand(context.Background(), "acme.com")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Brand helpers", func() {
	var brand *brandfetch.Brand

	BeforeEach(func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, brandJSON)
		}))
		DeferCleanup(server.Close)

		c, err := brandfetch.New("bf-token", logger.Nop(), brandfetch.WithBaseURL(server.URL))
		Expect(err).NotTo(HaveOccurred())

		brand, err = c.Brand(context.Background(), "acme.com")
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("LogoURLs", func() {
		It("returns up to n logo URLs in order", func() {
			Expect(brand.LogoURLs(3)).To(Equal([]string{
				"https://cdn.example.com/acme-dark.svg",
				"https://cdn.example.com/acme-dark.png",
				"https://cdn.example.com/acme-icon.png",
			}))
		})

		It("caps the result at n", func() {
			Expect(brand.LogoURLs(2)).To(HaveLen(2))
		})

		It("returns fewer than n when the brand has fewer logos", func() {
			Expect(brand.LogoURLs(10)).To(HaveLen(3))
		})
	})

	Describe("ColorHexes", func() {
		It("returns up to n hex values in order", func() {
			Expect(brand.ColorHexes(3)).To(Equal([]string{"#102030", "#ffffff", "#ff6600"}))
		})

		It("returns fewer than n when the palette is smaller", func() {
			Expect(brand.ColorHexes(10)).To(HaveLen(4))
		})
	})
})
