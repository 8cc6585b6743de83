package credentials_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/demoforge/demoforge/pkg/credentials"
)

var _ = Describe("Manager", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "credentials-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("NewManager", func() {
		It("creates a manager with an override directory", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(mgr).NotTo(BeNil())
			Expect(mgr.GetTarget()).To(Equal(filepath.Join(tmpDir, "credentials.toml")))
		})
	})

	Describe("Load", func() {
		It("returns empty credentials when no file exists", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds).NotTo(BeNil())
			Expect(creds.Providers).To(BeEmpty())
		})

		It("loads existing credentials", func() {
			data := `version = 0

[providers.brandfetch]
api_key = "bf-test-key"
`
			err := os.WriteFile(filepath.Join(tmpDir, "credentials.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Providers).To(HaveKey("brandfetch"))
			Expect(creds.Providers["brandfetch"].APIKey).To(Equal("bf-test-key"))
		})

		It("returns error for malformed TOML", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "credentials.toml"), []byte("not valid [[["), 0o600)
			Expect(err).NotTo(HaveOccurred())

			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			creds, err := mgr.Load()
			Expect(err).To(HaveOccurred())
			Expect(creds).To(BeNil())
		})
	})

	Describe("Save", func() {
		It("persists credentials to disk with restricted permissions", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			creds := &credentials.Credentials{
				Providers: map[string]credentials.ProviderCredential{
					"brandfetch": {APIKey: "bf-test"},
				},
			}
			err = mgr.Save(creds)
			Expect(err).NotTo(HaveOccurred())

			info, err := os.Stat(filepath.Join(tmpDir, "credentials.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
		})

		It("returns error for nil credentials", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = mgr.Save(nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("SetKey", func() {
		It("stores a new token", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = mgr.SetKey("brandfetch", "bf-new-key")
			Expect(err).NotTo(HaveOccurred())

			key, err := mgr.GetKey("brandfetch")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("bf-new-key"))
		})

		It("overwrites an existing token", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = mgr.SetKey("brandfetch", "bf-old")
			Expect(err).NotTo(HaveOccurred())

			err = mgr.SetKey("brandfetch", "bf-new")
			Expect(err).NotTo(HaveOccurred())

			key, err := mgr.GetKey("brandfetch")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("bf-new"))
		})

		It("preserves other provider tokens", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = mgr.SetKey("brandfetch", "bf-token")
			Expect(err).NotTo(HaveOccurred())

			err = mgr.SetKey("snowflake", "sf-token")
			Expect(err).NotTo(HaveOccurred())

			key, err := mgr.GetKey("brandfetch")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("bf-token"))

			key, err = mgr.GetKey("snowflake")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("sf-token"))
		})
	})

	Describe("GetKey", func() {
		It("returns empty string for unknown provider", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			key, err := mgr.GetKey("nonexistent")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(BeEmpty())
		})

		It("falls back to the provider environment variable", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			orig := os.Getenv("BRANDFETCH_API_KEY")
			Expect(os.Setenv("BRANDFETCH_API_KEY", "bf-from-env")).To(Succeed())
			DeferCleanup(func() { os.Setenv("BRANDFETCH_API_KEY", orig) })

			key, err := mgr.GetKey("brandfetch")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("bf-from-env"))
		})

		It("prefers the stored token over the environment", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			orig := os.Getenv("BRANDFETCH_API_KEY")
			Expect(os.Setenv("BRANDFETCH_API_KEY", "bf-from-env")).To(Succeed())
			DeferCleanup(func() { os.Setenv("BRANDFETCH_API_KEY", orig) })

			Expect(mgr.SetKey("brandfetch", "bf-stored")).To(Succeed())

			key, err := mgr.GetKey("brandfetch")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("bf-stored"))
		})
	})

	Describe("RemoveKey", func() {
		It("removes an existing token", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = mgr.SetKey("snowflake", "sf-test")
			Expect(err).NotTo(HaveOccurred())

			err = mgr.RemoveKey("snowflake")
			Expect(err).NotTo(HaveOccurred())

			key, err := mgr.GetKey("snowflake")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(BeEmpty())
		})

		It("is a no-op for nonexistent provider", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = mgr.RemoveKey("nonexistent")
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("ListProviders", func() {
		It("returns empty list when no credentials stored", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			providers, err := mgr.ListProviders()
			Expect(err).NotTo(HaveOccurred())
			Expect(providers).To(BeEmpty())
		})

		It("returns stored providers in sorted order", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = mgr.SetKey("snowflake", "sf-1")
			Expect(err).NotTo(HaveOccurred())
			err = mgr.SetKey("brandfetch", "bf-2")
			Expect(err).NotTo(HaveOccurred())

			providers, err := mgr.ListProviders()
			Expect(err).NotTo(HaveOccurred())
			Expect(providers).To(Equal([]string{"brandfetch", "snowflake"}))
		})
	})
})

var _ = Describe("EnvVarForProvider", func() {
	It("returns BRANDFETCH_API_KEY for brandfetch", func() {
		Expect(credentials.EnvVarForProvider("brandfetch")).To(Equal("BRANDFETCH_API_KEY"))
	})

	It("returns SNOWFLAKE_TOKEN for snowflake", func() {
		Expect(credentials.EnvVarForProvider("snowflake")).To(Equal("SNOWFLAKE_TOKEN"))
	})

	It("returns empty string for unknown provider", func() {
		Expect(credentials.EnvVarForProvider("unknown")).To(BeEmpty())
	})
})

var _ = Describe("SupportedProviders", func() {
	It("returns brandfetch and snowflake", func() {
		providers := credentials.SupportedProviders()
		Expect(providers).To(ConsistOf("brandfetch", "snowflake"))
	})
})

var _ = Describe("IsSupportedProvider", func() {
	It("returns true for supported providers", func() {
		Expect(credentials.IsSupportedProvider("brandfetch")).To(BeTrue())
		Expect(credentials.IsSupportedProvider("snowflake")).To(BeTrue())
	})

	It("returns false for unsupported providers", func() {
		Expect(credentials.IsSupportedProvider("openai")).To(BeFalse())
		Expect(credentials.IsSupportedProvider("unknown")).To(BeFalse())
	})
})
