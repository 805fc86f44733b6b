package internal_test

import (
	"encoding/base64"
	"strings"

	"github.com/frahmantamala/construction-dashboard/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	valid := func() *internal.Config {
		cfg := &internal.Config{
			Backend:       internal.BackendConfig{BaseURL: "http://localhost:8000"},
			TokenStore:    internal.TokenStoreConfig{Driver: "memory"},
			Observability: internal.ObservabilityConfig{},
		}
		cfg.ApplyDefaults()
		return cfg
	}

	Describe("ApplyDefaults", func() {
		It("fills the zero values of a partial file", func() {
			cfg := &internal.Config{}
			cfg.ApplyDefaults()

			Expect(cfg.Backend.Timeout).To(Equal(internal.DefaultBackendTimeout))
			Expect(cfg.Backend.PageLimit).To(Equal(internal.DefaultPageLimit))
			Expect(cfg.Dashboard.Host).To(Equal(internal.DefaultDashboardHost))
			Expect(cfg.Dashboard.Port).To(Equal(internal.DefaultDashboardPort))
			Expect(cfg.TokenStore.Driver).To(Equal("file"))
			Expect(cfg.TokenStore.Path).To(Equal(internal.DefaultTokenPath))
			Expect(cfg.TokenStore.KeyName).To(Equal(internal.DefaultTokenKeyName))
			Expect(cfg.Observability.Tracing.ServiceName).To(Equal(internal.DefaultServiceName))
			Expect(cfg.Observability.Logging.Level).To(Equal("info"))
			Expect(cfg.Observability.Logging.Format).To(Equal("text"))
		})

		It("keeps explicit values", func() {
			cfg := &internal.Config{Dashboard: internal.DashboardConfig{Host: "0.0.0.0", Port: 9000}}
			cfg.ApplyDefaults()

			Expect(cfg.Dashboard.Host).To(Equal("0.0.0.0"))
			Expect(cfg.Dashboard.Port).To(Equal(9000))
		})
	})

	Describe("Validate", func() {
		It("accepts the defaults", func() {
			Expect(valid().Validate()).To(Succeed())
		})

		It("rejects a backend url without http scheme", func() {
			cfg := valid()
			cfg.Backend.BaseURL = "ftp://backend"
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("backend config")))
		})

		It("requires a dsn for postgres", func() {
			cfg := valid()
			cfg.TokenStore.Driver = "postgres"
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("dsn is required")))
		})

		It("rejects an unknown token store driver", func() {
			cfg := valid()
			cfg.TokenStore.Driver = "redis"
			Expect(cfg.Validate()).To(MatchError(ContainSubstring(`unknown driver "redis"`)))
		})

		It("rejects a read timeout shorter than the header timeout", func() {
			cfg := valid()
			cfg.Dashboard.ReadHeaderTimeout = cfg.Dashboard.ReadTimeout + 1
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("read_timeout")))
		})

		It("reports every broken section at once", func() {
			cfg := valid()
			cfg.Backend.BaseURL = ""
			cfg.Observability.Logging.Level = "trace"
			err := cfg.Validate()
			Expect(err).To(HaveOccurred())
			Expect(strings.Count(err.Error(), ";")).To(Equal(1))
		})
	})

	Describe("GetSealKey", func() {
		It("is off when no key is configured", func() {
			key, err := (&internal.TokenStoreConfig{}).GetSealKey()
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(BeNil())
		})

		It("decodes a 32 byte key", func() {
			raw := []byte(strings.Repeat("k", 32))
			cfg := &internal.TokenStoreConfig{SealKey: base64.StdEncoding.EncodeToString(raw)}
			key, err := cfg.GetSealKey()
			Expect(err).NotTo(HaveOccurred())
			Expect(key[:]).To(Equal(raw))
		})

		It("rejects a short key", func() {
			cfg := &internal.TokenStoreConfig{SealKey: base64.StdEncoding.EncodeToString([]byte("short"))}
			_, err := cfg.GetSealKey()
			Expect(err).To(MatchError(ContainSubstring("32 bytes")))
		})
	})
})
