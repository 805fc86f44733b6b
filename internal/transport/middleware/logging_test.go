package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LoggingMiddleware", func() {
	var (
		buf  *bytes.Buffer
		seen string
		h    http.Handler
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		lg := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		h = LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			seen = string(body)
			w.WriteHeader(http.StatusTeapot)
		}))
	})

	It("masks form passwords but hands the handler the original body", func() {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=sam&password=hunter2"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		h.ServeHTTP(httptest.NewRecorder(), req)

		Expect(seen).To(Equal("username=sam&password=hunter2"))
		Expect(buf.String()).NotTo(ContainSubstring("hunter2"))
		Expect(buf.String()).To(ContainSubstring("status_code=418"))
	})

	It("masks nested JSON secrets and auth headers", func() {
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"user":{"password":"hunter2"},"email":"a@b.c"}`))
		req.Header.Set("Authorization", "Bearer abc.def")

		h.ServeHTTP(httptest.NewRecorder(), req)

		Expect(buf.String()).NotTo(ContainSubstring("hunter2"))
		Expect(buf.String()).NotTo(ContainSubstring("abc.def"))
		Expect(buf.String()).To(ContainSubstring("a@b.c"))
	})
})

var _ = Describe("filterSensitiveBody", func() {
	It("refuses to echo unparsable bodies that mention a secret", func() {
		Expect(filterSensitiveBody([]byte("token=abc"))).To(Equal("[FILTERED - Contains sensitive data]"))
	})

	It("passes harmless text through", func() {
		Expect(filterSensitiveBody([]byte("hello"))).To(Equal("hello"))
	})
})
