package transport_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/frahmantamala/construction-dashboard/internal"
	"github.com/frahmantamala/construction-dashboard/internal/transport"
	"github.com/frahmantamala/construction-dashboard/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

var _ = Describe("BaseHandler.DecodeBody", func() {
	var (
		handler *transport.BaseHandler
		got     credentials
	)

	fromForm := func(values map[string][]string) {
		form := url.Values(values)
		got = credentials{Username: form.Get("username"), Password: form.Get("password")}
	}

	BeforeEach(func() {
		handler = transport.NewBaseHandler(logger.Discard())
		got = credentials{}
	})

	It("reads a url-encoded form", func() {
		body := url.Values{"username": {"maria"}, "password": {"secret"}}.Encode()
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		Expect(handler.DecodeBody(req, &got, fromForm)).To(Succeed())
		Expect(got).To(Equal(credentials{Username: "maria", Password: "secret"}))
	})

	It("reads a multipart form", func() {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		Expect(mw.WriteField("username", "maria")).To(Succeed())
		Expect(mw.WriteField("password", "secret")).To(Succeed())
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, "/login", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		Expect(handler.DecodeBody(req, &got, fromForm)).To(Succeed())
		Expect(got).To(Equal(credentials{Username: "maria", Password: "secret"}))
	})

	It("rejects a multipart body without a boundary", func() {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("garbage"))
		req.Header.Set("Content-Type", "multipart/form-data")

		err := handler.DecodeBody(req, &got, fromForm)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
	})

	It("decodes JSON otherwise", func() {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"maria","password":"secret"}`))
		req.Header.Set("Content-Type", "application/json")

		Expect(handler.DecodeBody(req, &got, fromForm)).To(Succeed())
		Expect(got.Username).To(Equal("maria"))
	})

	It("decodes JSON when the caller takes no form", func() {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"maria"}`))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		Expect(handler.DecodeBody(req, &got, nil)).To(Succeed())
		Expect(got.Username).To(Equal("maria"))
	})
})
