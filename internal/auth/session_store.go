package auth

import (
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth/gothic"
)

const sessionMaxAge = 86400 * 30

// InitializeSessionStore sets up the cookie store gothic keeps OAuth state in
func InitializeSessionStore(secret string, secure bool) {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store
}

// GothicRequest rebuilds the net/http request gothic expects from a fiber context.
// The provider is passed as a query parameter, which is where gothic looks first.
func GothicRequest(c *fiber.Ctx, provider string) *http.Request {
	query := url.Values{}
	c.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
		query.Add(string(key), string(value))
	})
	query.Set("provider", provider)

	req := &http.Request{
		Method: http.MethodGet,
		URL: &url.URL{
			Scheme:   c.Protocol(),
			Host:     c.Hostname(),
			Path:     c.Path(),
			RawQuery: query.Encode(),
		},
		Header:     make(http.Header),
		RemoteAddr: c.IP(),
	}

	c.Request().Header.VisitAll(func(key, value []byte) {
		req.Header.Add(string(key), string(value))
	})

	return req.WithContext(c.UserContext())
}

// ResponseWriter adapts a fiber context to http.ResponseWriter so gothic can set
// its session cookie on the response.
type ResponseWriter struct {
	ctx     *fiber.Ctx
	headers http.Header
}

func NewResponseWriter(c *fiber.Ctx) *ResponseWriter {
	return &ResponseWriter{ctx: c, headers: make(http.Header)}
}

func (w *ResponseWriter) Header() http.Header {
	return w.headers
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	w.flushHeaders()
	w.ctx.Response().AppendBody(b)
	return len(b), nil
}

func (w *ResponseWriter) WriteHeader(statusCode int) {
	w.flushHeaders()
	w.ctx.Status(statusCode)
}

// Flush copies headers written by gothic, such as Set-Cookie, onto the fiber response
func (w *ResponseWriter) Flush() {
	w.flushHeaders()
}

func (w *ResponseWriter) flushHeaders() {
	for key, values := range w.headers {
		for _, v := range values {
			w.ctx.Response().Header.Add(key, v)
		}
	}
	w.headers = make(http.Header)
}
