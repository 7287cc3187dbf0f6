package httpserver

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	echo "github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	defaultDialTimeout     = 5 * time.Second
	defaultResponseTimeout = 30 * time.Second
)

// Upstream is one backend service behind the gateway.
type Upstream struct {
	Name            string
	URL             string
	DialTimeout     time.Duration
	ResponseTimeout time.Duration
}

func (u Upstream) transport() *http.Transport {
	dial := u.DialTimeout
	if dial <= 0 {
		dial = defaultDialTimeout
	}
	resp := u.ResponseTimeout
	if resp <= 0 {
		resp = defaultResponseTimeout
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dial, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConnsPerHost:   50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: resp,
	}
}

// proxyTo forwards requests to up with apiPrefix removed from the path.
func proxyTo(up Upstream, apiPrefix string) (echo.HandlerFunc, error) {
	target, err := url.Parse(up.URL)
	if err != nil {
		return nil, fmt.Errorf("%s upstream url: %w", up.Name, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%s upstream url %q must be absolute", up.Name, up.URL)
	}

	rp := &httputil.ReverseProxy{
		Transport:     up.transport(),
		FlushInterval: 100 * time.Millisecond,
		Rewrite: func(pr *httputil.ProxyRequest) {
			// trust a proto set by the TLS terminator in front of us
			proto := pr.In.Header.Get("X-Forwarded-Proto")

			pr.Out.URL.Path = strings.TrimPrefix(pr.Out.URL.Path, apiPrefix)
			pr.Out.URL.RawPath = strings.TrimPrefix(pr.Out.URL.RawPath, apiPrefix)
			pr.SetURL(target)
			pr.SetXForwarded()

			if proto != "" {
				pr.Out.Header.Set("X-Forwarded-Proto", proto)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logging.FromContext(r.Context()).Error("proxy_error",
				"status", http.StatusBadGateway,
				"upstream", up.Name,
				"path", r.URL.Path,
				"error", err,
			)
			w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"success":false,"error":"upstream unavailable"}`))
		},
	}

	return func(c echo.Context) error {
		rp.ServeHTTP(c.Response(), c.Request())
		return nil
	}, nil
}
