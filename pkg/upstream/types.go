package upstream

import (
	"github.com/valyala/fasthttp"
)

// Client fetches manifest documents from the origin. Bodies are buffered;
// media segments are streamed elsewhere and never go through this client.
type Client struct {
	client  *fasthttp.Client
	headers map[string]string
}

// Response is a completed origin fetch. FinalURL is the URL after redirects,
// SetCookies holds the raw Set-Cookie header values issued by the origin.
type Response struct {
	Body       []byte
	StatusCode int
	FinalURL   string
	SetCookies []string
}
