package upstream

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// ErrUnavailable marks a fetch that failed with a network error, a timeout or
// a non-success status from the origin.
var ErrUnavailable = errors.New("upstream unavailable")

// DefaultHeaders returns the request headers sent on every origin call.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		"Accept":     "*/*",
	}
}

func NewClient(headers map[string]string, timeout int) *Client {
	return &Client{
		client: &fasthttp.Client{
			ReadTimeout:  time.Duration(timeout) * time.Second,
			WriteTimeout: time.Duration(timeout) * time.Second,
		},
		headers: headers,
	}
}

// Fetch issues a GET against uri, following redirects and forwarding the
// given cookies. Non-success responses are reported as ErrUnavailable.
func (u *Client) Fetch(uri string, cookies map[string]string) (*Response, error) {
	const maxRedirects = 10
	currentURL := uri

	for i := 0; i < maxRedirects; i++ {
		req := fasthttp.AcquireRequest()

		req.SetRequestURI(currentURL)
		req.Header.SetMethod(fasthttp.MethodGet)

		for key, value := range u.headers {
			req.Header.Set(key, value)
		}
		for key, value := range cookies {
			req.Header.SetCookie(key, value)
		}

		resp := fasthttp.AcquireResponse()
		err := u.client.Do(req, resp)
		fasthttp.ReleaseRequest(req)
		if err != nil {
			fasthttp.ReleaseResponse(resp)
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		statusCode := resp.StatusCode()

		if statusCode/100 == 3 { // Handle redirects (3xx status codes)
			location := resp.Header.Peek("Location")
			if location == nil {
				fasthttp.ReleaseResponse(resp)
				return nil, fmt.Errorf("%w: redirect response missing Location header", ErrUnavailable)
			}

			// Resolve the new URL relative to the current URL
			newURL := string(location)
			if !strings.HasPrefix(newURL, "http") {
				baseURL, err := url.Parse(currentURL)
				if err != nil {
					fasthttp.ReleaseResponse(resp)
					return nil, fmt.Errorf("failed to parse base URL: %w", err)
				}
				relativeURL, err := url.Parse(newURL)
				if err != nil {
					fasthttp.ReleaseResponse(resp)
					return nil, fmt.Errorf("failed to parse relative URL: %w", err)
				}
				currentURL = baseURL.ResolveReference(relativeURL).String()
			} else {
				currentURL = newURL
			}

			fasthttp.ReleaseResponse(resp)
			continue
		}

		if statusCode/100 != 2 {
			fasthttp.ReleaseResponse(resp)
			return nil, fmt.Errorf("%w: http response code (%d)", ErrUnavailable, statusCode)
		}

		body := make([]byte, len(resp.Body()))
		copy(body, resp.Body())

		setCookies := make([]string, 0)
		resp.Header.VisitAllCookie(func(key, value []byte) {
			setCookies = append(setCookies, string(value))
		})

		fasthttp.ReleaseResponse(resp)

		return &Response{
			Body:       body,
			StatusCode: statusCode,
			FinalURL:   currentURL,
			SetCookies: setCookies,
		}, nil
	}

	return nil, fmt.Errorf("%w: too many redirects", ErrUnavailable)
}
