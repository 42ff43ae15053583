package site

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nexusofthings/nexus/internal/log"
	"github.com/nexusofthings/nexus/internal/tracing"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	detailsPath  = "/get-event-details/"
	registerPath = "/register-participant/"

	// Bodies of failed replies are read up to this size for the debug log.
	maxErrorBody = 4 << 10
)

// Client talks to one event site.
type Client struct {
	base       *url.URL
	doer       Doer
	tokens     TokenProvider
	tracer     trace.Tracer
	csrfHeader string
}

// Option configures a Client.
type Option func(*Client)

// WithDoer sets the HTTP client.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithTokens sets the CSRF token provider.
func WithTokens(p TokenProvider) Option {
	return func(c *Client) { c.tokens = p }
}

// WithTracer sets the tracer used for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithCSRFHeader overrides the header the token is sent in.
func WithCSRFHeader(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.csrfHeader = name
		}
	}
}

// NewClient returns a client for the site at baseURL. Without options it
// uses a cookie-jar HTTP client and reads the token from that jar.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", baseURL)
	}

	c := &Client{
		base:       base,
		tracer:     noop.NewTracerProvider().Tracer("site"),
		csrfHeader: DefaultCSRFHeader,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.doer == nil {
		hc, err := NewHTTPClient(0)
		if err != nil {
			return nil, err
		}
		c.doer = hc
		if c.tokens == nil {
			c.tokens = NewCookieTokens(hc.Jar, hc, base, DefaultCSRFCookie, 0)
		}
	}
	if c.tokens == nil {
		c.tokens = StaticToken("")
	}
	return c, nil
}

// BaseURL returns the site root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// DetailsURL is the detail endpoint for name. The name is escaped as a
// URI component: reserved characters such as & = + : @ are percent-encoded
// and spaces become %20.
func (c *Client) DetailsURL(name string) string {
	return c.base.String() + detailsPath + escapeComponent(name) + "/"
}

func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// RegisterURL is the registration endpoint.
func (c *Client) RegisterURL() string {
	return c.base.String() + registerPath
}

// EventDetails fetches the details of the named event.
func (c *Client) EventDetails(ctx context.Context, name string) (EventDetails, error) {
	target := c.DetailsURL(name)
	ctx, span := c.tracer.Start(ctx, tracing.SpanEventDetails, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(tracing.AttrEventName, name),
			attribute.String(tracing.AttrHTTPMethod, http.MethodGet),
			attribute.String(tracing.AttrHTTPURL, target),
		))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return EventDetails{}, c.fail(span, fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	c.tagRequest(req, span)

	resp, err := c.doer.Do(req)
	if err != nil {
		return EventDetails{}, c.fail(span, &TransportError{Op: "request", URL: target, Err: err})
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int(tracing.AttrHTTPStatus, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warn(log.CatHTTP, "event details request failed", "event", name, "status", resp.StatusCode, "body", string(body))
		return EventDetails{}, c.fail(span, &StatusError{Code: resp.StatusCode, URL: target})
	}

	var details EventDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return EventDetails{}, c.fail(span, &TransportError{Op: "decode", URL: target, Err: err})
	}

	log.Debug(log.CatHTTP, "event details loaded", "event", name, "title", details.Title,
		"coordinators", len(details.StudentCoordinators))
	span.SetStatus(codes.Ok, "")
	return details, nil
}

// Register posts the submission. A reply with success=false comes back as
// the decoded result together with a *RejectedError.
func (c *Client) Register(ctx context.Context, sub Submission) (RegistrationResult, error) {
	target := c.RegisterURL()
	ctx, span := c.tracer.Start(ctx, tracing.SpanRegister, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(tracing.AttrEventName, sub.EventName),
			attribute.String(tracing.AttrHTTPMethod, http.MethodPost),
			attribute.String(tracing.AttrHTTPURL, target),
			attribute.Bool(tracing.AttrHasIdeaFile, sub.IdeaFile != ""),
		))
	defer span.End()

	body, contentType, err := encodeSubmission(sub)
	if err != nil {
		return RegistrationResult{}, c.fail(span, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return RegistrationResult{}, c.fail(span, fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	c.tagRequest(req, span)

	token, err := c.tokens.Token(ctx)
	if err != nil {
		// The site decides what a missing token means; send an empty header.
		log.Warn(log.CatHTTP, "no csrf token for registration", "error", err)
	}
	req.Header.Set(c.csrfHeader, token)

	resp, err := c.doer.Do(req)
	if err != nil {
		return RegistrationResult{}, c.fail(span, &TransportError{Op: "request", URL: target, Err: err})
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int(tracing.AttrHTTPStatus, resp.StatusCode))

	if resp.StatusCode == http.StatusForbidden {
		if inv, ok := c.tokens.(Invalidator); ok {
			inv.Invalidate(ctx)
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return RegistrationResult{}, c.fail(span, &TransportError{Op: "read", URL: target, Err: err})
	}

	var result RegistrationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			log.Warn(log.CatHTTP, "registration failed", "status", resp.StatusCode, "body", truncate(raw))
			return RegistrationResult{}, c.fail(span, &StatusError{Code: resp.StatusCode, URL: target})
		}
		return RegistrationResult{}, c.fail(span, &TransportError{Op: "decode", URL: target, Err: err})
	}
	span.SetAttributes(attribute.Bool(tracing.AttrSuccess, result.Success))

	if !result.Success {
		log.Info(log.CatHTTP, "registration rejected", "event", sub.EventName, "status", resp.StatusCode, "message", result.Message)
		return result, c.fail(span, &RejectedError{Status: resp.StatusCode, Message: result.Message})
	}

	result.RedirectURL = c.resolve(result.RedirectURL)
	log.Info(log.CatHTTP, "registration accepted", "event", sub.EventName, "team", sub.TeamName, "code", result.TeamCode)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

// resolve makes a site-relative link absolute. Unparsable links are kept.
func (c *Client) resolve(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.base.ResolveReference(u).String()
}

func (c *Client) tagRequest(req *http.Request, span trace.Span) {
	id := uuid.NewString()
	req.Header.Set("X-Request-ID", id)
	span.SetAttributes(attribute.String(tracing.AttrRequestID, id))
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		log.ErrorErr(log.CatHTTP, "site request failed", err)
	}
	return err
}

// encodeSubmission builds the multipart body, reading the idea file from
// disk when one is set.
func encodeSubmission(sub Submission) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range sub.Fields() {
		if err := w.WriteField(f.Key, f.Value); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f.Key, err)
		}
	}

	if sub.IdeaFile != "" {
		if err := writeFilePart(w, "idea_file", sub.IdeaFile); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path) //nolint:gosec // G304: the user picked this file to upload
	if err != nil {
		return fmt.Errorf("opening %s: %w", field, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("reading %s: %w", field, err)
	}
	if info.Size() > MaxIdeaFileSize {
		return fmt.Errorf("%s is %d bytes, limit is %d", filepath.Base(path), info.Size(), MaxIdeaFileSize)
	}

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("creating %s part: %w", field, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copying %s: %w", field, err)
	}
	return nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
