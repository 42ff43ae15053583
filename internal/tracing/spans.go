package tracing

// Span names.
const (
	SpanEventDetails = "site.event_details"
	SpanRegister     = "site.register"
	SpanCSRFToken    = "site.csrf_token"
)

// Attribute keys.
const (
	AttrEventName   = "event.name"
	AttrHTTPMethod  = "http.request.method"
	AttrHTTPURL     = "url.full"
	AttrHTTPStatus  = "http.response.status_code"
	AttrRequestID   = "request.id"
	AttrHasIdeaFile = "registration.has_idea_file"
	AttrSuccess     = "registration.success"
)
