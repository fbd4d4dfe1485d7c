package telemetry

// Span names used for instrumentation outside the HTTP and upstream layers.
const (
	SpanHTTPRequest     = "http.request"
	SpanRouteGeneration = "route.generation"
	SpanStartWorkflow   = "workflow.start"
)
