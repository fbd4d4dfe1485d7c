package http_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

// findOpenAPISpec locates the openapi.yaml file by walking up from the test directory.
func findOpenAPISpec(t *testing.T) string {
	dir, _ := os.Getwd()

	// Look for api/openapi.yaml by going up directories
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}

	t.Fatalf("could not find api/openapi.yaml")
	return ""
}

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	data, err := os.ReadFile(findOpenAPISpec(t))
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}

	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}
	return spec
}

// TestOpenAPISpec validates the OpenAPI specification is valid.
func TestOpenAPISpec(t *testing.T) {
	spec := loadSpec(t)

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/v1/auth/url",
		"/v1/auth/callback",
		"/v1/auth/login",
		"/v1/auth/logout",
		"/v1/geo/decode",
		"/v1/geo/region",
		"/v1/geo/encode",
		"/v1/segments/starred",
		"/v1/segments/summary",
		"/v1/segments/region",
		"/v1/segments/batch",
		"/v1/segments/{id}",
		"/v1/routes",
		"/v1/routes/optimize",
		"/v1/routes/optimize/async",
		"/v1/routes/history",
		"/v1/routes/history/{id}",
		"/v1/routes/{id}",
		"/v1/routes/{id}/export/{format}",
		"/v1/route/my-routes",
		"/graphql",
	}

	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found in spec", path)
		}
	}

	if op := spec.Paths.Find("/v1/route/my-routes").Get; op == nil || !op.Deprecated {
		t.Error("expected /v1/route/my-routes to be marked deprecated")
	}

	expectedSchemas := []string{
		"Coordinate",
		"Region",
		"Segment",
		"SegmentView",
		"SegmentSummary",
		"RouteConfig",
		"RoutePreview",
		"UserRoute",
		"RouteRecord",
		"Session",
		"APIError",
		"Pagination",
	}

	for _, schema := range expectedSchemas {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	t.Logf("OpenAPI spec valid: %d paths, %d schemas", len(spec.Paths.Map()), len(spec.Components.Schemas))
}

// TestOpenAPIInfo verifies spec metadata.
func TestOpenAPIInfo(t *testing.T) {
	spec := loadSpec(t)

	if spec.Info.Title != "CrownBreaker Gateway API" {
		t.Errorf("expected title 'CrownBreaker Gateway API', got %q", spec.Info.Title)
	}

	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}

	if spec.Info.Description == "" {
		t.Error("expected non-empty description")
	}

	if len(spec.Servers) == 0 {
		t.Fatal("expected at least one server")
	}

	if spec.Components.SecuritySchemes["session"] == nil {
		t.Error("expected session security scheme")
	}

	t.Logf("OpenAPI Info: %s v%s @ %s", spec.Info.Title, spec.Info.Version, spec.Servers[0].URL)
}
