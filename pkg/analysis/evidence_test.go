/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: evidence_test.go
Description: Tests for evidence rendering: payload snippet extraction with
markers and the injection breakdown block.
*/

package analysis_test

import (
	"strings"
	"testing"

	"github.com/kleascm/hackbench/pkg/analysis"
	"github.com/kleascm/hackbench/pkg/core"
	"github.com/stretchr/testify/assert"
)

// TestExtractSnippetMarksPayload verifies the payload is bracketed with
// markers inside its surrounding context.
func TestExtractSnippetMarksPayload(t *testing.T) {
	payload := `<script>alert(1)</script>`
	body := strings.Repeat("x", 500) + "Hello " + payload + " bye" + strings.Repeat("y", 500)

	snippet, hint := analysis.ExtractSnippet(body, payload)
	assert.Contains(t, snippet, "<<PAYLOAD>>")
	assert.Contains(t, snippet, payload)
	assert.Less(t, len(snippet), len(body))
	assert.Contains(t, hint, "highlighted")
}

// TestExtractSnippetAbsentPayload verifies graceful handling when the payload
// left no literal trace.
func TestExtractSnippetAbsentPayload(t *testing.T) {
	snippet, hint := analysis.ExtractSnippet("<html>nothing here</html>", "<script>x</script>")
	assert.NotContains(t, snippet, "<<PAYLOAD>>")
	assert.NotEmpty(t, snippet)
	assert.Contains(t, hint, "not present")
}

// TestRenderBreakdown verifies the injection breakdown block carries the
// endpoint and point details.
func TestRenderBreakdown(t *testing.T) {
	point := core.InjectionPoint{Field: "name", Method: "GET", Surface: core.SurfaceBody}
	text := analysis.RenderBreakdown("http://localhost/vulnerabilities/xss_r/", point,
		"only the body is tainted")

	assert.Contains(t, text, "Injection breakdown:")
	assert.Contains(t, text, "http://localhost/vulnerabilities/xss_r/")
	assert.Contains(t, text, "name")
	assert.Contains(t, text, "GET")
	assert.Contains(t, text, "only the body is tainted")
}
