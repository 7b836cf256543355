/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: evidence.go
Description: HTTP evidence rendering for payload attempts. Produces the body excerpt
with payload markers, the sampled response headers, and the injection breakdown lines
that accompany every classified attempt in the narrative log.
*/

package analysis

import (
	"fmt"
	"strings"

	"github.com/kleascm/hackbench/pkg/core"
)

// snippetRadius is how many bytes of context surround the payload hit.
const snippetRadius = 160

// sampledHeaders are the response headers worth showing a learner.
var sampledHeaders = []string{"Content-Type", "Server", "Date"}

// ExtractSnippet returns a body excerpt centered on the payload, with the
// payload wrapped in <<PAYLOAD>> markers, plus a hint describing what the
// excerpt shows.
func ExtractSnippet(body, payload string) (snippet, hint string) {
	index := strings.Index(body, payload)
	if index == -1 {
		snippet = body
		if len(snippet) > snippetRadius {
			snippet = snippet[:snippetRadius]
		}
		if snippet == "" {
			snippet = "(empty response body)"
		}
		return strings.TrimSpace(snippet), "payload not present; showing leading bytes"
	}

	start := index - snippetRadius/2
	if start < 0 {
		start = 0
	}
	end := index + len(payload) + snippetRadius/2
	if end > len(body) {
		end = len(body)
	}
	snippet = body[start:end]
	snippet = strings.ReplaceAll(snippet, payload, "<<PAYLOAD>>"+payload+"<<PAYLOAD>>")
	return strings.TrimSpace(snippet), "payload highlighted with <<PAYLOAD>> markers"
}

// RenderEvidence formats the HTTP evidence block for one attempt: status,
// sampled headers, and the marked body excerpt.
func RenderEvidence(res *core.ResponseSnapshot, payload, note string) string {
	if res == nil {
		return fmt.Sprintf("HTTP evidence (%s):\n  (no response captured)", note)
	}

	var headerLines []string
	for _, name := range sampledHeaders {
		if value := res.Header.Get(name); value != "" {
			headerLines = append(headerLines, fmt.Sprintf("  %s: %s", name, value))
		}
	}
	headerText := strings.Join(headerLines, "\n")
	if headerText == "" {
		headerText = "  (no headers sampled)"
	}

	snippet, hint := ExtractSnippet(res.Body, payload)
	body := "    " + strings.ReplaceAll(snippet, "\n", "\n    ")

	return fmt.Sprintf(
		"HTTP evidence (%s):\n  Status: %d\n%s\n  Body excerpt (%s):\n%s",
		note, res.Status, headerText, hint, body,
	)
}

// RenderBreakdown formats the injection breakdown for a vector: the endpoint,
// method, field, and landing surface of the payload. Emitted once per vector
// regardless of outcome.
func RenderBreakdown(endpoint string, point core.InjectionPoint, notes ...string) string {
	lines := []string{
		"Target endpoint: " + endpoint,
		"HTTP method: " + point.Method,
		"Parameter: " + point.Field,
		"Injection surface: " + string(point.Surface),
	}
	lines = append(lines, notes...)

	var b strings.Builder
	b.WriteString("Injection breakdown:")
	for _, line := range lines {
		b.WriteString("\n  - ")
		b.WriteString(line)
	}
	return b.String()
}
