/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reflected.go
Description: Reflected XSS vector module. Single round trip per attempt: the payload
rides a query parameter and the outcome is determined from the immediate response only.
A non-malicious baseline probe first establishes that input is echoed at all.
*/

package strategies

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kleascm/hackbench/pkg/analysis"
	"github.com/kleascm/hackbench/pkg/core"
	"github.com/kleascm/hackbench/pkg/execution"
	"github.com/kleascm/hackbench/pkg/logging"
	"github.com/kleascm/hackbench/pkg/reporting"
	"github.com/kleascm/hackbench/pkg/web"
)

// ReflectedPath is the vulnerable page for the reflected vector.
const ReflectedPath = "vulnerabilities/xss_r/"

// BaselineInput is the benign probe value used to establish reflection.
const BaselineInput = "TestUser123"

// reflectedField is the query parameter the page echoes.
const reflectedField = "name"

// ReflectedModule walks through the reflected vector.
type ReflectedModule struct {
	target   *core.Target
	client   *execution.Client
	injector *Injector
	logger   *logging.Logger
	variants []Variant
	report   *core.VectorReport
}

// NewReflectedModule builds the reflected vector module with the default
// variant escalation order.
func NewReflectedModule(target *core.Target, client *execution.Client, injector *Injector, logger *logging.Logger) *ReflectedModule {
	return &ReflectedModule{
		target:   target,
		client:   client,
		injector: injector,
		logger:   logger,
		variants: ReflectedVariants(),
		report:   &core.VectorReport{Vector: core.VectorReflected},
	}
}

// Vector identifies this module.
func (m *ReflectedModule) Vector() core.Vector { return core.VectorReflected }

// Description summarizes the module for listings.
func (m *ReflectedModule) Description() string {
	return "Immediate reflection of a query parameter into the response body"
}

// Report returns the attempts accumulated so far.
func (m *ReflectedModule) Report() *core.VectorReport { return m.report }

// point describes where this vector injects.
func (m *ReflectedModule) point() core.InjectionPoint {
	return core.InjectionPoint{Field: reflectedField, Method: "GET", Surface: core.SurfaceBody}
}

// Steps returns the ordered walkthrough: intro, baseline probe, then one
// approval-gated step per escalating variant.
func (m *ReflectedModule) Steps() []core.Step {
	steps := []core.Step{
		{
			Title:  "Understanding the target",
			Prompt: "Proceed to examine the vulnerable page?",
			Run: func(ctx context.Context) error {
				m.logger.Narrative(reporting.Intro(core.VectorReflected))
				m.logger.Narrative(reporting.Impact(core.VectorReflected))
				return nil
			},
		},
		{
			Title:  "Baseline probe",
			Prompt: "Send a benign probe to test reflection?",
			Run:    m.runBaseline,
		},
	}

	for i, variant := range m.variants {
		index, v := i, variant
		steps = append(steps, core.Step{
			Title:  fmt.Sprintf("Payload attempt %d (%s)", index+1, v.Name),
			Prompt: "Execute this payload?",
			Run: func(ctx context.Context) error {
				return m.runVariant(ctx, index, v)
			},
		})
	}

	steps = append(steps, core.Step{
		Title: "Prevention",
		Run: func(ctx context.Context) error {
			if m.report.Succeeded {
				m.logger.Narrative(reporting.Prevention(core.VectorReflected))
			}
			return nil
		},
	})
	return steps
}

// runBaseline sends the benign probe and narrates whether input is echoed.
func (m *ReflectedModule) runBaseline(ctx context.Context) error {
	pageURL := m.target.URL(ReflectedPath)
	res := m.client.Get(ctx, pageURL, url.Values{reflectedField: {BaselineInput}})
	if res.Failed() {
		m.logger.ExplainFailure(
			"Failed to reach the reflected XSS page",
			"The baseline request never completed. Verify the target is running and reachable.",
			"",
		)
		return fmt.Errorf("baseline probe failed: %w", res.Err)
	}
	if web.SessionExpired(res.Response.Body) {
		return core.ErrSessionExpired
	}

	if execution.Reflects(res.Response, BaselineInput) {
		m.logger.ExplainSuccess(
			fmt.Sprintf("Input %q was reflected in the response", BaselineInput),
			"The server includes our input directly in the HTML. If it is not encoded properly, we can inject code.",
		)
	} else {
		m.logger.ExplainFailure(
			fmt.Sprintf("Expected input %q not found in response", BaselineInput),
			"The page structure may have changed, or the security level may already neutralize echoes.",
			"",
		)
	}

	m.logger.Narrative(analysis.RenderBreakdown(pageURL, m.point(),
		"Headers: untouched; only the response body is tainted."))
	return nil
}

// runVariant dispatches one payload and classifies the immediate response.
// Becomes a no-op once an earlier variant has already succeeded.
func (m *ReflectedModule) runVariant(ctx context.Context, index int, variant Variant) error {
	if m.report.Succeeded {
		return nil
	}

	m.logger.Payload(variant.Payload, variant.Explanation)

	res := m.client.Get(ctx, m.target.URL(ReflectedPath), url.Values{reflectedField: {variant.Payload}})
	if !res.Failed() && web.SessionExpired(res.Response.Body) {
		return core.ErrSessionExpired
	}

	var landing *core.ResponseSnapshot
	if res.Response != nil {
		landing = res.Response
	}
	attempt := m.injector.Attempt(core.VectorReflected, index, variant.Payload, m.point(), res.Request, landing, res.Err)
	m.report.Record(attempt)

	switch attempt.Outcome {
	case core.OutcomeSuccess:
		m.logger.ExplainSuccess(
			fmt.Sprintf("Payload %d succeeded", index+1),
			"The payload appeared unencoded in the HTML response; a browser would execute it as JavaScript.",
		)
		m.logger.Narrative(analysis.RenderEvidence(landing, variant.Payload, "reflected payload inside HTML body"))
	case core.OutcomeError:
		m.logger.ExplainFailure(
			fmt.Sprintf("Payload %d never landed", index+1),
			"The request failed at the network level; nothing can be said about the target's defenses.",
			"Continuing with the next variant.",
		)
	default:
		m.logger.ExplainFailure(
			fmt.Sprintf("Payload %d was %s", index+1, attempt.Outcome),
			"The payload did not appear in its original form. The application is encoding or stripping dangerous input.",
			nextVariantHint(index, len(m.variants)),
		)
		m.logger.Narrative(analysis.RenderEvidence(landing, variant.Payload, "encoded or blocked response sample"))
	}
	return nil
}

// nextVariantHint suggests the follow-up when more variants remain.
func nextVariantHint(index, total int) string {
	if index+1 < total {
		return "Trying a variant that may bypass the filter."
	}
	return ""
}
