/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: dom.go
Description: DOM-based XSS vector module. The sink lives in client-side
JavaScript, so server responses alone cannot prove execution. The module
crafts exploit URLs, dispatches them for the record, and reports advisory
outcomes unless the operator confirms execution in a real browser.
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

// DOMPath is the vulnerable page for the DOM vector.
const DOMPath = "vulnerabilities/xss_d/"

// domField is the fragment/query parameter the client-side script reads.
const domField = "default"

// DOMModule walks through the DOM-based vector. Without a browser the module
// can only show that the exploit URL is served; execution happens client-side.
type DOMModule struct {
	target   *core.Target
	client   *execution.Client
	injector *Injector
	logger   *logging.Logger
	exploits []DOMExploit
	confirm  core.ApprovalFunc
	report   *core.VectorReport
}

// NewDOMModule builds the DOM vector module. confirm, when non-nil, is asked
// once per exploit whether the operator observed execution in a browser; a
// confirmed exploit upgrades the attempt to success.
func NewDOMModule(target *core.Target, client *execution.Client, injector *Injector, logger *logging.Logger, confirm core.ApprovalFunc) *DOMModule {
	return &DOMModule{
		target:   target,
		client:   client,
		injector: injector,
		logger:   logger,
		exploits: DOMExploits(),
		confirm:  confirm,
		report:   &core.VectorReport{Vector: core.VectorDOM, Advisory: true},
	}
}

// Vector identifies this module.
func (m *DOMModule) Vector() core.Vector { return core.VectorDOM }

// Description summarizes the module for listings.
func (m *DOMModule) Description() string {
	return "Client-side sink via the language selector; advisory without a browser"
}

// Report returns the attempts accumulated so far.
func (m *DOMModule) Report() *core.VectorReport { return m.report }

func (m *DOMModule) point() core.InjectionPoint {
	return core.InjectionPoint{Field: domField, Method: "GET", Surface: core.SurfaceDOM}
}

// Steps returns the ordered walkthrough for the DOM vector.
func (m *DOMModule) Steps() []core.Step {
	steps := []core.Step{
		{
			Title:  "Understanding the target",
			Prompt: "Proceed to examine the language selector?",
			Run: func(ctx context.Context) error {
				m.logger.Narrative(reporting.Intro(core.VectorDOM))
				m.logger.Narrative(reporting.Impact(core.VectorDOM))
				m.logger.Narrative(reporting.VulnerableDOMPattern())
				return nil
			},
		},
		{
			Title:  "Fetching the vulnerable page",
			Prompt: "Fetch the page to inspect its client-side script?",
			Run:    m.runInspect,
		},
	}

	for i, exploit := range m.exploits {
		index, e := i, exploit
		steps = append(steps, core.Step{
			Title:  fmt.Sprintf("Exploit URL %d", index+1),
			Prompt: "Dispatch this exploit URL?",
			Run: func(ctx context.Context) error {
				return m.runExploit(ctx, index, e)
			},
		})
	}

	steps = append(steps, core.Step{
		Title: "Manual verification",
		Run: func(ctx context.Context) error {
			m.logger.Narrative(reporting.DOMManualInstructions)
			if m.report.Succeeded {
				m.logger.Narrative(reporting.Prevention(core.VectorDOM))
			}
			return nil
		},
	})
	return steps
}

// runInspect fetches the page and narrates where the sink lives.
func (m *DOMModule) runInspect(ctx context.Context) error {
	pageURL := m.target.URL(DOMPath)
	res := m.client.Get(ctx, pageURL, nil)
	if res.Failed() {
		return fmt.Errorf("failed to fetch DOM XSS page: %w", res.Err)
	}
	if web.SessionExpired(res.Response.Body) {
		return core.ErrSessionExpired
	}

	m.logger.Narrative(analysis.RenderBreakdown(pageURL, m.point(),
		"The page's JavaScript reads the default parameter from the URL and writes it into the document.",
		"The server never sees the injected markup execute; only a browser does."))
	return nil
}

// runExploit dispatches one crafted URL. The HTTP outcome is advisory: a
// literal echo still proves the source reaches the page, but success is only
// claimed when the operator confirms execution in a browser.
func (m *DOMModule) runExploit(ctx context.Context, index int, exploit DOMExploit) error {
	if m.report.Succeeded {
		return nil
	}

	m.logger.Payload(exploit.Payload, exploit.Explanation)

	exploitURL := m.target.URL(DOMPath) + "?" + url.Values{domField: {exploit.Payload}}.Encode()
	m.logger.Narrative("Exploit URL: " + exploitURL)

	res := m.client.Get(ctx, m.target.URL(DOMPath), url.Values{domField: {exploit.Payload}})
	if !res.Failed() && web.SessionExpired(res.Response.Body) {
		return core.ErrSessionExpired
	}

	var landing *core.ResponseSnapshot
	if res.Response != nil {
		landing = res.Response
	}
	attempt := m.injector.Attempt(core.VectorDOM, index, exploit.Payload, m.point(), res.Request, landing, res.Err)

	if attempt.Outcome != core.OutcomeError {
		confirmed := false
		if m.confirm != nil {
			confirmed = m.confirm(fmt.Sprintf("Open the URL above in a browser. Did exploit %d execute (alert fired)?", index+1))
		}
		if confirmed {
			attempt.Outcome = core.OutcomeSuccess
			m.logger.ExplainSuccess(
				fmt.Sprintf("Exploit %d confirmed by operator", index+1),
				"The payload executed in a real browser; the client-side sink accepts attacker-controlled markup.",
			)
		} else {
			// Without browser confirmation the best we can claim is advisory.
			if attempt.Outcome == core.OutcomeSuccess {
				attempt.Outcome = core.OutcomeFiltered
			}
			m.logger.ExplainFailure(
				fmt.Sprintf("Exploit %d unconfirmed", index+1),
				"Server responses cannot prove a DOM sink executed. The attempt is recorded as advisory.",
				"Open the exploit URL in a browser to verify manually.",
			)
		}
		m.logger.Narrative(analysis.RenderEvidence(landing, exploit.Payload, "server response for the exploit URL"))
	} else {
		m.logger.ExplainFailure(
			fmt.Sprintf("Exploit %d never landed", index+1),
			"The request failed at the network level.",
			"",
		)
	}

	m.report.Record(attempt)
	return nil
}
