/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: classifier_test.go
Description: Tests for the outcome classifier. Covers the literal, encoded,
stripped, and absent response shapes, the policy knobs, and determinism of
classification over identical inputs.
*/

package analysis_test

import (
	"net/http"
	"testing"

	"github.com/kleascm/hackbench/pkg/analysis"
	"github.com/kleascm/hackbench/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scriptPayload = `<script>alert(1)</script>`

func response(body string) *core.ResponseSnapshot {
	return &core.ResponseSnapshot{
		Status: 200,
		Header: http.Header{"Content-Type": {"text/html"}},
		Body:   body,
	}
}

// TestClassifyLiteralReflectionIsSuccess verifies the low-security shape:
// the payload comes back character for character.
func TestClassifyLiteralReflectionIsSuccess(t *testing.T) {
	c := analysis.NewClassifier(analysis.DefaultPolicy())

	res := response(`<pre>Hello ` + scriptPayload + `</pre>`)
	assert.Equal(t, core.OutcomeSuccess, c.Classify(scriptPayload, res))
}

// TestClassifyEntityEncodedIsFiltered verifies the high-security shape:
// htmlspecialchars output must never be reported as success.
func TestClassifyEntityEncodedIsFiltered(t *testing.T) {
	c := analysis.NewClassifier(analysis.DefaultPolicy())

	res := response(`<pre>Hello &lt;script&gt;alert(1)&lt;/script&gt;</pre>`)
	assert.Equal(t, core.OutcomeFiltered, c.Classify(scriptPayload, res))
}

// TestClassifyStrippedRemnantIsFiltered verifies tag-stripping filters: the
// script tags are gone but the inner text survives.
func TestClassifyStrippedRemnantIsFiltered(t *testing.T) {
	c := analysis.NewClassifier(analysis.DefaultPolicy())

	res := response(`<pre>Hello alert(1)</pre>`)
	assert.Equal(t, core.OutcomeFiltered, c.Classify(scriptPayload, res))
}

// TestClassifyNoTraceIsBlocked verifies that a response with no trace of the
// payload is blocked, not an error.
func TestClassifyNoTraceIsBlocked(t *testing.T) {
	c := analysis.NewClassifier(analysis.DefaultPolicy())

	res := response(`<pre>Hello</pre>`)
	assert.Equal(t, core.OutcomeBlocked, c.Classify(scriptPayload, res))
}

// TestClassifyNilResponseIsError verifies that a missing response means a
// network-level failure, never a statement about the target's defenses.
func TestClassifyNilResponseIsError(t *testing.T) {
	c := analysis.NewClassifier(analysis.DefaultPolicy())

	assert.Equal(t, core.OutcomeError, c.Classify(scriptPayload, nil))
}

// TestClassifyPercentEncodedIsFiltered verifies URL-encoded remnants count
// as filtered under the default policy.
func TestClassifyPercentEncodedIsFiltered(t *testing.T) {
	c := analysis.NewClassifier(analysis.DefaultPolicy())

	res := response(`href="?name=%3Cscript%3Ealert%281%29%3C%2Fscript%3E"`)
	assert.Equal(t, core.OutcomeFiltered, c.Classify(scriptPayload, res))
}

// TestClassifyPolicyDisablesRemnants verifies the policy knobs: with remnant
// detection off, encoded and stripped shapes degrade to blocked.
func TestClassifyPolicyDisablesRemnants(t *testing.T) {
	c := analysis.NewClassifier(analysis.Policy{})

	encoded := response(`&lt;script&gt;alert(1)&lt;/script&gt;`)
	stripped := response(`alert(1)`)
	assert.Equal(t, core.OutcomeBlocked, c.Classify(scriptPayload, encoded))
	assert.Equal(t, core.OutcomeBlocked, c.Classify(scriptPayload, stripped))
}

// TestClassifyIsDeterministic verifies classification is a pure function of
// payload and response: repeated calls agree.
func TestClassifyIsDeterministic(t *testing.T) {
	c := analysis.NewClassifier(analysis.DefaultPolicy())
	res := response(`<pre>&lt;script&gt;alert(1)&lt;/script&gt;</pre>`)

	first := c.Classify(scriptPayload, res)
	require.Equal(t, core.OutcomeFiltered, first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify(scriptPayload, res))
	}
}

// TestClassifyHeaderReflectionIsSuccess verifies that a literal payload in a
// response header counts the same as one in the body.
func TestClassifyHeaderReflectionIsSuccess(t *testing.T) {
	c := analysis.NewClassifier(analysis.DefaultPolicy())

	res := &core.ResponseSnapshot{
		Status: 200,
		Header: http.Header{"X-Echo": {scriptPayload}},
		Body:   "<pre>Hello</pre>",
	}
	assert.Equal(t, core.OutcomeSuccess, c.Classify(scriptPayload, res))
}
