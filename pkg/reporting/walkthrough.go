/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: walkthrough.go
Description: Narrative text blocks and run summary rendering for HackBench. The text
blocks teach the concepts behind each vector (intro, impact, prevention) and are
emitted on the narrative log stream; the summary renderer closes every run with the
per-vector outcome counts and artifact paths.
*/

package reporting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kleascm/hackbench/pkg/core"
)

// Intro returns the teaching introduction for a vector.
func Intro(vector core.Vector) string {
	switch vector {
	case core.VectorReflected:
		return reflectedIntro
	case core.VectorStored:
		return storedIntro
	case core.VectorDOM:
		return domIntro
	}
	return ""
}

// Impact returns the impact explanation for a vector.
func Impact(vector core.Vector) string {
	switch vector {
	case core.VectorReflected:
		return reflectedImpact
	case core.VectorStored:
		return storedImpact
	case core.VectorDOM:
		return domImpact
	}
	return ""
}

// Prevention returns the remediation checklist for a vector.
func Prevention(vector core.Vector) string {
	switch vector {
	case core.VectorReflected:
		return reflectedPrevention
	case core.VectorStored:
		return storedPrevention
	case core.VectorDOM:
		return domPrevention
	}
	return ""
}

const reflectedIntro = `[REFLECTED XSS]

Reflected XSS occurs when an application receives data in an HTTP request and
includes that data in the immediate response in an unsafe way.

How it works:
1. Attacker crafts a malicious URL containing JavaScript
2. Victim clicks the link (sent via email, social media, etc.)
3. Server reflects the malicious script back in the response
4. Victim's browser executes the script`

const reflectedImpact = `Impact of Reflected XSS:
- Session hijacking (stealing cookies/tokens)
- Credential theft (fake login forms)
- Defacement of web pages
- Redirection to malicious sites`

const reflectedPrevention = `Reflected XSS remediation checklist:
1. Apply context-aware output encoding using battle-tested libraries or
   framework auto-escaping; never concatenate user input into HTML.
2. Strictly validate reflected parameters before rendering; reject unexpected
   characters so payloads cannot smuggle angle brackets into the page.
3. Enforce a Content Security Policy that blocks inline JavaScript, so a
   reflection bug that slips through cannot execute.
4. Set cookies with HttpOnly, Secure, and SameSite attributes to shrink the
   blast radius of any successful injection.`

const storedIntro = `[STORED XSS]

Stored XSS (persistent XSS) occurs when a malicious script is stored on the
target server (database, message board, comment field) and then displayed to
other users without proper sanitization.

How it works:
1. Attacker submits a malicious script via an input field
2. Application stores the script in its database
3. When other users view the page, the script is retrieved and executed
4. Every visitor to that page becomes a victim`

const storedImpact = `Critical difference from reflected XSS: no link-clicking is required. The
payload waits in the database and fires for EVERY visitor. A stored payload
can steal session cookies at scale, post itself onward as a worm, or rewrite
the page for all users.`

const storedPrevention = `Stored XSS remediation checklist:
1. Encode on output, not only on input: data written years ago must still be
   escaped every time it is rendered.
2. Validate and canonicalize input at the storage boundary; reject or
   neutralize markup the field has no business containing.
3. Render stored content through templating that auto-escapes by default.
4. Apply a Content Security Policy as a second layer for the day a template
   forgets to escape.`

const domIntro = `[DOM-BASED XSS]

DOM-based XSS is fundamentally different from reflected and stored XSS: the
malicious payload never reaches the server. Client-side JavaScript reads an
attacker-controlled source (usually the URL) and writes it into a dangerous
sink such as document.write, entirely inside the browser.

Because the server never sees the payload, server-side inspection alone
cannot verify this vector; the engine reports crafted exploit URLs as
guidance instead.`

const domImpact = `Impact of DOM XSS:
- Identical end result to the other vectors (script runs as the victim)
- Invisible to server logs and WAFs, since the payload stays client-side
- Often reachable through URL fragments that never leave the browser`

const domPrevention = `DOM XSS remediation checklist:
1. Never pass location-derived data into sinks like document.write,
   innerHTML, or eval; use textContent or safe DOM APIs.
2. Treat every client-side source (location, referrer, window.name) as
   attacker-controlled input.
3. Use Trusted Types or a framework that enforces safe sink usage.`

// vulnerableDOMPattern is the typical client-side code the DOM module walks
// the learner through.
const vulnerableDOMPattern = `// Vulnerable code example (typical pattern on the target):
if (document.location.href.indexOf("default=") >= 0) {
    var lang = document.location.href.substring(
        document.location.href.indexOf("default=") + 8
    );
    document.write("<option value='" + lang + "'>" + lang + "</option>");
}`

// VulnerableDOMPattern returns the annotated client-side sink example.
func VulnerableDOMPattern() string { return vulnerableDOMPattern }

// DOMManualInstructions explains how the operator verifies a DOM exploit by
// hand, since no browser is automated.
const DOMManualInstructions = `Manual walkthrough (no browser automation required):
1. Keep the target open in a normal browser tab and log in once.
2. Copy one of the exploit URLs above into the address bar.
3. Interact with the page: the injected dropdown option appears even though
   the server never offered it, proving the DOM was rewritten client-side.
4. Open DevTools (F12) -> Elements and inspect the <select> element: the
   injected option is in the live DOM but absent from View Source.
5. Reset by removing everything after "default=" in the URL.

Key takeaway: the network response is identical each time; only the browser
DOM changes. Manual interaction is enough to validate DOM XSS.`

// ArtifactPaths carries the file locations reported in the closing summary.
type ArtifactPaths struct {
	OperationalLog string
	NarrativeLog   string
	ReplayFile     string
}

// RenderSummary formats the end-of-run summary block: per-vector outcome
// counts, the vectors that succeeded, and where the artifacts were written.
func RenderSummary(summary *core.RunSummary, artifacts ArtifactPaths) string {
	var b strings.Builder
	b.WriteString("RUN SUMMARY\n")

	for _, report := range summary.Reports {
		counts := report.Counts()
		outcomes := make([]string, 0, len(counts))
		for outcome, n := range counts {
			outcomes = append(outcomes, fmt.Sprintf("%s=%d", outcome, n))
		}
		sort.Strings(outcomes)

		status := report.WorstObserved().String()
		if report.Advisory && !report.Succeeded {
			status = "advisory"
		}
		fmt.Fprintf(&b, "  %-9s  result=%-8s  attempts: %s\n",
			report.Vector, status, strings.Join(outcomes, " "))
	}

	succeeded := summary.Succeeded()
	if len(succeeded) == 0 {
		b.WriteString("  No vector produced an executable payload.\n")
	} else {
		names := make([]string, len(succeeded))
		for i, v := range succeeded {
			names[i] = string(v)
		}
		fmt.Fprintf(&b, "  Vectors with executable payloads: %s\n", strings.Join(names, ", "))
	}

	if artifacts.OperationalLog != "" {
		fmt.Fprintf(&b, "  Operational log: %s\n", artifacts.OperationalLog)
	}
	if artifacts.NarrativeLog != "" {
		fmt.Fprintf(&b, "  Narrative log:   %s\n", artifacts.NarrativeLog)
	}
	if artifacts.ReplayFile != "" {
		fmt.Fprintf(&b, "  Replay artifact: %s\n", artifacts.ReplayFile)
	}

	return strings.TrimRight(b.String(), "\n")
}
