/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: classifier.go
Description: Outcome classification for payload attempts. Decides, purely from the
captured response bytes, whether a payload landed executable (success), survived only
as a neutralized remnant (filtered), left no trace (blocked), or never completed
(error). The filtered/blocked boundary is a tunable policy rather than a hardcoded
assumption.
*/

package analysis

import (
	"net/url"
	"strings"

	"github.com/kleascm/hackbench/pkg/core"
)

// Policy tunes the boundary between the filtered and blocked outcomes. Both
// knobs default to the conservative setting: any detectable remnant of the
// payload counts as filtered, because filtered evidence is the most useful
// thing to show a learner.
type Policy struct {
	// EncodedRemnantIsFiltered treats an HTML-entity or percent-encoded
	// copy of the payload in the response as filtered rather than blocked.
	EncodedRemnantIsFiltered bool

	// StrippedRemnantIsFiltered treats surviving payload text whose tags
	// were removed (e.g. the bare "alert(1)") as filtered rather than
	// blocked.
	StrippedRemnantIsFiltered bool
}

// DefaultPolicy returns the conservative classification policy.
func DefaultPolicy() Policy {
	return Policy{
		EncodedRemnantIsFiltered:  true,
		StrippedRemnantIsFiltered: true,
	}
}

// Classifier assigns outcomes to payload attempts. Classification is a pure
// function of the (payload, response) pair: identical inputs always produce
// identical outcomes.
type Classifier struct {
	policy Policy
}

// NewClassifier creates a classifier with the given policy.
func NewClassifier(policy Policy) *Classifier {
	return &Classifier{policy: policy}
}

// Classify inspects one captured response for one payload. A nil response
// means the attempt failed at the network level.
func (c *Classifier) Classify(payload string, res *core.ResponseSnapshot) core.Outcome {
	if res == nil {
		return core.OutcomeError
	}

	// Literal, unescaped payload on the landing surface wins outright.
	if strings.Contains(res.Body, payload) || res.HeaderValuesContain(payload) {
		return core.OutcomeSuccess
	}

	if c.policy.EncodedRemnantIsFiltered {
		for _, variant := range encodedVariants(payload) {
			if strings.Contains(res.Body, variant) {
				return core.OutcomeFiltered
			}
		}
	}

	if c.policy.StrippedRemnantIsFiltered {
		if remnant := strippedRemnant(payload); remnant != "" && strings.Contains(res.Body, remnant) {
			return core.OutcomeFiltered
		}
	}

	return core.OutcomeBlocked
}

// encodedVariants renders the transformed forms a defensive encoder would
// leave behind: HTML entities and percent-encoding.
func encodedVariants(payload string) []string {
	entity := strings.NewReplacer(
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#039;",
	).Replace(payload)

	// PHP htmlspecialchars uses &#039;; other encoders emit the short form.
	entityShort := strings.NewReplacer(
		"<", "&lt;",
		">", "&gt;",
		`"`, "&#34;",
		"'", "&#39;",
	).Replace(payload)

	percent := url.QueryEscape(payload)

	variants := []string{entity}
	if entityShort != entity {
		variants = append(variants, entityShort)
	}
	if percent != payload {
		variants = append(variants, percent)
	}
	// Partial encoding: angle brackets escaped, quotes left alone. Seen on
	// targets that run htmlspecialchars without ENT_QUOTES.
	partial := strings.NewReplacer("<", "&lt;", ">", "&gt;").Replace(payload)
	if partial != entity {
		variants = append(variants, partial)
	}
	return variants
}

// strippedRemnant returns the payload text that would survive a tag-stripping
// filter: everything outside angle-bracket pairs. Remnants shorter than four
// characters are discarded as too generic to attribute to the payload.
func strippedRemnant(payload string) string {
	var b strings.Builder
	depth := 0
	for _, r := range payload {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	remnant := strings.TrimSpace(b.String())
	if len(remnant) < 4 {
		return ""
	}
	return remnant
}
