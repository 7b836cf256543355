/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Core types for the HackBench walkthrough engine. Defines the fundamental
data structures used throughout a run including the validated target, payload attempts,
outcome classification values, run configuration, and the per-run summary.
*/

package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Vector identifies one of the three script-injection delivery mechanisms
// the engine can walk through.
type Vector string

const (
	VectorReflected Vector = "reflected"
	VectorStored    Vector = "stored"
	VectorDOM       Vector = "dom"
)

// Outcome classifies what a single payload attempt achieved, derived purely
// from the captured response bytes.
type Outcome int

const (
	// OutcomeSuccess means the literal payload appeared unescaped on the
	// landing surface and a browser would execute it.
	OutcomeSuccess Outcome = iota
	// OutcomeFiltered means a transformed remnant of the payload survived
	// (entity-escaped, tag-stripped) but is no longer executable.
	OutcomeFiltered
	// OutcomeBlocked means no trace of the payload reached the landing surface.
	OutcomeBlocked
	// OutcomeError means the attempt itself failed at the network or protocol
	// level and nothing can be said about the defenses.
	OutcomeError
)

// String returns the lowercase name used in logs and summaries.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFiltered:
		return "filtered"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeError:
		return "error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// WorseOf picks the more informative of two non-success outcomes. Filtered
// carries the most diagnostic value, then Blocked, then Error.
func WorseOf(a, b Outcome) Outcome {
	rank := func(o Outcome) int {
		switch o {
		case OutcomeFiltered:
			return 0
		case OutcomeBlocked:
			return 1
		default:
			return 2
		}
	}
	if rank(b) < rank(a) {
		return b
	}
	return a
}

// ValidationState tracks how far the target has been vetted.
type ValidationState int

const (
	TargetUnchecked ValidationState = iota
	TargetReachable
	TargetFingerprintMatched
	TargetRejected
)

// Target describes the application instance under test. It is created at
// startup and must not be mutated after validation completes.
type Target struct {
	Scheme   string
	Host     string
	Port     int
	BasePath string
	State    ValidationState

	// Version is filled in by the fingerprint probe when the target
	// advertises one.
	Version string
}

// BaseURL renders the scheme://host[:port] root of the target, omitting the
// port when it is the scheme default.
func (t *Target) BaseURL() string {
	host := t.Host
	if !(t.Port == 80 && t.Scheme == "http") && !(t.Port == 443 && t.Scheme == "https") && t.Port != 0 {
		host = fmt.Sprintf("%s:%d", t.Host, t.Port)
	}
	base := fmt.Sprintf("%s://%s", t.Scheme, host)
	if t.BasePath != "" {
		base += "/" + strings.Trim(t.BasePath, "/")
	}
	return base
}

// URL joins a target-relative path onto the base URL.
func (t *Target) URL(path string) string {
	return t.BaseURL() + "/" + strings.TrimPrefix(path, "/")
}

// Validated reports whether the target passed the full validation sequence.
func (t *Target) Validated() bool {
	return t.State == TargetFingerprintMatched
}

// Surface names where an injected value lands in the response.
type Surface string

const (
	SurfaceBody   Surface = "body"
	SurfaceHeader Surface = "header"
	SurfaceQuery  Surface = "query"
	SurfaceStored Surface = "stored"
	SurfaceDOM    Surface = "dom"
)

// InjectionPoint records the exact place a payload was delivered, required
// output for diagnosability regardless of the outcome.
type InjectionPoint struct {
	Field   string  `json:"field"`
	Method  string  `json:"method"`
	Surface Surface `json:"surface"`
}

// RequestSnapshot is an immutable capture of a dispatched request, taken
// before the request leaves the client so recorded replays always match what
// was actually sent.
type RequestSnapshot struct {
	ID      string      `json:"id"`
	Time    time.Time   `json:"time"`
	Method  string      `json:"method"`
	URL     string      `json:"url"`
	Header  http.Header `json:"header"`
	Params  url.Values  `json:"params,omitempty"`
	Form    url.Values  `json:"form,omitempty"`
	Cookies string      `json:"cookies,omitempty"`
	Body    string      `json:"body,omitempty"`
}

// ResponseSnapshot is an immutable capture of the response to one attempt.
type ResponseSnapshot struct {
	Status  int           `json:"status"`
	Header  http.Header   `json:"header"`
	Body    string        `json:"body"`
	Elapsed time.Duration `json:"elapsed"`
}

// HeaderValuesContain reports whether any response header value contains the
// given literal string.
func (r *ResponseSnapshot) HeaderValuesContain(s string) bool {
	for _, values := range r.Header {
		for _, v := range values {
			if strings.Contains(v, s) {
				return true
			}
		}
	}
	return false
}

// PayloadAttempt records one payload variant tried against one injection
// point. It is immutable once the outcome has been assigned.
type PayloadAttempt struct {
	ID           string            `json:"id"`
	Vector       Vector            `json:"vector"`
	VariantIndex int               `json:"variant_index"`
	Payload      string            `json:"payload"`
	Point        InjectionPoint    `json:"point"`
	Request      *RequestSnapshot  `json:"request"`
	Response     *ResponseSnapshot `json:"response"`
	Outcome      Outcome           `json:"outcome"`
}

// VectorReport aggregates every attempt made for one vector.
type VectorReport struct {
	Vector    Vector            `json:"vector"`
	Attempts  []*PayloadAttempt `json:"attempts"`
	Succeeded bool              `json:"succeeded"`

	// Advisory marks vectors that cannot be verified server-side (DOM).
	Advisory bool `json:"advisory"`
}

// Record appends an attempt and updates the success flag.
func (r *VectorReport) Record(attempt *PayloadAttempt) {
	r.Attempts = append(r.Attempts, attempt)
	if attempt.Outcome == OutcomeSuccess {
		r.Succeeded = true
	}
}

// Counts tallies attempts per outcome.
func (r *VectorReport) Counts() map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, a := range r.Attempts {
		counts[a.Outcome]++
	}
	return counts
}

// WorstObserved reports the vector's summary outcome. A single success wins
// outright; otherwise the most diagnostic non-success outcome is preferred
// (filtered over blocked over error).
func (r *VectorReport) WorstObserved() Outcome {
	if r.Succeeded {
		return OutcomeSuccess
	}
	worst := OutcomeError
	for _, a := range r.Attempts {
		worst = WorseOf(worst, a.Outcome)
	}
	return worst
}

// RunSummary collects the per-vector reports for a whole run. It is built
// incrementally by the orchestrator.
type RunSummary struct {
	StartedAt time.Time       `json:"started_at"`
	Reports   []*VectorReport `json:"reports"`
}

// Add appends a completed vector report.
func (s *RunSummary) Add(report *VectorReport) {
	s.Reports = append(s.Reports, report)
}

// Succeeded lists the vectors in which at least one payload landed.
func (s *RunSummary) Succeeded() []Vector {
	var vectors []Vector
	for _, r := range s.Reports {
		if r.Succeeded {
			vectors = append(vectors, r.Vector)
		}
	}
	return vectors
}

// SecurityLevel is the target's configurable defense posture.
type SecurityLevel string

const (
	SecurityLow        SecurityLevel = "low"
	SecurityMedium     SecurityLevel = "medium"
	SecurityHigh       SecurityLevel = "high"
	SecurityImpossible SecurityLevel = "impossible"
)

// ValidSecurityLevel reports whether the given string names a known level.
func ValidSecurityLevel(level string) bool {
	switch SecurityLevel(level) {
	case SecurityLow, SecurityMedium, SecurityHigh, SecurityImpossible:
		return true
	}
	return false
}

// RunConfig contains all configuration parameters for a walkthrough run.
// Supports both command-line flags and configuration files.
type RunConfig struct {
	Mode          string        `json:"mode"`
	Host          string        `json:"host"`
	Port          int           `json:"port"`
	HTTPS         bool          `json:"https"`
	Username      string        `json:"username"`
	Password      string        `json:"password"`
	SecurityLevel string        `json:"security_level"`
	Interactive   bool          `json:"interactive"`
	ConfirmTarget bool          `json:"confirm_target"`
	LogDir        string        `json:"log_dir"`
	Timeout       time.Duration `json:"timeout"`
	ProxyAddr     string        `json:"proxy_addr"`
}

// Validate checks the RunConfig for invalid or missing values.
// Returns an error if the config is invalid, or nil if valid.
func (c *RunConfig) Validate() error {
	switch c.Mode {
	case "reflected", "stored", "dom", "all":
		// ok
	default:
		return fmt.Errorf("unsupported mode: %s", c.Mode)
	}
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.SecurityLevel != "" && !ValidSecurityLevel(c.SecurityLevel) {
		return fmt.Errorf("unsupported security level: %s", c.SecurityLevel)
	}
	if c.LogDir == "" {
		return fmt.Errorf("log_dir must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// Vectors expands the configured mode into the ordered vector list.
func (c *RunConfig) Vectors() []Vector {
	if c.Mode == "all" {
		return []Vector{VectorReflected, VectorStored, VectorDOM}
	}
	return []Vector{Vector(c.Mode)}
}

// ApprovalFunc is the injected decision function that gates each step. An
// interactive implementation prompts the operator; a non-interactive one
// approves immediately.
type ApprovalFunc func(prompt string) bool

// AutoApprove approves every step without prompting.
func AutoApprove(string) bool { return true }

// ErrSessionExpired is the sentinel returned by a step when a protected page
// came back with the login-required marker instead of the expected content.
// The orchestrator recovers the session once and retries the step.
var ErrSessionExpired = errors.New("session expired: login page returned for protected request")

// ValidationError means the target is unauthorized, unreachable, or failed
// the fingerprint probe. It is fatal and aborts the run before any attempt.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("target validation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("target validation failed: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AuthError means the login or CSRF handshake failed, or a second consecutive
// session expiry occurred. It is fatal and aborts the run.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Step is one approval-gated unit of work inside a vector module.
type Step struct {
	Title  string
	Prompt string
	Run    func(ctx context.Context) error
}

// VectorModule is the fixed capability set every vector implements. The
// orchestrator is polymorphic over this interface rather than branching on a
// vector tag.
type VectorModule interface {
	// Vector identifies the delivery mechanism this module exercises.
	Vector() Vector

	// Description returns a one-line summary for listings and logs.
	Description() string

	// Steps returns the ordered, approval-gated steps of the walkthrough.
	Steps() []Step

	// Report returns the attempts accumulated so far. Called by the
	// orchestrator after the steps complete (or are cut short).
	Report() *VectorReport
}

// SessionRecoverer is the narrow view of the auth manager the orchestrator
// needs to recover an expired session.
type SessionRecoverer interface {
	// RecoverIfExpired performs exactly one re-login. A second consecutive
	// expiry without an intervening healthy step returns an *AuthError.
	RecoverIfExpired(ctx context.Context) error

	// MarkHealthy resets the consecutive-expiry counter after a step
	// completes without tripping the login marker.
	MarkHealthy()
}
