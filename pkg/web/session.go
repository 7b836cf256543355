/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: session.go
Description: Session and authentication manager for HackBench. Owns the authentication
state machine (login, anti-forgery token lifecycle, security-level control) and the
bounded expired-session recovery. No other component mutates session state; the cookie
jar lives inside the shared instrumented client and is written to only through this
manager's requests.
*/

package web

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kleascm/hackbench/pkg/core"
	"github.com/kleascm/hackbench/pkg/execution"
	"github.com/kleascm/hackbench/pkg/logging"
)

// SecurityPath is the application's security-level settings page.
const SecurityPath = "security.php"

// AuthState tracks progress through the authentication state machine.
type AuthState int

const (
	StateUnauthenticated AuthState = iota
	StateTokenFetched
	StateAuthenticated
	StateSecurityLevelSet
)

// loginFormMarker appears on the page that demands credentials. A protected
// page whose body matches this instead of the expected content means the
// session has expired.
const loginFormMarker = `action="login.php"`

// authenticatedMarker appears only inside the authenticated area.
const authenticatedMarker = "Logout"

var securityLevelPattern = regexp.MustCompile(`(?i)Security Level is currently:?\s*<?\w*>?\s*(\w+)`)

// SessionExpired reports whether a response body is the login-required page
// rather than protected content.
func SessionExpired(body string) bool {
	return strings.Contains(body, loginFormMarker) ||
		strings.Contains(body, "Login :: "+FingerprintMarker)
}

// SessionManager owns the authentication state machine. Tokens are single-use
// per form submission: every state-changing request fetches a fresh token from
// the page that will receive it.
type SessionManager struct {
	target *core.Target
	client *execution.Client
	logger *logging.Logger

	state AuthState
	level core.SecurityLevel

	// Credentials retained for bounded expired-session recovery.
	username string
	password string

	// consecutiveExpiries counts recoveries since the last healthy step.
	// A second consecutive expiry is fatal.
	consecutiveExpiries int
}

// NewSessionManager creates the session manager for a validated target.
func NewSessionManager(target *core.Target, client *execution.Client, logger *logging.Logger) *SessionManager {
	return &SessionManager{
		target: target,
		client: client,
		logger: logger,
		state:  StateUnauthenticated,
	}
}

// State returns the current authentication state.
func (m *SessionManager) State() AuthState { return m.state }

// SecurityLevel returns the last level this manager successfully set, or "".
func (m *SessionManager) SecurityLevel() core.SecurityLevel { return m.level }

// FetchToken GETs the page and parses the anti-forgery token out of its form.
// Tokens become stale once the page is re-fetched, so callers must submit the
// returned token to the same page before any further fetch of it.
func (m *SessionManager) FetchToken(ctx context.Context, path string) (string, error) {
	res := m.client.Get(ctx, m.target.URL(path), nil)
	if res.Failed() {
		return "", &core.AuthError{Reason: "failed to fetch token page " + path, Err: res.Err}
	}
	if path != LoginPath && SessionExpired(res.Response.Body) {
		return "", core.ErrSessionExpired
	}
	token, err := ExtractToken(res.Response.Body)
	if err != nil {
		return "", &core.AuthError{Reason: "no anti-forgery token found on " + path, Err: err}
	}
	if m.state == StateUnauthenticated {
		m.state = StateTokenFetched
	}
	m.logger.Debug("Fetched anti-forgery token", map[string]interface{}{
		"page":  path,
		"token": token[:min(8, len(token))] + "...",
	})
	return token, nil
}

// FormInputs lists the named input and textarea fields of a page's forms, in
// document order. Used to show a learner what a form actually submits.
func FormInputs(body string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	var names []string
	doc.Find("form input, form textarea").Each(func(_ int, s *goquery.Selection) {
		if name, ok := s.Attr("name"); ok && name != "" {
			names = append(names, name)
		}
	})
	return names, nil
}

// ExtractToken pulls the hidden user_token input out of an HTML form.
func ExtractToken(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	token, ok := doc.Find(`input[name="user_token"]`).Attr("value")
	if !ok || token == "" {
		return "", fmt.Errorf("user_token input not present")
	}
	return token, nil
}

// Login authenticates against the target: fetch a fresh token from the login
// page, POST credentials with it, and verify the authenticated-area marker in
// the result. Failure returns an *core.AuthError.
func (m *SessionManager) Login(ctx context.Context, username, password string) error {
	m.logger.Info("Attempting login", map[string]interface{}{"username": username})

	token, err := m.FetchToken(ctx, LoginPath)
	if err != nil {
		return err
	}

	form := url.Values{
		"username":   {username},
		"password":   {password},
		"Login":      {"Login"},
		"user_token": {token},
	}
	res := m.client.PostForm(ctx, m.target.URL(LoginPath), form)
	if res.Failed() {
		return &core.AuthError{Reason: "login request failed", Err: res.Err}
	}

	body := res.Response.Body
	if SessionExpired(body) || !strings.Contains(body, authenticatedMarker) {
		return &core.AuthError{Reason: "credentials rejected or target is not the expected application"}
	}

	m.state = StateAuthenticated
	m.username = username
	m.password = password
	m.logger.Info("Login successful", map[string]interface{}{"username": username})
	return nil
}

// DetectSecurityLevel reads the current defense posture from the settings
// page without changing it.
func (m *SessionManager) DetectSecurityLevel(ctx context.Context) (core.SecurityLevel, error) {
	if m.state < StateAuthenticated {
		return "", &core.AuthError{Reason: "cannot detect security level before login"}
	}

	res := m.client.Get(ctx, m.target.URL(SecurityPath), nil)
	if res.Failed() {
		return "", &core.AuthError{Reason: "failed to fetch security page", Err: res.Err}
	}
	level, err := parseSecurityLevel(res.Response.Body)
	if err != nil {
		return "", err
	}
	m.logger.Info("Detected security level", map[string]interface{}{"level": level})
	return level, nil
}

// SetSecurityLevel changes the defense posture and verifies the change stuck
// by re-reading the settings page. Failure returns an *core.AuthError.
func (m *SessionManager) SetSecurityLevel(ctx context.Context, level core.SecurityLevel) error {
	if m.state < StateAuthenticated {
		return &core.AuthError{Reason: "cannot set security level before login"}
	}
	if !core.ValidSecurityLevel(string(level)) {
		return &core.AuthError{Reason: "unknown security level " + string(level)}
	}

	token, err := m.FetchToken(ctx, SecurityPath)
	if err != nil {
		return err
	}

	form := url.Values{
		"security":      {string(level)},
		"seclev_submit": {"Submit"},
		"user_token":    {token},
	}
	res := m.client.PostForm(ctx, m.target.URL(SecurityPath), form)
	if res.Failed() {
		return &core.AuthError{Reason: "security level request failed", Err: res.Err}
	}

	// Verify by re-reading the settings page: the selected level must be
	// echoed back.
	echoed, err := m.DetectSecurityLevel(ctx)
	if err != nil {
		return err
	}
	if echoed != level {
		return &core.AuthError{Reason: fmt.Sprintf("security level did not stick: wanted %s, target reports %s", level, echoed)}
	}

	m.level = level
	m.state = StateSecurityLevelSet
	m.logger.Info("Security level set", map[string]interface{}{"level": level})
	return nil
}

// RecoverIfExpired performs exactly one re-login after a detected session
// expiry. A second consecutive expiry, with no healthy step in between, is
// fatal so the run cannot loop on a broken session.
func (m *SessionManager) RecoverIfExpired(ctx context.Context) error {
	m.consecutiveExpiries++
	if m.consecutiveExpiries > 1 {
		return &core.AuthError{Reason: "second consecutive session expiry; giving up"}
	}

	m.logger.Warning("Session expired; attempting one re-login", map[string]interface{}{
		"username": m.username,
	})

	m.state = StateUnauthenticated
	if err := m.Login(ctx, m.username, m.password); err != nil {
		return err
	}
	if m.level != "" {
		if err := m.SetSecurityLevel(ctx, m.level); err != nil {
			return err
		}
	}
	return nil
}

// MarkHealthy resets the consecutive-expiry counter. The orchestrator calls
// this after any step completes without tripping the login marker.
func (m *SessionManager) MarkHealthy() {
	m.consecutiveExpiries = 0
}

// parseSecurityLevel extracts the currently-selected level from the settings
// page, preferring the selected <option> and falling back to the page text.
func parseSecurityLevel(body string) (core.SecurityLevel, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err == nil {
		if value, ok := doc.Find("option[selected]").Attr("value"); ok && value != "" {
			return core.SecurityLevel(strings.ToLower(value)), nil
		}
	}
	if m := securityLevelPattern.FindStringSubmatch(body); m != nil {
		return core.SecurityLevel(strings.ToLower(m[1])), nil
	}
	return "", &core.AuthError{Reason: "could not determine security level from settings page"}
}
