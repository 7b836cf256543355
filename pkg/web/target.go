/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: target.go
Description: Target validation for HackBench. Confirms the configured endpoint is an
authorized lab host (loopback or private address unless explicitly overridden), is
reachable, and fingerprints as the expected vulnerable application before any payload
is allowed to run.
*/

package web

import (
	"context"
	"net"
	"regexp"
	"strings"

	"github.com/kleascm/hackbench/pkg/core"
	"github.com/kleascm/hackbench/pkg/execution"
	"github.com/kleascm/hackbench/pkg/logging"
)

// FingerprintMarker is the string unique to the expected application.
const FingerprintMarker = "Damn Vulnerable Web Application"

// LoginPath is the application's login page, also used as the fingerprint probe path.
const LoginPath = "login.php"

var allowedHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
	"0.0.0.0":   true,
}

var versionPattern = regexp.MustCompile(`v([\d.]+)`)

// Validator vets a target before the run. All later components refuse to run
// against a target that has not passed the full sequence.
type Validator struct {
	client *execution.Client
	logger *logging.Logger
}

// NewValidator creates a target validator using the run's instrumented client.
func NewValidator(client *execution.Client, logger *logging.Logger) *Validator {
	return &Validator{client: client, logger: logger}
}

// Validate runs the authorization, reachability, and fingerprint checks in
// order, mutating target.State as it goes. The authorization check issues no
// requests, so an unauthorized host fails before anything touches the wire.
func (v *Validator) Validate(ctx context.Context, target *core.Target, confirmOverride bool) error {
	if !SafeHost(target.Host) && !confirmOverride {
		target.State = core.TargetRejected
		return &core.ValidationError{
			Reason: "host " + target.Host + " is not loopback or private; pass --confirm-target if this is truly an authorized lab",
		}
	}

	v.logger.Info("Target passed authorization check", map[string]interface{}{
		"host":       target.Host,
		"overridden": confirmOverride && !SafeHost(target.Host),
	})

	// Reachability probe.
	res := v.client.Get(ctx, target.BaseURL(), nil)
	if res.Failed() {
		target.State = core.TargetRejected
		return &core.ValidationError{Reason: "target unreachable", Err: res.Err}
	}
	target.State = core.TargetReachable
	v.logger.Info("Target is reachable", map[string]interface{}{
		"url":    target.BaseURL(),
		"status": res.Response.Status,
	})

	// Fingerprint probe.
	res = v.client.Get(ctx, target.URL(LoginPath), nil)
	if res.Failed() {
		target.State = core.TargetRejected
		return &core.ValidationError{Reason: "fingerprint probe failed", Err: res.Err}
	}
	body := res.Response.Body
	if !strings.Contains(body, FingerprintMarker) && !strings.Contains(body, "DVWA") {
		target.State = core.TargetRejected
		return &core.ValidationError{Reason: "application fingerprint mismatch: expected DVWA markers at " + target.URL(LoginPath)}
	}

	if m := versionPattern.FindStringSubmatch(body); m != nil {
		target.Version = m[1]
	}
	target.State = core.TargetFingerprintMatched

	v.logger.Info("Target fingerprint matched", map[string]interface{}{
		"url":     target.URL(LoginPath),
		"version": target.Version,
	})
	return nil
}

// SafeHost reports whether the host is a known lab host or sits in a private
// or loopback address range. Hostnames other than the known lab names are not
// resolved; they require the explicit override.
func SafeHost(host string) bool {
	if allowedHosts[strings.ToLower(host)] {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}
