/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: replay_writer.go
Description: Append-only replay artifact writer. Captures every dispatched request as a
raw HTTP block plus two curl reproduction commands (direct and via a local intercepting
proxy) in strict dispatch order. Entries are never edited or removed once appended.
*/

package utils

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kleascm/hackbench/pkg/core"
)

// DefaultProxyAddr is the conventional local intercepting-proxy listener.
const DefaultProxyAddr = "http://127.0.0.1:8080"

// ReplayWriter persists every dispatched request to a single timestamped
// text file so each one can be reproduced outside the tool.
type ReplayWriter struct {
	path      string
	file      *os.File
	proxyAddr string

	mu    sync.Mutex
	count int
}

// NewReplayWriter creates the replay artifact under dir. The file is created
// immediately so an interrupted run still leaves a (possibly empty) artifact.
func NewReplayWriter(dir, proxyAddr string) (*ReplayWriter, error) {
	if proxyAddr == "" {
		proxyAddr = DefaultProxyAddr
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create replay directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	path := filepath.Join(dir, fmt.Sprintf("hackbench_replay_%s.txt", timestamp))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file: %w", err)
	}

	return &ReplayWriter{path: path, file: file, proxyAddr: proxyAddr}, nil
}

// Record appends one entry for the given request snapshot. Write order is
// call order; the instrumented client invokes this before dispatching, so the
// artifact order matches dispatch order exactly.
func (w *ReplayWriter) Record(snap *core.RequestSnapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.count++
	entry := w.renderEntry(w.count, snap)
	if _, err := w.file.WriteString(entry); err != nil {
		return fmt.Errorf("failed to append replay entry: %w", err)
	}
	return nil
}

// Path returns the replay artifact location.
func (w *ReplayWriter) Path() string { return w.path }

// Count returns the number of entries appended so far.
func (w *ReplayWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close closes the underlying file.
func (w *ReplayWriter) Close() error {
	return w.file.Close()
}

// renderEntry builds the full text block for one request: header line, raw
// HTTP request, and the two reproduction commands.
func (w *ReplayWriter) renderEntry(seq int, snap *core.RequestSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### Request %d | %s | %s %s\n", seq, snap.Time.Format(time.RFC3339), snap.Method, snap.URL)
	b.WriteString("--- raw ---\n")
	b.WriteString(RenderRawHTTP(snap))
	b.WriteString("--- curl (direct) ---\n")
	b.WriteString(BuildCurlCommand(snap, ""))
	b.WriteString("\n--- curl (via proxy) ---\n")
	b.WriteString(BuildCurlCommand(snap, w.proxyAddr))
	b.WriteString("\n\n")

	return b.String()
}

// RenderRawHTTP renders a snapshot in raw HTTP/1.1 format, suitable for
// pasting into an intercepting proxy's repeater.
func RenderRawHTTP(snap *core.RequestSnapshot) string {
	u, err := url.Parse(snap.URL)
	if err != nil {
		return fmt.Sprintf("(unparseable url %q)\n", snap.URL)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1\n", snap.Method, path)
	fmt.Fprintf(&b, "Host: %s\n", u.Host)

	names := make([]string, 0, len(snap.Header))
	for name := range snap.Header {
		if strings.EqualFold(name, "Host") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range snap.Header[name] {
			fmt.Fprintf(&b, "%s: %s\n", name, value)
		}
	}
	if snap.Cookies != "" {
		fmt.Fprintf(&b, "Cookie: %s\n", snap.Cookies)
	}
	b.WriteString("\n")
	if snap.Body != "" {
		b.WriteString(snap.Body)
		b.WriteString("\n")
	}
	return b.String()
}

// BuildCurlCommand renders a snapshot as a curl invocation. An empty
// proxyAddr produces the direct form; otherwise --proxy is included so the
// request can be routed through an intercepting proxy.
func BuildCurlCommand(snap *core.RequestSnapshot, proxyAddr string) string {
	parts := []string{"curl", "-sS"}
	if proxyAddr != "" {
		parts = append(parts, "--proxy", proxyAddr)
	}
	if snap.Cookies != "" {
		parts = append(parts, "--cookie", shellQuote(snap.Cookies))
	}

	if snap.Method == "GET" {
		base := snap.URL
		if u, err := url.Parse(snap.URL); err == nil && len(snap.Params) > 0 {
			u.RawQuery = ""
			base = u.String()
		}
		parts = append(parts, "-G", shellQuote(base))
		for _, key := range sortedKeys(snap.Params) {
			for _, value := range snap.Params[key] {
				safe := strings.ReplaceAll(value, "\n", "\\n")
				parts = append(parts, "--data-urlencode", shellQuote(key+"="+safe))
			}
		}
	} else {
		parts = append(parts, "-X", snap.Method, shellQuote(snap.URL))
		for _, key := range sortedKeys(snap.Form) {
			for _, value := range snap.Form[key] {
				safe := strings.ReplaceAll(value, "\n", "\\n")
				parts = append(parts, "-d", shellQuote(key+"="+safe))
			}
		}
	}

	return strings.Join(parts, " ")
}

// shellQuote single-quotes a string for POSIX shells, escaping embedded
// single quotes with the '\'' idiom.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func sortedKeys(values url.Values) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
