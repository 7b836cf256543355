/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: replay_writer_test.go
Description: Tests for the replay artifact writer. Covers append-only dispatch
ordering, the raw HTTP rendering, and the direct and proxied curl forms.
*/

package utils_test

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/kleascm/hackbench/pkg/core"
	"github.com/kleascm/hackbench/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(method, rawURL string) *core.RequestSnapshot {
	return &core.RequestSnapshot{
		ID:     "test-id",
		Time:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Method: method,
		URL:    rawURL,
		Header: http.Header{"User-Agent": {"HackBench/1.0"}},
	}
}

// TestReplayEntriesKeepDispatchOrder verifies the artifact numbers entries in
// call order and never rewrites earlier ones.
func TestReplayEntriesKeepDispatchOrder(t *testing.T) {
	writer, err := utils.NewReplayWriter(t.TempDir(), "")
	require.NoError(t, err)
	defer writer.Close()

	const n = 5
	for i := 0; i < n; i++ {
		snap := snapshot("GET", fmt.Sprintf("http://localhost/page%d", i))
		require.NoError(t, writer.Record(snap))
	}
	assert.Equal(t, n, writer.Count())

	data, err := os.ReadFile(writer.Path())
	require.NoError(t, err)
	content := string(data)

	last := -1
	for i := 1; i <= n; i++ {
		pos := strings.Index(content, fmt.Sprintf("### Request %d |", i))
		require.NotEqual(t, -1, pos, "entry %d missing", i)
		assert.Greater(t, pos, last, "entry %d out of order", i)
		last = pos
	}
	assert.Contains(t, content, "http://localhost/page0")
	assert.Contains(t, content, fmt.Sprintf("http://localhost/page%d", n-1))
}

// TestRenderRawHTTP verifies the repeater-ready raw block.
func TestRenderRawHTTP(t *testing.T) {
	snap := snapshot("GET", "http://localhost:8080/vulnerabilities/xss_r/?name=probe")
	snap.Cookies = "PHPSESSID=abc; security=low"

	raw := utils.RenderRawHTTP(snap)
	assert.Contains(t, raw, "GET /vulnerabilities/xss_r/?name=probe HTTP/1.1")
	assert.Contains(t, raw, "Host: localhost:8080")
	assert.Contains(t, raw, "User-Agent: HackBench/1.0")
	assert.Contains(t, raw, "Cookie: PHPSESSID=abc; security=low")
}

// TestBuildCurlCommandGET verifies the -G form with url-encoded parameters
// and the proxied variant.
func TestBuildCurlCommandGET(t *testing.T) {
	snap := snapshot("GET", "http://localhost/vulnerabilities/xss_r/?name=%3Cscript%3E")
	snap.Params = url.Values{"name": {"<script>"}}
	snap.Cookies = "PHPSESSID=abc"

	direct := utils.BuildCurlCommand(snap, "")
	assert.Contains(t, direct, "curl -sS")
	assert.Contains(t, direct, "-G 'http://localhost/vulnerabilities/xss_r/'")
	assert.Contains(t, direct, "--data-urlencode 'name=<script>'")
	assert.Contains(t, direct, "--cookie 'PHPSESSID=abc'")
	assert.NotContains(t, direct, "--proxy")

	proxied := utils.BuildCurlCommand(snap, utils.DefaultProxyAddr)
	assert.Contains(t, proxied, "--proxy http://127.0.0.1:8080")
}

// TestBuildCurlCommandPOST verifies the -X form with -d fields.
func TestBuildCurlCommandPOST(t *testing.T) {
	snap := snapshot("POST", "http://localhost/login.php")
	snap.Form = url.Values{
		"username": {"admin"},
		"password": {"password"},
	}

	command := utils.BuildCurlCommand(snap, "")
	assert.Contains(t, command, "-X POST 'http://localhost/login.php'")
	assert.Contains(t, command, "-d 'username=admin'")
	assert.Contains(t, command, "-d 'password=password'")
}

// TestShellQuotingOfSingleQuotes verifies payloads containing single quotes
// survive quoting.
func TestShellQuotingOfSingleQuotes(t *testing.T) {
	snap := snapshot("GET", "http://localhost/page")
	snap.Params = url.Values{"q": {"alert('xss')"}}

	command := utils.BuildCurlCommand(snap, "")
	assert.Contains(t, command, `'q=alert('\''xss'\'')'`)
}
