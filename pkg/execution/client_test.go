/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: client_test.go
Description: Tests for the instrumented HTTP client. Covers pre-dispatch
snapshot recording, snapshot fidelity for GET and POST, cookie jar behavior,
and the reflection signal.
*/

package execution_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/kleascm/hackbench/pkg/core"
	"github.com/kleascm/hackbench/pkg/execution"
	"github.com/kleascm/hackbench/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRecorder keeps snapshots in dispatch order.
type memoryRecorder struct {
	mu    sync.Mutex
	snaps []*core.RequestSnapshot
}

func (r *memoryRecorder) Record(snap *core.RequestSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
	return nil
}

func newTestClient(t *testing.T, recorder execution.Recorder) *execution.Client {
	t.Helper()
	logger := logging.NewWithWriters(io.Discard, io.Discard)
	client, err := execution.NewClient(recorder, logger, 5*time.Second)
	require.NoError(t, err)
	return client
}

// TestSnapshotRecordedBeforeDispatch verifies that even a request that never
// completes leaves its entry behind: the record is taken before dispatch.
func TestSnapshotRecordedBeforeDispatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close() // connection refused from here on

	recorder := &memoryRecorder{}
	client := newTestClient(t, recorder)

	res := client.Get(context.Background(), deadURL, nil)
	require.True(t, res.Failed())
	require.Len(t, recorder.snaps, 1)
	assert.Equal(t, "GET", recorder.snaps[0].Method)
	assert.NotEmpty(t, recorder.snaps[0].ID)
}

// TestGetSnapshotCarriesParams verifies the snapshot captures query
// parameters and the final URL.
func TestGetSnapshotCarriesParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "Hello "+r.URL.Query().Get("name"))
	}))
	defer server.Close()

	recorder := &memoryRecorder{}
	client := newTestClient(t, recorder)

	res := client.Get(context.Background(), server.URL+"/page", url.Values{"name": {"Alice"}})
	require.False(t, res.Failed())
	assert.Contains(t, res.Response.Body, "Hello Alice")

	require.Len(t, recorder.snaps, 1)
	snap := recorder.snaps[0]
	assert.Equal(t, "Alice", snap.Params.Get("name"))
	assert.Contains(t, snap.URL, "name=Alice")
}

// TestPostFormSnapshotCarriesBody verifies form fields survive into the
// snapshot body.
func TestPostFormSnapshotCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		io.WriteString(w, "got "+r.PostFormValue("field"))
	}))
	defer server.Close()

	recorder := &memoryRecorder{}
	client := newTestClient(t, recorder)

	res := client.PostForm(context.Background(), server.URL, url.Values{"field": {"value"}})
	require.False(t, res.Failed())
	assert.Contains(t, res.Response.Body, "got value")

	require.Len(t, recorder.snaps, 1)
	snap := recorder.snaps[0]
	assert.Equal(t, "POST", snap.Method)
	assert.Equal(t, "value", snap.Form.Get("field"))
	assert.Contains(t, snap.Body, "field=value")
}

// TestCookieJarPersistsAcrossRequests verifies a Set-Cookie from one response
// rides along on the next request and shows up in its snapshot.
func TestCookieJarPersistsAcrossRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/set", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc123", Path: "/"})
	})
	mux.HandleFunc("/read", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("PHPSESSID")
		if err == nil {
			io.WriteString(w, cookie.Value)
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	recorder := &memoryRecorder{}
	client := newTestClient(t, recorder)
	ctx := context.Background()

	require.False(t, client.Get(ctx, server.URL+"/set", nil).Failed())
	res := client.Get(ctx, server.URL+"/read", nil)
	require.False(t, res.Failed())
	assert.Equal(t, "abc123", res.Response.Body)

	assert.Equal(t, "abc123", client.Cookie(server.URL, "PHPSESSID"))
	require.Len(t, recorder.snaps, 2)
	assert.Contains(t, recorder.snaps[1].Cookies, "PHPSESSID=abc123")
}

// TestReflects verifies the reflection signal over literal, entity-decoded,
// and case-folded appearances.
func TestReflects(t *testing.T) {
	payload := `<script>alert(1)</script>`

	literal := &core.ResponseSnapshot{Body: "x " + payload + " y"}
	assert.True(t, execution.Reflects(literal, payload))

	cased := &core.ResponseSnapshot{Body: `<SCRIPT>alert(1)</SCRIPT>`}
	assert.True(t, execution.Reflects(cased, payload))

	absent := &core.ResponseSnapshot{Body: "nothing here"}
	assert.False(t, execution.Reflects(absent, payload))

	assert.False(t, execution.Reflects(nil, payload))
	assert.False(t, execution.Reflects(literal, ""))
}
