package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sdnalyzer/sdnalyzer/internal/observer"
	"github.com/sdnalyzer/sdnalyzer/internal/testutil"
)

type fakeObserver struct{ status observer.Status }

func (f fakeObserver) Status() observer.Status { return f.status }

type fakeRunner struct {
	ranAll  bool
	ranName string
	err     error
}

func (f *fakeRunner) RunByName(ctx context.Context, name string) error {
	f.ranName = name
	return f.err
}

func (f *fakeRunner) RunAll(ctx context.Context) []error {
	f.ranAll = true
	if f.err != nil {
		return []error{f.err}
	}
	return nil
}

func newTestServer(t *testing.T, runner *fakeRunner, username, password string) *Server {
	t.Helper()
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := New(Config{
		Logger:     testutil.NewLogger(),
		ListenAddr: "127.0.0.1:0",
		Username:   username,
		Password:   password,
		Observer:   fakeObserver{status: observer.Status{Started: started, Healthy: true}},
		Runner:     runner,
		AppName:    "sdnalyzer",
	})
	require.NoError(t, err)
	return s
}

func TestStatusHandler(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, "", "")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	s.httpSrv.Handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body statusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "sdnalyzer", body.App)
	require.True(t, body.Healthy)
}

func TestRunHandler_All(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestServer(t, runner, "", "")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/run", nil)
	s.httpSrv.Handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, runner.ranAll)
	var body runResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.True(t, body.Success)
}

func TestRunHandler_ByName(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestServer(t, runner, "", "")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/run/SimpleLinkStatistics", nil)
	s.httpSrv.Handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "SimpleLinkStatistics", runner.ranName)
}

func TestRunHandler_Failure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("boom")}
	s := newTestServer(t, runner, "", "")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/run", nil)
	s.httpSrv.Handler.ServeHTTP(rr, req)

	var body runResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.False(t, body.Success)
}

func TestFallbackHandler(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, "", "")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	s.httpSrv.Handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAuth_RequiresCredentials(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, "admin", "secret")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	s.httpSrv.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.SetBasicAuth("admin", "wrong")
	s.httpSrv.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.SetBasicAuth("admin", "secret")
	s.httpSrv.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}
