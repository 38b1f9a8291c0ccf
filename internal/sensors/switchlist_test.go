package sensors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sdnalyzer/sdnalyzer/internal/controller"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *controller.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := controller.New(controller.Config{BaseURL: srv.URL + "/wm/"})
	require.NoError(t, err)
	return c
}

func TestSwitchList_Prepare(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wm/core/controller/switches/json", r.URL.Path)
		w.Write([]byte(`[{"switchDPID": "00:00:00:00:00:00:00:01", "connectedSince": "1420070400000"}]`))
	})

	s := NewSwitchList(client)
	require.NoError(t, s.Prepare(context.Background()))
	require.Len(t, s.data, 1)
	require.Equal(t, "00:00:00:00:00:00:00:01", s.data[0].SwitchDPID)
}

func TestParseControllerTime(t *testing.T) {
	t.Run("millisecond epoch", func(t *testing.T) {
		tm, ok := parseControllerTime("1420070400000")
		require.True(t, ok)
		require.Equal(t, int64(1420070400), tm.Unix())
	})

	t.Run("second epoch", func(t *testing.T) {
		tm, ok := parseControllerTime("1420070400")
		require.True(t, ok)
		require.Equal(t, int64(1420070400), tm.Unix())
	})

	t.Run("empty is absent", func(t *testing.T) {
		_, ok := parseControllerTime("")
		require.False(t, ok)
	})
}

func TestDelay_Prepare_NotFoundCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": 404}`))
	})
	d := NewDelay(client)
	require.NoError(t, d.Prepare(context.Background()))
	require.True(t, d.notFound)
	require.NoError(t, d.Apply(context.Background(), nil, time.Now()))
}
