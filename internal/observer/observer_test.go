package observer

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sdnalyzer/sdnalyzer/internal/sensors"
	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

type fakeSensor struct {
	name        string
	prepareErr  error
	prepareWait time.Duration
}

func (f *fakeSensor) Name() string { return f.name }

func (f *fakeSensor) Prepare(ctx context.Context) error {
	if f.prepareWait > 0 {
		select {
		case <-time.After(f.prepareWait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.prepareErr
}

func (f *fakeSensor) Apply(ctx context.Context, sess *store.Session, now time.Time) error {
	return nil
}

func newTestObserver(t *testing.T, sns []sensors.Sensor) *Observer {
	t.Helper()
	o := &Observer{
		log: slog.Default(),
		cfg: Config{
			Logger:       slog.Default(),
			Sensors:      sns,
			PollInterval: time.Second,
		},
	}
	return o
}

func TestObserver_PrepareAll_AllSucceed(t *testing.T) {
	o := newTestObserver(t, []sensors.Sensor{
		&fakeSensor{name: "A"},
		&fakeSensor{name: "B"},
	})
	require.NoError(t, o.prepareAll(context.Background()))
}

func TestObserver_PrepareAll_OneFails(t *testing.T) {
	o := newTestObserver(t, []sensors.Sensor{
		&fakeSensor{name: "A"},
		&fakeSensor{name: "B", prepareErr: errors.New("boom")},
	})
	err := o.prepareAll(context.Background())
	require.Error(t, err)
}

func TestObserver_PrepareAll_Timeout(t *testing.T) {
	o := newTestObserver(t, []sensors.Sensor{
		&fakeSensor{name: "slow", prepareWait: 50 * time.Millisecond},
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	err := o.prepareAll(ctx)
	require.Error(t, err)
}

func TestObserver_Status_DefaultsUnhealthy(t *testing.T) {
	o := newTestObserver(t, []sensors.Sensor{&fakeSensor{name: "A"}})
	st := o.Status()
	require.False(t, st.Healthy)
	require.Equal(t, time.Second, st.PollInterval)
}
