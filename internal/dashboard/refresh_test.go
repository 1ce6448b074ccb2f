package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/unit-tracker/internal/domain/model"
)

func TestRefresher_ReloadsOnTick(t *testing.T) {
	api := newFakeAPI(unit(1, "А1", "Done"))
	api.counts = []model.StatusCount{{Status: "Done", Count: 1}}
	s := NewStore(api, discardLogger())
	defer s.Close()

	var cycles atomic.Int32
	r := NewRefresher(s, 10*time.Millisecond, discardLogger(), func() { cycles.Add(1) })
	r.Start(context.Background())

	require.Eventually(t, func() bool { return cycles.Load() >= 2 }, time.Second, 5*time.Millisecond)
	r.Stop()

	assert.GreaterOrEqual(t, api.lists(), 2)
	assert.Equal(t, []int64{1}, ids(s.All()))
	assert.Equal(t, 1, s.Stats().Total)
}

func TestRefresher_ErrorsDoNotStopLoop(t *testing.T) {
	api := newFakeAPI()
	api.listErr = errors.New("unavailable")
	s := NewStore(api, discardLogger())
	defer s.Close()

	var cycles atomic.Int32
	r := NewRefresher(s, 10*time.Millisecond, discardLogger(), func() { cycles.Add(1) })
	r.Start(context.Background())

	require.Eventually(t, func() bool { return cycles.Load() >= 3 }, time.Second, 5*time.Millisecond)
	r.Stop()
}

func TestRefresher_Defaults(t *testing.T) {
	s := NewStore(newFakeAPI(), discardLogger())
	defer s.Close()

	r := NewRefresher(s, 0, discardLogger(), nil)
	assert.Equal(t, RefreshInterval, r.interval)
	// Stop без Start безопасен
	r.Stop()
}
