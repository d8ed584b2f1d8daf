package mirror

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chessmistry-api/internal/models"
	"chessmistry-api/internal/stats"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Name() string { return "mock" }

func (m *mockSink) Push(ctx context.Context, row Row) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *mockSink) Close() error { return nil }

func sampleUser(username string) models.User {
	u := models.NewUser(username, "$argon2id$secret-hash", "")
	u.ID = 7
	u.ApplyResult(models.ResultWin, 30)
	u.SetDevice("dev-1", "Pixel")
	return *u
}

func TestRowFromUser(t *testing.T) {
	u := sampleUser("alice")

	row := RowFromUser(u)

	require.Len(t, row, len(Columns))
	assert.Equal(t, "7", row[0])
	assert.Equal(t, "alice", row.Username())
	assert.Equal(t, "alice", row[2])
	assert.Equal(t, "1", row[3])
	assert.Equal(t, "1", row[6])
	assert.Equal(t, "dev-1", row[8])
	assert.Equal(t, "dark", row[10])
	assert.Equal(t, "30", row[14])
	for _, v := range row {
		assert.NotContains(t, v, "secret-hash")
	}
	assert.Equal(t, "Pixel", row.Map()["Device Name"])
}

func TestMirrorPushesQueuedUsers(t *testing.T) {
	sink := new(mockSink)
	sink.On("Push", mock.Anything, mock.MatchedBy(func(r Row) bool { return r.Username() == "alice" })).
		Return(nil).Once()
	sink.On("Push", mock.Anything, mock.MatchedBy(func(r Row) bool { return r.Username() == "bob" })).
		Return(nil).Once()

	m := New(sink, 8, nil, nil)
	m.Notify(sampleUser("alice"))
	m.Notify(sampleUser("bob"))

	require.NoError(t, m.Close(context.Background()))
	sink.AssertExpectations(t)
}

func TestMirrorFailureIsCountedNotReturned(t *testing.T) {
	sink := new(mockSink)
	sink.On("Push", mock.Anything, mock.Anything).Return(errors.New("quota exceeded"))
	reg := prometheus.NewRegistry()
	collector := stats.NewCollector(reg)

	m := New(sink, 4, nil, collector)
	m.Notify(sampleUser("alice"))
	require.NoError(t, m.Close(context.Background()))

	sink.AssertNumberOfCalls(t, "Push", 1)
	expected := `
# HELP chessmistry_sync_pushes_total External stats mirror pushes by sink and outcome.
# TYPE chessmistry_sync_pushes_total counter
chessmistry_sync_pushes_total{outcome="failure",sink="mock"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "chessmistry_sync_pushes_total"))
}

func TestMirrorNotifyDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	sink := new(mockSink)
	sink.On("Push", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil)

	m := New(sink, 1, nil, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			m.Notify(sampleUser("alice"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a slow sink")
	}

	close(release)
	require.NoError(t, m.Close(context.Background()))
}

func TestMirrorNotifyAfterClose(t *testing.T) {
	sink := new(mockSink)
	m := New(sink, 1, nil, nil)
	require.NoError(t, m.Close(context.Background()))

	assert.NotPanics(t, func() { m.Notify(sampleUser("alice")) })
	require.NoError(t, m.Close(context.Background()))
	sink.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
}

func TestMirrorCloseHonorsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	sink := new(mockSink)
	sink.On("Push", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil)

	m := New(sink, 1, nil, nil)
	m.Notify(sampleUser("alice"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Close(ctx), context.DeadlineExceeded)
}

func TestNoopSink(t *testing.T) {
	var s Sink = NoopSink{}
	assert.Equal(t, "noop", s.Name())
	assert.NoError(t, s.Push(context.Background(), RowFromUser(sampleUser("alice"))))
	assert.NoError(t, s.Close())
}
