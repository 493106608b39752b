package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

type versionedPinger struct {
	stubPinger
	version    string
	versionErr error
}

func (p versionedPinger) Version(context.Context) (string, error) { return p.version, p.versionErr }

// slowPinger blocks until its context expires.
type slowPinger struct{}

func (slowPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestHealthChecker_Check(t *testing.T) {
	checker := NewHealthChecker(
		HealthTarget{Name: "Qdrant", URL: "http://localhost:6333", Pinger: versionedPinger{version: "1.12.0"}},
		HealthTarget{Name: "Ollama", URL: "http://localhost:11434", Pinger: stubPinger{err: errors.New("connection refused")}},
		HealthTarget{Name: "Whisper", URL: "", Pinger: nil},
	)

	report := checker.Check(context.Background())

	require.Len(t, report.Services, 2, "nil pingers are skipped")
	assert.False(t, report.Healthy())

	qdrant := report.Services[0]
	assert.Equal(t, "Qdrant", qdrant.Name)
	assert.True(t, qdrant.Running)
	assert.Equal(t, "1.12.0", qdrant.Version)
	assert.Empty(t, qdrant.Error)

	ollama := report.Services[1]
	assert.False(t, ollama.Running)
	assert.Equal(t, "connection refused", ollama.Error)
	assert.Empty(t, ollama.Version)
}

func TestHealthChecker_VersionFailureStillRunning(t *testing.T) {
	checker := NewHealthChecker(HealthTarget{
		Name:   "Ollama",
		Pinger: versionedPinger{versionErr: errors.New("404")},
	})

	report := checker.Check(context.Background())
	require.Len(t, report.Services, 1)
	assert.True(t, report.Services[0].Running)
	assert.Empty(t, report.Services[0].Version)
	assert.True(t, report.Healthy())
}

func TestHealthChecker_RequireHealthy(t *testing.T) {
	t.Run("all reachable", func(t *testing.T) {
		checker := NewHealthChecker(
			HealthTarget{Name: "Qdrant", Pinger: stubPinger{}},
			HealthTarget{Name: "Ollama", Pinger: stubPinger{}},
		)
		assert.NoError(t, checker.RequireHealthy(context.Background()))
	})

	t.Run("names first failure", func(t *testing.T) {
		checker := NewHealthChecker(
			HealthTarget{Name: "Qdrant", URL: "http://localhost:6333", Pinger: stubPinger{err: errors.New("refused")}},
			HealthTarget{Name: "Ollama", Pinger: stubPinger{err: errors.New("also down")}},
		)
		err := checker.RequireHealthy(context.Background())
		require.Error(t, err)
		assert.Equal(t, "Qdrant is not reachable at http://localhost:6333: refused", err.Error())
	})

	t.Run("no targets", func(t *testing.T) {
		assert.NoError(t, NewHealthChecker().RequireHealthy(context.Background()))
	})
}

func TestHealthChecker_ProbeTimeout(t *testing.T) {
	checker := NewHealthChecker(HealthTarget{Name: "Slow", Pinger: slowPinger{}})
	checker.timeout = 20 * time.Millisecond

	start := time.Now()
	report := checker.Check(context.Background())

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, report.Services, 1)
	assert.False(t, report.Services[0].Running)
	assert.Contains(t, report.Services[0].Error, "deadline exceeded")
}
