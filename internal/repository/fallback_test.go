package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/roadmap/internal/domain"
	"github.com/alexanderramin/roadmap/internal/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory DocumentRepo whose calls fail while err is set.
type memRepo struct {
	mu   sync.Mutex
	docs map[string]Document
	err  error
}

func newMemRepo() *memRepo { return &memRepo{docs: make(map[string]Document)} }

func (m *memRepo) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *memRepo) Load(_ context.Context, key string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.docs[key]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", key, domain.ErrNotFound)
	}
	return &d, nil
}

func (m *memRepo) Save(_ context.Context, key string, body json.RawMessage) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if !json.Valid(body) {
		return nil, domain.ErrValidation
	}
	d := Document{Key: key, Body: body, Revision: m.docs[key].Revision + 1, UpdatedAt: time.Now()}
	m.docs[key] = d
	return &d, nil
}

func (m *memRepo) SaveMany(ctx context.Context, docs map[string]json.RawMessage) error {
	for k, v := range docs {
		if _, err := m.Save(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

func (m *memRepo) History(context.Context, string, int) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return nil, m.err
}

func dialTo(repo DocumentRepo) CloudDialer {
	return func(context.Context) (DocumentRepo, func(), error) {
		return repo, func() {}, nil
	}
}

var errDown = errors.New("connection refused")

func TestConnect_NoCloudConfigured(t *testing.T) {
	local := newMemRepo()
	r := Connect(context.Background(), local, nil, time.Second, nil, nil)

	st := r.Status()
	assert.Equal(t, BackendLocal, st.Backend)
	assert.False(t, st.CloudConfigured)
	assert.Empty(t, st.Banner)
	assert.Equal(t, "local", st.String())
}

func TestConnect_DialErrorFallsBack(t *testing.T) {
	local := newMemRepo()
	dial := func(context.Context) (DocumentRepo, func(), error) { return nil, nil, errDown }
	r := Connect(context.Background(), local, dial, time.Second, resilience.NewBreaker(3, time.Minute), nil)

	st := r.Status()
	assert.Equal(t, BackendLocal, st.Backend)
	assert.True(t, st.CloudConfigured)
	assert.Contains(t, st.Banner, "connection refused")

	_, err := r.Save(context.Background(), "k", json.RawMessage(`{}`))
	require.NoError(t, err)
	_, err = local.Load(context.Background(), "k")
	assert.NoError(t, err)
}

func TestConnect_BoundedWait(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	dial := func(context.Context) (DocumentRepo, func(), error) {
		<-release // ignores ctx on purpose
		return nil, nil, errDown
	}

	start := time.Now()
	r := Connect(context.Background(), newMemRepo(), dial, 50*time.Millisecond, nil, nil)
	assert.Less(t, time.Since(start), time.Second)

	st := r.Status()
	assert.Equal(t, BackendLocal, st.Backend)
	assert.Contains(t, st.Banner, "no answer within")
}

func TestFallbackRepo_CloudServesAndMirrors(t *testing.T) {
	ctx := context.Background()
	local, cloud := newMemRepo(), newMemRepo()
	r := Connect(ctx, local, dialTo(cloud), time.Second, resilience.NewBreaker(3, time.Minute), nil)
	assert.Equal(t, BackendCloud, r.Status().Backend)

	_, err := r.Save(ctx, "k", json.RawMessage(`{"v":1}`))
	require.NoError(t, err)

	fromCloud, err := cloud.Load(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(fromCloud.Body))
	fromLocal, err := local.Load(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(fromLocal.Body))

	got, err := r.Load(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(got.Body))
}

func TestFallbackRepo_CloudMissingUsesLocalCopy(t *testing.T) {
	ctx := context.Background()
	local, cloud := newMemRepo(), newMemRepo()
	_, err := local.Save(ctx, "k", json.RawMessage(`{"v":"local"}`))
	require.NoError(t, err)

	r := Connect(ctx, local, dialTo(cloud), time.Second, resilience.NewBreaker(1, time.Minute), nil)
	got, err := r.Load(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"local"}`, string(got.Body))
	assert.Equal(t, resilience.StateClosed.String(), r.Status().Breaker)
}

func TestFallbackRepo_CloudFailureAfterConnect(t *testing.T) {
	ctx := context.Background()
	local, cloud := newMemRepo(), newMemRepo()
	r := Connect(ctx, local, dialTo(cloud), time.Second, resilience.NewBreaker(2, time.Minute), nil)

	cloud.fail(errDown)
	for i := 0; i < 3; i++ {
		_, err := r.Save(ctx, "k", json.RawMessage(fmt.Sprintf(`{"n":%d}`, i)))
		require.NoError(t, err)
	}

	st := r.Status()
	assert.Equal(t, BackendLocal, st.Backend)
	assert.Equal(t, "open", st.Breaker)
	assert.Contains(t, st.Banner, "cloud unavailable")

	got, err := local.Load(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":2}`, string(got.Body))
}

func TestFallbackRepo_RecoveryClearsBanner(t *testing.T) {
	ctx := context.Background()
	local, cloud := newMemRepo(), newMemRepo()
	r := Connect(ctx, local, dialTo(cloud), time.Second, resilience.NewBreaker(5, time.Minute), nil)

	cloud.fail(errDown)
	_, err := r.Load(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotEmpty(t, r.Status().Banner)

	cloud.fail(nil)
	_, err = r.Save(ctx, "k", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Empty(t, r.Status().Banner)
	assert.Equal(t, BackendCloud, r.Status().Backend)
}

func TestFallbackRepo_ValidationIsNotAnOutage(t *testing.T) {
	ctx := context.Background()
	local, cloud := newMemRepo(), newMemRepo()
	r := Connect(ctx, local, dialTo(cloud), time.Second, resilience.NewBreaker(1, time.Minute), nil)

	_, err := r.Save(ctx, "k", json.RawMessage(`{`))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, r.Status().Banner)
	assert.Equal(t, BackendCloud, r.Status().Backend)
}

func TestNewLocalRepo(t *testing.T) {
	local := newMemRepo()
	r := NewLocalRepo(local, nil)
	require.NoError(t, r.SaveMany(context.Background(), map[string]json.RawMessage{"a": json.RawMessage(`1`)}))
	_, err := local.Load(context.Background(), "a")
	assert.NoError(t, err)
	r.Close()
}
