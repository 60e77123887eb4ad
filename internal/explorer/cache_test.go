package explorer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Mohsinsiddi/txdash/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls int
	recs  chain.RawRecords
	err   error
}

func (s *countingSource) Fetch(_ context.Context, _, _ string) (chain.RawRecords, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.recs, nil
}

func TestCachedSourceServesRepeatCallsFromMemory(t *testing.T) {
	inner := &countingSource{recs: chain.RawRecords{{"hash": "0xA"}}}
	cs := NewCachedSource(inner, 4, time.Minute, nil)

	for i := 0; i < 3; i++ {
		recs, err := cs.Fetch(context.Background(), "key", "0xWATCH")
		require.NoError(t, err)
		assert.Len(t, recs, 1)
	}
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, cs.Len())
}

func TestCachedSourceKeyIgnoresAddressCase(t *testing.T) {
	inner := &countingSource{recs: chain.RawRecords{}}
	cs := NewCachedSource(inner, 4, time.Minute, nil)

	_, _ = cs.Fetch(context.Background(), "key", "0xABC")
	_, _ = cs.Fetch(context.Background(), "key", "0xabc")
	assert.Equal(t, 1, inner.calls)
}

func TestCachedSourceSeparatesCredentials(t *testing.T) {
	inner := &countingSource{recs: chain.RawRecords{}}
	cs := NewCachedSource(inner, 4, time.Minute, nil)

	_, _ = cs.Fetch(context.Background(), "key-1", "0xabc")
	_, _ = cs.Fetch(context.Background(), "key-2", "0xabc")
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSourceExpiresAfterTTL(t *testing.T) {
	inner := &countingSource{recs: chain.RawRecords{}}
	cs := NewCachedSource(inner, 4, 30*time.Millisecond, nil)

	_, _ = cs.Fetch(context.Background(), "key", "0xabc")
	time.Sleep(80 * time.Millisecond)
	_, _ = cs.Fetch(context.Background(), "key", "0xabc")
	assert.Equal(t, 2, inner.calls, "an interval longer than the TTL must reach the source again")
}

func TestCachedSourceDoesNotCacheFailures(t *testing.T) {
	inner := &countingSource{err: &NetworkError{Detail: "down"}}
	cs := NewCachedSource(inner, 4, time.Minute, nil)

	_, err := cs.Fetch(context.Background(), "key", "0xabc")
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))

	inner.err = nil
	inner.recs = chain.RawRecords{{"hash": "0xA"}}
	recs, err := cs.Fetch(context.Background(), "key", "0xabc")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSourceInvalidate(t *testing.T) {
	inner := &countingSource{recs: chain.RawRecords{}}
	cs := NewCachedSource(inner, 4, time.Minute, nil)

	_, _ = cs.Fetch(context.Background(), "key", "0xabc")
	cs.Invalidate("key", "0xABC")
	_, _ = cs.Fetch(context.Background(), "key", "0xabc")
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSourceIsBounded(t *testing.T) {
	inner := &countingSource{recs: chain.RawRecords{}}
	cs := NewCachedSource(inner, 2, time.Minute, nil)

	for _, addr := range []string{"0x1", "0x2", "0x3"} {
		_, _ = cs.Fetch(context.Background(), "key", addr)
	}
	assert.Equal(t, 2, cs.Len())

	cs.Purge()
	assert.Zero(t, cs.Len())
}

func TestSourceFuncAdapter(t *testing.T) {
	var src Source = SourceFunc(func(_ context.Context, cred, addr string) (chain.RawRecords, error) {
		return chain.RawRecords{{"hash": cred + addr}}, nil
	})
	recs, err := src.Fetch(context.Background(), "k", "0xa")
	require.NoError(t, err)
	assert.Equal(t, "k0xa", recs[0]["hash"])
}
