package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pbanos/copse/feature"
	"github.com/pbanos/copse/feature/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/redis.v5"
)

type fakeClient struct {
	data   map[string]string
	failed bool
	closed bool
}

func (fc *fakeClient) Get(key string) *redis.StringCmd {
	if fc.failed {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := fc.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (fc *fakeClient) Set(key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if fc.failed {
		return redis.NewStatusResult("", errors.New("connection refused"))
	}
	fc.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (fc *fakeClient) Del(keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := fc.data[k]; ok {
			delete(fc.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (fc *fakeClient) Close() error {
	fc.closed = true
	return nil
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	fc := &fakeClient{data: make(map[string]string)}
	s := New(fc, "copse", json.NewRuleEncodeDecoder(nil))
	rule := feature.Rule{Feature: "Sex", Operator: feature.Equal, Threshold: 1}

	r, err := s.Get(ctx, "abc", "2")
	require.NoError(t, err)
	assert.Nil(t, r)

	require.NoError(t, s.Store(ctx, "abc", "2", rule))
	assert.Equal(t, map[string]string{"copse:abc:2": `{"f":"Sex","o":"==","t":"1"}`}, fc.data)

	r, err = s.Get(ctx, "abc", "2")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, rule, *r)

	require.NoError(t, s.Delete(ctx, "abc", "2"))
	assert.Empty(t, fc.data)

	require.NoError(t, s.Close(ctx))
	assert.True(t, fc.closed)
}

func TestRedisStoreErrors(t *testing.T) {
	ctx := context.Background()
	fc := &fakeClient{data: map[string]string{"copse:abc:1": `{"f":"Age","o":"<","t":"NaN"}`}}
	s := New(fc, "copse", json.NewRuleEncodeDecoder(nil))

	_, err := s.Get(ctx, "abc", "1")
	assert.ErrorIs(t, err, feature.ErrInvalidRule)

	err = s.Store(ctx, "abc", "1", feature.Rule{Feature: "Age", Operator: "!", Threshold: 1})
	assert.ErrorIs(t, err, feature.ErrInvalidRule)

	fc.failed = true
	_, err = s.Get(ctx, "abc", "1")
	assert.Error(t, err)
	assert.Error(t, s.Store(ctx, "abc", "1", feature.Rule{Feature: "Age", Operator: feature.LessThan, Threshold: 1}))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.Delete(cctx, "abc", "1"), context.Canceled)
}
