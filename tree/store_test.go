package tree

import (
	"context"
	"testing"

	"github.com/pbanos/copse/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRuleStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRuleStore()
	defer s.Close(ctx)

	r, err := s.Get(ctx, "session", "1")
	require.NoError(t, err)
	assert.Nil(t, r)

	require.NoError(t, s.Store(ctx, "session", "1", pclassRule))
	r, err = s.Get(ctx, "session", "1")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, pclassRule, *r)

	r, err = s.Get(ctx, "other", "1")
	require.NoError(t, err)
	assert.Nil(t, r, "rules are kept per session")

	err = s.Store(ctx, "session", "2", feature.Rule{Feature: "Age", Operator: "?", Threshold: 1})
	assert.ErrorIs(t, err, feature.ErrInvalidRule)

	require.NoError(t, s.Delete(ctx, "session", "1"))
	r, err = s.Get(ctx, "session", "1")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestMemoryRuleStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryRuleStore()
	_, err := s.Get(ctx, "session", "1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Store(ctx, "session", "1", pclassRule), context.Canceled)
}
