package logrus_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/plannersync/pkg/log"
	loglogrus "github.com/harrisonrobin/plannersync/pkg/log/logrus"
)

func TestCtxValues(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	l, hook := test.NewNullLogger()
	logger := loglogrus.NewLogrus(logrus.NewEntry(l)).WithValues(log.Kv{"svc": "test"})

	ctx := logger.SetValuesOnCtx(context.Background(), log.Kv{"session": "s1"})
	ctx = logger.SetValuesOnCtx(ctx, log.Kv{"mode": "push"})
	logger.WithCtxValues(ctx).Infof("hello")

	entry := hook.LastEntry()
	require.NotNil(entry)
	assert.Equal("hello", entry.Message)
	assert.Equal(logrus.Fields{"svc": "test", "session": "s1", "mode": "push"}, entry.Data)
}

func TestValuesFromCtxIsACopy(t *testing.T) {
	ctx := log.CtxWithValues(context.Background(), log.Kv{"a": 1})

	got := log.ValuesFromCtx(ctx)
	got["a"] = 2

	assert.Equal(t, log.Kv{"a": 1}, log.ValuesFromCtx(ctx))
	assert.Equal(t, log.Kv{}, log.ValuesFromCtx(context.Background()))
}
