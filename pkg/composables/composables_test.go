package composables

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestUseTx_NoPool(t *testing.T) {
	_, err := UseTx(context.Background())
	require.ErrorIs(t, err, ErrNoPool)

	err = InTx(context.Background(), func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrNoPool)
}

func TestUseLogger(t *testing.T) {
	require.NotNil(t, UseLogger(context.Background()))

	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	ctx := WithLogger(context.Background(), logger.WithField("request-id", "abc"))
	UseLogger(ctx).Error("boom")
	require.Contains(t, buf.String(), "request-id=abc")
}
