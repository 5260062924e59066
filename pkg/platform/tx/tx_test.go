package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom_EmptyContext(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)
}

func TestWithTx_NilIsIgnored(t *testing.T) {
	ctx := WithTx(context.Background(), nil)
	_, ok := From(ctx)
	assert.False(t, ok)
}

func TestWithTx_RoundTrip(t *testing.T) {
	tx := &sql.Tx{}
	got, ok := From(WithTx(context.Background(), tx))
	assert.True(t, ok)
	assert.Same(t, tx, got)
}
