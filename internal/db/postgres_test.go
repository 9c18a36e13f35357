package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitness-coach/internal/backend"
	"fitness-coach/internal/plan"
)

func TestNumericID(t *testing.T) {
	id, err := numericID(" 123456789 ")
	require.NoError(t, err)
	assert.Equal(t, int64(123456789), id)

	_, err = numericID("user-1")
	var idErr *plan.InvalidUserIDError
	assert.ErrorAs(t, err, &idErr)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	err := classify(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})
	var be *backend.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "postgres", be.Service)
	assert.Contains(t, be.Message, "23505")
	assert.False(t, backend.IsRetryable(err))

	assert.True(t, backend.IsRetryable(classify(errors.New("connection refused"))))

	var te *backend.TimeoutError
	assert.ErrorAs(t, classify(context.DeadlineExceeded), &te)
}
