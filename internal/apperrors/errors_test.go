package apperrors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"foodorder/internal/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := apperrors.ErrFoodNotFound.WithMessage("food %s not found", "f-1")

	assert.True(t, errors.Is(err, apperrors.ErrFoodNotFound))
	assert.False(t, errors.Is(err, apperrors.ErrOrderNotFound))
	assert.Equal(t, "food f-1 not found", err.Error())

	wrapped := fmt.Errorf("handler: %w", err)
	assert.True(t, errors.Is(wrapped, apperrors.ErrFoodNotFound))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(wrapped))
	assert.Equal(t, "FOOD_NOT_FOUND", apperrors.CodeOf(wrapped))
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperrors.Dependency("load cart", cause)

	assert.True(t, errors.Is(err, apperrors.ErrDependency))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "load cart failed")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestDependency_Timeout(t *testing.T) {
	err := apperrors.Dependency("place order", fmt.Errorf("query: %w", context.DeadlineExceeded))

	assert.True(t, errors.Is(err, apperrors.ErrTimeout))
	assert.Equal(t, apperrors.KindDependency, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "place order timed out")
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, apperrors.KindDependency, apperrors.KindOf(errors.New("boom")))
	assert.Equal(t, "INTERNAL", apperrors.CodeOf(errors.New("boom")))
}
