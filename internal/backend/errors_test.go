package backend

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/dashflow/internal/model"
)

func TestError_Classification(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("saving: %w", NewError(KindNetwork, "CreateDashboard", model.Ref{}, cause))

	assert.True(t, IsNetwork(err))
	assert.False(t, IsNotFound(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(cause))
}

func TestError_Message(t *testing.T) {
	err := NewError(KindNotFound, "GetInsight", model.IdentifierRef("i1"), nil)
	assert.Equal(t, "backend: GetInsight: not_found id:i1", err.Error())
	assert.True(t, IsNotFound(err))
	assert.False(t, IsAuth(err))
	assert.False(t, IsValidation(err))
}
