package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"ephysval/domain/core"
)

func TestGetCode_MapsDomainErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: units", core.ErrMissingField), CodeObservationError},
		{core.ErrUnitMismatch, CodeObservationError},
		{core.ErrOutOfOrder, CodeContractViolation},
		{fmt.Errorf("wrapped: %w", core.ErrUndefinedStatistic), CodeUndefinedStatistic},
		{core.ErrEmptyPrediction, CodeModelExecution},
		{stderrors.New("boom"), CodeInternalError},
		{ConfigInvalid("bad"), CodeConfigInvalid},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetCode(tt.err), tt.err.Error())
	}
	assert.Equal(t, "", GetCode(nil))
}

func TestWrap_PreservesChain(t *testing.T) {
	err := Wrap(core.ErrUnitMismatch, "validate observation")
	assert.True(t, IsAppError(err))
	assert.Equal(t, CodeObservationError, GetCode(err))
	assert.ErrorIs(t, err, core.ErrObservation)
	assert.Equal(t, "validate observation: observation error: unit mismatch", err.Error())

	outer := Wrapf(err, "judgment %d", 3)
	assert.Equal(t, CodeObservationError, GetCode(outer))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeInvalidInput, stderrors.New("bad json"))
	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.Nil(t, WithCode(CodeInvalidInput, nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(CodeObservationError))
	assert.Equal(t, http.StatusConflict, HTTPStatus(CodeContractViolation))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(CodeModelExecution))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeInvalidInput))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("???"))
}
