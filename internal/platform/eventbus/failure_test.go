package eventbus_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
)

func TestFailureFrom(t *testing.T) {
	notFound := apperror.New(apperror.CodeNotFound, apperror.BusinessCodeBillNotFound, "bill not found", http.StatusNotFound)

	tests := []struct {
		name string
		err  error
		want eventbus.Failure
	}{
		{
			name: "app error keeps status and codes",
			err:  notFound,
			want: eventbus.Failure{Code: 404, Message: "bill not found", BusinessCode: apperror.BusinessCodeBillNotFound},
		},
		{
			name: "wrapped app error is found",
			err:  fmt.Errorf("lookup: %w", notFound),
			want: eventbus.Failure{Code: 404, Message: "bill not found", BusinessCode: apperror.BusinessCodeBillNotFound},
		},
		{
			name: "plain error hides details",
			err:  errors.New("connection refused"),
			want: eventbus.Failure{Code: 500, Message: "internal error", BusinessCode: apperror.BusinessCodeGeneral},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eventbus.FailureFrom(tt.err))
		})
	}
}

func TestFailureErr(t *testing.T) {
	err := eventbus.Failure{Code: http.StatusConflict, Message: "already enrolled"}.Err()

	assert.Equal(t, apperror.CodeConflict, err.Code)
	assert.Equal(t, apperror.BusinessCodeGeneral, err.BusinessCode)
	assert.Equal(t, http.StatusConflict, err.HTTPStatus)
	assert.Equal(t, "already enrolled", err.Message)
}
