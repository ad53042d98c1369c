package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
		expectedCode    string
	}{
		{
			name:            "validation",
			err:             Validation("category name is required"),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "category name is required",
			expectedCode:    "VALIDATION_ERROR",
		},
		{
			name:            "not found wrapped",
			err:             fmt.Errorf("update category: %w", NotFound("category not found")),
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "category not found",
			expectedCode:    "NOT_FOUND",
		},
		{
			name:            "conflict is a bad request",
			err:             Conflict("cannot delete category with subcategories"),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "cannot delete category with subcategories",
			expectedCode:    "CONFLICT",
		},
		{
			name:            "unauthorized",
			err:             Unauthorized("invalid email or password"),
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "invalid email or password",
			expectedCode:    "UNAUTHORIZED",
		},
		{
			name:            "bare sentinel",
			err:             ErrForbidden,
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "forbidden",
			expectedCode:    "FORBIDDEN",
		},
		{
			name:            "internal hides message",
			err:             fmt.Errorf("dial tcp 10.0.0.1:3306: connection refused"),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "internal server error",
			expectedCode:    "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.expectedStatus, httpErr.StatusCode)
			assert.Equal(t, tt.expectedMessage, httpErr.Message)
			assert.Equal(t, tt.expectedCode, httpErr.Code)
		})
	}
}
