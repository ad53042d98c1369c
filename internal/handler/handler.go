package handler

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"dentalsupply/internal/auth"
	"dentalsupply/internal/errors"
)

// ClaimsContextKey is where the JWT middleware stores the parsed token.
const ClaimsContextKey = "user"

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// httpError turns a service error into an echo error carrying an
// errors.ErrorResponse body. The cause stays attached for the error handler.
func httpError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

func badRequest(message string) error {
	return httpError(errors.Validation(message))
}

// bindAndValidate binds the request into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return httpError(err)
	}
	return nil
}

// claimsFrom returns the claims of the authenticated caller.
func claimsFrom(c echo.Context) (*auth.Claims, error) {
	token, ok := c.Get(ClaimsContextKey).(*jwt.Token)
	if !ok {
		return nil, httpError(errors.Unauthorized("Missing or invalid token"))
	}
	claims, ok := token.Claims.(*auth.Claims)
	if !ok {
		return nil, httpError(errors.Unauthorized("Missing or invalid token"))
	}
	return claims, nil
}
