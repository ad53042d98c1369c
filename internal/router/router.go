package router

import (
	stderrors "errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"dentalsupply/internal/auth"
	"dentalsupply/internal/config"
	"dentalsupply/internal/errors"
	"dentalsupply/internal/handler"
	"dentalsupply/internal/metrics"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Health   *handler.HealthHandler
	Category *handler.CategoryHandler
	Order    *handler.OrderHandler
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Catalog  *handler.CatalogHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, logger *zap.Logger, collector *metrics.Collector, h Handlers) {
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = ErrorHandler(logger, !cfg.IsProduction())

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(RequestLogger(logger))
	e.Use(collector.Middleware())

	e.GET("/healthz", h.Health.Health)
	e.GET("/metrics", echo.WrapHandler(collector.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	secured := RequireAuth(cfg.JWTSecret)
	admin := RequireAdmin()

	// Categories
	categories := api.Group("/categories")
	categories.GET("/", h.Category.List)
	categories.GET("/categories", h.Category.ListMain)
	categories.GET("/subcategories", h.Category.ListSub)
	categories.GET("/tree", h.Category.Tree)
	categories.GET("/:parentId/subcategories", h.Category.ListByParent)
	categories.GET("/:id", h.Category.Get)
	categories.POST("/add", h.Category.Add)
	categories.PUT("/update/:id", h.Category.Update)
	categories.DELETE("/delete/:id", h.Category.Delete)

	// Orders
	orders := api.Group("/orders")
	orders.POST("/guest", h.Order.GuestCheckout)
	orders.POST("", h.Order.Place, secured)
	orders.GET("/my", h.Order.ListMine, secured)
	orders.GET("/:id", h.Order.Get, secured)
	orders.GET("", h.Order.ListAll, secured, admin)
	orders.PUT("/:id/status", h.Order.UpdateStatus, secured, admin)

	// Auth
	api.POST("/auth/signup", h.Auth.Signup)
	api.POST("/auth/verify-otp", h.Auth.VerifyOTP)
	api.POST("/auth/resend-otp", h.Auth.ResendOTP)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/logout", h.Auth.Logout)
	api.PUT("/auth/change-password", h.Auth.ChangePassword, secured)

	// Users
	api.GET("/me", h.User.Me, secured)
	api.GET("/users", h.User.ListUsers, secured, admin)

	// Catalog
	api.GET("/brands", h.Catalog.ListBrands)
	api.GET("/brands/:id", h.Catalog.GetBrand)
	api.POST("/brands", h.Catalog.CreateBrand, secured, admin)
	api.PUT("/brands/:id", h.Catalog.UpdateBrand, secured, admin)
	api.DELETE("/brands/:id", h.Catalog.DeleteBrand, secured, admin)

	api.GET("/products", h.Catalog.ListProducts)
	api.GET("/products/:id", h.Catalog.GetProduct)
	api.POST("/products", h.Catalog.CreateProduct, secured, admin)
	api.PUT("/products/:id", h.Catalog.UpdateProduct, secured, admin)
	api.DELETE("/products/:id", h.Catalog.DeleteProduct, secured, admin)
}

// RequireAuth validates the bearer access token and stores it under
// handler.ClaimsContextKey with *auth.Claims. Refresh tokens carry a token id
// and are rejected here.
func RequireAuth(secret string) echo.MiddlewareFunc {
	validate := echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(secret),
		ContextKey:  handler.ClaimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return unauthorized("Missing or invalid token", err)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return validate(func(c echo.Context) error {
			token, ok := c.Get(handler.ClaimsContextKey).(*jwt.Token)
			if !ok {
				return unauthorized("Missing or invalid token", nil)
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok || claims.ID != "" {
				return unauthorized("Missing or invalid token", nil)
			}
			return next(c)
		})
	}
}

// RequireAdmin allows only callers whose token carries the admin flag. It
// must run after RequireAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, _ := c.Get(handler.ClaimsContextKey).(*jwt.Token)
			if token == nil {
				return unauthorized("Missing or invalid token", nil)
			}
			if claims, ok := token.Claims.(*auth.Claims); !ok || !claims.IsAdmin {
				httpErr := errors.MapErrorToHTTP(errors.Forbidden("Admin access required"))
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			return next(c)
		}
	}
}

func unauthorized(message string, cause error) error {
	httpErr := errors.MapErrorToHTTP(errors.Unauthorized(message))
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(cause)
}

// RequestLogger writes one structured access log line per request.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil && v.Status >= http.StatusInternalServerError {
				logger.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}

// ErrorHandler renders every error as errors.ErrorResponse. With exposeCause
// set, internal failures also carry their underlying message.
func ErrorHandler(logger *zap.Logger, exposeCause bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		var body errors.ErrorResponse
		cause := err

		var he *echo.HTTPError
		if stderrors.As(err, &he) {
			status = he.Code
			if he.Internal != nil {
				cause = he.Internal
			}
			switch msg := he.Message.(type) {
			case errors.ErrorResponse:
				body = msg
			case string:
				body = errors.ErrorResponse{Message: msg}
			default:
				body = errors.ErrorResponse{Message: http.StatusText(status)}
			}
		} else {
			httpErr := errors.MapErrorToHTTP(err)
			status = httpErr.StatusCode
			body = httpErr.ToErrorResponse()
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(cause),
			)
			if exposeCause && cause != nil {
				body.Error = cause.Error()
			}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Warn("write error response", zap.Error(err))
		}
	}
}
