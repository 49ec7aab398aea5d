package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	customerrors "github.com/axellelanca/pitico/internal/errors"
	"github.com/axellelanca/pitico/internal/metrics"
	"github.com/axellelanca/pitico/internal/models"
	"github.com/axellelanca/pitico/internal/services"
)

// Response texts.
const (
	WelcomeMessage = "Welcome to Pitico, your very very simple URL shortener"
	PromptMessage  = "Please provide an URL to be shortened"
)

// NotFoundPath is the route prefix unresolved aliases are redirected to.
const NotFoundPath = "/url_not_found/"

// URLShortener is the service surface the handlers depend on.
type URLShortener interface {
	Register(ctx context.Context, originalURL string) (*services.Registration, error)
	Resolve(ctx context.Context, alias string) (*models.URL, error)
}

// NewRouter builds the gin engine with middlewares and all routes.
func NewRouter(svc URLShortener, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(MetricsMiddleware())

	SetupRoutes(router, svc)
	return router
}

// SetupRoutes configures all routes on router.
func SetupRoutes(router *gin.Engine, svc URLShortener) {
	router.GET("/", WelcomeHandler)
	router.GET("/health", HealthCheckHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/register", RegisterPromptHandler)
	// The wildcard keeps slashes, so "/register/example.com/a" registers "example.com/a".
	router.GET("/register/*url", RegisterHandler(svc))

	router.GET(NotFoundPath+":alias", NotFoundHandler)
	router.GET("/:alias", ResolveHandler(svc))
}

// WelcomeHandler answers the root route with a static greeting.
func WelcomeHandler(c *gin.Context) {
	c.String(http.StatusOK, WelcomeMessage)
}

// HealthCheckHandler handles the /health route to verify service status
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RegisterPromptHandler asks for a URL when none is given.
func RegisterPromptHandler(c *gin.Context) {
	c.String(http.StatusOK, PromptMessage)
}

// RegisterHandler registers the URL found in the rest of the path, query string included.
func RegisterHandler(svc URLShortener) gin.HandlerFunc {
	return func(c *gin.Context) {
		originalURL := strings.TrimPrefix(c.Param("url"), "/")
		if originalURL == "" {
			RegisterPromptHandler(c)
			return
		}
		if raw := c.Request.URL.RawQuery; raw != "" {
			originalURL += "?" + raw
		}

		reg, err := svc.Register(c.Request.Context(), originalURL)
		if err != nil {
			_ = c.Error(err)
			c.String(http.StatusInternalServerError, "Error registering URL: %v", err)
			return
		}

		if reg.Existing {
			c.String(http.StatusOK, "URL \"%s\" already registered under %s", reg.Record.OriginalURL, reg.Record.Alias)
			return
		}
		c.String(http.StatusOK, "URL registered under: %s", reg.Record.Alias)
	}
}

// ResolveHandler redirects an alias to its original URL, or to the not-found page.
func ResolveHandler(svc URLShortener) gin.HandlerFunc {
	return func(c *gin.Context) {
		alias := c.Param("alias")

		rec, err := svc.Resolve(c.Request.Context(), alias)
		switch {
		case errors.Is(err, customerrors.ErrAliasNotFound):
			metrics.RecordAliasNotFound()
			c.Redirect(http.StatusSeeOther, NotFoundPath+url.PathEscape(alias))
		case err != nil:
			_ = c.Error(err)
			c.String(http.StatusInternalServerError, "Error resolving URL: %v", err)
		default:
			metrics.RecordRedirect()
			c.Redirect(http.StatusSeeOther, rec.RedirectTarget())
		}
	}
}

// NotFoundHandler displays the unresolved alias.
func NotFoundHandler(c *gin.Context) {
	c.String(http.StatusOK, "Pitico URL %s not found", c.Param("alias"))
}
