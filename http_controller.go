package social

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes the login flow over HTTP: the provider selection
// page and the per-provider callback.
type HTTPController struct {
	flow   *Flow
	config HTTPConfig
	logger Logger
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// SelectTemplate is the view rendered for the selection page. Leave it
	// empty to answer with JSON instead.
	SelectTemplate string

	// ErrorRedirect is where short-circuited callbacks send the browser,
	// e.g. "/login". The failure code is appended as ?error=<text_code>.
	ErrorRedirect string

	// ErrorHandler overrides the default error handling (optional).
	ErrorHandler func(ctx router.Context, err error) error

	Logger Logger
}

// NewHTTPController creates the controller around a configured flow.
func NewHTTPController(flow *Flow, cfg HTTPConfig) *HTTPController {
	if cfg.ErrorRedirect == "" {
		cfg.ErrorRedirect = "/login"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = defLogger{}
	}

	return &HTTPController{
		flow:   flow,
		config: cfg,
		logger: logger,
	}
}

// RegisterRoutes mounts the social login routes on the given group.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Get("/provider-select", c.ProviderSelect)
	group.Get("/callback/:provider", c.Callback)
}

// ProviderSelect lists the active providers, each with a single-use
// authorization URL.
func (c *HTTPController) ProviderSelect(ctx router.Context) error {
	options, err := c.flow.SelectProviders(ctx.Context())
	if err != nil {
		c.logger.Error("failed to build provider selection: %v", err)
		return ctx.Status(router.StatusInternalServerError).
			SendString("Internal Server Error")
	}

	if c.config.SelectTemplate != "" {
		return ctx.Render(c.config.SelectTemplate, router.ViewContext{
			"providers": options,
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"providers": options,
	})
}

// Callback finishes the login and sends the browser to its post-login
// destination. Short-circuit outcomes bounce to the error redirect with
// the failure code; anything else is a plain 500.
func (c *HTTPController) Callback(ctx router.Context) error {
	providerCode := ctx.Param("provider")
	code := ctx.Query("code")
	state := ctx.Query("state")

	result, err := c.flow.CompleteLogin(ctx.Context(), ctx, providerCode, code, state)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.Redirect(result.RedirectURL, http.StatusSeeOther)
}

func (c *HTTPController) handleError(ctx router.Context, err error) error {
	if c.config.ErrorHandler != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	if IsSoftFailure(err) {
		c.logger.Info("login rejected: %v", err)
		redirectURL := appendQueryParam(c.config.ErrorRedirect, "error", failureCode(err))
		return ctx.Redirect(redirectURL, http.StatusSeeOther)
	}

	c.logger.Error("login failed: %v", err)
	return ctx.Status(router.StatusInternalServerError).
		SendString("Internal Server Error")
}

func failureCode(err error) string {
	var gerr *goerrors.Error
	if errors.As(err, &gerr) && gerr.TextCode != "" {
		return gerr.TextCode
	}
	return "login_failed"
}

func appendQueryParam(rawURL, key, value string) string {
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err == nil {
		query := parsed.Query()
		query.Set(key, value)
		parsed.RawQuery = query.Encode()
		return parsed.String()
	}

	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
}
