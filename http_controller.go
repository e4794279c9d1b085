package authpage

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goliatone/go-authpage/middleware/csrf"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/jonboulle/clockwork"
)

// Tagline is the copy shown above every auth form
const Tagline = "Your new favorite online notes memorable experience!"

type AuthControllerViews struct {
	Page       string
	FieldError string
	Layout     string
	Error      string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Routes       Routes
	Views        *AuthControllerViews
	Auther       *RouteAuthenticator
	Clock        clockwork.Clock
	SubmitDelay  time.Duration
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithAuther(auther *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithRoutes(routes Routes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Routes = routes
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerClock(clock clockwork.Clock) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if clock != nil {
			c.Clock = clock
		}
		return c
	}
}

func WithControllerSubmitDelay(d time.Duration) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.SubmitDelay = d
		return c
	}
}

func WithDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:      defaultLogger(),
		Routes:      DefaultRoutes(),
		Clock:       clockwork.NewRealClock(),
		SubmitDelay: DefaultSubmitDelay,
		Views: &AuthControllerViews{
			Page:       "auth",
			FieldError: "partials/field_error",
			Layout:     "layouts/main",
			Error:      "errors/500",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.defaultErrHandler
	}

	return c
}

// RegisterAuthRoutes mounts the login, register, blur validation and logout
// routes on app. Routes registered on app afterwards also load the session.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Use(controller.Auther.LoadSession())

	app.Get(controller.Routes.Login, controller.Show(ContextLogin)).SetName("sign-in.get")
	app.Post(controller.Routes.Login, controller.Submit(ContextLogin)).SetName("sign-in.post")

	app.Get(controller.Routes.Register, controller.Show(ContextRegister)).SetName("register.get")
	app.Post(controller.Routes.Register, controller.Submit(ContextRegister)).SetName("register.post")

	app.Post(controller.Routes.Validate, controller.ValidateField).SetName("auth-validate.post")

	app.Get(controller.Routes.Logout, controller.LogOut).SetName("sign-out.get")

	return controller
}

// Show renders the auth page for pageContext unless the request already
// carries a session.
func (a *AuthController) Show(pageContext PageContext) router.HandlerFunc {
	return func(ctx router.Context) error {
		if redirect, ok := Guard(a.Auther.SessionID(ctx), a.Routes); ok {
			return ctx.Redirect(redirect.To, redirect.Status)
		}

		form := a.newForm(ctx, pageContext, FormValues{})
		return a.renderPage(ctx, http.StatusOK, form)
	}
}

// Submit binds the posted values and runs the form submit flow.
func (a *AuthController) Submit(pageContext PageContext) router.HandlerFunc {
	return func(ctx router.Context) error {
		if redirect, ok := Guard(a.Auther.SessionID(ctx), a.Routes); ok {
			return ctx.Redirect(redirect.To, http.StatusSeeOther)
		}

		payload := new(FormValues)
		if err := ctx.Bind(payload); err != nil {
			a.Logger.Error("auth form parse payload", "context", pageContext, "error", err)
			return a.ErrorHandler(ctx, errParseForm(err))
		}

		if a.Debug {
			a.Logger.Debug("auth form submit", "context", pageContext, "payload", print.MaybePrettyJSON(maskPassword(*payload)))
		}

		form := a.newForm(ctx, pageContext, *payload)

		if err := form.Submit(ctx.Context()); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				rich := verr.RichError()
				a.Logger.Info("auth form invalid", "context", pageContext, "error", rich)
				return a.renderPage(ctx, rich.Code, form)
			}
			return a.ErrorHandler(ctx, err)
		}

		if redirect, ok := Guard(a.Auther.SessionID(ctx), a.Routes); ok {
			return ctx.Redirect(redirect.To, http.StatusSeeOther)
		}

		return a.renderPage(ctx, http.StatusOK, form)
	}
}

// ValidateField handles a blur: it applies the posted values, touches the
// field named in the route and renders only that field's error.
func (a *AuthController) ValidateField(ctx router.Context) error {
	pageContext, err := ParsePageContext(ctx.Param("context"))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	field, ok := ParseField(ctx.Param("field"))
	if !ok {
		return a.ErrorHandler(ctx, errors.New("unknown form field", errors.CategoryNotFound).
			WithCode(errors.CodeNotFound).
			WithMetadata(map[string]any{"field": ctx.Param("field")}))
	}

	payload := new(FormValues)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, errParseForm(err))
	}

	form := NewForm(pageContext, nil, WithInitialValues(*payload), WithFormLogger(a.Logger))
	form.Blur(field)

	return ctx.Render(a.Views.FieldError, router.ViewContext{
		"field": string(field),
		"error": form.VisibleError(field),
	})
}

func (a *AuthController) LogOut(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.Redirect(a.Routes.Login, http.StatusTemporaryRedirect)
}

func (a *AuthController) newForm(ctx router.Context, pageContext PageContext, values FormValues) *Form {
	return NewForm(pageContext, a.Auther.Action(ctx),
		WithInitialValues(values),
		WithClock(a.Clock),
		WithSubmitDelay(a.SubmitDelay),
		WithFormLogger(a.Logger),
	)
}

func (a *AuthController) renderPage(ctx router.Context, status int, form *Form) error {
	view := a.viewContext(form)
	if field, ok := ctx.Locals(csrf.FieldKey).(string); ok {
		view["csrf_field"] = field
	}
	return ctx.Status(status).Render(a.Views.Page, view, a.Views.Layout)
}

func (a *AuthController) viewContext(form *Form) router.ViewContext {
	pc := form.PageContext()
	values := form.Values()
	errs := form.VisibleErrors()

	validate := map[string]string{}
	for _, f := range Fields {
		validate[string(f)] = a.Routes.ValidateURL(pc, f)
	}

	return router.ViewContext{
		"tagline":      Tagline,
		"page":         pc.String(),
		"heading":      pc.Heading(),
		"submit_label": pc.SubmitLabel(),
		"switch_label": pc.SwitchLabel(),
		"switch_route": pc.SwitchRoute(a.Routes),
		"show_email":   pc.RequiresEmail(),
		"action":       a.formAction(pc),
		"record": map[string]string{
			"email":    values.Email,
			"username": values.Username,
		},
		"errors":   errs.Strings(),
		"validate": validate,
	}
}

func (a *AuthController) formAction(pc PageContext) string {
	if route, ok := a.Routes.ForContext(pc); ok {
		return route
	}
	return a.Routes.Register
}

func (a *AuthController) defaultErrHandler(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = statusForCategory(richErr.Category)
	}

	a.Logger.Error("auth controller error",
		"path", ctx.OriginalURL(),
		"status", status,
		"category", richErr.Category,
		"text_code", richErr.TextCode,
		"metadata", print.MaybePrettyJSON(richErr.Metadata),
		"error", err,
	)

	return ctx.Status(status).Render(a.Views.Error, router.ViewContext{
		"message": richErr.Message,
		"status":  strconv.Itoa(status),
	}, a.Views.Layout)
}

func statusForCategory(category errors.Category) int {
	switch category {
	case errors.CategoryAuth:
		return errors.CodeUnauthorized
	case errors.CategoryAuthz:
		return errors.CodeForbidden
	case errors.CategoryNotFound:
		return errors.CodeNotFound
	case errors.CategoryConflict:
		return errors.CodeConflict
	case errors.CategoryRateLimit:
		return errors.CodeTooManyRequests
	case errors.CategoryValidation, errors.CategoryBadInput:
		return errors.CodeBadRequest
	}
	return errors.CodeInternal
}

func errParseForm(err error) *errors.Error {
	return errors.Wrap(err, errors.CategoryBadInput, "Failed to parse form").
		WithCode(errors.CodeBadRequest)
}

func maskPassword(v FormValues) FormValues {
	if v.Password != "" {
		v.Password = "********"
	}
	return v
}
