package echoapi

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jkarani/shulepay/core"
	"github.com/jkarani/shulepay/core/user"
)

var errInvalidSystemKey = "invalid system key"

type authApi struct {
	conf     *core.Config
	svc      user.ServiceInterface
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{
		conf:     deps.Conf,
		svc:      deps.UserSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout)
	ag.POST("/register", api.register)

	// authed endpoints
	ag.GET("/me", api.me, jwt)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := authenticate(data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}
	token, err := generateToken(api.conf, getUserClaims(api.conf, usr))
	if err != nil {
		return err
	}

	api.setAuthCookie(ctx, token, time.Now().Add(api.conf.Server.JWTExpirationDelta))
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *authApi) logout(ctx echo.Context) error {
	// expire the cookie; the token itself stays valid until its deadline
	api.setAuthCookie(ctx, "", time.Unix(0, 0))
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	if api.conf.SystemKey == "" ||
		subtle.ConstantTimeCompare([]byte(data.SystemKey), []byte(api.conf.SystemKey)) != 1 {
		return core.NewValidationError(nil, core.FieldError{Field: "system_key", Error: errInvalidSystemKey})
	}

	usr, err := api.svc.Register(data)
	if err != nil {
		return errors.Wrap(err, "registering account")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *authApi) setAuthCookie(ctx echo.Context, token string, expires time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   !api.conf.Debug,
		SameSite: http.SameSiteLaxMode,
	})
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
