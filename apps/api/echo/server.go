package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/jkarani/shulepay/core"
	"github.com/jkarani/shulepay/core/ledger"
	"github.com/jkarani/shulepay/core/payment"
	"github.com/jkarani/shulepay/core/student"
	"github.com/jkarani/shulepay/core/user"
)

type (
	ServerDeps struct {
		Conf        *core.Config
		Logger      core.Logger
		UserSvc     user.ServiceInterface
		StudentSvc  student.ServiceInterface
		LedgerSvc   ledger.ServiceInterface
		PaymentRepo payment.Repository
		SMSSvc      core.SMSService
		EmailSvc    core.EmailService
		Validate    *validator.Validate
		Translator  ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps      ServerDeps
		app       *echo.Echo
		jwtConfig middleware.JWTConfig
		errCh     chan error
		signalCh  chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:      deps,
		app:       echo.New(),
		jwtConfig: newJWTConfig(deps.Conf),
		errCh:     make(chan error, 1),
		signalCh:  make(chan os.Signal, 1),
	}
	signal.Notify(s.signalCh, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.jwtConfig)
	cookieJWT := func(next echo.HandlerFunc) echo.HandlerFunc {
		return cookieTokenMiddleware()(jwt(next))
	}

	registerAuthAPI(v1, cookieJWT, s.deps)
	registerStudentAPI(v1, cookieJWT, s.deps)
	registerPaymentAPI(v1, cookieJWT, s.deps)
	registerDashboardAPI(v1, cookieJWT, s.deps)
	registerSMSAPI(v1, cookieJWT, s.deps)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errCh <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errCh
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.signalCh
}

// signalShutdown sends SIGTERM to self to initiate a graceful shutdown.
func (s *server) signalShutdown() {
	s.signalCh <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to ShulePay API!")
}
