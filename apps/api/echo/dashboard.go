package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jkarani/shulepay/core/ledger"
	"github.com/jkarani/shulepay/core/payment"
	"github.com/jkarani/shulepay/core/student"
)

// defaultStatsWindowDays is the "recent payments" window on the dashboard.
const defaultStatsWindowDays = 7

type dashboardApi struct {
	students student.ServiceInterface
	payments payment.Repository
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := dashboardApi{
		students: deps.StudentSvc,
		payments: deps.PaymentRepo,
	}
	g.GET("/dashboard", api.stats, jwt)
}

func (api *dashboardApi) stats(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	windowDays := defaultStatsWindowDays
	if raw := ctx.QueryParam("window_days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			windowDays = n
		}
	}

	students, err := api.students.QueryAll(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	pmts, err := api.payments.QueryPayments(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}

	return ctx.JSON(http.StatusOK, ledger.ComputeStatistics(students, pmts, windowDays))
}
