package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jkarani/shulepay/core/ledger"
	"github.com/jkarani/shulepay/core/payment"
	"github.com/jkarani/shulepay/core/student"
)

type paymentApi struct {
	ledgerSvc ledger.ServiceInterface
	payments  payment.Repository
	validate  *validator.Validate
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := paymentApi{
		ledgerSvc: deps.LedgerSvc,
		payments:  deps.PaymentRepo,
		validate:  deps.Validate,
	}

	pg := g.Group("/payments", jwt)
	pg.GET("", api.query)
	pg.POST("", api.record)
}

// Handlers

func (api *paymentApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	pmts, err := api.payments.QueryPayments(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if pmts == nil {
		pmts = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, pmts)
}

func (api *paymentApi) record(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data payment.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, pmt, err := api.ledgerSvc.RecordPayment(claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, RecordPaymentResponse{Student: std, Payment: pmt})
}

type RecordPaymentResponse struct {
	Student student.Student `json:"student"`
	Payment payment.Payment `json:"payment"`
}
