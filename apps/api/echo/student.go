package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jkarani/shulepay/core"
	"github.com/jkarani/shulepay/core/ledger"
	"github.com/jkarani/shulepay/core/payment"
	"github.com/jkarani/shulepay/core/student"
)

type studentApi struct {
	svc       student.ServiceInterface
	ledgerSvc ledger.ServiceInterface
	payments  payment.Repository
	validate  *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{
		svc:       deps.StudentSvc,
		ledgerSvc: deps.LedgerSvc,
		payments:  deps.PaymentRepo,
		validate:  deps.Validate,
	}

	sg := g.Group("/students", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create)

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/transfer", api.transfer)
	dg.POST("/reconcile", api.reconcile)
	dg.GET("/payments", api.queryPayments)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	filter.Clean()

	students, err := api.svc.Filter(claims.Subject, *filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate, api.svc, claims.Subject); err != nil {
		return err
	}

	std, err := api.svc.Create(claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	std, err := api.svc.GetByID(claims.Subject, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding student by ID")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.Update(claims.Subject, ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	if err := api.ledgerSvc.DeleteStudent(claims.Subject, ctx.Param("id")); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) transfer(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data TransferRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TransferRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.ledgerSvc.TransferStudent(claims.Subject, ctx.Param("id"), data.NewGrade)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) reconcile(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	std, err := api.ledgerSvc.ReconcileStudent(claims.Subject, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) queryPayments(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	if _, err := api.svc.GetByID(claims.Subject, ctx.Param("id")); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding student by ID")
	}

	pmts, err := api.payments.QueryStudentPayments(claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying student payments")
	}
	if pmts == nil {
		pmts = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, pmts)
}

type TransferRequest struct {
	NewGrade string `json:"new_grade" validate:"required"`
}

func (tr *TransferRequest) Validate(validate *validator.Validate) error {
	tr.NewGrade = core.CleanString(tr.NewGrade)
	return validate.Struct(tr)
}
