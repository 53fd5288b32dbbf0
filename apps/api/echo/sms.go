package echoapi

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jkarani/shulepay/core"
	"github.com/jkarani/shulepay/core/notify"
	"github.com/jkarani/shulepay/core/student"
)

type smsApi struct {
	students student.ServiceInterface
	smsSvc   core.SMSService
	emailSvc core.EmailService
	validate *validator.Validate
}

func registerSMSAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := smsApi{
		students: deps.StudentSvc,
		smsSvc:   deps.SMSSvc,
		emailSvc: deps.EmailSvc,
		validate: deps.Validate,
	}

	mg := g.Group("/sms", jwt)
	mg.POST("", api.send)
	mg.GET("/templates", api.templates)
	mg.POST("/fee-reminders", api.sendFeeReminders)
}

// Handlers

func (api *smsApi) send(ctx echo.Context) error {
	var data SendSMSRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendSMSRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	report, err := api.smsSvc.Send(core.SMSMessage{To: data.Numbers, Message: data.Message})
	if err != nil {
		return errors.Wrap(err, "sending sms")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *smsApi) templates(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, TemplatesResponse{
		Fee:     notify.FeeTemplates,
		General: notify.GeneralTemplates,
	})
}

// sendFeeReminders composes one personalized message per student and sends
// it to the primary guardian's phone, optionally mirrored to their email.
// SMS delivery failures never abort the run; they show up in the report.
func (api *smsApi) sendFeeReminders(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data FeeReminderRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FeeReminderRequest")
	}
	if data.Message == "" {
		data.Message = notify.DefaultFeeReminder.Message
	}

	students, err := api.resolveStudents(claims.Subject, data.StudentIDs)
	if err != nil {
		return err
	}

	resp := FeeReminderResponse{}
	emails := make([]*core.EmailMessage, 0)
	for _, std := range students {
		guardian, ok := std.PrimaryGuardian()
		if !ok || guardian.Phone == "" {
			resp.Skipped = append(resp.Skipped, std.ID)
			continue
		}

		message := notify.Compose(data.Message, std, data.Tokens)
		report, err := api.smsSvc.Send(core.SMSMessage{To: []string{guardian.Phone}, Message: message})
		if err != nil {
			resp.Report.Total++
			resp.Report.Failed++
			resp.Report.Recipients = append(resp.Report.Recipients,
				core.RecipientStatus{Number: guardian.Phone, Status: "Failed"})
			continue
		}
		resp.Students++
		resp.Report.Total += report.Total
		resp.Report.Successful += report.Successful
		resp.Report.Failed += report.Failed
		resp.Report.Recipients = append(resp.Report.Recipients, report.Recipients...)

		if data.MirrorEmail && guardian.Email != "" {
			emails = append(emails, &core.EmailMessage{
				To:      []mail.Address{{Name: guardian.Name, Address: guardian.Email}},
				Subject: "Fee Balance Reminder",
				Body:    message,
			})
		}
	}
	api.emailSvc.SendMessages(emails...)

	return ctx.JSON(http.StatusOK, resp)
}

// resolveStudents returns the named students, or every student carrying a
// balance when no IDs are given.
func (api *smsApi) resolveStudents(ownerID string, ids []string) ([]student.Student, error) {
	if len(ids) == 0 {
		all, err := api.students.QueryAll(ownerID)
		if err != nil {
			return nil, errors.Wrap(err, "querying students")
		}
		students := make([]student.Student, 0, len(all))
		for _, std := range all {
			if std.FeeBalance > 0 {
				students = append(students, std)
			}
		}
		return students, nil
	}

	students := make([]student.Student, 0, len(ids))
	for _, id := range ids {
		std, err := api.students.GetByID(ownerID, id)
		if err != nil {
			if errors.Cause(err) == student.ErrNotFound {
				return nil, errHttpNotFound
			}
			return nil, errors.Wrap(err, "finding student by ID")
		}
		students = append(students, std)
	}
	return students, nil
}

type (
	SendSMSRequest struct {
		Numbers []string `json:"numbers" validate:"required,min=1,dive,phone"`
		Message string   `json:"message" validate:"required"`
	}

	TemplatesResponse struct {
		Fee     []notify.Template `json:"fee"`
		General []notify.Template `json:"general"`
	}

	FeeReminderRequest struct {
		StudentIDs  []string          `json:"student_ids"`
		Message     string            `json:"message"` // template; defaults to the fee balance reminder
		Tokens      map[string]string `json:"tokens"`
		MirrorEmail bool              `json:"mirror_email"`
	}

	FeeReminderResponse struct {
		Students int                 `json:"students"` // students messaged
		Skipped  []string            `json:"skipped_students,omitempty"`
		Report   core.DeliveryReport `json:"report"`
	}
)

func (sr *SendSMSRequest) Validate(validate *validator.Validate) error {
	numbers := make([]string, 0, len(sr.Numbers))
	for _, num := range sr.Numbers {
		if num = strings.TrimSpace(num); num != "" {
			numbers = append(numbers, num)
		}
	}
	sr.Numbers = numbers
	sr.Message = core.CleanString(sr.Message)
	return validate.Struct(sr)
}
