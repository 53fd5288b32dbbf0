// Package smssvc provides core.SMSService implementations backed by the
// Africa's Talking bulk messaging gateway, plus a console variant for
// development and tests.
package smssvc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/jkarani/shulepay/core"
)

var (
	liveHost    = "https://api.africastalking.com"
	sandboxHost = "https://api.sandbox.africastalking.com"
	endpoint    = "/version1/messaging"
)

// response payload for one send request.
type (
	atRecipient struct {
		Number     string `json:"number"`
		Status     string `json:"status"`
		StatusCode int    `json:"statusCode"`
		Cost       string `json:"cost"`
		MessageID  string `json:"messageId"`
	}

	atMessageData struct {
		Message    string        `json:"Message"`
		Recipients []atRecipient `json:"Recipients"`
	}

	atResponse struct {
		SMSMessageData atMessageData `json:"SMSMessageData"`
	}
)

type africasTalkingService struct {
	username string
	apiKey   string
	sender   string
	url      string
	client   *http.Client
	logger   core.Logger
}

var _ core.SMSService = (*africasTalkingService)(nil)

func NewAfricasTalkingService(conf *core.Config, logger core.Logger) *africasTalkingService {
	host := liveHost
	if conf.SMS.Username == "sandbox" {
		host = sandboxHost
	}
	return &africasTalkingService{
		username: conf.SMS.Username,
		apiKey:   conf.SMS.APIKey,
		sender:   conf.SMS.Sender,
		url:      host + endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

func (svc *africasTalkingService) Send(msg core.SMSMessage) (core.DeliveryReport, error) {
	if !msg.HasRecipients() {
		return core.DeliveryReport{}, errors.New("no phone numbers provided")
	}
	if !msg.HasContent() {
		return core.DeliveryReport{}, errors.New("no message provided")
	}
	if svc.apiKey == "" {
		return core.DeliveryReport{}, errors.New("sms gateway not configured")
	}

	form := url.Values{}
	form.Set("username", svc.username)
	form.Set("to", strings.Join(msg.To, ","))
	form.Set("message", msg.Message)
	if svc.sender != "" {
		// omitted otherwise; the gateway then uses its default short code
		form.Set("from", svc.sender)
	}

	req, err := http.NewRequest(http.MethodPost, svc.url, strings.NewReader(form.Encode()))
	if err != nil {
		return core.DeliveryReport{}, errors.Wrap(err, "preparing sms request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", svc.apiKey)

	res, err := svc.client.Do(req)
	if err != nil {
		return core.DeliveryReport{}, errors.Wrap(err, "calling sms gateway")
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return core.DeliveryReport{}, errors.Errorf("sms gateway responded with status %d", res.StatusCode)
	}

	var body atResponse
	if err = json.NewDecoder(res.Body).Decode(&body); err != nil {
		return core.DeliveryReport{}, errors.Wrap(err, "decoding sms gateway response")
	}

	report := svc.buildReport(body.SMSMessageData.Recipients)
	if report.Failed > 0 {
		svc.logger.Warn(fmt.Sprintf("sms delivery: %d/%d recipients failed", report.Failed, report.Total))
	}
	return report, nil
}

func (svc *africasTalkingService) buildReport(recipients []atRecipient) core.DeliveryReport {
	report := core.DeliveryReport{Total: len(recipients)}
	for _, r := range recipients {
		if r.Status == "Success" {
			report.Successful++
		} else {
			report.Failed++
		}
		report.Recipients = append(report.Recipients, core.RecipientStatus{
			Number: r.Number,
			Status: r.Status,
			Cost:   r.Cost,
		})
	}
	return report
}
