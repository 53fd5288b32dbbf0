package core

type (
	// SMSMessage is one message to one or more recipients.
	// Phone numbers are E.164 strings (e.g. +2547XXXXXXXX).
	SMSMessage struct {
		To      []string
		Message string
	}

	// RecipientStatus is the gateway's verdict for a single recipient.
	RecipientStatus struct {
		Number string `json:"number"`
		Status string `json:"status"`
		Cost   string `json:"cost,omitempty"`
	}

	// DeliveryReport summarizes one gateway send.
	DeliveryReport struct {
		Total      int               `json:"total"`
		Successful int               `json:"successful"`
		Failed     int               `json:"failed"`
		Recipients []RecipientStatus `json:"recipients,omitempty"`
	}

	// SMSService is any service that can deliver SMS messages.
	// Send blocks until the gateway answers; delivery failures are reported
	// in the DeliveryReport, transport failures in the error.
	SMSService interface {
		Send(msg SMSMessage) (DeliveryReport, error)
	}
)

func (m SMSMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m SMSMessage) HasContent() bool    { return m.Message != "" }
