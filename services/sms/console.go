package smssvc

import (
	"log"
	"strings"
	"sync"

	"github.com/jkarani/shulepay/core"
)

var (
	SentMessages = make([]core.SMSMessage, 0)
	mu           sync.Mutex
)

type consoleService struct {
	disableOutput bool
}

var _ core.SMSService = (*consoleService)(nil)

func NewConsoleService() core.SMSService {
	return &consoleService{}
}

// NewConsoleServiceMock records sent messages without printing; every
// recipient is reported as delivered.
func NewConsoleServiceMock() core.SMSService {
	return &consoleService{disableOutput: true}
}

func (svc consoleService) Send(msg core.SMSMessage) (core.DeliveryReport, error) {
	if !svc.disableOutput {
		log.Printf("SMS to %s:\n%s\n", strings.Join(msg.To, ", "), msg.Message)
	}

	mu.Lock()
	SentMessages = append(SentMessages, msg)
	mu.Unlock()

	report := core.DeliveryReport{Total: len(msg.To), Successful: len(msg.To)}
	for _, num := range msg.To {
		report.Recipients = append(report.Recipients, core.RecipientStatus{Number: num, Status: "Success"})
	}
	return report, nil
}
