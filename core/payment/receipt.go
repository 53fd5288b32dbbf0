package payment

import (
	"fmt"
	"sync/atomic"
	"time"
)

const receiptPrefix = "RCP"

var receiptSeq uint32

// NewReceiptNumber generates a human-shareable receipt identifier from the
// current time plus a process-local sequence, e.g. RCP17244031-0007.
// Uniqueness is a soft guarantee: time-derived, not cryptographic.
func NewReceiptNumber() string {
	now := time.Now().Unix()
	seq := atomic.AddUint32(&receiptSeq, 1) % 10000
	return fmt.Sprintf("%s%08d-%04d", receiptPrefix, now%100000000, seq)
}
