package pushsvc

import (
	"context"
	"sync"

	"github.com/kabasele/shule/core"
)

// DummyService records sends instead of delivering them; for tests.
type DummyService struct {
	mu   sync.Mutex
	sent []core.PushMessage

	// Err, when set, is returned by every Send.
	Err error
}

var _ core.PushService = (*DummyService)(nil)

func NewDummyService() *DummyService {
	return &DummyService{}
}

func (svc *DummyService) Send(_ context.Context, msg core.PushMessage) error {
	if svc.Err != nil {
		return svc.Err
	}
	svc.mu.Lock()
	svc.sent = append(svc.sent, msg)
	svc.mu.Unlock()
	return nil
}

// ClearSentMessages resets the recorder between tests.
func (svc *DummyService) ClearSentMessages() {
	svc.mu.Lock()
	svc.sent = nil
	svc.mu.Unlock()
}

func (svc *DummyService) SentMessages() []core.PushMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	msgs := make([]core.PushMessage, len(svc.sent))
	copy(msgs, svc.sent)
	return msgs
}
