package core

import "context"

type (
	// PushMessage is a notification destined for a single registered device.
	PushMessage struct {
		DeviceToken string
		Title       string
		Body        string
	}

	// PushService is any service that can deliver push notifications.
	// Send is best-effort: a state change that already persisted is never
	// rolled back because its notification failed.
	PushService interface {
		Send(ctx context.Context, msg PushMessage) error
	}
)
