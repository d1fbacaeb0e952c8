// Package pushsvc delivers push notifications through Firebase Cloud
// Messaging's HTTP v1 endpoint.
package pushsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/kabasele/shule/core"
)

const fcmEndpoint = "https://fcm.googleapis.com/v1/projects/%s/messages:send"

type fcmService struct {
	endpoint string
	token    string
	client   *http.Client
}

var _ core.PushService = (*fcmService)(nil)

// NewFCMService sends through FCM using the bearer credential from config.
// The credential is provisioned out-of-band; see core.PushConfig.
func NewFCMService(conf *core.Config) core.PushService {
	return &fcmService{
		endpoint: fmt.Sprintf(fcmEndpoint, conf.Push.ProjectID),
		token:    conf.Push.BearerToken,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type (
	fcmNotification struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}

	fcmMessage struct {
		Token        string          `json:"token"`
		Notification fcmNotification `json:"notification"`
	}

	fcmRequest struct {
		Message fcmMessage `json:"message"`
	}
)

func (svc *fcmService) Send(ctx context.Context, msg core.PushMessage) error {
	payload, err := json.Marshal(fcmRequest{
		Message: fcmMessage{
			Token:        msg.DeviceToken,
			Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		},
	})
	if err != nil {
		return errors.Wrap(err, "encoding FCM payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "building FCM request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+svc.token)

	res, err := svc.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling FCM")
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return errors.Errorf("FCM responded %d: %s", res.StatusCode, body)
	}
	return nil
}
