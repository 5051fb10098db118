package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// PushConfig holds the push provider settings.
type PushConfig struct {
	Endpoint string
	AppID    string
	APIKey   string
}

// PushClient sends notifications to a OneSignal compatible endpoint, targeting
// the customer by external user id.
type PushClient struct {
	cfg PushConfig
}

// NewPushClient creates a new PushClient.
func NewPushClient(cfg PushConfig) *PushClient {
	return &PushClient{cfg: cfg}
}

type pushRequest struct {
	AppID                  string            `json:"app_id"`
	IncludeExternalUserIDs []string          `json:"include_external_user_ids"`
	Headings               map[string]string `json:"headings"`
	Contents               map[string]string `json:"contents"`
	Data                   map[string]string `json:"data"`
}

// Send posts event to the push endpoint. A non 2xx answer is an error.
func (p *PushClient) Send(ctx context.Context, event OrderStatusEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	agent := fiber.Post(p.cfg.Endpoint)
	agent.Set(fiber.HeaderAuthorization, "Basic "+p.cfg.APIKey)
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	}
	agent.JSON(pushRequest{
		AppID:                  p.cfg.AppID,
		IncludeExternalUserIDs: []string{event.CustomerID},
		Headings:               map[string]string{"en": "Order Update"},
		Contents:               map[string]string{"en": event.Message()},
		Data: map[string]string{
			"orderId": event.OrderID,
			"status":  string(event.Status),
		},
	})

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("failed to send push notification: %w", errs[0])
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("push endpoint answered %d: %s", code, body)
	}
	return nil
}
