// Package notify delivers push notifications to event hosts over APNs.
// Delivery is best effort; failures are logged and never block a request.
package notify

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// Config holds the APNs token-auth credentials.
type Config struct {
	KeyPath  string
	KeyID    string
	TeamID   string
	Topic    string
	Sandbox  bool
	Disabled bool
}

// Client wraps an APNs connection. A nil Client is valid and drops every
// notification, so push stays optional in development.
type Client struct {
	apns  *apns2.Client
	topic string
}

// New creates an APNs client from token-auth credentials. Returns nil when
// push is disabled or unconfigured.
func New(c Config) (*Client, error) {
	if c.Disabled || c.KeyPath == "" {
		return nil, nil
	}
	authKey, err := token.AuthKeyFromFile(c.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}
	t := &token.Token{
		AuthKey: authKey,
		KeyID:   c.KeyID,
		TeamID:  c.TeamID,
	}
	client := apns2.NewTokenClient(t)
	if c.Sandbox {
		client = client.Development()
	} else {
		client = client.Production()
	}
	return &Client{apns: client, topic: c.Topic}, nil
}

// Push sends an alert to one device. Errors are logged, not returned;
// callers must not fail a request over a missed notification.
func (c *Client) Push(deviceToken, title, body string) {
	if c == nil || deviceToken == "" {
		return
	}
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       c.topic,
		Payload:     payload.NewPayload().AlertTitle(title).AlertBody(body).Sound("default"),
	}
	res, err := c.apns.Push(notification)
	if err != nil {
		log.Error().Err(err).Msg("APNs push failed")
		return
	}
	if !res.Sent() {
		log.Warn().Str("reason", res.Reason).Int("status", res.StatusCode).Msg("APNs push rejected")
	}
}
