package mqtt

import (
	"encoding/json"
	"fmt"
	"time"
)

// AuthEvent is the payload published for each authentication event.
type AuthEvent struct {
	Action    string    `json:"action"`
	UserID    string    `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Role      string    `json:"role,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishAuthEvent publishes ev on {prefix}/events/auth/{action} with the
// configured QoS, not retained. A zero Timestamp is set to now.
func (c *Client) PublishAuthEvent(ev AuthEvent) error {
	if ev.Action == "" {
		return fmt.Errorf("%w: auth event has no action", ErrInvalidTopic)
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshalling auth event: %w", err)
	}
	return c.Publish(c.topics.AuthEvent(ev.Action), payload, byte(c.cfg.QoS), false)
}
