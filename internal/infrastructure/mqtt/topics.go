package mqtt

import "fmt"

// DefaultTopicPrefix is used when mqtt.topic_prefix is empty.
const DefaultTopicPrefix = "frontdesk"

// Topics builds Frontdesk MQTT topic names under a common prefix.
//
//	topics := mqtt.NewTopics("frontdesk")
//	topics.AuthEvent("login") // "frontdesk/events/auth/login"
type Topics struct {
	prefix string
}

// NewTopics returns topic builders rooted at prefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// AuthEvent returns the topic for one kind of authentication event.
//
// Example: frontdesk/events/auth/logout
func (t Topics) AuthEvent(action string) string {
	return fmt.Sprintf("%s/events/auth/%s", t.prefix, action)
}

// AllAuthEvents returns a pattern matching every authentication event.
//
// Pattern: frontdesk/events/auth/+
func (t Topics) AllAuthEvents() string {
	return fmt.Sprintf("%s/events/auth/+", t.prefix)
}

// SystemStatus returns the retained service status topic.
//
// Example: frontdesk/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix)
}
