// Package mqtt publishes Frontdesk authentication events to an MQTT broker.
//
// The service never subscribes to anything; MQTT is an outbound feed for
// other systems on the site (door controllers, dashboards, SIEM bridges)
// that want to react to logins and logouts without polling the API.
//
// # Topics
//
//	{prefix}/events/auth/{action}   one JSON AuthEvent per message, not retained
//	{prefix}/system/status          retained online/offline status, also the LWT
//
// The prefix comes from mqtt.topic_prefix (default "frontdesk").
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishAuthEvent(mqtt.AuthEvent{Action: "login", UserID: id})
//
// Publishing is best effort: callers log failures and carry on.
package mqtt
