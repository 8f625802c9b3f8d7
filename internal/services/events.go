package services

import (
	"encoding/json"
	"log"
)

// EventPublisher is the slice of the message queue client the services
// need. Satisfied by *rabbitmq.Client; a nil publisher disables
// publication.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// publishEvent marshals and publishes an activity event. Publication is
// best-effort: a broker failure must never fail the request that
// triggered it.
func publishEvent(publisher EventPublisher, routingKey string, payload map[string]interface{}) {
	if publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := publisher.Publish("activity", routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
