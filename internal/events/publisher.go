// Package events publishes maintenance task lifecycle events over MQTT.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// EventType names a task lifecycle event; it is also the last topic segment.
type EventType string

const (
	EventGenerated EventType = "generated"
	EventAssigned  EventType = "assigned"
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
)

// Event is the payload published for a task transition.
type Event struct {
	Type          EventType         `json:"type"`
	TaskID        string            `json:"task_id"`
	VehicleID     string            `json:"vehicle_id"`
	TechnicianID  string            `json:"technician_id,omitempty"`
	Title         string            `json:"title"`
	Priority      models.Priority   `json:"priority"`
	Status        models.TaskStatus `json:"status"`
	ScheduledDate time.Time         `json:"scheduled_date"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// NewEvent builds an event from the task's current state.
func NewEvent(eventType EventType, task models.MaintenanceTask, at time.Time) Event {
	return Event{
		Type:          eventType,
		TaskID:        task.ID,
		VehicleID:     task.VehicleID,
		TechnicianID:  task.TechnicianID,
		Title:         task.Title,
		Priority:      task.Priority,
		Status:        task.Status,
		ScheduledDate: task.ScheduledDate,
		OccurredAt:    at,
	}
}

// Publisher delivers task events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close()                               {}

// MQTTPublisher publishes events as JSON to <prefix>/tasks/<type>.
type MQTTPublisher struct {
	client  mqtt.Client
	prefix  string
	timeout time.Duration
}

// NewMQTTPublisher connects to the broker and returns a ready publisher.
func NewMQTTPublisher(brokerURL, clientID, prefix string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	log.WithFields(log.Fields{"broker": brokerURL, "prefix": prefix}).Info("Connected to MQTT broker")
	return newMQTTPublisher(client, prefix), nil
}

func newMQTTPublisher(client mqtt.Client, prefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix, timeout: 5 * time.Second}
}

// Topic returns the topic an event type is published on.
func (p *MQTTPublisher) Topic(eventType EventType) string {
	return fmt.Sprintf("%s/tasks/%s", p.prefix, eventType)
}

// Publish sends the event with QoS 1 and waits for the broker acknowledgement.
func (p *MQTTPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	token := p.client.Publish(p.Topic(event.Type), 1, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.timeout):
		return fmt.Errorf("publish %s for task %s timed out", event.Type, event.TaskID)
	}
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
