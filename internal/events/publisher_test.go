package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeClient records publishes; every other mqtt.Client method is unused.
type fakeClient struct {
	mqtt.Client
	messages     []published
	disconnected bool
}

func (f *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	f.messages = append(f.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return &mqtt.DummyToken{}
}

func (f *fakeClient) Disconnect(uint) {
	f.disconnected = true
}

func TestMQTTPublisher_Publish(t *testing.T) {
	client := &fakeClient{}
	publisher := newMQTTPublisher(client, "fleet/maintenance")

	scheduled := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	task := models.MaintenanceTask{
		ID:            "TASK-1",
		VehicleID:     "TRK-001",
		TechnicianID:  "TECH-001",
		Title:         "Monthly Service & Maintenance",
		Priority:      models.PriorityMedium,
		Status:        models.StatusAssigned,
		ScheduledDate: scheduled,
	}

	err := publisher.Publish(context.Background(), NewEvent(EventAssigned, task, scheduled))
	require.NoError(t, err)
	require.Len(t, client.messages, 1)

	msg := client.messages[0]
	assert.Equal(t, "fleet/maintenance/tasks/assigned", msg.topic)
	assert.Equal(t, byte(1), msg.qos)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.payload, &decoded))
	assert.Equal(t, EventAssigned, decoded.Type)
	assert.Equal(t, "TASK-1", decoded.TaskID)
	assert.Equal(t, "TECH-001", decoded.TechnicianID)
	assert.Equal(t, models.StatusAssigned, decoded.Status)

	publisher.Close()
	assert.True(t, client.disconnected)
}

func TestMQTTPublisher_Topics(t *testing.T) {
	publisher := newMQTTPublisher(&fakeClient{}, "depot")
	assert.Equal(t, "depot/tasks/generated", publisher.Topic(EventGenerated))
	assert.Equal(t, "depot/tasks/completed", publisher.Topic(EventCompleted))
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: EventStarted}))
	p.Close()
}
