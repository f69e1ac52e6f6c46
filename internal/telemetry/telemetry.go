// Package telemetry ingests odometer readings published by connected vehicles
// over MQTT and folds them into the garage. The feed is optional; the server
// runs fine without a broker.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/carlog/internal/garage"
)

// Topic carries one OdometerReading per message.
const Topic = "carlog/odometer"

// OdometerReading is the wire format published by vehicles.
type OdometerReading struct {
	VehicleID string `json:"vehicle_id"`
	Odometer  int    `json:"odometer"`
}

// Feed subscribes to the odometer topic and applies readings to the garage.
type Feed struct {
	client mqtt.Client
	garage *garage.Garage
}

// NewFeed connects to the broker and subscribes. brokerURL is e.g.
// "tcp://mqtt:1883".
func NewFeed(brokerURL string, g *garage.Garage) (*Feed, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID("carlog-server").
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	f := &Feed{client: client, garage: g}
	if token := client.Subscribe(Topic, 1, f.handleMessage); token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("failed to subscribe to %s: %w", Topic, token.Error())
	}

	log.WithField("broker", brokerURL).Info("Telemetry feed connected")
	return f, nil
}

// Close disconnects from the broker.
func (f *Feed) Close() {
	f.client.Disconnect(250)
}

func (f *Feed) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	reading, err := ParseReading(msg.Payload())
	if err != nil {
		log.WithError(err).Warn("Dropped malformed odometer reading")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := f.Apply(ctx, reading); err != nil {
		log.WithError(err).WithField("vehicle_id", reading.VehicleID).Warn("Failed to apply odometer reading")
	}
}

// ParseReading decodes and validates a published payload.
func ParseReading(payload []byte) (OdometerReading, error) {
	var reading OdometerReading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return OdometerReading{}, fmt.Errorf("invalid odometer payload: %w", err)
	}
	if reading.VehicleID == "" {
		return OdometerReading{}, fmt.Errorf("odometer payload missing vehicle_id")
	}
	if reading.Odometer < 0 {
		return OdometerReading{}, fmt.Errorf("odometer reading is negative")
	}
	return reading, nil
}

// Apply updates the vehicle's live odometer. Readings below the current value
// are dropped; odometers only move forward.
func (f *Feed) Apply(ctx context.Context, reading OdometerReading) error {
	v, err := f.garage.Vehicle(reading.VehicleID)
	if err != nil {
		return err
	}
	if reading.Odometer <= v.Odometer {
		return nil
	}

	v.Odometer = reading.Odometer
	return f.garage.Update(ctx, v)
}
