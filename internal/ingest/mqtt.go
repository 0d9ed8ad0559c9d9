// Package ingest receives checkpoints from rider devices over MQTT.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/models"
)

// Appender is the part of the checkpoint service the subscriber needs.
type Appender interface {
	Append(ctx context.Context, in models.CheckpointInput) (*models.Checkpoint, error)
}

type Options struct {
	Broker   string
	ClientID string
	// Topic may hold a + wildcard in the ride id position, e.g. rides/+/checkpoints.
	Topic   string
	Timeout time.Duration
}

type Subscriber struct {
	client   mqtt.Client
	opts     Options
	appender Appender
}

func NewSubscriber(opts Options, appender Appender) *Subscriber {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	s := &Subscriber{opts: opts, appender: appender}

	co := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetCleanSession(false).
		SetOnConnectHandler(func(c mqtt.Client) {
			// resubscribe after every reconnect
			tok := c.Subscribe(opts.Topic, 1, s.HandleMessage)
			if !tok.WaitTimeout(opts.Timeout) {
				logrus.WithField("topic", opts.Topic).Error("MQTT subscribe timed out")
				return
			}
			if err := tok.Error(); err != nil {
				logrus.WithError(err).WithField("topic", opts.Topic).Error("MQTT subscribe failed")
				return
			}
			logrus.WithField("topic", opts.Topic).Info("MQTT subscribed")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logrus.WithError(err).Warn("MQTT connection lost")
		})
	s.client = mqtt.NewClient(co)
	return s
}

func (s *Subscriber) Start() error {
	tok := s.client.Connect()
	if !tok.WaitTimeout(s.opts.Timeout) {
		return fmt.Errorf("mqtt connect to %s timed out", s.opts.Broker)
	}
	return tok.Error()
}

func (s *Subscriber) Stop() {
	s.client.Disconnect(250)
}

// HandleMessage decodes one checkpoint payload and appends it. Invalid
// payloads are logged and dropped; redelivery would not fix them.
func (s *Subscriber) HandleMessage(_ mqtt.Client, msg mqtt.Message) {
	log := logrus.WithFields(logrus.Fields{
		"topic":      msg.Topic(),
		"message_id": msg.MessageID(),
	})

	var in models.CheckpointInput
	if err := json.Unmarshal(msg.Payload(), &in); err != nil {
		log.WithError(err).Warn("Dropping malformed checkpoint payload")
		return
	}
	if in.RideID == "" {
		in.RideID = RideIDFromTopic(msg.Topic())
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()

	cp, err := s.appender.Append(ctx, in)
	if err != nil {
		entry := log.WithError(err).WithField("ride_id", in.RideID)
		if apperr.IsRetryable(err) {
			entry.Error("Checkpoint append failed, store unavailable")
		} else {
			entry.Warn("Checkpoint rejected")
		}
		return
	}
	log.WithFields(logrus.Fields{
		"ride_id":         cp.RideID,
		"sequence_number": cp.SequenceNumber,
	}).Debug("Checkpoint ingested over MQTT")
}

// RideIDFromTopic extracts the ride id from rides/<rideId>/checkpoints.
func RideIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 3 && parts[0] == "rides" && parts[2] == "checkpoints" {
		return parts[1]
	}
	return ""
}
