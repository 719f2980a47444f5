package mqtt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	pmqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"

	"github.com/Camilejo/TallerBDRedis/adapters/gateway/broker"
	"github.com/Camilejo/TallerBDRedis/model"
)

type Config struct {
	Connection string `yaml:"Connection"`
	Topic      string `yaml:"Topic"`
	LogLevel   int    `yaml:"LogLevel"`
}

// Forwarder republishes weather updates from the broker onto an external
// MQTT topic. Delivery is fire-and-forget: a failed publish is logged and
// never retried.
type Forwarder struct {
	Topic    string
	ClientID uuid.UUID
	logger   zerolog.Logger
	opt      *pmqtt.ClientOptions
	client   pmqtt.Client
	broker   *broker.Broker
}

func NewForwarder(conf Config, b *broker.Broker) (*Forwarder, error) {
	var (
		f   *Forwarder
		l   zerolog.Logger
		cid uuid.UUID
	)

	l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).Level(zerolog.InfoLevel + zerolog.Level(conf.LogLevel)).With().Timestamp().Int("pid", os.Getpid()).Logger()
	cid = uuid.NewV4()
	f = &Forwarder{
		Topic:    conf.Topic,
		ClientID: cid,
		logger:   l,
		broker:   b,
		opt: pmqtt.NewClientOptions().
			AddBroker(conf.Connection).
			SetClientID("weather-bridge-" + cid.String()).
			SetCleanSession(true).
			SetAutoReconnect(true).
			SetTLSConfig(&tls.Config{
				InsecureSkipVerify: true,
			}).
			SetConnectionLostHandler(connectLostHandler(l)).
			SetOnConnectHandler(connectHandler(l)),
	}

	if err := f.connect(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Forwarder) connect() error {
	f.client = pmqtt.NewClient(f.opt)
	if token := f.client.Connect(); token.Wait() && token.Error() != nil {
		f.logger.Error().Err(token.Error()).Msg("error connecting to mqtt broker")
		return errors.Join(token.Error(), errors.New("error connecting to mqtt broker"))
	}
	return nil
}

func (f *Forwarder) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	sub := f.broker.Subscribe(model.ChannelWeather)
	go f.forward(ctx, wg, sub)
}

func (f *Forwarder) forward(ctx context.Context, wg *sync.WaitGroup, sub *broker.Subscription) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
			f.client.Disconnect(250)
			f.logger.Warn().Msg("mqtt forwarder shutting down")
			return
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			f.publish(msg)
		}
	}
}

func (f *Forwarder) publish(msg model.Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		f.logger.Error().Err(err).Str("key", msg.Key).Msg("failed to marshal message")
		return
	}
	token := f.client.Publish(f.Topic, 1, false, b)
	if token.WaitTimeout(200*time.Millisecond) && token.Error() != nil {
		f.logger.Error().Err(token.Error()).Str("key", msg.Key).Msg("timeout exceeded during publishing")
	}
}

func connectHandler(logger zerolog.Logger) func(client pmqtt.Client) {
	return func(client pmqtt.Client) {
		logger.Info().Msg("connected to mqtt broker")
	}
}

func connectLostHandler(logger zerolog.Logger) func(client pmqtt.Client, err error) {
	return func(client pmqtt.Client, err error) {
		logger.Warn().Err(err).Msg("connection lost")
	}
}
