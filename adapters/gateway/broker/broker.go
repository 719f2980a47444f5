package broker

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Camilejo/TallerBDRedis/model"
)

const defaultBuffer = 256

type Config struct {
	Buffer   int `yaml:"Buffer"`
	LogLevel int `yaml:"LogLevel"`
}

// Broker is the in-process distribution bridge: a store-and-forward relay
// that keeps the latest message per key and fans every publish out to all
// observers of a channel. Delivery is fire-and-forget: a slow observer has
// its message dropped rather than delaying the others. Per channel, each
// observer sees messages in publish order.
type Broker struct {
	mu     sync.Mutex
	latest map[string]model.Message
	subs   map[string]map[uint64]chan model.Message
	nextID uint64
	buffer int
	logger zerolog.Logger
}

// Subscription is one observer's handle. Receive from C; call Unsubscribe to
// detach. C is closed on Unsubscribe.
type Subscription struct {
	C <-chan model.Message

	broker  *Broker
	channel string
	id      uint64
}

func New(conf Config) *Broker {
	buffer := conf.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Broker{
		latest: make(map[string]model.Message),
		subs:   make(map[string]map[uint64]chan model.Message),
		buffer: buffer,
		logger: zerolog.New(
			zerolog.ConsoleWriter{
				Out:        os.Stdout,
				TimeFormat: time.RFC3339}).
			Level(zerolog.InfoLevel + zerolog.Level(conf.LogLevel)).
			With().
			Timestamp().
			Int("pid", os.Getpid()).
			Logger(),
	}
}

// Publish stores msg as the latest value for its key, then delivers it to
// every current observer of the channel. Delivery and the latest-value swap
// happen under one lock, which is what keeps the per-channel order.
func (b *Broker) Publish(channel string, msg model.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if msg.Key != "" {
		b.latest[msg.Key] = msg
	}
	for id, ch := range b.subs[channel] {
		select {
		case ch <- msg:
		default:
			// observer not keeping up; at-most-once, no retry
			b.logger.Debug().Str("channel", channel).Uint64("subscriber", id).Msg("dropped message for slow observer")
		}
	}
}

// Latest returns the last message published for a key, if any.
func (b *Broker) Latest(key string) (model.Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg, ok := b.latest[key]
	return msg, ok
}

// Subscribe registers an observer on a channel. The observer receives only
// messages published after registration; there is no backfill.
func (b *Broker) Subscribe(channel string) *Subscription {
	ch := make(chan model.Message, b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[uint64]chan model.Message)
	}
	b.subs[channel][id] = ch

	return &Subscription{C: ch, broker: b, channel: channel, id: id}
}

// Unsubscribe detaches the observer and closes its channel. Safe to call
// while publishes are in flight; once it returns no further message is
// delivered. Calling it twice is a no-op.
func (s *Subscription) Unsubscribe() {
	b := s.broker

	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[s.channel][s.id]; ok {
		delete(b.subs[s.channel], s.id)
		close(ch)
	}
}
