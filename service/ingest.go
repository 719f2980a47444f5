package service

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Camilejo/TallerBDRedis/model"
)

// ErrMissingCity rejects a published payload without an identifying city.
var ErrMissingCity = errors.New("missing required field 'city'")

// Ingest relays externally published sensor payloads through the
// distribution bridge. The payload passes through byte-for-byte; only the
// identifying field is inspected.
type Ingest struct {
	publisher model.IPublisher
}

func NewIngest(publisher model.IPublisher) *Ingest {
	return &Ingest{publisher: publisher}
}

func (s *Ingest) Ingest(payload []byte) error {
	var doc map[string]interface{}

	if err := json.Unmarshal(payload, &doc); err != nil {
		return errors.Join(err, errors.New("ingest json unmarshal error"))
	}
	city, _ := doc["city"].(string)
	if city == "" {
		return ErrMissingCity
	}

	s.publisher.Publish(model.ChannelWeather, model.Message{
		Key:       CityKey(city),
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// CityKey builds the storage key for a city: accents stripped, spaces turned
// into underscores, lowercased. "Bogotá" becomes "sensor:bogota".
func CityKey(city string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, city)
	if err != nil {
		plain = city
	}
	plain = strings.ToLower(strings.Join(strings.Fields(plain), "_"))
	return "sensor:" + plain
}
