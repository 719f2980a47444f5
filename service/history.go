package service

import (
	"math"

	"github.com/Camilejo/TallerBDRedis/model"
)

const (
	maxHistorySize      = 1000
	defaultHistoryLimit = 100
	trendWindow         = 10
	trendThreshold      = 0.5
)

// historyStore keeps a bounded, chronologically ordered reading sequence per
// sensor. It is not safe for concurrent use on its own; the simulator owns
// it and guards every access with its lock.
type historyStore struct {
	readings map[string][]model.Reading
}

func newHistoryStore() *historyStore {
	return &historyStore{readings: make(map[string][]model.Reading)}
}

// append pushes a reading and evicts from the front once the cap is exceeded.
func (h *historyStore) append(sensorID string, r model.Reading) {
	seq := append(h.readings[sensorID], r)
	if len(seq) > maxHistorySize {
		seq = seq[len(seq)-maxHistorySize:]
	}
	h.readings[sensorID] = seq
}

// query aggregates the last limit readings of a sensor. The bool result is
// false when the sensor has no readings at all.
func (h *historyStore) query(sensorID string, limit int) (model.HistoryView, bool) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	seq := h.readings[sensorID]
	if len(seq) == 0 {
		return model.HistoryView{}, false
	}
	if len(seq) > limit {
		seq = seq[len(seq)-limit:]
	}

	window := make([]model.Reading, len(seq))
	copy(window, seq)

	// trend compares the last 10 readings against the 10 before them
	recent := window
	if len(recent) > trendWindow {
		recent = recent[len(recent)-trendWindow:]
	}
	previous := window[:len(window)-len(recent)]
	if len(previous) > trendWindow {
		previous = previous[len(previous)-trendWindow:]
	}

	return model.HistoryView{
		SensorID: sensorID,
		Readings: window,
		Averages: model.Averages{
			Temperature: round1(meanOf(window, temperature)),
			Humidity:    math.Round(meanOf(window, humidity)),
			Pressure:    math.Round(meanOf(window, pressure)),
		},
		Trends: model.Trends{
			Temperature: trendOf(recent, previous, temperature),
			Humidity:    trendOf(recent, previous, humidity),
			Pressure:    trendOf(recent, previous, pressure),
		},
	}, true
}

// count reports the total number of stored readings across all sensors.
func (h *historyStore) count() int {
	var n int
	for _, seq := range h.readings {
		n += len(seq)
	}
	return n
}

func temperature(r model.Reading) float64 { return r.Temperature }
func humidity(r model.Reading) float64    { return r.Humidity }
func pressure(r model.Reading) float64    { return r.Pressure }

func meanOf(readings []model.Reading, metric func(model.Reading) float64) float64 {
	if len(readings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range readings {
		sum += metric(r)
	}
	return sum / float64(len(readings))
}

// trendOf classifies the short-term direction of a metric. With no previous
// group to compare against the metric is reported stable.
func trendOf(recent, previous []model.Reading, metric func(model.Reading) float64) model.Trend {
	if len(previous) == 0 {
		return model.TrendStable
	}
	diff := meanOf(recent, metric) - meanOf(previous, metric)
	if math.Abs(diff) < trendThreshold {
		return model.TrendStable
	}
	if diff > 0 {
		return model.TrendRising
	}
	return model.TrendFalling
}
