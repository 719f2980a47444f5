package service

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Camilejo/TallerBDRedis/model"
)

const (
	seedHistorySize        = 100
	stateChangeProbability = 0.001
	offlineShare           = 0.7
	recoveryProbability    = 0.01
	batteryDrainChance     = 0.01
)

type SimulatorConfig struct {
	TickInterval int   `yaml:"TickInterval"` // seconds
	Seed         int64 `yaml:"Seed"`         // 0 means time-derived
	LogLevel     int   `yaml:"LogLevel"`
}

// Simulator owns the sensor fleet, its reading history and the alert list,
// and drives the periodic update cycle. All mutation happens in the tick
// loop under the lock; readers get value copies, never views into internal
// state.
type Simulator struct {
	mu      sync.RWMutex
	sensors []model.Sensor
	history *historyStore
	alerts  *alertEngine
	gen     *Generator
	rnd     *rand.Rand

	publisher model.IPublisher
	logger    zerolog.Logger

	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewSimulator(conf SimulatorConfig, publisher model.IPublisher) *Simulator {
	var (
		seed int64
		s    *Simulator
	)

	seed = conf.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s = &Simulator{
		history:   newHistoryStore(),
		alerts:    newAlertEngine(),
		rnd:       rand.New(rand.NewSource(seed)),
		publisher: publisher,
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
	s.gen = NewGenerator(s.rnd)
	s.initSensors(time.Now().UTC())

	return s
}

// initSensors creates one sensor per registered location and backfills a
// short history so charts have something to draw before the first tick.
func (s *Simulator) initSensors(now time.Time) {
	var (
		locations []model.Location
		sensor    model.Sensor
		status    model.SensorStatus
	)

	locations = Locations()
	s.sensors = make([]model.Sensor, 0, len(locations))

	for i, loc := range locations {
		status = model.StatusOnline
		if s.rnd.Float64() <= 0.1 {
			status = model.StatusOffline
		}
		sensor = model.Sensor{
			ID:              fmt.Sprintf("sensor-%03d", i+1),
			Name:            "Sensor " + loc.Name,
			Location:        loc,
			Status:          status,
			LastReading:     s.gen.Reading(loc, now),
			BatteryLevel:    s.rnd.Intn(100),
			SignalStrength:  s.rnd.Intn(100),
			Firmware:        fmt.Sprintf("v2.%d.%d", s.rnd.Intn(10), s.rnd.Intn(10)),
			InstallDate:     now.Add(-time.Duration(s.rnd.Intn(365*24)) * time.Hour),
			LastMaintenance: now.Add(-time.Duration(s.rnd.Intn(90*24)) * time.Hour),
			IsActive:        s.rnd.Float64() > 0.05,
		}
		s.sensors = append(s.sensors, sensor)

		for j := seedHistorySize - 1; j >= 0; j-- {
			s.history.append(sensor.ID, s.gen.Reading(loc, now.Add(-time.Duration(j)*time.Minute)))
		}
	}
}

// Start launches the tick loop. Calling Start on a running simulator is a
// no-op.
func (s *Simulator) Start(interval time.Duration) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	s.logger.Info().Dur("interval", interval).Msg("simulation started")
	go s.run(interval, stop, done)
}

// Stop is idempotent. It does not return until the tick loop has exited, so
// no tick fires after Stop returns.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
	s.logger.Info().Msg("simulation stopped")
}

func (s *Simulator) run(interval time.Duration, stop, done chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(done)

	for {
		select {
		case <-stop:
			return
		case t := <-ticker.C:
			// the ticker drops ticks when a cycle overruns, so slow
			// cycles skip instead of queueing up
			s.tick(t.UTC())
		}
	}
}

// tick runs one full update cycle and then pushes the results through the
// distribution bridge: one message per updated sensor plus one fleet stats
// snapshot. Publishing happens outside the lock.
func (s *Simulator) tick(now time.Time) {
	var (
		updates []model.WeatherUpdate
		stats   model.SystemStats
	)

	s.mu.Lock()
	for i := range s.sensors {
		if update, ok := s.tickSensor(i, now); ok {
			updates = append(updates, update)
		}
	}
	stats = s.statsLocked(now)
	s.mu.Unlock()

	if s.publisher == nil {
		return
	}
	for _, u := range updates {
		b, err := json.Marshal(u)
		if err != nil {
			s.logger.Error().Err(err).Str("sensorId", u.SensorID).Msg("failed to marshal update")
			continue
		}
		s.publisher.Publish(model.ChannelWeather, model.Message{
			Key:       CityKey(u.City),
			Payload:   b,
			Timestamp: now,
		})
	}

	b, err := json.Marshal(stats)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal stats snapshot")
		return
	}
	s.publisher.Publish(model.ChannelWeather, model.Message{
		Key:       model.KeyStats,
		Payload:   b,
		Timestamp: now,
	})
}

// tickSensor updates a single sensor. A panic while processing one sensor is
// contained there; the remaining sensors still get their cycle.
func (s *Simulator) tickSensor(i int, now time.Time) (update model.WeatherUpdate, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("sensorId", s.sensors[i].ID).Msg("sensor tick skipped")
			ok = false
		}
	}()

	sensor := s.sensors[i]

	if sensor.Status != model.StatusOnline || !sensor.IsActive {
		// recovery path for drained sensors, so the fleet does not bleed
		// out to all-offline over a long run
		if sensor.IsActive && (sensor.Status == model.StatusOffline || sensor.Status == model.StatusMaintenance) {
			if s.rnd.Float64() < recoveryProbability {
				sensor.Status = model.StatusOnline
				s.sensors[i] = sensor
				s.logger.Debug().Str("sensorId", sensor.ID).Msg("sensor back online")
			}
		}
		return model.WeatherUpdate{}, false
	}

	reading := s.gen.Reading(sensor.Location, now)
	sensor.LastReading = reading
	s.history.append(sensor.ID, reading)

	fired := s.alerts.evaluate(sensor, reading)
	for _, a := range fired {
		s.logger.Warn().
			Str("sensorId", a.SensorID).
			Str("type", string(a.Type)).
			Str("severity", string(a.Severity)).
			Float64("value", a.Value).
			Msg(a.Message)
	}

	if s.rnd.Float64() < stateChangeProbability {
		if s.rnd.Float64() < offlineShare {
			sensor.Status = model.StatusOffline
		} else {
			sensor.Status = model.StatusMaintenance
		}
		s.logger.Info().Str("sensorId", sensor.ID).Str("status", string(sensor.Status)).Msg("sensor state change")
	}

	if s.rnd.Float64() < batteryDrainChance && sensor.BatteryLevel > 0 {
		sensor.BatteryLevel--
	}

	s.sensors[i] = sensor

	return model.WeatherUpdate{
		SensorID:     sensor.ID,
		City:         sensor.Location.City,
		Status:       sensor.Status,
		BatteryLevel: sensor.BatteryLevel,
		Reading:      reading,
	}, true
}

// Sensors returns a snapshot of the fleet.
func (s *Simulator) Sensors() []model.Sensor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Sensor, len(s.sensors))
	copy(out, s.sensors)
	return out
}

func (s *Simulator) Sensor(id string) (model.Sensor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sensor := range s.sensors {
		if sensor.ID == id {
			return sensor, true
		}
	}
	return model.Sensor{}, false
}

func (s *Simulator) SensorHistory(id string, limit int) (model.HistoryView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.sensorExists(id) {
		return model.HistoryView{}, false
	}
	return s.history.query(id, limit)
}

func (s *Simulator) ActiveAlerts(limit int) []model.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.alerts.active(limit)
}

func (s *Simulator) ResolveAlert(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.alerts.resolve(id)
}

func (s *Simulator) SystemStats() model.SystemStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.statsLocked(time.Now().UTC())
}

// statsLocked builds a stats snapshot. Callers hold the lock.
func (s *Simulator) statsLocked(now time.Time) model.SystemStats {
	var (
		stats     model.SystemStats
		sumTemp   float64
		sumHum    float64
		sumPress  float64
		numOnline int
	)

	stats.TotalSensors = len(s.sensors)
	for _, sensor := range s.sensors {
		switch sensor.Status {
		case model.StatusOnline:
			stats.ActiveSensors++
			sumTemp += sensor.LastReading.Temperature
			sumHum += sensor.LastReading.Humidity
			sumPress += sensor.LastReading.Pressure
			numOnline++
		case model.StatusOffline:
			stats.OfflineSensors++
		case model.StatusMaintenance:
			stats.MaintenanceSensors++
		}
	}
	if numOnline > 0 {
		stats.AverageTemperature = round1(sumTemp / float64(numOnline))
		stats.AverageHumidity = math.Round(sumHum / float64(numOnline))
		stats.AveragePressure = math.Round(sumPress / float64(numOnline))
	}
	stats.LastUpdate = now
	stats.ActiveAlerts = s.alerts.activeCount()
	stats.DataPoints = s.history.count()

	return stats
}

func (s *Simulator) sensorExists(id string) bool {
	for _, sensor := range s.sensors {
		if sensor.ID == id {
			return true
		}
	}
	return false
}
