package service

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Camilejo/TallerBDRedis/model"
)

// recordingPublisher captures Publish calls for assertions.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []model.Message
	channels []string
}

func (p *recordingPublisher) Publish(channel string, msg model.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	p.channels = append(p.channels, channel)
}

func (p *recordingPublisher) Latest(key string) (model.Message, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.messages) - 1; i >= 0; i-- {
		if p.messages[i].Key == key {
			return p.messages[i], true
		}
	}
	return model.Message{}, false
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

func newTestSimulator(t *testing.T, pub model.IPublisher) *Simulator {
	t.Helper()
	return NewSimulator(SimulatorConfig{Seed: 42, LogLevel: 3}, pub)
}

func TestSimulatorInitialState(t *testing.T) {
	s := newTestSimulator(t, nil)

	sensors := s.Sensors()
	require.Len(t, sensors, len(sensorLocations))
	for i, sensor := range sensors {
		assert.NotEmpty(t, sensor.ID)
		assert.Equal(t, sensorLocations[i].City, sensor.Location.City)
		assert.GreaterOrEqual(t, sensor.BatteryLevel, 0)
		assert.LessOrEqual(t, sensor.BatteryLevel, 100)
	}

	stats := s.SystemStats()
	assert.Equal(t, len(sensorLocations), stats.TotalSensors)
	// every sensor starts with a backfilled history window
	assert.Equal(t, len(sensorLocations)*seedHistorySize, stats.DataPoints)
}

func TestSensorsReturnsSnapshot(t *testing.T) {
	s := newTestSimulator(t, nil)

	sensors := s.Sensors()
	sensors[0].BatteryLevel = -999

	again, ok := s.Sensor(sensors[0].ID)
	require.True(t, ok)
	assert.NotEqual(t, -999, again.BatteryLevel)
}

func TestSensorAbsent(t *testing.T) {
	s := newTestSimulator(t, nil)

	_, ok := s.Sensor("sensor-999")
	assert.False(t, ok)
	_, ok = s.SensorHistory("sensor-999", 10)
	assert.False(t, ok)
}

func TestTickAppendsHistoryAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	s := newTestSimulator(t, pub)
	s.sensors = s.sensors[:3]
	for i := range s.sensors {
		s.sensors[i].Status = model.StatusOnline
		s.sensors[i].IsActive = true
	}

	before := s.SystemStats().DataPoints
	now := time.Now().UTC()
	s.tick(now)

	assert.Equal(t, before+3, s.SystemStats().DataPoints)
	// one message per updated sensor plus the stats snapshot
	require.Equal(t, 4, pub.count())
	assert.Equal(t, model.ChannelWeather, pub.channels[0])

	var update model.WeatherUpdate
	require.NoError(t, json.Unmarshal(pub.messages[0].Payload, &update))
	assert.Equal(t, s.sensors[0].ID, update.SensorID)
	assert.Equal(t, s.sensors[0].Location.City, update.City)
	assert.Equal(t, now, update.Reading.Timestamp)
	assert.Equal(t, CityKey(update.City), pub.messages[0].Key)
}

func TestTickPublishesStatsSnapshot(t *testing.T) {
	pub := &recordingPublisher{}
	s := newTestSimulator(t, pub)
	s.sensors = s.sensors[:3]
	for i := range s.sensors {
		s.sensors[i].Status = model.StatusOnline
		s.sensors[i].IsActive = true
	}

	now := time.Now().UTC()
	s.tick(now)

	msg, ok := pub.Latest(model.KeyStats)
	require.True(t, ok, "every tick must push a stats snapshot through the bridge")
	assert.Equal(t, now, msg.Timestamp)

	var stats model.SystemStats
	require.NoError(t, json.Unmarshal(msg.Payload, &stats))
	assert.Equal(t, 3, stats.TotalSensors)
	assert.Equal(t, 3, stats.ActiveSensors)
	assert.Equal(t, s.SystemStats().DataPoints, stats.DataPoints)
	assert.Equal(t, now, stats.LastUpdate)

	// the snapshot is the last message of the cycle, after the sensor updates
	assert.Equal(t, model.KeyStats, pub.messages[len(pub.messages)-1].Key)
}

func TestTickFreezesOfflineSensor(t *testing.T) {
	s := newTestSimulator(t, nil)
	s.sensors = s.sensors[:2]
	s.sensors[0].Status = model.StatusOnline
	s.sensors[0].IsActive = true
	s.sensors[1].Status = model.StatusOffline
	s.sensors[1].IsActive = true
	frozen := s.sensors[1].LastReading

	s.tick(time.Now().UTC())

	assert.Equal(t, frozen, s.sensors[1].LastReading)
	assert.NotEqual(t, frozen, s.sensors[0].LastReading)
}

func TestLowBatterySensorRaisesAlertWithinFiveTicks(t *testing.T) {
	s := newTestSimulator(t, &recordingPublisher{})
	s.sensors = s.sensors[:3]
	for i := range s.sensors {
		s.sensors[i].Status = model.StatusOnline
		s.sensors[i].IsActive = true
		s.sensors[i].BatteryLevel = 80
	}
	s.sensors[0].BatteryLevel = 19

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		s.tick(now.Add(time.Duration(i) * time.Second))
	}

	var found bool
	for _, a := range s.ActiveAlerts(0) {
		if a.SensorID == s.sensors[0].ID && a.Type == model.AlertBattery {
			found = true
			assert.Contains(t, []model.AlertSeverity{model.SeverityMedium, model.SeverityCritical}, a.Severity)
		}
	}
	assert.True(t, found, "expected a battery alert for the low-battery sensor")
}

func TestResolveAlertThroughSimulator(t *testing.T) {
	s := newTestSimulator(t, nil)
	s.sensors = s.sensors[:1]
	s.sensors[0].Status = model.StatusOnline
	s.sensors[0].IsActive = true
	s.sensors[0].BatteryLevel = 5

	s.tick(time.Now().UTC())

	alerts := s.ActiveAlerts(0)
	require.NotEmpty(t, alerts)

	assert.False(t, s.ResolveAlert("bogus"))
	assert.True(t, s.ResolveAlert(alerts[0].ID))
	assert.Len(t, s.ActiveAlerts(0), len(alerts)-1)
}

func TestStartStopLifecycle(t *testing.T) {
	s := newTestSimulator(t, nil)

	s.Start(10 * time.Millisecond)
	// starting twice is a no-op
	s.Start(10 * time.Millisecond)

	assert.Eventually(t, func() bool {
		return s.SystemStats().DataPoints > len(s.Sensors())*seedHistorySize
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	points := s.SystemStats().DataPoints
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, points, s.SystemStats().DataPoints, "no tick may fire after Stop returns")

	// stopping twice is a no-op
	s.Stop()
}

func TestSystemStatsCountsAndAverages(t *testing.T) {
	s := newTestSimulator(t, nil)
	s.sensors = s.sensors[:4]
	for i := range s.sensors {
		s.sensors[i].IsActive = true
	}
	s.sensors[0].Status = model.StatusOnline
	s.sensors[0].LastReading = model.Reading{Temperature: 20, Humidity: 60, Pressure: 1000}
	s.sensors[1].Status = model.StatusOnline
	s.sensors[1].LastReading = model.Reading{Temperature: 21, Humidity: 61, Pressure: 1001}
	s.sensors[2].Status = model.StatusOffline
	s.sensors[3].Status = model.StatusMaintenance

	stats := s.SystemStats()
	assert.Equal(t, 4, stats.TotalSensors)
	assert.Equal(t, 2, stats.ActiveSensors)
	assert.Equal(t, 1, stats.OfflineSensors)
	assert.Equal(t, 1, stats.MaintenanceSensors)
	assert.Equal(t, 20.5, stats.AverageTemperature)
	assert.Equal(t, 61.0, stats.AverageHumidity)
	assert.Equal(t, 1001.0, stats.AveragePressure)
}

func TestStatsWithNoOnlineSensors(t *testing.T) {
	s := newTestSimulator(t, nil)
	for i := range s.sensors {
		s.sensors[i].Status = model.StatusOffline
	}

	stats := s.SystemStats()
	assert.Zero(t, stats.ActiveSensors)
	assert.Zero(t, stats.AverageTemperature)
}
