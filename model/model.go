package model

import (
	"encoding/json"
	"time"
)

type SensorStatus string

const (
	StatusOnline      SensorStatus = "online"
	StatusOffline     SensorStatus = "offline"
	StatusMaintenance SensorStatus = "maintenance"
	StatusError       SensorStatus = "error"
)

type AlertType string

const (
	AlertTemperature  AlertType = "temperature"
	AlertHumidity     AlertType = "humidity"
	AlertPressure     AlertType = "pressure"
	AlertBattery      AlertType = "battery"
	AlertConnectivity AlertType = "connectivity"
)

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// ChannelWeather is the broadcast channel carrying sensor updates from the
// simulator and the ingest API to every subscribed observer.
const ChannelWeather = "weather"

// KeyStats is the bridge key under which the simulator stores the fleet
// stats snapshot it pushes after every tick.
const KeyStats = "stats"

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is a static sensor site. Created once at startup, never mutated.
type Location struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	City        string      `json:"city"`
	Country     string      `json:"country"`
	Coordinates Coordinates `json:"coordinates"`
	Region      string      `json:"region"`
	Zone        string      `json:"zone"`
}

// Reading is one measurement tuple for one sensor. Immutable once created.
type Reading struct {
	Timestamp     time.Time `json:"timestamp"`
	Temperature   float64   `json:"temperature"`
	Humidity      float64   `json:"humidity"`
	Pressure      float64   `json:"pressure"`
	WindSpeed     float64   `json:"windSpeed"`
	WindDirection int       `json:"windDirection"`
	Visibility    float64   `json:"visibility"`
	UVIndex       int       `json:"uvIndex"`
}

type Sensor struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Location        Location     `json:"location"`
	Status          SensorStatus `json:"status"`
	LastReading     Reading      `json:"lastReading"`
	BatteryLevel    int          `json:"batteryLevel"`
	SignalStrength  int          `json:"signalStrength"`
	Firmware        string       `json:"firmware"`
	InstallDate     time.Time    `json:"installDate"`
	LastMaintenance time.Time    `json:"lastMaintenance"`
	IsActive        bool         `json:"isActive"`
}

type Alert struct {
	ID         string        `json:"id"`
	SensorID   string        `json:"sensorId"`
	Type       AlertType     `json:"type"`
	Severity   AlertSeverity `json:"severity"`
	Message    string        `json:"message"`
	Timestamp  time.Time     `json:"timestamp"`
	IsResolved bool          `json:"isResolved"`
	Threshold  float64       `json:"threshold"`
	Value      float64       `json:"value"`
}

type Averages struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
}

type Trends struct {
	Temperature Trend `json:"temperature"`
	Humidity    Trend `json:"humidity"`
	Pressure    Trend `json:"pressure"`
}

// HistoryView is the aggregated window a dashboard chart renders: the last N
// readings plus their averages and short-term trends.
type HistoryView struct {
	SensorID string    `json:"sensorId"`
	Readings []Reading `json:"readings"`
	Averages Averages  `json:"averages"`
	Trends   Trends    `json:"trends"`
}

type SystemStats struct {
	TotalSensors       int       `json:"totalSensors"`
	ActiveSensors      int       `json:"activeSensors"`
	OfflineSensors     int       `json:"offlineSensors"`
	MaintenanceSensors int       `json:"maintenanceSensors"`
	AverageTemperature float64   `json:"averageTemperature"`
	AverageHumidity    float64   `json:"averageHumidity"`
	AveragePressure    float64   `json:"averagePressure"`
	LastUpdate         time.Time `json:"lastUpdate"`
	ActiveAlerts       int       `json:"activeAlerts"`
	DataPoints         int       `json:"dataPoints"`
}

// WeatherUpdate is the per-sensor payload pushed on ChannelWeather after
// every scheduler tick.
type WeatherUpdate struct {
	SensorID     string       `json:"sensorId"`
	City         string       `json:"city"`
	Status       SensorStatus `json:"status"`
	BatteryLevel int          `json:"batteryLevel"`
	Reading      Reading      `json:"reading"`
}

// Message is the wire unit of the distribution bridge. The bridge keeps the
// latest message per key and fans every publish out to subscribed observers.
type Message struct {
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// ISimulator is the read/control surface the API exposes to the dashboard.
type ISimulator interface {
	Sensors() []Sensor
	Sensor(id string) (Sensor, bool)
	SensorHistory(id string, limit int) (HistoryView, bool)
	ActiveAlerts(limit int) []Alert
	ResolveAlert(id string) bool
	SystemStats() SystemStats
	Start(interval time.Duration)
	Stop()
}

// IIngest accepts an externally published sensor payload and relays it
// through the distribution bridge.
type IIngest interface {
	Ingest(payload []byte) error
}

// IPublisher is the producer side of the distribution bridge.
type IPublisher interface {
	Publish(channel string, msg Message)
	Latest(key string) (Message, bool)
}
