package service

import (
	"fmt"
	"sort"

	uuid "github.com/satori/go.uuid"

	"github.com/Camilejo/TallerBDRedis/model"
)

const (
	defaultAlertLimit = 50

	tempHighThreshold     = 35.0
	tempLowThreshold      = 0.0
	tempCriticalHigh      = 40.0
	tempCriticalLow       = -5.0
	humidityHighThreshold = 90.0
	humidityLowThreshold  = 10.0
	humidityCriticalHigh  = 95.0
	humidityCriticalLow   = 5.0
	batteryLowThreshold   = 20
	batteryCriticalLevel  = 10
)

// alertEngine evaluates readings against static thresholds and keeps the
// full alert list. Resolved alerts are never deleted, only filtered out of
// the active view. Owned by the simulator, guarded by its lock.
type alertEngine struct {
	alerts []model.Alert
}

func newAlertEngine() *alertEngine {
	return &alertEngine{}
}

// evaluate checks one fresh reading plus the sensor's battery level. Every
// breached threshold fires independently, so a single reading can produce
// several alerts.
func (e *alertEngine) evaluate(sensor model.Sensor, r model.Reading) []model.Alert {
	var fired []model.Alert

	if r.Temperature > tempHighThreshold || r.Temperature < tempLowThreshold {
		severity := model.SeverityHigh
		if r.Temperature > tempCriticalHigh || r.Temperature < tempCriticalLow {
			severity = model.SeverityCritical
		}
		threshold := tempHighThreshold
		kind := "High"
		if r.Temperature < tempLowThreshold {
			threshold = tempLowThreshold
			kind = "Low"
		}
		fired = append(fired, model.Alert{
			ID:        uuid.NewV4().String(),
			SensorID:  sensor.ID,
			Type:      model.AlertTemperature,
			Severity:  severity,
			Message:   fmt.Sprintf("%s temperature: %.1f°C", kind, r.Temperature),
			Timestamp: r.Timestamp,
			Threshold: threshold,
			Value:     r.Temperature,
		})
	}

	if r.Humidity > humidityHighThreshold || r.Humidity < humidityLowThreshold {
		severity := model.SeverityMedium
		if r.Humidity > humidityCriticalHigh || r.Humidity < humidityCriticalLow {
			severity = model.SeverityCritical
		}
		threshold := humidityHighThreshold
		kind := "High"
		if r.Humidity < humidityLowThreshold {
			threshold = humidityLowThreshold
			kind = "Low"
		}
		fired = append(fired, model.Alert{
			ID:        uuid.NewV4().String(),
			SensorID:  sensor.ID,
			Type:      model.AlertHumidity,
			Severity:  severity,
			Message:   fmt.Sprintf("%s humidity: %.0f%%", kind, r.Humidity),
			Timestamp: r.Timestamp,
			Threshold: threshold,
			Value:     r.Humidity,
		})
	}

	if sensor.BatteryLevel < batteryLowThreshold {
		severity := model.SeverityMedium
		if sensor.BatteryLevel < batteryCriticalLevel {
			severity = model.SeverityCritical
		}
		fired = append(fired, model.Alert{
			ID:        uuid.NewV4().String(),
			SensorID:  sensor.ID,
			Type:      model.AlertBattery,
			Severity:  severity,
			Message:   fmt.Sprintf("Low battery: %d%%", sensor.BatteryLevel),
			Timestamp: r.Timestamp,
			Threshold: batteryLowThreshold,
			Value:     float64(sensor.BatteryLevel),
		})
	}

	e.alerts = append(e.alerts, fired...)
	return fired
}

// resolve marks the matching alert resolved. Returns false when the id is
// unknown.
func (e *alertEngine) resolve(id string) bool {
	for i := range e.alerts {
		if e.alerts[i].ID == id {
			e.alerts[i].IsResolved = true
			return true
		}
	}
	return false
}

// active returns unresolved alerts, newest first, truncated to limit.
func (e *alertEngine) active(limit int) []model.Alert {
	if limit <= 0 {
		limit = defaultAlertLimit
	}

	var out []model.Alert
	for _, a := range e.alerts {
		if !a.IsResolved {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (e *alertEngine) activeCount() int {
	var n int
	for _, a := range e.alerts {
		if !a.IsResolved {
			n++
		}
	}
	return n
}
