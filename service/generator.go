package service

import (
	"math"
	"math/rand"
	"time"

	"github.com/Camilejo/TallerBDRedis/model"
)

const (
	defaultBaseTemperature = 20.0
	defaultBaseHumidity    = 65.0
	// sea-level standard pressure
	defaultBasePressure = 1013.0
)

// baseline temperature per city
var cityTemperatures = map[string]float64{
	"Bogotá":      15,
	"Medellín":    22,
	"Cartagena":   28,
	"Cali":        25,
	"Bucaramanga": 24,
	"Manizales":   18,
}

// baseline humidity per zone
var zoneHumidity = map[string]float64{
	"coastal":     80,
	"urban":       65,
	"industrial":  60,
	"natural":     75,
	"educational": 70,
}

// baseline pressure per city, altitude-derived
var cityPressures = map[string]float64{
	"Bogotá":      750,
	"Medellín":    860,
	"Cartagena":   1013,
	"Cali":        950,
	"Bucaramanga": 920,
	"Manizales":   800,
}

// Generator produces synthetic readings around location-derived baselines.
// It is a pure function of (location, timestamp, random source) and is
// reproducible under a seeded source. Not safe for concurrent use; the
// simulator drives it from the tick loop only.
type Generator struct {
	rnd *rand.Rand
}

func NewGenerator(rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd}
}

func (g *Generator) Reading(loc model.Location, ts time.Time) model.Reading {
	var (
		temperature float64
		humidity    float64
		pressure    float64
	)

	temperature = baseTemperature(loc) + (g.rnd.Float64()-0.5)*10
	humidity = baseHumidity(loc) + (g.rnd.Float64()-0.5)*30
	pressure = basePressure(loc) + (g.rnd.Float64()-0.5)*50

	return model.Reading{
		Timestamp:     ts,
		Temperature:   round1(temperature),
		Humidity:      clamp(math.Round(humidity), 0, 100),
		Pressure:      math.Round(pressure),
		WindSpeed:     round1(g.rnd.Float64() * 50),
		WindDirection: g.rnd.Intn(360),
		Visibility:    math.Round(g.rnd.Float64() * 20000),
		UVIndex:       g.rnd.Intn(11),
	}
}

func baseTemperature(loc model.Location) float64 {
	if t, ok := cityTemperatures[loc.City]; ok {
		return t
	}
	return defaultBaseTemperature
}

func baseHumidity(loc model.Location) float64 {
	if h, ok := zoneHumidity[loc.Zone]; ok {
		return h
	}
	return defaultBaseHumidity
}

func basePressure(loc model.Location) float64 {
	if p, ok := cityPressures[loc.City]; ok {
		return p
	}
	return defaultBasePressure
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
