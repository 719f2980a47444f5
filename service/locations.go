package service

import "github.com/Camilejo/TallerBDRedis/model"

// sensorLocations is the static site registry. One sensor is created per
// location at startup.
var sensorLocations = []model.Location{
	{
		ID:          "loc-001",
		Name:        "Centro Histórico",
		City:        "Bogotá",
		Country:     "Colombia",
		Coordinates: model.Coordinates{Lat: 4.5981, Lon: -74.0758},
		Region:      "center",
		Zone:        "urban",
	},
	{
		ID:          "loc-002",
		Name:        "Zona Norte",
		City:        "Medellín",
		Country:     "Colombia",
		Coordinates: model.Coordinates{Lat: 6.2442, Lon: -75.5812},
		Region:      "north",
		Zone:        "urban",
	},
	{
		ID:          "loc-003",
		Name:        "Puerto Marítimo",
		City:        "Cartagena",
		Country:     "Colombia",
		Coordinates: model.Coordinates{Lat: 10.4236, Lon: -75.5378},
		Region:      "north",
		Zone:        "coastal",
	},
	{
		ID:          "loc-004",
		Name:        "Zona Industrial",
		City:        "Cali",
		Country:     "Colombia",
		Coordinates: model.Coordinates{Lat: 3.4516, Lon: -76.532},
		Region:      "south",
		Zone:        "industrial",
	},
	{
		ID:          "loc-005",
		Name:        "Campus Universitario",
		City:        "Bucaramanga",
		Country:     "Colombia",
		Coordinates: model.Coordinates{Lat: 7.1253, Lon: -73.1198},
		Region:      "east",
		Zone:        "educational",
	},
	{
		ID:          "loc-006",
		Name:        "Parque Nacional",
		City:        "Manizales",
		Country:     "Colombia",
		Coordinates: model.Coordinates{Lat: 5.07, Lon: -75.5138},
		Region:      "center",
		Zone:        "natural",
	},
	{
		ID:          "loc-007",
		Name:        "Puerto Pacífico",
		City:        "Buenaventura",
		Country:     "Colombia",
		Coordinates: model.Coordinates{Lat: 3.8801, Lon: -77.0313},
		Region:      "west",
		Zone:        "coastal",
	},
	{
		ID:          "loc-008",
		Name:        "Aeropuerto Internacional",
		City:        "Barranquilla",
		Country:     "Colombia",
		Coordinates: model.Coordinates{Lat: 10.8896, Lon: -74.7804},
		Region:      "north",
		Zone:        "transport",
	},
	{
		ID:          "loc-009",
		Name:        "Zona Petrolera",
		City:        "Arauca",
		Country:     "Colombia",
		Coordinates: model.Coordinates{Lat: 7.0832, Lon: -70.7619},
		Region:      "east",
		Zone:        "industrial",
	},
	{
		ID:          "loc-010",
		Name:        "Selva Amazónica",
		City:        "Leticia",
		Country:     "Colombia",
		Coordinates: model.Coordinates{Lat: -4.2158, Lon: -69.9406},
		Region:      "south",
		Zone:        "natural",
	},
	{
		ID:          "loc-011",
		Name:        "Centro Minero",
		City:        "Pereira",
		Country:     "Colombia",
		Coordinates: model.Coordinates{Lat: 4.8133, Lon: -75.6961},
		Region:      "west",
		Zone:        "industrial",
	},
	{
		ID:          "loc-012",
		Name:        "Zona Cafetera",
		City:        "Armenia",
		Country:     "Colombia",
		Coordinates: model.Coordinates{Lat: 4.5339, Lon: -75.6811},
		Region:      "west",
		Zone:        "agricultural",
	},
}

// Locations returns a copy of the site registry.
func Locations() []model.Location {
	out := make([]model.Location, len(sensorLocations))
	copy(out, sensorLocations)
	return out
}
