package domain

// Zone is a geographic service area. When QueueMode is set, waiting
// providers inside the zone are dispatched in FIFO queue order instead of
// by proximity.
type Zone struct {
	ID        string
	Name      string
	CenterLat float64
	CenterLng float64
	RadiusKm  float64
	QueueMode bool
}

// Contains reports whether the point falls inside the zone.
func (z *Zone) Contains(lat, lng float64) bool {
	return HaversineKm(z.CenterLat, z.CenterLng, lat, lng) <= z.RadiusKm
}
