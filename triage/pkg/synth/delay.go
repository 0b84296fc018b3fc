package synth

import (
	"math/rand"
	"time"
)

// Band is an inclusive range of whole-second delays.
type Band struct {
	Min time.Duration
	Max time.Duration
}

// DefaultBands mixes quick demo bursts with long quiet stretches.
var DefaultBands = []Band{
	{Min: 10 * time.Second, Max: 25 * time.Second},
	{Min: 60 * time.Second, Max: 180 * time.Second},
	{Min: 300 * time.Second, Max: 600 * time.Second},
	{Min: 900 * time.Second, Max: 1800 * time.Second},
	{Min: 3600 * time.Second, Max: 7200 * time.Second},
}

// RandomDelay picks a band uniformly, then a whole number of seconds
// uniformly within it.
func RandomDelay(r *rand.Rand, bands []Band) time.Duration {
	if len(bands) == 0 {
		return 0
	}
	b := bands[r.Intn(len(bands))]
	span := int((b.Max - b.Min) / time.Second)
	if span <= 0 {
		return b.Min
	}
	return b.Min + time.Duration(r.Intn(span+1))*time.Second
}
