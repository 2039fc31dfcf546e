package sample

import "sync"

// Store holds every sample accepted during a session, in insertion order.
// Samples are never reordered, deduplicated, or truncated while the session
// runs. The tick loop is the only writer; the web and MQTT surfaces read
// concurrently, so reads take the lock too.
type Store struct {
	mu      sync.RWMutex
	samples []Sample
}

func NewStore() *Store {
	return &Store{}
}

// Append adds one sample to the end of the store.
func (s *Store) Append(smp Sample) {
	s.mu.Lock()
	s.samples = append(s.samples, smp)
	s.mu.Unlock()
}

// Latest returns the most recent sample, or false if none has been accepted
// yet.
func (s *Store) Latest() (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.samples) == 0 {
		return Sample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// Window returns the last n samples in insertion order, fewer if the store
// holds fewer. The returned slice is a copy.
func (s *Store) Window(n int) []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.samples) {
		n = len(s.samples)
	}
	out := make([]Sample, n)
	copy(out, s.samples[len(s.samples)-n:])
	return out
}

// All returns a copy of the full session history.
func (s *Store) All() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Series splits samples into the three index-aligned sequences the plotters
// consume. The three slices always have equal length.
func Series(samples []Sample) (times, temps, co2s []float64) {
	times = make([]float64, len(samples))
	temps = make([]float64, len(samples))
	co2s = make([]float64, len(samples))
	for i, smp := range samples {
		times[i] = smp.Elapsed
		temps[i] = smp.Temp
		co2s[i] = smp.CO2
	}
	return times, temps, co2s
}
