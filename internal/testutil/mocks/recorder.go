package mocks

import "sync"

// Recorder is a mock implementation of metrics.Recorder.
type Recorder struct {
	mu sync.Mutex

	outcomes  map[string]int
	callbacks map[string]int
}

// NewRecorder creates a new mock Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		outcomes:  make(map[string]int),
		callbacks: make(map[string]int),
	}
}

func (m *Recorder) LinkOutcome(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[outcome]++
}

func (m *Recorder) CallbackObserved(provider string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks[provider]++
}

// Outcomes returns how often outcome was recorded.
func (m *Recorder) Outcomes(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomes[outcome]
}

// Callbacks returns how often a callback from provider was recorded.
func (m *Recorder) Callbacks(provider string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callbacks[provider]
}
