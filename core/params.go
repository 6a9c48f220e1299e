package core

import "sync"

// Parameter keys used with the persistent store. The command layer
// reports failures; core code only moves values in and out.
const (
	ParamFullStepAngle       = "full_step_angle"
	ParamMicrostepping       = "microstepping"
	ParamReversed            = "reversed"
	ParamEnableInverted      = "enable_inverted"
	ParamMicrostepMultiplier = "microstep_multiplier"
	ParamRMSCurrent          = "rms_current"
	ParamDynamicAccel        = "dynamic_accel"
	ParamDynamicIdle         = "dynamic_idle"
	ParamDynamicMax          = "dynamic_max"
	ParamPIDP                = "pid_p"
	ParamPIDI                = "pid_i"
	ParamPIDD                = "pid_d"
	ParamPIDMaxI             = "pid_max_i"
	ParamCalibrated          = "calibrated"
)

// ParamStore is the non-volatile parameter storage the board provides.
// Load reports absence with the second return instead of a sentinel
// value. Erase wipes every key.
type ParamStore interface {
	Load(key string) (float64, bool)
	Save(key string, value float64) error
	Erase() error
}

// MemStore is an in-memory ParamStore. It backs tests and hosts without
// flash; targets substitute their own implementation.
type MemStore struct {
	mu     sync.Mutex
	values map[string]float64
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]float64)}
}

func (s *MemStore) Load(key string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemStore) Save(key string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemStore) Erase() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]float64)
	return nil
}
