package core

// Shared mock hardware for the core tests. The mocks record every
// write so tests can assert on ordering as well as final state.

type pinWrite struct {
	pin   GPIOPin
	value bool
}

type mockGPIO struct {
	outputs map[GPIOPin]bool
	inputs  map[GPIOPin]bool
	levels  map[GPIOPin]bool
	writes  []pinWrite
}

func newMockGPIO() *mockGPIO {
	return &mockGPIO{
		outputs: make(map[GPIOPin]bool),
		inputs:  make(map[GPIOPin]bool),
		levels:  make(map[GPIOPin]bool),
	}
}

func (g *mockGPIO) ConfigureOutput(pin GPIOPin) error {
	g.outputs[pin] = true
	return nil
}

func (g *mockGPIO) ConfigureInputPullUp(pin GPIOPin) error {
	g.inputs[pin] = true
	return nil
}

func (g *mockGPIO) SetPin(pin GPIOPin, value bool) error {
	g.levels[pin] = value
	g.writes = append(g.writes, pinWrite{pin, value})
	return nil
}

func (g *mockGPIO) ReadPin(pin GPIOPin) bool {
	return g.levels[pin]
}

type dutyWrite struct {
	pin   PWMPin
	value PWMValue
}

type mockPWM struct {
	configured map[PWMPin]uint32
	duties     map[PWMPin]PWMValue
	writes     []dutyWrite
}

func newMockPWM() *mockPWM {
	return &mockPWM{
		configured: make(map[PWMPin]uint32),
		duties:     make(map[PWMPin]PWMValue),
	}
}

func (p *mockPWM) ConfigurePWM(pin PWMPin, freqHz uint32) error {
	p.configured[pin] = freqHz
	return nil
}

func (p *mockPWM) SetDuty(pin PWMPin, value PWMValue) error {
	p.duties[pin] = value
	p.writes = append(p.writes, dutyWrite{pin, value})
	return nil
}

func (p *mockPWM) MaxDuty() uint32 {
	return 255
}

type mockSensor struct {
	angle float64
	vel   float64
	accel float64
}

func (s *mockSensor) Angle() float64        { return s.angle }
func (s *mockSensor) Velocity() float64     { return s.vel }
func (s *mockSensor) Acceleration() float64 { return s.accel }

// testRig bundles a motor with its mock hardware.
type testRig struct {
	board  BoardConfig
	gpio   *mockGPIO
	pwm    *mockPWM
	sensor *mockSensor
	store  *MemStore
	motor  *Motor
}

func newTestRig(features Features, withSensor bool) *testRig {
	rig := &testRig{
		board: DefaultBoardConfig(),
		gpio:  newMockGPIO(),
		pwm:   newMockPWM(),
		store: NewMemStore(),
	}

	var sensor AngleSensor
	if withSensor {
		rig.sensor = &mockSensor{}
		sensor = rig.sensor
	}

	motor, err := NewMotor(&rig.board, features, rig.gpio, rig.pwm, sensor, rig.store)
	if err != nil {
		panic("NewMotor failed: " + err.Error())
	}
	rig.motor = motor
	return rig
}

// coilSnapshot captures the drive command currently applied to both channels.
type coilSnapshot struct {
	aState, bState CoilState
	aDuty, bDuty   PWMValue
}

func (r *testRig) snapshot() coilSnapshot {
	return coilSnapshot{
		aState: r.motor.Coils().State(CoilA),
		bState: r.motor.Coils().State(CoilB),
		aDuty:  r.pwm.duties[r.board.CoilAPWM],
		bDuty:  r.pwm.duties[r.board.CoilBPWM],
	}
}
