package gcode

import (
	"math"
	"strconv"

	"servostep/core"
)

// FirmwareVersion is reported by M115.
const FirmwareVersion = "1.0.0"

// Reply strings shared by every command.
const (
	ReplyOK             = "ok"
	ReplyNoValue        = "error: no valid value"
	ReplyUnknownCommand = "error: command not available"
	ReplyNoCommand      = "error: no command specified"
	ReplyBusy           = "error: move already in progress"
	ReplyRebootRequired = "ok: parameters wiped, reboot required"
)

// Interpreter executes parsed commands against the motor core. Set
// commands reply "ok"; the same command without a value replies with
// the current setting, matching the usual get/set convention of
// M-code controllers.
type Interpreter struct {
	motor   *core.Motor
	pid     *core.PID
	planner *core.StepPlanner
}

// NewInterpreter wires the command surface to the core. pid may be nil
// when the closed loop is not fitted; the PID commands then report the
// feature as unavailable.
func NewInterpreter(motor *core.Motor, pid *core.PID, planner *core.StepPlanner) *Interpreter {
	return &Interpreter{motor: motor, pid: pid, planner: planner}
}

// Run parses and executes one command line, returning the reply.
func (in *Interpreter) Run(line string) string {
	cmd := ParseLine(line)
	if cmd == nil || cmd.Letter == 0 {
		return ReplyNoCommand
	}
	return in.Execute(cmd)
}

// Execute runs a parsed command, returning the reply.
func (in *Interpreter) Execute(cmd *Command) string {
	switch cmd.Letter {
	case 'M':
		return in.executeM(cmd)
	case 'G':
		return in.executeG(cmd)
	}
	return ReplyNoCommand
}

func (in *Interpreter) executeM(cmd *Command) string {
	switch cmd.Number {
	case 17:
		// M17 - enable the motor, overriding the enable pin
		in.motor.SetState(core.StateForcedEnabled, true)
		return ReplyOK

	case 18, 84:
		// M18/M84 - disable the motor, overriding the enable pin
		in.motor.SetState(core.StateForcedDisabled, true)
		return ReplyOK

	case 93:
		// M93 V1.8 - full-step angle; get without V
		if cmd.HasParam('V') {
			in.motor.SetFullStepAngle(cmd.Param('V', 0))
			return ReplyOK
		}
		return formatFloat(in.motor.FullStepAngle())

	case 115:
		return in.firmwareInfo()

	case 301:
		return in.pidTunings(cmd)

	case 303:
		// M303 - calibration sequence
		if err := in.motor.Calibrate(); err != nil {
			return "error: " + err.Error()
		}
		return ReplyOK

	case 350:
		// M350 V16 - microstep divisor; get without V
		if cmd.HasParam('V') {
			in.motor.SetMicrostepping(uint16(cmd.Param('V', 0)))
			return ReplyOK
		}
		return strconv.Itoa(int(in.motor.Microstepping()))

	case 352:
		// M352 S1 - direction inversion; get without S
		if s := cmd.Param('S', -1); s == 0 || s == 1 {
			in.motor.SetReversed(s == 1)
			return ReplyOK
		}
		return formatBool(in.motor.Reversed())

	case 353:
		// M353 S1 - enable pin inversion; get without S
		if s := cmd.Param('S', -1); s == 0 || s == 1 {
			in.motor.SetEnableInversion(s == 1)
			return ReplyOK
		}
		return formatBool(in.motor.EnableInversion())

	case 355:
		// M355 V1.34 - microstep multiplier; get without V
		if cmd.HasParam('V') {
			in.motor.SetMicrostepMultiplier(cmd.Param('V', 0))
			return ReplyOK
		}
		return formatFloat(in.motor.MicrostepMultiplier())

	case 500:
		if err := in.motor.SaveParameters(); err != nil {
			return "error: " + err.Error()
		}
		return ReplyOK

	case 501:
		if err := in.motor.LoadParameters(); err != nil {
			return "error: " + err.Error()
		}
		return ReplyOK

	case 502:
		// The core does not reboot the board; the caller is told to.
		if err := in.motor.WipeParameters(); err != nil {
			return "error: " + err.Error()
		}
		return ReplyRebootRequired

	case 907:
		return in.current(cmd)
	}

	return ReplyUnknownCommand
}

func (in *Interpreter) executeG(cmd *Command) string {
	switch cmd.Number {
	case 0:
		return in.move(cmd)
	case 6:
		return in.directStep(cmd)
	case 90:
		in.planner.SetDistanceMode(core.DistanceAbsolute)
		return ReplyOK
	case 91:
		in.planner.SetDistanceMode(core.DistanceIncremental)
		return ReplyOK
	}
	return ReplyUnknownCommand
}

// pidTunings handles M301: set any of P/I/D/W, or report all four.
func (in *Interpreter) pidTunings(cmd *Command) string {
	if in.pid == nil {
		return ReplyUnknownCommand
	}

	if cmd.HasParam('P') || cmd.HasParam('I') || cmd.HasParam('D') {
		in.pid.SetTunings(
			cmd.Param('P', in.pid.P()),
			cmd.Param('I', in.pid.I()),
			cmd.Param('D', in.pid.D()),
		)
		if cmd.HasParam('W') {
			in.pid.SetMaxI(cmd.Param('W', 0))
		}
		return ReplyOK
	}

	return "P: " + formatFloat(in.pid.P()) +
		" I: " + formatFloat(in.pid.I()) +
		" D: " + formatFloat(in.pid.D()) +
		" W: " + formatFloat(in.pid.MaxI())
}

// current handles M907. On dynamic-current builds the A/I/M factors are
// set or reported; otherwise R sets RMS, P sets peak and the bare form
// reports the RMS limit.
func (in *Interpreter) current(cmd *Command) string {
	if in.motor.Features().DynamicCurrent {
		if cmd.HasParam('A') || cmd.HasParam('I') || cmd.HasParam('M') {
			if cmd.HasParam('A') {
				in.motor.SetDynamicAccelCurrent(uint16(cmd.Param('A', 0)))
			}
			if cmd.HasParam('I') {
				in.motor.SetDynamicIdleCurrent(uint16(cmd.Param('I', 0)))
			}
			if cmd.HasParam('M') {
				in.motor.SetDynamicMaxCurrent(uint16(cmd.Param('M', 0)))
			}
			return ReplyOK
		}
		return "A: " + strconv.Itoa(int(in.motor.DynamicAccelCurrent())) +
			" I: " + strconv.Itoa(int(in.motor.DynamicIdleCurrent())) +
			" M: " + strconv.Itoa(int(in.motor.DynamicMaxCurrent()))
	}

	if cmd.HasParam('R') {
		in.motor.SetRMSCurrent(uint16(cmd.Param('R', 0)))
		return ReplyOK
	}
	if cmd.HasParam('P') {
		in.motor.SetPeakCurrent(uint16(cmd.Param('P', 0)))
		return ReplyOK
	}
	return strconv.Itoa(int(in.motor.RMSCurrent()))
}

// move handles G0: a single-axis move in degrees on the A axis, at an
// F feed rate in degrees per minute. Absolute targets are taken
// relative to the commanded position.
func (in *Interpreter) move(cmd *Command) string {
	if !cmd.HasParam('A') {
		return ReplyNoValue
	}
	value := cmd.Param('A', 0)

	rate := cmd.Param('F', 0)
	if rate <= 0 {
		rate = in.planner.GetLastFeedRate()
	}
	in.planner.SetLastFeedRate(rate)

	microstepAngle := in.motor.MicrostepAngle()
	count := int64(math.Round(value / microstepAngle))
	stepRate := rate / (microstepAngle * 60)

	if in.planner.GetDistanceMode() == core.DistanceAbsolute {
		count -= int64(math.Round(in.motor.DesiredAngle() / microstepAngle))
	}
	if count == 0 {
		return ReplyOK
	}

	dir := core.DirCounterClockwise
	if count < 0 {
		count = -count
		dir = core.DirClockwise
	}

	if err := in.planner.ScheduleSteps(count, stepRate, dir); err != nil {
		if err == core.ErrStepJobActive {
			return ReplyBusy
		}
		return "error: " + err.Error()
	}
	return ReplyOK
}

// directStep handles G6: D is direction (0 CCW, 1 CW), R the step rate
// in Hz and S the step count. A missing rate reuses the last one.
func (in *Interpreter) directStep(cmd *Command) string {
	reverse := cmd.Param('D', 0) == 1

	rate := cmd.Param('R', 0)
	if rate <= 0 {
		rate = in.planner.GetLastStepRate()
	}

	count := int64(cmd.Param('S', 0))
	if count == 0 {
		return ReplyNoValue
	}
	if count < 0 {
		count = -count
		reverse = !reverse
	}

	in.planner.SetLastStepRate(rate)

	dir := core.DirCounterClockwise
	if reverse {
		dir = core.DirClockwise
	}
	if err := in.planner.ScheduleSteps(count, rate, dir); err != nil {
		if err == core.ErrStepJobActive {
			return ReplyBusy
		}
		return "error: " + err.Error()
	}
	return ReplyOK
}

// firmwareInfo builds the M115 report from the enabled features.
func (in *Interpreter) firmwareInfo() string {
	info := "FIRMWARE_NAME:servostep FIRMWARE_VERSION:" + FirmwareVersion
	f := in.motor.Features()
	if f.PID {
		info += " PID:1"
	}
	if f.DynamicCurrent {
		info += " DYNAMIC_CURRENT:1"
	}
	if f.OvertempProtection {
		info += " OVERTEMP_PROTECTION:1"
	}
	if in.motor.Sensor() != nil {
		info += " ENCODER:1"
	}
	return info
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
