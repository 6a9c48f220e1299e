// stepctl is the host-side console for the driver board. It forwards
// G/M-code lines over a serial link and prints the replies. With
// -local the same command set runs against an in-process simulated
// board, which is handy for checking profiles and command sequences
// without hardware.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"servostep/config"
	"servostep/core"
	"servostep/gcode"
	"servostep/host/serial"
)

var (
	device     = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud       = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	configPath = flag.String("config", "", "YAML board profile (required for -local)")
	local      = flag.Bool("local", false, "Run commands against a simulated board")
	verbose    = flag.Bool("verbose", false, "Print simulated coil activity")
)

func main() {
	flag.Parse()

	run := connectSerial
	if *local {
		run = connectLocal
	}

	exec, cleanup, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	fmt.Println("Enter commands ('quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" || line == "q" {
			return
		}
		fmt.Println(exec(line))
	}
}

// connectSerial opens the board link and returns an executor that
// forwards one line and reads back one reply line.
func connectSerial() (func(string) string, func(), error) {
	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	port, err := serial.Open(cfg)
	if err != nil {
		return nil, nil, err
	}

	reader := bufio.NewReader(port)
	exec := func(line string) string {
		if _, err := port.Write([]byte(line + "\n")); err != nil {
			return "write error: " + err.Error()
		}
		reply, err := reader.ReadString('\n')
		if err != nil {
			return "read error: " + err.Error()
		}
		return strings.TrimRight(reply, "\r\n")
	}
	return exec, func() { port.Close() }, nil
}

// connectLocal builds a simulated board from the profile and runs the
// interpreter in-process. Scheduled steps are executed to completion
// after each command, so move commands respond with the final position
// immediately.
func connectLocal() (func(string) string, func(), error) {
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.Parse([]byte("{}"))
	}
	if err != nil {
		return nil, nil, err
	}

	board := cfg.BoardConfig()
	features := cfg.FeatureSet()

	if *verbose {
		core.SetDebugWriter(func(s string) { fmt.Println("  [" + s + "]") })
	}

	motor, err := core.NewMotor(&board, features, newSimGPIO(), newSimPWM(), nil, core.NewMemStore())
	if err != nil {
		return nil, nil, err
	}
	cfg.ApplyMotor(motor)

	var pid *core.PID
	if features.PID {
		pid = core.NewPID(motor, nil)
		cfg.ApplyPID(pid)
	}

	sched := core.NewScheduler()
	planner := core.NewStepPlanner(motor, sched)
	interp := gcode.NewInterpreter(motor, pid, planner)

	exec := func(line string) string {
		reply := interp.Run(line)
		// Drain the step clock so moves land before the prompt returns.
		for {
			wake, ok := sched.NextWake()
			if !ok {
				break
			}
			core.SetTime(wake)
			sched.Dispatch(wake)
		}
		if *verbose && planner.Remaining() == 0 {
			fmt.Printf("  [position: %.4f deg, step %d]\n", motor.CurrentAngle(), motor.CurrentStep())
		}
		return reply
	}
	return exec, func() {}, nil
}

// simGPIO is the in-memory pin fabric behind -local.
type simGPIO struct {
	levels map[core.GPIOPin]bool
}

func newSimGPIO() *simGPIO {
	return &simGPIO{levels: make(map[core.GPIOPin]bool)}
}

func (g *simGPIO) ConfigureOutput(core.GPIOPin) error      { return nil }
func (g *simGPIO) ConfigureInputPullUp(core.GPIOPin) error { return nil }

func (g *simGPIO) SetPin(pin core.GPIOPin, value bool) error {
	g.levels[pin] = value
	return nil
}

func (g *simGPIO) ReadPin(pin core.GPIOPin) bool {
	return g.levels[pin]
}

type simPWM struct {
	duties map[core.PWMPin]core.PWMValue
}

func newSimPWM() *simPWM {
	return &simPWM{duties: make(map[core.PWMPin]core.PWMValue)}
}

func (p *simPWM) ConfigurePWM(core.PWMPin, uint32) error { return nil }

func (p *simPWM) SetDuty(pin core.PWMPin, value core.PWMValue) error {
	p.duties[pin] = value
	return nil
}

func (p *simPWM) MaxDuty() uint32 { return 255 }
