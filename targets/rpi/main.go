//go:build linux

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stianeikeland/go-rpio/v4"

	"servostep/config"
	"servostep/core"
	"servostep/gcode"
)

// Raspberry Pi port of the driver firmware. Coil PWM runs on the BCM
// hardware PWM pins and the command console lives on stdin/stdout; a
// shaft encoder is not wired here, so the board runs open loop.
func main() {
	configPath := flag.String("config", "", "board profile (yaml)")
	verbose := flag.Bool("verbose", false, "print state transitions")
	flag.Parse()

	if err := run(*configPath, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath string, verbose bool) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.Parse([]byte("{}"))
	}
	if err != nil {
		return err
	}

	if err := rpio.Open(); err != nil {
		return fmt.Errorf("open gpio: %w (running on a Pi?)", err)
	}
	defer rpio.Close()

	if verbose {
		core.SetDebugWriter(func(s string) {
			fmt.Fprintln(os.Stderr, s)
		})
	}

	board := cfg.BoardConfig()
	features := cfg.FeatureSet()
	features.PID = false // no encoder on this port

	motor, err := core.NewMotor(&board, features, newRPiGPIODriver(), newRPiPWMDriver(), nil, core.NewMemStore())
	if err != nil {
		return err
	}
	cfg.ApplyMotor(motor)

	sched := core.NewScheduler()
	planner := core.NewStepPlanner(motor, sched)
	interp := gcode.NewInterpreter(motor, nil, planner)

	motor.SetState(core.StateEnabled, false)

	// The step clock runs off the monotonic clock, dispatched between
	// console reads.
	start := time.Now()
	clock := func() uint32 {
		return uint32(time.Since(start).Microseconds()) * (core.TimerFreq / 1000000)
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				now := clock()
				core.SetTime(now)
				sched.Dispatch(now)
			}
		}
	}()
	defer close(done)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "quit" || line == "exit" {
			break
		}
		fmt.Println(interp.Run(line))
	}
	motor.SetState(core.StateDisabled, false)
	return scanner.Err()
}
