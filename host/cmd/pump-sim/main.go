package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"syringepump/core"
	"syringepump/host/config"
	"syringepump/host/serial"
	"syringepump/host/sim"
)

var (
	configFile = flag.String("config", "", "Configuration file")
	device     = flag.String("device", "", "Serial device for the console (default stdin/stdout)")
	baud       = flag.Int("baud", 115200, "Console baud rate")
	script     = flag.String("script", "", "Command file to run before the console")
	realtime   = flag.Bool("realtime", false, "Tick from the wall clock instead of on command")
	verbose    = flag.Bool("verbose", false, "Enable engine debug output")
)

func main() {
	flag.Parse()

	cfg := core.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.Fatalf("%s: %v", *configFile, err)
		}
	}

	if *verbose {
		core.SetDebugWriter(func(s string) { fmt.Fprintln(os.Stderr, s) })
		core.SetDebugEnabled(true)
		core.InitAsyncDebug()
	}

	pump, err := sim.New(cfg)
	if err != nil {
		log.Fatalf("Simulator: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *realtime {
		go pump.Realtime(ctx)
	}

	var in io.Reader = os.Stdin
	var out io.Writer = os.Stdout
	prompt := true
	if *device != "" {
		sc := serial.DefaultConfig(*device)
		sc.Baud = *baud
		port, err := serial.Open(sc)
		if err != nil {
			log.Fatalf("Console: %v", err)
		}
		defer port.Close()
		if err := port.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: flush %s: %v\n", *device, err)
		}
		in, out = port, port
		prompt = false
	}

	fmt.Fprintf(out, "Syringe pump simulator (tick %v, %s input)\n", cfg.TickPeriod, cfg.InputMode)

	if *script != "" {
		f, err := os.Open(*script)
		if err != nil {
			log.Fatalf("%s: %v", *script, err)
		}
		err = sim.NewConsole(pump, out, false).Run(f)
		f.Close()
		if err != nil {
			log.Fatalf("%s: %v", *script, err)
		}
	}

	if err := sim.NewConsole(pump, out, prompt).Run(in); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		pump.Dev.DumpTrace()
		os.Exit(1)
	}
	if *verbose {
		pump.Dev.DumpTrace()
	}
}
