package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/google/subcommands"

	"github.com/leandrodaf/synthctl/internal/mcpserver"
	"github.com/leandrodaf/synthctl/sdk/midi"
	"github.com/leandrodaf/synthctl/sdk/synth"
)

var (
	patchType      string
	sweepNote      int
	sweepDuration  time.Duration
	listenInterval time.Duration
	listenFor      time.Duration
)

type cmd struct {
	name, synopsis, args string
	minArgs              int
	flags                func(*flag.FlagSet)
	check                func() error // Flag validation, run before any device is touched.
	run                  func(ctx context.Context, s *session, args []string) error
}

func (c *cmd) Name() string     { return c.name }
func (c *cmd) Synopsis() string { return c.synopsis }
func (c *cmd) Usage() string {
	return fmt.Sprintf("%s %s:\n%s\n", c.name, c.args, c.synopsis)
}

func (c *cmd) SetFlags(f *flag.FlagSet) {
	if c.flags != nil {
		c.flags(f)
	}
}

func (c *cmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(f.Args()) < c.minArgs {
		fmt.Fprintf(os.Stderr, "usage: %s", c.Usage())
		return subcommands.ExitUsageError
	}
	if c.check != nil {
		if err := c.check(); err != nil {
			fmt.Fprint(os.Stderr, renderError(err))
			fmt.Fprintf(os.Stderr, "usage: %s", c.Usage())
			return subcommands.ExitUsageError
		}
	}
	s, err := newSession()
	if err != nil {
		fmt.Fprint(os.Stderr, renderError(err))
		return subcommands.ExitFailure
	}
	defer s.Close()

	if err := c.run(ctx, s, f.Args()); err != nil {
		fmt.Fprint(os.Stderr, renderError(err))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func typeFlag(f *flag.FlagSet) {
	f.StringVar(&patchType, "type", synth.DefaultPatchType, "Patch type")
}

var commands = []subcommands.Command{
	&cmd{
		name:     "ports",
		synopsis: "List MIDI output and input ports",
		run:      listPorts,
	},
	&cmd{
		name:     "profiles",
		synopsis: "List synthesizer profiles",
		run:      listProfiles,
	},
	&cmd{
		name:     "patches",
		synopsis: "List the patches, effects and controllers of a profile",
		args:     "<profile>",
		minArgs:  1,
		flags:    typeFlag,
		run:      listPatches,
	},
	&cmd{
		name:     "patch",
		synopsis: "Select a patch by name",
		args:     "<profile> <patch>",
		minArgs:  2,
		flags:    typeFlag,
		run:      selectPatch,
	},
	&cmd{
		name:     "effect",
		synopsis: "Select an effect by name",
		args:     "<profile> <effect>",
		minArgs:  2,
		run:      selectEffect,
	},
	&cmd{
		name:     "cc",
		synopsis: "Set a named controller; the value is clamped into its range",
		args:     "<profile> <controller> <value>",
		minArgs:  3,
		run:      setController,
	},
	&cmd{
		name:     "add-patch",
		synopsis: "Add or replace a patch in a profile and save it",
		args:     "<profile> <patch> <value>",
		minArgs:  3,
		flags:    typeFlag,
		run:      addPatch,
	},
	&cmd{
		name:     "panic",
		synopsis: "Send All Notes Off on every channel",
		run:      panicAll,
	},
	&cmd{
		name:     "sweep",
		synopsis: "Play a note on every patch of a type; Ctrl-C stops",
		args:     "<profile>",
		minArgs:  1,
		flags: func(f *flag.FlagSet) {
			typeFlag(f)
			f.IntVar(&sweepNote, "note", 60, "MIDI note to play")
			f.DurationVar(&sweepDuration, "duration", time.Second, "How long each note sounds")
		},
		run: sweep,
	},
	&cmd{
		name:     "listen",
		synopsis: "Print messages arriving on the input port; Ctrl-C stops",
		flags: func(f *flag.FlagSet) {
			f.DurationVar(&listenInterval, "interval", 10*time.Millisecond, "Input polling interval")
			f.DurationVar(&listenFor, "for", 0, "Stop after this long (0 runs until interrupted)")
		},
		check: checkListen,
		run:   listen,
	},
	&cmd{
		name:     "mcp",
		synopsis: "Serve the profile as MCP tools over stdio",
		args:     "<profile>",
		minArgs:  1,
		run:      serveMCP,
	},
}

func listPorts(_ context.Context, s *session, _ []string) error {
	t, err := s.midiTransport()
	if err != nil {
		return err
	}
	d, err := midi.NewDevice(t, s.opts...)
	if err != nil {
		return err
	}
	outs, err := d.ListOutputPorts()
	if err != nil {
		return err
	}
	ins, err := d.ListInputPorts()
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, renderPorts("Outputs", outs))
	fmt.Fprint(s.out, renderPorts("Inputs", ins))
	return nil
}

func listProfiles(_ context.Context, s *session, _ []string) error {
	repo, err := s.profiles()
	if err != nil {
		return err
	}
	var rows []row
	for _, name := range repo.List() {
		p, _ := repo.Get(name)
		rows = append(rows, row{name: name, value: p.DisplayName()})
	}
	fmt.Fprint(s.out, renderRows("Profiles in "+repo.Dir(), rows))
	for _, err := range repo.LoadErrors() {
		fmt.Fprint(s.out, renderError(err))
	}
	return nil
}

func listPatches(_ context.Context, s *session, args []string) error {
	p, err := s.profile(args[0])
	if err != nil {
		return err
	}
	var patches []row
	for name := range p.PatchNames(patchType) {
		v, _ := p.PatchValue(name, patchType)
		patches = append(patches, row{name: name, value: fmt.Sprintf("0x%02X", v)})
	}
	var effects []row
	for name := range p.EffectNames() {
		v, _ := p.EffectValue(name)
		effects = append(effects, row{name: name, value: fmt.Sprintf("0x%02X", v)})
	}
	var controllers []row
	for name := range p.ControllerNames() {
		info, _ := p.Controller(name)
		controllers = append(controllers, row{
			name:  name,
			value: fmt.Sprintf("CC %d [%d-%d]", info.CCNumber, info.MinValue, info.MaxValue),
		})
	}
	fmt.Fprint(s.out, renderRows(fmt.Sprintf("%s patches (%s)", p.DisplayName(), patchType), patches))
	fmt.Fprint(s.out, renderRows("Effects", effects))
	fmt.Fprint(s.out, renderRows("Controllers", controllers))
	return nil
}

func selectPatch(_ context.Context, s *session, args []string) error {
	return s.withController(args[0], func(c *synth.Controller, d *midi.Device) error {
		if err := c.SelectPatch(args[1], patchType); err != nil {
			return err
		}
		return d.LastError()
	})
}

func selectEffect(_ context.Context, s *session, args []string) error {
	return s.withController(args[0], func(c *synth.Controller, d *midi.Device) error {
		if err := c.SelectEffect(args[1]); err != nil {
			return err
		}
		return d.LastError()
	})
}

func setController(_ context.Context, s *session, args []string) error {
	value, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("controller value %q: %w", args[2], err)
	}
	return s.withController(args[0], func(c *synth.Controller, d *midi.Device) error {
		sent, err := c.SetController(args[1], value)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s = %s\n", args[1], valueStyle.Render(strconv.Itoa(sent)))
		return d.LastError()
	})
}

func addPatch(_ context.Context, s *session, args []string) error {
	value, err := synth.ParseValue(args[2])
	if err != nil {
		return err
	}
	p, err := s.profile(args[0])
	if err != nil {
		return err
	}
	if err := p.SetPatch(patchType, args[1], value); err != nil {
		return err
	}
	repo, err := s.profiles()
	if err != nil {
		return err
	}
	return repo.Save(args[0], p)
}

func panicAll(_ context.Context, s *session, _ []string) error {
	return s.withDevice(midi.NoPort, func(d *midi.Device) error {
		if err := d.Panic(); err != nil {
			return err
		}
		return d.LastError()
	})
}

func sweep(ctx context.Context, s *session, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return s.withController(args[0], func(c *synth.Controller, _ *midi.Device) error {
		err := c.TestAllPatches(ctx, patchType, sweepNote, sweepDuration)
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(s.out, "stopped")
			return nil
		}
		return err
	})
}

func checkListen() error {
	if listenInterval <= 0 {
		return fmt.Errorf("-interval must be positive, got %s", listenInterval)
	}
	return nil
}

func listen(ctx context.Context, s *session, _ []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if listenFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, listenFor)
		defer cancel()
	}
	in := s.inIndex
	if in == midi.NoPort {
		in = 0
	}
	return s.withDevice(in, func(d *midi.Device) error {
		port, ok := d.Input()
		if !ok {
			return errors.New("no MIDI input port could be opened")
		}
		fmt.Fprintf(s.out, "Listening on %s\n", titleStyle.Render(port.Name))

		ticker := time.NewTicker(listenInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				for {
					ev, ok := d.ReadMessage()
					if !ok {
						break
					}
					fmt.Fprintln(s.out, ev)
				}
			}
		}
	})
}

func serveMCP(_ context.Context, s *session, args []string) error {
	return s.withController(args[0], func(c *synth.Controller, d *midi.Device) error {
		srv, err := mcpserver.New(c, d, s.opts...)
		if err != nil {
			return err
		}
		return srv.ServeStdio()
	})
}
