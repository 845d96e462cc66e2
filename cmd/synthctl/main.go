// Command synthctl drives hardware synthesizers from JSON profiles that map
// patch, effect and controller names to MIDI values.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"github.com/leandrodaf/synthctl/sdk/midi"
)

var (
	transportName = flag.String("transport", "", "MIDI transport: native, rtmidi, portmidi or memory (default depends on the OS)")
	configDir     = flag.String("config_dir", "", "Directory of synthesizer profiles (default: per-user config directory)")
	outPort       = flag.Int("out", 0, "Index of the MIDI output port")
	inPort        = flag.Int("in", midi.NoPort, "Index of the MIDI input port, -1 for none")
	logLevel      = flag.String("log_level", "info", "Log level: debug, info, warn or error")
	logFile       = flag.String("log_file", "", "Write JSON logs to this file instead of stderr")
)

func main() {
	flag.Parse()
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	for _, cmd := range commands {
		subcommands.Register(cmd, "")
	}
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
