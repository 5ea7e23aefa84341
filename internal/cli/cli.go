// Package cli parses warbler's command line.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRecord   Command = "record"
	CommandClassify Command = "classify"
	CommandStop     Command = "stop"
	CommandStatus   Command = "status"
	CommandDevices  Command = "devices"
	CommandDoctor   Command = "doctor"
	CommandVersion  Command = "version"
	CommandHelp     Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRecord:   {},
	CommandClassify: {},
	CommandStop:     {},
	CommandStatus:   {},
	CommandDevices:  {},
	CommandDoctor:   {},
	CommandVersion:  {},
	CommandHelp:     {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	JSON       bool
	File       string
	ShowHelp   bool
}

// Parse reads global flags and one command. Only classify takes an argument.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
			return parsed, nil
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--json":
			parsed.JSON = true
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "--config=") {
				parsed.ConfigPath = strings.TrimPrefix(arg, "--config=")
				if parsed.ConfigPath == "" {
					return Parsed{}, errors.New("--config requires a path")
				}
				continue
			}
			if strings.HasPrefix(arg, "-") && arg != "-" {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}
			positional = append(positional, arg)
		}
	}

	if len(positional) == 0 {
		return parsed, nil
	}

	cmd := Command(positional[0])
	if _, ok := validCommands[cmd]; !ok {
		return Parsed{}, fmt.Errorf("unknown command: %s", positional[0])
	}
	parsed.Command = cmd
	parsed.ShowHelp = cmd == CommandHelp

	rest := positional[1:]
	if cmd == CommandClassify {
		if len(rest) != 1 {
			return Parsed{}, errors.New("classify requires exactly one WAV file path")
		}
		parsed.File = rest[0]
		return parsed, nil
	}
	if len(rest) > 0 {
		return Parsed{}, fmt.Errorf("unexpected arguments after command %q", cmd)
	}
	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--json] <command>

Commands:
  record          Record a clip, upload it, and print species predictions
  classify FILE   Re-encode an existing WAV file and classify it
  stop            End the active recording early and analyze it
  status          Print the active session state
  devices         List available input devices
  doctor          Run configuration and environment checks
  version         Print version information
  help            Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/warbler/config.jsonc)
  --json          Print predictions as JSON
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
