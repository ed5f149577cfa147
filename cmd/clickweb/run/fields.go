package runcmder

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/papercomputeco/clickweb/pkg/dotdir"
)

// parseFieldFlags turns repeated --field name=value flags into form
// assignments. A bare name sets a flag. Repeating a name collects its values
// in order, which is how variadic arguments are given.
func parseFieldFlags(flags []string) (map[string][]string, error) {
	assignments := make(map[string][]string, len(flags))
	for _, f := range flags {
		name, value, _ := strings.Cut(f, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid --field %q: missing field name", f)
		}
		assignments[name] = append(assignments[name], value)
	}
	return assignments, nil
}

// resolveInvocation decides which command to run and with which fields.
// With last set, the recorded run supplies the command (unless one is given)
// and the fields, and explicit fields replace recorded ones by name.
func resolveInvocation(args []string, fields map[string][]string, last *dotdir.LastRun, useLast bool) (string, map[string][]string, error) {
	if !useLast {
		if len(args) == 0 {
			return "", nil, errors.New("a command is required (or use --last)")
		}
		return args[0], fields, nil
	}

	if last == nil {
		return "", nil, errors.New("no previous run recorded")
	}

	path := last.Command
	if len(args) > 0 {
		path = args[0]
	}
	if path != last.Command {
		return "", nil, fmt.Errorf("--last recorded %q, not %q", last.Command, path)
	}

	merged := make(map[string][]string, len(last.Fields)+len(fields))
	maps.Copy(merged, last.Fields)
	maps.Copy(merged, fields)
	return path, merged, nil
}
