package cli

import (
	"strings"
	"time"
)

// normalizeArgs rewrites argparse style input into a form pflag accepts.
// Legacy aliases such as -cf become long options, space separated values
// after a list option are joined with commas, and a date followed by a
// separate HH:mm:ss argument becomes a single value.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		arg = expandLegacy(arg)

		opt, value, hasValue, ok := matchOption(arg)
		if !ok {
			out = append(out, arg)
			continue
		}

		switch {
		case opt.kind == kindStrings || opt.kind == kindInts:
			var values []string
			if hasValue {
				values = append(values, value)
			}
			for i+1 < len(args) && isValue(args[i+1]) {
				values = append(values, args[i+1])
				i++
			}
			if len(values) == 0 {
				out = append(out, arg)
				continue
			}
			out = append(out, "--"+opt.name+"="+strings.Join(values, ","))

		case opt.datetime:
			if !hasValue {
				if i+1 >= len(args) {
					out = append(out, arg)
					continue
				}
				value = args[i+1]
				i++
			}
			if i+1 < len(args) && isClock(args[i+1]) {
				value += " " + args[i+1]
				i++
			}
			out = append(out, "--"+opt.name+"="+value)

		default:
			out = append(out, arg)
		}
	}
	return out
}

// expandLegacy turns -cf, -cf=VALUE and friends into their long form
func expandLegacy(arg string) string {
	if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
		return arg
	}
	name, value, hasValue := strings.Cut(arg[1:], "=")
	for _, opt := range options {
		if opt.legacy == "" || opt.legacy != name {
			continue
		}
		if hasValue {
			return "--" + opt.name + "=" + value
		}
		return "--" + opt.name
	}
	return arg
}

// matchOption finds the table entry named by arg. value is the inline value
// of --name=VALUE, -xVALUE or -x=VALUE.
func matchOption(arg string) (opt option, value string, hasValue bool, ok bool) {
	switch {
	case strings.HasPrefix(arg, "--") && len(arg) > 2:
		name, v, has := strings.Cut(arg[2:], "=")
		opt, ok = lookupOption(name)
		return opt, v, has, ok

	case strings.HasPrefix(arg, "-") && len(arg) > 1:
		short := arg[1:2]
		for _, candidate := range options {
			if candidate.shorthand != short {
				continue
			}
			rest := arg[2:]
			if rest == "" {
				return candidate, "", false, true
			}
			return candidate, strings.TrimPrefix(rest, "="), true, true
		}
	}
	return option{}, "", false, false
}

func isValue(arg string) bool {
	return arg != "" && !strings.HasPrefix(arg, "-")
}

func isClock(arg string) bool {
	_, err := time.Parse("15:04:05", arg)
	return err == nil
}
