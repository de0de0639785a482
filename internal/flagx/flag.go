// Package flagx lets several config loaders share os.Args: each one keeps
// only the flags it owns before handing them to a flag.FlagSet.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps the allowed flags from args together with their values.
//
// The forum binaries parse os.Args in several places: the config loaders,
// the JSON config lookup and the server's -mint-key switch. Each of them owns
// a few flags and would fail on the others, so each one filters first.
//
// Rules:
//   - "-f=value" is kept whole when -f is allowed.
//   - "-f value" keeps both tokens when -f is allowed and the next token does
//     not start with "-"; otherwise only "-f" is kept.
//   - unknown flags, their values and positional arguments are dropped.
//
// The order of the kept tokens is preserved and the result is never nil.
//
// Example:
//
//	FilterArgs([]string{"-m", "remote", "-w", "ws://127.0.0.1:7777/wallet", "-mint-key", "admin"},
//		[]string{"-m", "-w"})
//	// []string{"-m", "remote", "-w", "ws://127.0.0.1:7777/wallet"}
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]bool, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = true
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if allowed[name] {
				filtered = append(filtered, arg)
			}
			continue
		}

		if !allowed[arg] {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// JsonConfigFlags returns the JSON config path given with -c or -config,
// or "" when neither is present. The last occurrence wins.
func JsonConfigFlags() string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "path to JSON config file")
	fs.StringVar(&config, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(os.Args[1:], []string{"-c", "-config"}))

	return config
}
