package main

import (
	"os"
	"strings"

	"pitchdesk/internal/cli"
)

func isRoutePath(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "/") && len(s) > 1
}

// rewriteRouteArgs turns `pitchdesk [flags] /config` into `pitchdesk [flags] --route /config`.
// Cobra would otherwise treat the path as an unknown subcommand.
func rewriteRouteArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--config":    true,
		"--state-dir": true,
		"--format":    true,
		"--route":     true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isRoutePath(argv[i+1]) && i+2 == len(argv) {
				out := make([]string, 0, len(argv))
				out = append(out, argv[:i]...)
				return append(out, "--route", argv[i+1])
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}

		// First positional token. Only a lone route is rewritten.
		if isRoutePath(a) {
			out := make([]string, 0, len(argv)+1)
			out = append(out, argv[:i]...)
			out = append(out, "--route", argv[i])
			return append(out, argv[i+1:]...)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteRouteArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
