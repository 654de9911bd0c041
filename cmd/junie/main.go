// Command junie finds the installed Junie binary and runs it with the
// arguments it was given. It defines no flags of its own.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/ZebulonRouseFrantzich/junie/internal/config"
	"github.com/ZebulonRouseFrantzich/junie/internal/launcher"
	"github.com/ZebulonRouseFrantzich/junie/internal/layout"
	"github.com/ZebulonRouseFrantzich/junie/internal/logging"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Environ(), os.Stderr))
}

// run returns the exit code: the child's, or 1 when Junie cannot be found
// or started.
func run(ctx context.Context, args, environ []string, stderr io.Writer) int {
	root, err := layout.PackageRoot(lookupEnv(environ, "JUNIE_PACKAGE_ROOT"))
	if err != nil {
		fmt.Fprintf(stderr, "[Junie] Error: %v\n", err)
		return 1
	}

	cfg, err := config.LoadLaunch(root, environ)
	if err != nil {
		fmt.Fprintf(stderr, "[Junie] Error: %v\n", err)
		return 1
	}

	logCfg := logging.LauncherConfig()
	logCfg.Output = stderr
	logCfg.File = cfg.LogFile
	if cfg.LogLevel != "" {
		logCfg.Level = cfg.LogLevel
	}
	logger, closer, err := logging.NewWithComponent(logCfg, "junie")
	if err != nil {
		fmt.Fprintf(stderr, "[Junie] Error: %v\n", err)
		return 1
	}
	defer closer.Close()

	l, err := layout.New(root)
	if err != nil {
		fmt.Fprintf(stderr, "[Junie] Error: %v\n", err)
		return 1
	}

	res, err := launcher.Resolve(launcher.ResolveOptions{
		Layout:  l,
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
		EnvPath: cfg.EnvBinaryPath(),
	})
	if err != nil {
		fmt.Fprintf(stderr, "[Junie] Error: %v\n", err)
		return 1
	}
	logger.Debug().Str("binary", res.Path).Str("source", string(res.Source)).Msg("resolved junie")

	runner := launcher.NewRunner(logger)
	runner.Stderr = stderr
	code, err := runner.Run(ctx, res.Path, args)
	if err != nil {
		fmt.Fprintf(stderr, "[Junie] Error: %v\n", err)
	}
	return code
}

// lookupEnv returns the last value of key in environ.
func lookupEnv(environ []string, key string) string {
	value := ""
	for _, kv := range environ {
		if v, ok := strings.CutPrefix(kv, key+"="); ok {
			value = v
		}
	}
	return value
}
