package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"cppcore/internal/check"
	"cppcore/internal/check/builtin"
	"cppcore/internal/diag"
	"cppcore/internal/driver"
	"cppcore/internal/settings"
)

func main() {
	jobs := flag.Int("j", 0, "number of worker goroutines (0 = hardware concurrency)")
	maxConfigs := flag.Int("max-configs", 0, "maximum number of configurations per file (0 = default)")
	includeFlag := multiFlag{}
	flag.Var(&includeFlag, "I", "add an include search path (repeatable)")
	defineFlag := multiFlag{}
	flag.Var(&defineFlag, "D", "predefine a macro, NAME or NAME=1 (repeatable)")
	undefFlag := multiFlag{}
	flag.Var(&undefFlag, "U", "assume a macro is never defined (repeatable)")
	settingsPath := flag.String("settings", "", "path to a YAML settings file")
	verbose := flag.Bool("v", false, "verbose output")
	flag.Parse()

	st := settings.Default()
	if *settingsPath != "" {
		loaded, err := settings.Load(*settingsPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		st = loaded
	}
	if *jobs > 0 {
		st.Jobs = *jobs
	}
	if *maxConfigs > 0 {
		st.MaxConfigs = *maxConfigs
	}
	st.IncludePaths = append(st.IncludePaths, includeFlag...)
	st.UserDefines = append(st.UserDefines, defineFlag...)
	st.UserUndefs = append(st.UserUndefs, undefFlag...)
	st.Verbose = *verbose

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: cppcore [flags] file.c [file.cpp ...]")
		os.Exit(2)
	}

	registry := check.NewRegistry()
	registry.Register(builtin.DivisionByZero)

	reporter := diag.NewReporter()
	resolver := &driver.FSIncludeResolver{IncludePaths: st.IncludePaths}
	analyze := driver.NewPipeline(st, resolver)

	ctus := make([]driver.CTU, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		ctus = append(ctus, driver.CTU{Path: f, Size: info.Size()})
	}

	exec := driver.NewExecutor(registry, reporter, analyze, ctus)
	exec.Run(context.Background(), st.Jobs)

	findings := reporter.Diagnostics()
	for _, d := range findings {
		fmt.Print(reporter.Format(d))
	}

	if len(findings) > 0 {
		color.Red("%d finding(s)\n", len(findings))
		os.Exit(1)
	}
	color.Green("no findings\n")
}

// multiFlag implements flag.Value to collect a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return fmt.Sprint([]string(*m)) }
func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
