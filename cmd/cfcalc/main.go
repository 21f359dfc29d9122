// Command cfcalc evaluates exact expressions with continued fractions.
//
// Commands:
//
//	cfcalc eval EXPR
//	    Expand EXPR and round it under every mode to every target kind.
//
//	cfcalc quotients EXPR
//	cfcalc convergents EXPR
//	    List the first --terms partial quotients or convergents.
//
//	cfcalc round EXPR [--kind K]
//	    Round EXPR to one kind under --mode.
//
//	cfcalc compare EXPR EXPR
//	    Report the order of two values.
//
// EXPR "-" reads the expression from stdin.
//
// Exit codes:
//
//	0  success
//	2  invalid input, domain error, division by zero or usage error
//	10 internal error
//
// Global flags:
//
//	--config FILE      TOML, YAML or JSON settings
//	--format json|text report format (default canonical JSON)
//	--mode M           floor, nearest or ceiling
//	--log-level L      debug, info, warn or error
//	-n, --terms N      listing length
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lattice-substrate/exactcf/cf"
	"github.com/lattice-substrate/exactcf/cfexpr"
	"github.com/lattice-substrate/exactcf/cferr"
	"github.com/lattice-substrate/exactcf/config"
	"github.com/lattice-substrate/exactcf/report"
	"github.com/lattice-substrate/exactcf/rounding"
)

const (
	exitSuccess  = 0
	exitInternal = 10
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// app carries the streams and the settings resolved for one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	format     string
	mode       string
	logLevel   string
	terms      int
	kind       string

	cfg *config.Config
	log *slog.Logger
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		return writeClassifiedError(stderr, err)
	}
	return exitSuccess
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "cfcalc",
		Short:         "Exact arithmetic and directed rounding with continued fractions",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return cferr.New(cferr.CLIUsage, -1, "missing command: eval, quotients, convergents, round or compare")
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Root())
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cferr.Wrap(cferr.CLIUsage, -1, "invalid flags", err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "settings file (.toml, .yaml, .yml or .json)")
	pf.StringVar(&a.format, "format", "", "report format: json or text")
	pf.StringVar(&a.mode, "mode", "", "rounding mode: floor, nearest or ceiling")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.IntVarP(&a.terms, "terms", "n", 0, "number of partial quotients or convergents to list")

	root.AddCommand(
		&cobra.Command{
			Use:   "eval EXPR",
			Short: "Expand an expression and round it every way",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runEval,
		},
		&cobra.Command{
			Use:   "quotients EXPR",
			Short: "List partial quotients",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runQuotients,
		},
		&cobra.Command{
			Use:   "convergents EXPR",
			Short: "List convergents",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runConvergents,
		},
		a.roundCommand(),
		&cobra.Command{
			Use:   "compare EXPR EXPR",
			Short: "Compare two values",
			Args:  cobra.ExactArgs(2),
			RunE:  a.runCompare,
		},
	)
	return root
}

func (a *app) roundCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "round EXPR",
		Short: "Round an expression to one target kind",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runRound,
	}
	cmd.Flags().StringVar(&a.kind, "kind", rounding.Float64.String(), "target kind: float64, float32, int64, int32, int16, int8 or bigint")
	return cmd
}

// setup loads the settings file and applies flag overrides on top of it.
func (a *app) setup(root *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	pf := root.PersistentFlags()
	if pf.Changed("format") {
		cfg.Format = a.format
	}
	if pf.Changed("mode") {
		cfg.Mode = a.mode
	}
	if pf.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if pf.Changed("terms") {
		cfg.Terms = a.terms
	}
	if err := cfg.Validate(); err != nil {
		return cferr.Wrap(cferr.CLIUsage, -1, "invalid settings", err)
	}
	level, _ := cfg.Level()
	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	a.log.Debug("settings resolved", "config", a.configPath, "mode", cfg.Mode, "format", cfg.Format, "terms", cfg.Terms)
	return nil
}

// parse reads an expression argument; "-" reads it from stdin.
func (a *app) parse(arg string) (string, cf.Fraction, error) {
	src := arg
	if arg == "-" {
		data, err := readBounded(a.stdin, a.cfg.MaxInputSize)
		if err != nil {
			return "", nil, err
		}
		src = strings.TrimSpace(string(data))
	}
	x, err := cfexpr.ParseWithOptions(src, a.cfg.ParseOptions())
	if err != nil {
		return "", nil, err
	}
	a.log.Debug("parsed expression", "input", src, "tree", x.String())
	return src, x, nil
}

func (a *app) write(v any) error {
	return report.Write(a.stdout, a.cfg.Format, v)
}

func (a *app) runEval(_ *cobra.Command, args []string) error {
	src, x, err := a.parse(args[0])
	if err != nil {
		return err
	}
	ev, err := report.Evaluate(src, x, &report.Options{Terms: a.cfg.Terms, Rounding: a.cfg.RoundingOptions()})
	if err != nil {
		return err
	}
	a.log.Info("evaluated", "expression", src, "complete", ev.Complete, "exact", ev.Exact != "")
	return a.write(ev)
}

func (a *app) runQuotients(_ *cobra.Command, args []string) error {
	src, x, err := a.parse(args[0])
	if err != nil {
		return err
	}
	l, err := report.Quotients(src, x, a.cfg.Terms)
	if err != nil {
		return err
	}
	return a.write(l)
}

func (a *app) runConvergents(_ *cobra.Command, args []string) error {
	src, x, err := a.parse(args[0])
	if err != nil {
		return err
	}
	l, err := report.Convergents(src, x, a.cfg.Terms)
	if err != nil {
		return err
	}
	return a.write(l)
}

func (a *app) runRound(_ *cobra.Command, args []string) error {
	k, err := rounding.ParseKind(a.kind)
	if err != nil {
		return cferr.Wrap(cferr.CLIUsage, -1, "--kind", err)
	}
	src, x, err := a.parse(args[0])
	if err != nil {
		return err
	}
	r, err := report.NewRound(src, x, a.cfg.RoundingMode(), k, a.cfg.RoundingOptions())
	if err != nil {
		return err
	}
	a.log.Info("rounded", "expression", src, "mode", r.Mode, "kind", r.Kind, "exact", r.Exact)
	return a.write(r)
}

func (a *app) runCompare(_ *cobra.Command, args []string) error {
	if args[0] == "-" && args[1] == "-" {
		return cferr.New(cferr.CLIUsage, -1, "only one expression can be read from stdin")
	}
	ls, x, err := a.parse(args[0])
	if err != nil {
		return err
	}
	rs, y, err := a.parse(args[1])
	if err != nil {
		return err
	}
	c, err := report.NewComparison(ls, rs, x, y, a.cfg.CompareTerms)
	if err != nil {
		return err
	}
	return a.write(c)
}

func readBounded(r io.Reader, maxInputSize int) ([]byte, error) {
	lr := io.LimitReader(r, int64(maxInputSize)+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, cferr.Wrap(cferr.InternalIO, -1, "read stdin", err)
	}
	if len(data) > maxInputSize {
		return nil, cferr.New(cferr.BoundExceeded, -1, fmt.Sprintf("input exceeds maximum size %d bytes", maxInputSize))
	}
	return data, nil
}

// writeClassifiedError prints err and returns the exit code of its class.
// Errors without a class come from cobra's argument and command lookup and
// are usage errors.
func writeClassifiedError(stderr io.Writer, err error) int {
	var e *cferr.Error
	if !errors.As(err, &e) {
		e = cferr.Wrap(cferr.CLIUsage, -1, "usage", err)
	}
	if _, werr := fmt.Fprintf(stderr, "error: %v\n", e); werr != nil {
		return exitInternal
	}
	return e.Class.ExitCode()
}
