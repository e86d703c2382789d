package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lk2023060901/rrdump/internal/conf"
	"github.com/lk2023060901/rrdump/internal/dump/service"
	apperrors "github.com/lk2023060901/rrdump/internal/pkg/errors"
	"github.com/lk2023060901/rrdump/internal/pkg/injector"
	"github.com/lk2023060901/rrdump/internal/pkg/logger"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	progName    = "rrdump"
	description = "Dumps one or more libraries from rawrepo."
	usageLine   = "usage: rrdump (-a ID [ID ...] | --all-agencies | -r FILE) -u URL -o FILE [options]"
)

// Invocation is a parsed command line
type Invocation struct {
	Request    service.DumpRequest
	ConfigFile string

	// Flags is the parsed flag set, bound into the config layer
	Flags *pflag.FlagSet

	// Ignored lists changed options that have no effect for the selected target
	Ignored []string
}

// Parse parses args. It returns pflag.ErrHelp after printing the help text,
// and a configuration error for anything malformed.
func Parse(args []string, output io.Writer) (*Invocation, error) {
	fs := pflag.NewFlagSet(progName, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	register(fs)

	if err := fs.Parse(normalizeArgs(args)); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(output, fs)
			return nil, pflag.ErrHelp
		}
		return nil, apperrors.NewConfigurationError("%v", err)
	}
	if fs.NArg() > 0 {
		return nil, apperrors.NewConfigurationError("unrecognized arguments: %s", strings.Join(fs.Args(), " "))
	}

	inv := &Invocation{Flags: fs}

	target, err := selectTarget(fs)
	if err != nil {
		return nil, err
	}

	opts := &inv.Request.Options
	switch target {
	case optAgencies:
		opts.Agencies, _ = fs.GetIntSlice(optAgencies)
	case optAllAgencies:
		inv.Request.AllAgencies = true
	case optRecords:
		opts.RecordsFile, _ = fs.GetString(optRecords)
	}

	opts.Mode, _ = fs.GetString(optMode)
	opts.Format, _ = fs.GetString(optFormat)
	opts.Encoding, _ = fs.GetString(optEncoding)
	opts.DryRun, _ = fs.GetBool(optDryRun)

	if target != optRecords {
		opts.Status, _ = fs.GetString(optStatus)
		opts.Types, _ = fs.GetStringSlice(optType)
		opts.CreatedFrom, _ = fs.GetString(optCreatedFrom)
		opts.CreatedTo, _ = fs.GetString(optCreatedTo)
		opts.ModifiedFrom, _ = fs.GetString(optModifiedFrom)
		opts.ModifiedTo, _ = fs.GetString(optModifiedTo)
	}

	inv.Request.File, _ = fs.GetString(optFile)
	if inv.Request.File == "" {
		return nil, apperrors.NewConfigurationError("the following arguments are required: %s", labelOf(optFile))
	}
	inv.ConfigFile, _ = fs.GetString(optConfig)

	active := scopeRun | scopeAgencies
	if target == optRecords {
		active = scopeRun | scopeRecords
	}
	fs.Visit(func(f *pflag.Flag) {
		if opt, ok := lookupOption(f.Name); ok && opt.scope&active == 0 {
			inv.Ignored = append(inv.Ignored, f.Name)
		}
	})

	return inv, nil
}

// selectTarget returns the name of the single target option given
func selectTarget(fs *pflag.FlagSet) (string, error) {
	var given []string
	for _, name := range []string{optAgencies, optAllAgencies, optRecords} {
		if fs.Changed(name) {
			given = append(given, name)
		}
	}
	if all, _ := fs.GetBool(optAllAgencies); !all {
		given = remove(given, optAllAgencies)
	}

	switch len(given) {
	case 0:
		return "", apperrors.NewConfigurationError("one of the arguments %s %s %s is required",
			labelOf(optAgencies), labelOf(optAllAgencies), labelOf(optRecords))
	case 1:
		return given[0], nil
	default:
		return "", apperrors.NewConfigurationError("argument %s: not allowed with argument %s",
			labelOf(given[1]), labelOf(given[0]))
	}
}

func remove(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

func printHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, usageLine)
	fmt.Fprintln(w)
	fmt.Fprintln(w, description)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "options:")
	fmt.Fprint(w, fs.FlagUsages())
}

func printUsageError(w io.Writer, err error) {
	fmt.Fprintln(w, usageLine)
	fmt.Fprintf(w, "%s: error: %s\n", progName, apperrors.GetDetails(err))
}

// Run executes one rrdump invocation and returns the process exit status.
// Operator output goes to stdout, logs and usage errors to stderr.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	inv, err := Parse(args, stdout)
	if errors.Is(err, pflag.ErrHelp) {
		return apperrors.ExitOK
	}
	if err != nil {
		printUsageError(stderr, err)
		return apperrors.ExitCodeOf(err)
	}

	config, err := conf.LoadConfig(inv.ConfigFile, inv.Flags)
	if err != nil {
		printUsageError(stderr, err)
		return apperrors.ExitCodeOf(err)
	}

	log, err := logger.NewWithWriter(&config.Log, stderr)
	if err != nil {
		printUsageError(stderr, apperrors.NewConfigurationError("%v", err))
		return apperrors.ExitUsage
	}
	defer func() { _ = log.Sync() }()

	logger.SetGlobal(log)
	ctx = logger.WithRunID(ctx, logger.NewRunID())
	ctx = logger.ToContext(ctx, log)

	for _, name := range inv.Ignored {
		logger.WarnContext(ctx, "option has no effect for this target", zap.String("option", labelOf(name)))
	}

	app, cleanup, err := injector.InitializeApp(config, stdout, log)
	if err != nil {
		logger.ErrorContext(ctx, "failed to initialize", zap.Error(err))
		printUsageError(stderr, err)
		return apperrors.ExitCodeOf(err)
	}
	defer cleanup()

	result, err := app.Service.Dump(ctx, &inv.Request)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrConfiguration) {
			printUsageError(stderr, err)
		}
		return apperrors.ExitCodeOf(err)
	}

	logger.DebugContext(ctx, "run completed", zap.String("state", string(result.State)))
	return apperrors.ExitOK
}
