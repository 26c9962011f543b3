package loginfra

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"k8s.io/klog"
)

// VerbosityEnv sets the klog -v level when no flag does.
const VerbosityEnv = "ECSDEPLOY_VERBOSITY"

func NewFlagSet() *flag.FlagSet {
	// See https://flowerinthenight.com/blog/2019/02/05/golang-cobra-klog
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	// Suppress usage flag.ErrHelp
	fs.SetOutput(ioutil.Discard)

	return fs
}

// Init registers the klog flags and parses the ones present in os.Args.
// Everything else is left for cobra.
func Init() *flag.FlagSet {
	fs := AddKlogFlags(NewFlagSet(), os.Getenv(VerbosityEnv))

	if err := Parse(fs, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	return fs
}

// Parse parses the known flags in args, tolerating flags defined elsewhere.
func Parse(fs *flag.FlagSet, args []string) error {
	args = append([]string{}, args...)

	err := fs.Parse(args)
	if err != nil && err != flag.ErrHelp && !strings.Contains(err.Error(), "flag provided but not defined") {
		return err
	}

	return nil
}

func AddKlogFlags(fs *flag.FlagSet, verbosity string) *flag.FlagSet {
	klog.InitFlags(fs)

	fs.Set("skip_headers", "true")

	if verbosity != "" {
		// -v LEVEL must precede the remaining args to be parsed by fs
		fmt.Fprintf(os.Stderr, "Setting log verbosity to %s\n", verbosity)
		fs.Set("v", verbosity)
	}

	return fs
}
