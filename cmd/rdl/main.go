// rdl - scene description tool
//
// Usage:
//
//	rdl convert IN OUT          Convert between .rdla and .rdlb
//	rdl show FILE               Print a scene as rdla text
//	rdl manifest FILE.rdlb      Summarize the manifest of a binary scene
//	rdl get FILE OBJECT [ATTR]  Print attribute values of one object
//	rdl classes [--watch]       List the classes of the dso path
//	rdl version                 Print version info
//
// Class definitions are read from the dso path of the config file, or
// from RDL2_DSO_PATH.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Neumenon/rdl2/config"
	"github.com/Neumenon/rdl2/rdl"
)

const (
	toolVersion   = "0.3.0"
	formatVersion = "rdla 1, rdlb 1"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		os.Exit(1)
	}
}

// app carries the settings every subcommand shares.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "rdl",
		Short:             "Inspect and convert rdla/rdlb scene descriptions",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "",
		"config file (default ~/.config/rdl2/config.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"log debug output")

	root.AddCommand(
		a.convertCmd(),
		a.showCmd(),
		a.manifestCmd(),
		a.getCmd(),
		a.classesCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if cfg.Path != "" {
		a.logger.Debug("loaded config", slog.String("path", cfg.Path))
	}
	return nil
}

// newContext returns a scene context holding every class of the dso path.
func (a *app) newContext(ctx context.Context) (*rdl.SceneContext, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	sc := rdl.NewSceneContext(a.cfg.ContextOptions(a.logger)...)
	if err := sc.LoadAllSceneClasses(ctx); err != nil {
		return nil, err
	}
	return sc, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rdl %s (%s)\n", toolVersion, formatVersion)
		},
	}
}
