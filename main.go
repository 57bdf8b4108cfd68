// gdsnip extracts GDScript and shader snippets by symbol query or anchor
// name, and checks Markdown include directives against a Godot project.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phobologic/gdsnip/internal/cache"
	"github.com/phobologic/gdsnip/internal/discover"
	"github.com/phobologic/gdsnip/internal/model"
	"github.com/phobologic/gdsnip/internal/query"
)

var version = "dev"

const defaultConfigFile = ".gdsnip.yaml"

var errorPrefix = color.New(color.FgRed, color.Bold).SprintFunc()

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorPrefix("error:"), err)
		os.Exit(1)
	}
}

// config is the merged result of defaults, the config file, GDSNIP_*
// environment variables and flags.
type config struct {
	Root       string   `yaml:"root" mapstructure:"root"`
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
	Exclude    []string `yaml:"exclude" mapstructure:"exclude"`
	Workers    int      `yaml:"workers" mapstructure:"workers"`
}

func defaultConfig() config {
	return config{
		Root:       ".",
		Extensions: []string{".gd", ".gdshader", ".shader"},
		Exclude:    []string{},
		Workers:    runtime.GOMAXPROCS(0),
	}
}

// app holds per-invocation state shared by the subcommands.
type app struct {
	stdout, stderr io.Writer
	v              *viper.Viper
	cfg            config
	log            *slog.Logger
	cache          *cache.Cache
	resolver       *query.Resolver

	indexOnce sync.Once
	index     *discover.Index
	indexErr  error
}

func run(args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr, v: viper.New()}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func (a *app) rootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	root := &cobra.Command{
		Use:           "gdsnip",
		Short:         "Extract GDScript and shader snippets by symbol or anchor",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.setupLogger(verbose)
			if err := a.loadConfig(cfgFile, cmd.Flags().Changed("config")); err != nil {
				return err
			}
			a.cache = cache.New(cache.WithCollisionHook(func(path string, prev, next model.Symbol) {
				a.log.Debug("symbol redefined, keeping the later one",
					"file", path, "name", next.Name, "kind", next.Kind)
			}))
			a.resolver = query.NewResolver(a.cache)
			return nil
		},
	}
	root.SetVersionTemplate("gdsnip {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", defaultConfigFile, "config file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.String("root", ".", "project root used to resolve bare file names")
	_ = a.v.BindPFlag("root", flags.Lookup("root"))

	root.AddCommand(
		a.symbolCmd(),
		a.anchorCmd(),
		a.listCmd(),
		a.resolveCmd(),
		a.checkCmd(),
		a.initCmd(),
	)
	return root
}

func (a *app) setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(tint.NewHandler(a.stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    color.NoColor,
	}))
}

// loadConfig reads the config file if present. A missing file is only an
// error when it was named explicitly.
func (a *app) loadConfig(path string, explicit bool) error {
	def := defaultConfig()
	a.v.SetDefault("root", def.Root)
	a.v.SetDefault("extensions", def.Extensions)
	a.v.SetDefault("exclude", def.Exclude)
	a.v.SetDefault("workers", def.Workers)
	a.v.SetEnvPrefix("GDSNIP")
	a.v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil || explicit {
		a.v.SetConfigFile(path)
		a.v.SetConfigType("yaml")
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		a.log.Debug("loaded config", "file", a.v.ConfigFileUsed())
	}

	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	if a.cfg.Workers <= 0 {
		a.cfg.Workers = def.Workers
	}
	return nil
}

// projectIndex builds the filename index on first use.
func (a *app) projectIndex() (*discover.Index, error) {
	a.indexOnce.Do(func() {
		start := time.Now()
		a.index, a.indexErr = discover.NewIndex(a.cfg.Root, discover.Options{
			Extensions: a.cfg.Extensions,
			Exclude:    a.cfg.Exclude,
		})
		if a.indexErr != nil {
			a.indexErr = fmt.Errorf("indexing %s: %w", a.cfg.Root, a.indexErr)
			return
		}
		a.log.Debug("indexed project", "root", a.cfg.Root, "files", len(a.index.Files()),
			"duplicates", len(a.index.Duplicates()), "elapsed", time.Since(start))
	})
	return a.index, a.indexErr
}

// locate turns a file argument into a path. Existing paths are used as
// given. Other paths are taken relative to the project root, and bare file
// names are looked up in the project index.
func (a *app) locate(ref string) (string, error) {
	if _, err := os.Stat(ref); err == nil {
		return ref, nil
	}
	if strings.ContainsAny(ref, `/\`) {
		if filepath.IsAbs(ref) {
			return ref, nil
		}
		return filepath.Join(a.cfg.Root, ref), nil
	}
	ix, err := a.projectIndex()
	if err != nil {
		return "", err
	}
	return ix.Lookup(ref)
}

// Lookup lets the app stand in for the project index when checking
// documents, so that paths relative to the working directory still work.
func (a *app) Lookup(ref string) (string, error) {
	return a.locate(ref)
}

// batch collects per-request failures. Each failure is reported as it
// happens; the returned error only summarizes.
type batch struct {
	a     *app
	total int
	errs  *multierror.Error
}

func (a *app) newBatch(total int) *batch {
	return &batch{a: a, total: total}
}

func (b *batch) fail(err error) {
	fmt.Fprintf(b.a.stderr, "%s %v\n", errorPrefix("error:"), err)
	b.errs = multierror.Append(b.errs, err)
}

func (b *batch) err() error {
	if b.errs == nil {
		return nil
	}
	total := b.total
	b.errs.ErrorFormat = func(es []error) string {
		if total == 1 {
			return "request failed"
		}
		return fmt.Sprintf("%d of %d requests failed", len(es), total)
	}
	return b.errs.ErrorOrNil()
}
