package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/komsit37/kabu/pkg/kabu/config"
	"github.com/komsit37/kabu/pkg/kabu/fixture"
	"github.com/komsit37/kabu/pkg/kabu/logger"
	"github.com/komsit37/kabu/pkg/kabu/provider"
	"github.com/komsit37/kabu/pkg/kabu/yahoo"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v   *viper.Viper
	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:               "kabu",
		Short:             "Equity fundamentals: earnings yield, book-to-price and dividends",
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default ./kabu.yaml or ~/.config/kabu/kabu.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.Bool("log-pretty", true, "human readable logs instead of JSON")
	bindFlags(pf, map[string]string{
		"log.level":  "log-level",
		"log.pretty": "log-pretty",
	})

	rootCmd.AddCommand(newTableCmd(a), newServeCmd(a), newFixturesCmd(a))
	return rootCmd
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	if err := bindAnnotated(a.v, cmd.Flags()); err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		a.v.SetConfigFile(path)
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(a.log)
	return nil
}

const configKeyAnnotation = "kabu_config_key"

// bindFlags marks flags of fs as overriding config keys. Several subcommands
// share keys, so binding happens in bindAnnotated for the command that runs.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := fs.SetAnnotation(name, configKeyAnnotation, []string{key}); err != nil {
			panic(fmt.Sprintf("annotate --%s: %v", name, err))
		}
	}
}

// bindAnnotated binds every annotated flag of fs to its config key. A flag
// only wins over env and config file when set on the command line.
func bindAnnotated(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if keys := f.Annotations[configKeyAnnotation]; len(keys) == 1 && err == nil {
			err = v.BindPFlag(keys[0], f)
		}
	})
	return err
}

func (a *app) upstream() *yahoo.Client {
	return yahoo.NewClient(a.log, a.cfg.Live.Timeout)
}

func (a *app) liveProvider() *provider.Live {
	client := a.upstream()
	live := provider.NewLive(client, a.log)
	live.Policy = a.cfg.RetryPolicy()
	live.History = client
	live.HistoryPeriod = a.cfg.Live.HistoryPeriod
	return live
}

func (a *app) store() *fixture.Store {
	s := fixture.NewStore(a.cfg.Fixture.Dir, a.log)
	s.DedupWindow = a.cfg.Fixture.DedupWindow
	return s
}

// provider returns the named provider. Live fetches are cached for the
// lifetime of the process.
func (a *app) provider(name string) (provider.Provider, error) {
	switch strings.ToLower(name) {
	case provider.NameLive:
		return provider.NewCached(a.liveProvider(), provider.NewCache(a.cfg.Live.CacheTTL, a.cfg.Live.CacheMaxItems)), nil
	case provider.NameFixture:
		return provider.NewFixture(a.store(), a.log), nil
	}
	return nil, errors.New("provider must be live or fixture")
}
