// file: cmd/root.go
// version: 2.0.0
// guid: 1f2a3b4c-d5e6-4f7a-8b9c-0d1e2f3a4b5c

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdfalk/bookmeta/internal/cache"
	"github.com/jdfalk/bookmeta/internal/config"
	"github.com/jdfalk/bookmeta/internal/providers"
	"github.com/jdfalk/bookmeta/internal/ranking"
	"github.com/jdfalk/bookmeta/internal/ratelimit"
	"github.com/jdfalk/bookmeta/internal/server"
	"github.com/jdfalk/bookmeta/internal/warmer"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bookmeta",
	Short: "Multi-provider book metadata resolution service",
	Long: `Bookmeta resolves book metadata through an ordered chain of upstream
providers (Google Books, Open Library), caches raw results in a hot
in-memory tier and a cold on-disk tier, and ranks results by metadata
quality before returning them.`,
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the metadata resolution server",
	Long:  `Start the HTTP server exposing the search, isbn, and author endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		chain, err := buildChain()
		if err != nil {
			return err
		}

		store, closeStore, err := buildStore()
		if err != nil {
			return err
		}
		defer closeStore()

		fmt.Printf("Provider order: %v\n", chain.Names())

		limiter := ratelimit.New(
			config.AppConfig.RateLimit.Window,
			config.AppConfig.RateLimit.Budget,
			config.AppConfig.RateLimit.ReducedBudget,
		)

		wrm := warmer.New(chain, store, warmer.Options{
			Concurrency: config.AppConfig.Warmer.Concurrency,
			BatchDelay:  config.AppConfig.Warmer.BatchDelay,
			TTL:         config.AppConfig.Cache.SearchTTL,
		})

		srv := server.NewServer(server.Options{
			Chain:     chain,
			Store:     store,
			Ranker:    buildRanker(),
			Limiter:   limiter,
			Warmer:    wrm,
			SearchTTL: config.AppConfig.Cache.SearchTTL,
			ISBNTTL:   config.AppConfig.Cache.ISBNTTL,
			AuthorTTL: config.AppConfig.Cache.AuthorTTL,
		})

		cfg := server.ServerConfig{
			Host:         config.AppConfig.Host,
			Port:         config.AppConfig.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Override with command line flags if provided
		if port := cmd.Flag("port").Value.String(); port != "" {
			cfg.Port = port
		}
		if host := cmd.Flag("host").Value.String(); host != "" {
			cfg.Host = host
		}
		if rt := cmd.Flag("read-timeout").Value.String(); rt != "" {
			if d, err := time.ParseDuration(rt); err == nil {
				cfg.ReadTimeout = d
			}
		}
		if wt := cmd.Flag("write-timeout").Value.String(); wt != "" {
			if d, err := time.ParseDuration(wt); err == nil {
				cfg.WriteTimeout = d
			}
		}
		if it := cmd.Flag("idle-timeout").Value.String(); it != "" {
			if d, err := time.ParseDuration(it); err == nil {
				cfg.IdleTimeout = d
			}
		}

		return srv.Start(cfg)
	},
}

// warmCmd represents the warm command
var warmCmd = &cobra.Command{
	Use:   "warm [query...]",
	Short: "Pre-populate the cache from a curated query list",
	Long: `Resolve a curated list of queries through the live provider chain and
write the results into the cache, so the first real request for each is
already a hit. Queries come from arguments, or from the configured YAML
query file when none are given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		queries := args
		if len(queries) == 0 {
			path := config.AppConfig.Warmer.QueryFile
			if file := cmd.Flag("queries").Value.String(); file != "" {
				path = file
			}
			if path == "" {
				return fmt.Errorf("no queries given and no query file configured")
			}
			var err error
			queries, err = warmer.LoadQueries(path)
			if err != nil {
				return err
			}
		}
		if len(queries) == 0 {
			return fmt.Errorf("query list is empty")
		}

		chain, err := buildChain()
		if err != nil {
			return err
		}
		store, closeStore, err := buildStore()
		if err != nil {
			return err
		}
		defer closeStore()

		maxPerRun := 0
		fmt.Sscanf(cmd.Flag("max-per-run").Value.String(), "%d", &maxPerRun)

		wrm := warmer.New(chain, store, warmer.Options{
			Concurrency: config.AppConfig.Warmer.Concurrency,
			BatchDelay:  config.AppConfig.Warmer.BatchDelay,
			TTL:         config.AppConfig.Cache.SearchTTL,
			Progress:    true,
		})

		stats := wrm.WarmBatch(context.Background(), queries, maxPerRun)
		fmt.Printf("Warm run %s: cached=%d skipped=%d failed=%d in %s\n",
			stats.RunID, stats.Cached, stats.Skipped, stats.Failed, stats.Elapsed.Round(time.Millisecond))
		if stats.Failed > 0 {
			return fmt.Errorf("%d queries failed", stats.Failed)
		}
		return nil
	},
}

// buildChain assembles the provider chain in configured priority order.
func buildChain() (*providers.Chain, error) {
	var list []providers.Provider
	for _, name := range config.AppConfig.Providers.Order {
		switch name {
		case "googlebooks":
			if base := config.AppConfig.Providers.GoogleBooksBaseURL; base != "" {
				list = append(list, providers.NewGoogleBooksClientWithBaseURL(base))
			} else {
				list = append(list, providers.NewGoogleBooksClient())
			}
		case "openlibrary":
			if base := config.AppConfig.Providers.OpenLibraryBaseURL; base != "" {
				list = append(list, providers.NewOpenLibraryClientWithBaseURL(base))
			} else {
				list = append(list, providers.NewOpenLibraryClient())
			}
		default:
			return nil, fmt.Errorf("unknown provider: %s", name)
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	return providers.NewChain(list...), nil
}

// buildStore opens both cache tiers. A cold-tier open failure degrades to
// hot-only operation rather than refusing to start.
func buildStore() (*cache.Tiered, func(), error) {
	hot := cache.NewMemory[[]byte](config.AppConfig.Cache.HotTTL, config.AppConfig.Cache.HotCapacity)

	cold, err := cache.OpenPebble(config.AppConfig.Cache.ColdPath)
	if err != nil {
		log.Printf("[WARN] cold tier unavailable at %s: %v", config.AppConfig.Cache.ColdPath, err)
		return cache.NewTiered(hot, nil), func() {}, nil
	}
	closeStore := func() {
		if err := cold.Close(); err != nil {
			log.Printf("[WARN] failed to close cold tier: %v", err)
		}
	}
	return cache.NewTiered(hot, cold), closeStore, nil
}

// buildRanker merges configured term lists over the built-in defaults.
func buildRanker() *ranking.Ranker {
	cfg := ranking.DefaultConfig()
	if v := config.AppConfig.Ranking.ReputablePublishers; len(v) > 0 {
		cfg.ReputablePublishers = v
	}
	if v := config.AppConfig.Ranking.LowQualityTerms; len(v) > 0 {
		cfg.LowQualityTerms = v
	}
	if v := config.AppConfig.Ranking.CollectionTerms; len(v) > 0 {
		cfg.CollectionTerms = v
	}
	if v := config.AppConfig.Ranking.LowQualityCategories; len(v) > 0 {
		cfg.LowQualityCategories = v
	}
	return ranking.New(cfg)
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bookmeta.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(warmCmd)

	// Add serve command specific flags
	serveCmd.Flags().String("port", "", "port to run the server on (overrides config)")
	serveCmd.Flags().String("host", "", "host to bind the server to (overrides config)")
	serveCmd.Flags().String("read-timeout", "15s", "read timeout (e.g. 15s, 1m)")
	serveCmd.Flags().String("write-timeout", "15s", "write timeout (e.g. 15s, 1m)")
	serveCmd.Flags().String("idle-timeout", "60s", "idle timeout (e.g. 60s, 2m)")

	warmCmd.Flags().String("queries", "", "YAML file with a curated query list")
	warmCmd.Flags().Int("max-per-run", 0, "cap the number of queries per run (0 = no cap)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bookmeta")
	}

	viper.SetEnvPrefix("BOOKMETA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())

		// Reload tunables when the config file changes on disk
		viper.OnConfigChange(func(e fsnotify.Event) {
			log.Printf("[INFO] config file changed: %s", e.Name)
			config.InitConfig()
		})
		viper.WatchConfig()
	}

	// Ensure the cold-tier directory exists before pebble opens it
	if coldPath := viper.GetString("cache.cold_path"); coldPath != "" {
		if err := os.MkdirAll(filepath.Dir(coldPath), 0755); err != nil {
			fmt.Printf("Error creating cache directory: %v\n", err)
		}
	}

	config.InitConfig()
}
