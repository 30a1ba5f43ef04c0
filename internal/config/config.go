// file: internal/config/config.go
// version: 1.1.0
// guid: 5f6a7b8c-d9e0-4f1a-8b2c-3d4e5f6a7b8c

package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Host string
	Port string

	Cache struct {
		HotCapacity int
		HotTTL      time.Duration
		ColdPath    string
		SearchTTL   time.Duration
		ISBNTTL     time.Duration
		AuthorTTL   time.Duration
	}

	RateLimit struct {
		Window        time.Duration
		Budget        int
		ReducedBudget int
	}

	Providers struct {
		// Order lists provider names in priority order.
		Order              []string
		GoogleBooksBaseURL string
		OpenLibraryBaseURL string
	}

	Ranking struct {
		ReputablePublishers  []string
		LowQualityTerms      []string
		CollectionTerms      []string
		LowQualityCategories []string
	}

	Warmer struct {
		Concurrency int
		BatchDelay  time.Duration
		QueryFile   string
	}
}

var AppConfig Config

// InitConfig initializes the application configuration
func InitConfig() {
	// Set defaults
	viper.SetDefault("host", "0.0.0.0")
	viper.SetDefault("port", "8080")
	viper.SetDefault("cache.hot_capacity", 1000)
	viper.SetDefault("cache.hot_ttl", 24*time.Hour)
	viper.SetDefault("cache.cold_path", "./data/cache")
	viper.SetDefault("cache.search_ttl", 30*24*time.Hour)
	viper.SetDefault("cache.isbn_ttl", 365*24*time.Hour)
	viper.SetDefault("cache.author_ttl", 7*24*time.Hour)
	viper.SetDefault("ratelimit.window", time.Hour)
	viper.SetDefault("ratelimit.budget", 100)
	viper.SetDefault("ratelimit.reduced_budget", 20)
	viper.SetDefault("providers.order", []string{"googlebooks", "openlibrary"})
	viper.SetDefault("warmer.concurrency", 2)
	viper.SetDefault("warmer.batch_delay", 2*time.Second)
	viper.SetDefault("warmer.query_file", "")

	AppConfig = Config{
		Host: viper.GetString("host"),
		Port: viper.GetString("port"),
	}

	AppConfig.Cache.HotCapacity = viper.GetInt("cache.hot_capacity")
	AppConfig.Cache.HotTTL = viper.GetDuration("cache.hot_ttl")
	AppConfig.Cache.ColdPath = viper.GetString("cache.cold_path")
	AppConfig.Cache.SearchTTL = viper.GetDuration("cache.search_ttl")
	AppConfig.Cache.ISBNTTL = viper.GetDuration("cache.isbn_ttl")
	AppConfig.Cache.AuthorTTL = viper.GetDuration("cache.author_ttl")

	AppConfig.RateLimit.Window = viper.GetDuration("ratelimit.window")
	AppConfig.RateLimit.Budget = viper.GetInt("ratelimit.budget")
	AppConfig.RateLimit.ReducedBudget = viper.GetInt("ratelimit.reduced_budget")

	AppConfig.Providers.Order = viper.GetStringSlice("providers.order")
	AppConfig.Providers.GoogleBooksBaseURL = viper.GetString("providers.googlebooks_base_url")
	AppConfig.Providers.OpenLibraryBaseURL = viper.GetString("providers.openlibrary_base_url")

	AppConfig.Ranking.ReputablePublishers = viper.GetStringSlice("ranking.reputable_publishers")
	AppConfig.Ranking.LowQualityTerms = viper.GetStringSlice("ranking.low_quality_terms")
	AppConfig.Ranking.CollectionTerms = viper.GetStringSlice("ranking.collection_terms")
	AppConfig.Ranking.LowQualityCategories = viper.GetStringSlice("ranking.low_quality_categories")

	AppConfig.Warmer.Concurrency = viper.GetInt("warmer.concurrency")
	AppConfig.Warmer.BatchDelay = viper.GetDuration("warmer.batch_delay")
	AppConfig.Warmer.QueryFile = viper.GetString("warmer.query_file")
}
