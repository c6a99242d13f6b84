package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"commerce-chatbot/internal/integrations/paramstore"
	"commerce-chatbot/internal/repository"
)

// Config contains all runtime settings for the chatbot service.
type Config struct {
	Tables       repository.Tables
	HistoryTable string

	// ParamPrefix, when set, makes table names resolvable from SSM under
	// <prefix>/tables/<collection>.
	ParamPrefix string

	DynamoDBEndpoint string
	MaxMessageLen    int

	LogLevel         string
	LogFormat        string
	MetricsNamespace string
	BindAddr         string
}

// Load reads environment variables and applies defaults.
func Load() (Config, error) {
	cfg := Config{
		Tables: repository.Tables{
			Users:               envOrDefault("TABLE_USERS", "users"),
			Products:            envOrDefault("TABLE_PRODUCTS", "products"),
			Orders:              envOrDefault("TABLE_ORDERS", "orders"),
			InventoryItems:      envOrDefault("TABLE_INVENTORY_ITEMS", "inventory_items"),
			OrderItems:          envOrDefault("TABLE_ORDER_ITEMS", "order_items"),
			DistributionCenters: envOrDefault("TABLE_DISTRIBUTION_CENTERS", "distribution_centers"),
			OrdersByUserIndex:   envOrDefault("ORDERS_BY_USER_INDEX", repository.DefaultOrdersByUserIndex),
		},
		HistoryTable:     envOrDefault("TABLE_CHAT_MESSAGES", "chat_messages"),
		ParamPrefix:      strings.TrimRight(strings.TrimSpace(os.Getenv("PARAM_PREFIX")), "/"),
		DynamoDBEndpoint: strings.TrimSpace(os.Getenv("DYNAMODB_ENDPOINT")),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		MetricsNamespace: envOrDefault("METRICS_NAMESPACE", "chatbot"),
		BindAddr:         envOrDefault("BIND_ADDR", ":8000"),
	}

	var err error
	cfg.MaxMessageLen, err = intFromEnv("MAX_MESSAGE_LENGTH", 1000)
	if err != nil {
		return Config{}, err
	}
	if cfg.MaxMessageLen <= 0 {
		return Config{}, fmt.Errorf("MAX_MESSAGE_LENGTH must be positive")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return Config{}, fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}
	return cfg, nil
}

// ResolveTables overrides table names with SSM parameters found under
// ParamPrefix. Parameters that do not exist keep the current value.
func (c Config) ResolveTables(ctx context.Context, g paramstore.Getter) (Config, error) {
	if c.ParamPrefix == "" || g == nil {
		return c, nil
	}
	targets := []struct {
		collection string
		dst        *string
	}{
		{"users", &c.Tables.Users},
		{"products", &c.Tables.Products},
		{"orders", &c.Tables.Orders},
		{"inventory_items", &c.Tables.InventoryItems},
		{"order_items", &c.Tables.OrderItems},
		{"distribution_centers", &c.Tables.DistributionCenters},
		{"chat_messages", &c.HistoryTable},
	}
	for _, t := range targets {
		v, err := paramstore.GetOrDefault(ctx, g, c.ParamPrefix+"/tables/"+t.collection, *t.dst)
		if err != nil {
			return Config{}, fmt.Errorf("config: resolve %s table: %w", t.collection, err)
		}
		*t.dst = v
	}
	return c, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func intFromEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
