// Package app wires configuration, AWS clients and the chat service into an
// HTTP handler shared by the Lambda and server entrypoints.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"

	"commerce-chatbot/handler"
	"commerce-chatbot/internal/config"
	"commerce-chatbot/internal/integrations/paramstore"
	"commerce-chatbot/internal/observability"
	"commerce-chatbot/internal/repository"
	"commerce-chatbot/internal/usecase"
)

const serviceName = "commerce-chatbot"

// Logger builds the process logger from cfg.
func Logger(cfg config.Config) zerolog.Logger {
	return observability.NewLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: serviceName,
	})
}

// StartupLogger logs failures that happen before configuration is known.
func StartupLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("service", serviceName).Logger()
}

// Build resolves table names and returns the ready handler.
func Build(ctx context.Context, cfg config.Config, log zerolog.Logger) (*handler.Handler, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: load AWS config: %w", err)
	}

	if cfg.ParamPrefix != "" {
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, fmt.Errorf("app: create SSM client: %w", err)
		}
		cfg, err = cfg.ResolveTables(ctx, ssmClient)
		if err != nil {
			return nil, err
		}
	}

	dynamoClient := awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
	records, err := repository.NewRecordClient(dynamoClient, cfg.Tables)
	if err != nil {
		return nil, fmt.Errorf("app: create record client: %w", err)
	}
	history, err := repository.NewHistoryClient(dynamoClient, cfg.HistoryTable)
	if err != nil {
		return nil, fmt.Errorf("app: create history client: %w", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	svc, err := usecase.NewChatService(records, history, log, metrics, cfg.MaxMessageLen)
	if err != nil {
		return nil, fmt.Errorf("app: create chat service: %w", err)
	}

	h, err := handler.NewHandler(svc, log, metrics.Handler())
	if err != nil {
		return nil, fmt.Errorf("app: create handler: %w", err)
	}

	log.Info().
		Str("products_table", cfg.Tables.Products).
		Str("history_table", cfg.HistoryTable).
		Bool("custom_endpoint", cfg.DynamoDBEndpoint != "").
		Msg("chatbot wired")
	return h, nil
}
