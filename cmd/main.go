package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"hr-assistant/handler"
	"hr-assistant/internal/document"
	"hr-assistant/internal/integrations/openai"
	"hr-assistant/internal/integrations/paramstore"
	"hr-assistant/internal/repository"
	"hr-assistant/internal/resources"
	"hr-assistant/internal/usecase"
)

func main() {
	ctx := context.Background()

	// Local runs pick up a .env file; deployed environments set real env vars.
	_ = godotenv.Load()

	// ---- Configuration (read only here) ----
	dbPath := mustEnv("DB_PATH")
	paramPrefix := mustEnv("PARAM_PREFIX")
	docsDir := mustEnv("DOCS_DIR")
	callTimeout := envDuration("COMPLETION_TIMEOUT", 30*time.Second)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}

	store, err := repository.NewStore(dbPath)
	if err != nil {
		slog.Error("failed to open conversation store", "err", err)
		os.Exit(1)
	}

	docs, err := document.LoadDir(docsDir)
	if err != nil {
		slog.Error("failed to load reference document", "err", err, "dir", docsDir)
		os.Exit(1)
	}

	openaiClient, err := openai.NewClient(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	answerService, err := usecase.NewAnswerService(
		ssmClient, openaiClient, docs, resources.NewResolver(nil), store, paramPrefix,
		usecase.WithCallTimeout(callTimeout),
	)
	if err != nil {
		slog.Error("failed to create answer service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(answerService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
