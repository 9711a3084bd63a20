package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"lingua-client/internal/api"
	"lingua-client/internal/config"
	"lingua-client/internal/logging"
	"lingua-client/internal/store"
)

var configPath string

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	// .env is optional; real env vars win over it.
	_ = godotenv.Load()

	envConfig := os.Getenv("LINGUA_CONFIG")
	if envConfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		envConfig = filepath.Join(home, ".lingua", "config.yaml")
	}

	cmd := &cobra.Command{
		Use:           "lingua",
		Short:         "Command-line client for the Lingua language-learning platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(newLoginCmd(), newRegisterCmd(), newLogoutCmd(), newWhoamiCmd())
	cmd.AddCommand(newCoursesCmd())
	cmd.AddCommand(newPracticeCmd())
	return cmd
}

// env holds everything a command needs once the config is loaded.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	client *api.Client
}

func buildEnv(out *cobra.Command) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log.Level)

	var tokens store.Store
	if cfg.Credentials.RedisAddr != "" {
		tokens = store.NewRedis(redis.NewClient(&redis.Options{
			Addr:     cfg.Credentials.RedisAddr,
			Password: cfg.Credentials.RedisPassword,
			DB:       cfg.Credentials.RedisDB,
		}))
	} else {
		tokens = store.NewFile(cfg.Credentials.Path)
	}

	client := api.New(cfg.API.BaseURL, tokens,
		api.WithLogger(logger),
		api.WithHTTPClient(httpClient(cfg)),
		api.WithRefreshTimeout(config.Duration(cfg.API.RefreshTimeout, 10*time.Second)),
		api.WithSessionExpiredHook(func() {
			fmt.Fprintln(out.ErrOrStderr(), "Session expired. Run `lingua login` to sign in again.")
		}),
	)
	return &env{cfg: cfg, logger: logger, client: client}, nil
}

func httpClient(cfg config.Config) *http.Client {
	return &http.Client{Timeout: config.Duration(cfg.API.Timeout, 30*time.Second)}
}
