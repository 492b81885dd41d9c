package cmd

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/certainty3452/fires3/pkg/config"
	"github.com/certainty3452/fires3/pkg/storage"
)

// Version is set at build time.
var Version = "dev"

var (
	v       = config.New()
	envFile string
	log     *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:     "fires3",
	Version: Version,
	Short:   "manage objects in S3, GCS and Azure Blob buckets",
	Long: `Manage objects in cloud object storage buckets.

Settings are read from flags, FIRES3_* environment variables and an
optional .env file, in that order of priority.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		if err := config.LoadDotEnv(envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}

		cfg := config.Load(v)
		if cfg.Endpoint != "" {
			if _, err := url.Parse(cfg.Endpoint); err != nil {
				return fmt.Errorf("invalid endpoint URL %s: %w", cfg.Endpoint, err)
			}
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		zap.ReplaceGlobals(logger)
		log = logger.Sugar()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.LogDevelopment {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	// stdout carries object content
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

func makeBucket(cmd *cobra.Command) (storage.Bucket, error) {
	cfg := config.Load(v)
	b, err := storage.NewBucket(cmd.Context(), cfg.Storage(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create a bucket interface: %w", err)
	}
	return b, nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env-file", ".env", "Path to an optional .env file")
	pf.String(config.KeyProvider, "s3", "Storage provider: s3, gcs or azure")
	pf.StringP(config.KeyBucket, "b", "", "Bucket (or Azure container) name")
	pf.String(config.KeyRegion, "", "AWS region")
	pf.String(config.KeyEndpoint, "", "S3 or GCS API endpoint URL")
	pf.Bool(config.KeyAnonymous, false, "Disable GCS authentication (for emulators)")
	pf.String(config.KeyAzureAccount, "", "Azure storage account name")
	pf.String(config.KeyAzureServiceURL, "", "Azure Blob service URL")
	pf.String(config.KeyLogLevel, "info", "Log level: debug, info, warn or error")
	pf.Bool(config.KeyLogDevelopment, false, "Use human readable development logging")

	bindFlags(v, pf)
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	for _, key := range []string{
		config.KeyProvider,
		config.KeyBucket,
		config.KeyRegion,
		config.KeyEndpoint,
		config.KeyAnonymous,
		config.KeyAzureAccount,
		config.KeyAzureServiceURL,
		config.KeyLogLevel,
		config.KeyLogDevelopment,
	} {
		if err := v.BindPFlag(key, fs.Lookup(key)); err != nil {
			panic(err)
		}
	}
}
