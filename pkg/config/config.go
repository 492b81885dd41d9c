package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/certainty3452/fires3/pkg/storage"
)

// EnvPrefix is prepended to every configuration key looked up in the environment.
const EnvPrefix = "FIRES3"

// Configuration keys. Each is read from FIRES3_<KEY> with dashes replaced by underscores.
const (
	KeyProvider         = "provider"
	KeyBucket           = "bucket"
	KeyRegion           = "region"
	KeyEndpoint         = "endpoint"
	KeyAccessKey        = "access-key"
	KeySecretKey        = "secret-key"
	KeyAnonymous        = "anonymous"
	KeyAzureAccount     = "azure-account"
	KeyAzureServiceURL  = "azure-service-url"
	KeyAzureConnString  = "azure-connection-string"
	KeyLogLevel         = "log-level"
	KeyLogDevelopment   = "log-development"
	defaultLogLevel     = "info"
	defaultProviderName = string(storage.ProviderS3)
)

type Config struct {
	Provider  string
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Anonymous bool

	AzureAccount          string
	AzureServiceURL       string
	AzureConnectionString string

	LogLevel       string
	LogDevelopment bool
}

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyProvider, defaultProviderName)
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeyLogDevelopment, false)
	v.SetDefault(KeyAnonymous, false)

	// Fall back to the variables the vendor SDKs document.
	_ = v.BindEnv(KeyAccessKey, "FIRES3_ACCESS_KEY", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv(KeySecretKey, "FIRES3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY")
	_ = v.BindEnv(KeyRegion, "FIRES3_REGION", "AWS_REGION")
	_ = v.BindEnv(KeyAzureConnString, "FIRES3_AZURE_CONNECTION_STRING", "AZURE_STORAGE_CONNECTION_STRING")

	return v
}

// LoadDotEnv loads variables from path into the environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Load reads the configuration from v.
func Load(v *viper.Viper) *Config {
	return &Config{
		Provider:              strings.ToLower(v.GetString(KeyProvider)),
		Bucket:                v.GetString(KeyBucket),
		Region:                v.GetString(KeyRegion),
		Endpoint:              v.GetString(KeyEndpoint),
		AccessKey:             v.GetString(KeyAccessKey),
		SecretKey:             v.GetString(KeySecretKey),
		Anonymous:             v.GetBool(KeyAnonymous),
		AzureAccount:          v.GetString(KeyAzureAccount),
		AzureServiceURL:       v.GetString(KeyAzureServiceURL),
		AzureConnectionString: v.GetString(KeyAzureConnString),
		LogLevel:              v.GetString(KeyLogLevel),
		LogDevelopment:        v.GetBool(KeyLogDevelopment),
	}
}

// Storage converts the configuration into a storage.Config for the selected provider.
func (c *Config) Storage() *storage.Config {
	cfg := &storage.Config{Provider: storage.Provider(c.Provider)}

	switch cfg.Provider {
	case storage.ProviderS3:
		cfg.S3 = &storage.S3Config{
			Bucket:    c.Bucket,
			Region:    c.Region,
			Endpoint:  c.Endpoint,
			AccessKey: c.AccessKey,
			SecretKey: c.SecretKey,
		}
	case storage.ProviderGCS:
		cfg.GCS = &storage.GCSConfig{
			Bucket:    c.Bucket,
			Endpoint:  c.Endpoint,
			Anonymous: c.Anonymous,
		}
	case storage.ProviderAzure:
		cfg.Azure = &storage.AzureConfig{
			Container:        c.Bucket,
			StorageAccount:   c.AzureAccount,
			ServiceURL:       c.AzureServiceURL,
			ConnectionString: c.AzureConnectionString,
		}
	}
	return cfg
}
