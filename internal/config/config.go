package config

import (
	"encoding/json"
	"fmt"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"io"
	"net/url"
	"os"
	"time"
)

type JsonUrl struct {
	*url.URL
}

func (j *JsonUrl) UnmarshalJSON(b []byte) error {
	var s string
	err := json.Unmarshal(b, &s)
	if err != nil {
		return err
	}
	configUrl, err := url.Parse(s)
	j.URL = configUrl
	return err
}

func (j *JsonUrl) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.URL.String())
}

type JsonDuration struct {
	time.Duration
}

func (j *JsonDuration) UnmarshalJSON(b []byte) error {
	var s string
	err := json.Unmarshal(b, &s)
	if err != nil {
		return err
	}
	var duration time.Duration
	duration, err = time.ParseDuration(s)
	if err != nil {
		return err
	}
	j.Duration = duration
	return err
}

func (j *JsonDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.Duration.String())
}

type Configuration struct {
	Logging struct {
		MaxSize         int
		MaxBackups      int
		MaxAge          int
		Level           zapcore.Level
		ConsoleLogLevel zapcore.Level
		File            string
		HttpAccessFile  string
		DbLogFile       string
		LogAlerts       bool
	}
	ListeningPort    string
	ListeningAddress string
	Database         struct {
		Host            string
		Port            uint
		Username        string
		Password        string
		DatabaseName    string
		SslMode         string
		MaxIdleConns    int
		MaxOpenConns    int
		ConnMaxLifetime *JsonDuration
	}
	Auth struct {
		SigningKey string
		TokenTTL   *JsonDuration
		Issuer     string
	}
	Storage struct {
		Enabled         bool
		Endpoint        string
		AccessKey       string
		SecretKey       string
		Bucket          string
		Region          string
		UseSSL          bool
		Location        string
		SignedUrlExpire *JsonDuration
		MaxUploadSize   int64
	}
	Turnstile struct {
		SiteKey        string
		SecretKey      string
		VerifyUrl      *JsonUrl
		Timeout        *JsonDuration
		SkipValidation bool
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Search struct {
		PageSize int
	}
	Cors struct {
		// AllowedOrigins lists the origins allowed to call the API; empty allows any origin
		AllowedOrigins []string
	}
}

const (
	DefaultTurnstileVerifyUrl = "https://challenges.cloudflare.com/turnstile/v0/siteverify"
	DefaultMaxUploadSize      = 10 * 1024 * 1024
)

var config *Configuration

// InitConfig reads the json configuration at configFile, merges secrets from the environment
// (and an optional .env file) and stores the result for the package level accessors.
// It panics if the file cannot be parsed.
func InitConfig(configFile string) *Configuration {
	// a missing .env is fine; the real environment still applies
	_ = godotenv.Load()

	file, err := os.Open(configFile)
	if err != nil {
		panic("Error opening config file: " + err.Error())
	}
	defer file.Close()

	c, err := LoadConfig(file)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "\nUsage of %s: --config <path to config.json>\n\n", os.Args[0])
		panic("Error parsing config file: " + err.Error())
	}

	config = c
	return config
}

// LoadConfig decodes a json configuration from r, applies environment overrides and defaults.
func LoadConfig(r io.Reader) (*Configuration, error) {
	var c Configuration

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&c); err != nil {
		return nil, err
	}

	applyEnvironment(&c)
	applyDefaults(&c)

	return &c, nil
}

func applyEnvironment(c *Configuration) {
	overrides := map[string]*string{
		"MILK2MEAT_DB_PASSWORD":        &c.Database.Password,
		"MILK2MEAT_SIGNING_KEY":        &c.Auth.SigningKey,
		"MILK2MEAT_STORAGE_ACCESS_KEY": &c.Storage.AccessKey,
		"MILK2MEAT_STORAGE_SECRET_KEY": &c.Storage.SecretKey,
		"MILK2MEAT_TURNSTILE_SECRET":   &c.Turnstile.SecretKey,
		"MILK2MEAT_REDIS_PASSWORD":     &c.Redis.Password,
	}

	for key, target := range overrides {
		if v, ok := os.LookupEnv(key); ok && len(v) > 0 {
			*target = v
		}
	}
}

func applyDefaults(c *Configuration) {
	//defaults
	if c.Logging.MaxSize <= 0 {
		c.Logging.MaxSize = 500
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAge <= 0 {
		c.Logging.MaxAge = 28
	}
	if len(c.Database.SslMode) == 0 {
		c.Database.SslMode = "disable"
	}
	if c.Database.ConnMaxLifetime == nil {
		c.Database.ConnMaxLifetime = &JsonDuration{Duration: time.Hour}
	}
	if c.Auth.TokenTTL == nil || c.Auth.TokenTTL.Duration <= 0 {
		c.Auth.TokenTTL = &JsonDuration{Duration: 12 * time.Hour}
	}
	if len(c.Auth.Issuer) == 0 {
		c.Auth.Issuer = "milk2meat"
	}
	if len(c.Storage.Location) == 0 {
		c.Storage.Location = "files"
	}
	if c.Storage.SignedUrlExpire == nil || c.Storage.SignedUrlExpire.Duration <= 0 {
		c.Storage.SignedUrlExpire = &JsonDuration{Duration: 300 * time.Second}
	}
	if c.Storage.MaxUploadSize <= 0 {
		c.Storage.MaxUploadSize = DefaultMaxUploadSize
	}
	if c.Turnstile.VerifyUrl == nil || c.Turnstile.VerifyUrl.URL == nil {
		verifyUrl, _ := url.Parse(DefaultTurnstileVerifyUrl)
		c.Turnstile.VerifyUrl = &JsonUrl{URL: verifyUrl}
	}
	if c.Turnstile.Timeout == nil || c.Turnstile.Timeout.Duration <= 0 {
		c.Turnstile.Timeout = &JsonDuration{Duration: 5 * time.Second}
	}
	if c.Search.PageSize <= 0 {
		c.Search.PageSize = 10
	}
}

func Config() *Configuration {
	return config
}

func Port() string {
	return config.ListeningPort
}

func Address() string {
	return config.ListeningAddress
}

func DbHost() string {
	return config.Database.Host
}

func DbName() string {
	return config.Database.DatabaseName
}

func DbUser() string {
	return config.Database.Username
}

func DbPassword() string {
	return config.Database.Password
}
