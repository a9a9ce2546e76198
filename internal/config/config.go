package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingSMTP = errors.New(
	"error getting SMTP settings: SF_SMTP_HOST, SF_SMTP_USERNAME, SF_SMTP_PASSWORD and SF_RECIPIENT must be set unless SF_INSPECT=true")

type Config struct {
	Env          string // Env is the current environment: local, dev, prod.
	CollectionID int    // CollectionID is the catalog collection to monitor.
	Keyword      string // Keyword optionally restricts monitoring to matching titles.
	CatalogURL   string // CatalogURL is the catalog CDN root.
	ProductURL   string // ProductURL is the canonical product page root.
	StoragePath  string // StoragePath is the SQLite state database file.
	ReportPath   string // ReportPath, when set, receives the full-snapshot document.
	HTTPTimeout  time.Duration
	Inspect      bool // Inspect runs the cycle without dispatching notifications.
	Mail         Mail
	Tg           Telegram
}

type Mail struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Recipient  string
	Timeout    time.Duration
	MaxRetries int           // MaxRetries is the total send attempt budget.
	RetryDelay time.Duration // RetryDelay is the fixed inter-attempt delay.
}

type Telegram struct {
	Token   string        // Token is an unique telegram bot token; empty disables the channel.
	ChatID  int64         // ChatID is the destination chat.
	Timeout time.Duration // Timeout bounds each bot API request.
}

// MustLoad loads the configuration from environment variables and returns a Config struct.
func MustLoad() *Config {
	// Automatically binds environment variables to config keys
	viper.SetEnvPrefix("SF")
	viper.AutomaticEnv()

	// optional args
	viper.SetDefault("ENV", "production")
	viper.SetDefault("COLLECTION_ID", 223)
	viper.SetDefault("CATALOG_URL", "https://cdn-global.popmart.com")
	viper.SetDefault("PRODUCT_URL", "https://www.popmart.com/jp/products")
	viper.SetDefault("STORAGE_PATH", "stock-flow.db")
	viper.SetDefault("HTTP_TIMEOUT", "30s")
	viper.SetDefault("INSPECT", false)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_TIMEOUT", "30s")
	viper.SetDefault("MAIL_MAX_RETRIES", 3)
	viper.SetDefault("MAIL_RETRY_DELAY", "5s")
	viper.SetDefault("TELEGRAM_TIMEOUT", "15s")

	inspect := viper.GetBool("INSPECT")

	// Mail settings are only optional in inspect mode, where nothing is sent.
	if !inspect {
		if viper.GetString("SMTP_HOST") == "" ||
			viper.GetString("SMTP_USERNAME") == "" ||
			viper.GetString("SMTP_PASSWORD") == "" ||
			viper.GetString("RECIPIENT") == "" {
			panic(ErrMissingSMTP)
		}
	}

	return &Config{
		Env:          viper.GetString("ENV"),
		CollectionID: viper.GetInt("COLLECTION_ID"),
		Keyword:      viper.GetString("KEYWORD"),
		CatalogURL:   viper.GetString("CATALOG_URL"),
		ProductURL:   viper.GetString("PRODUCT_URL"),
		StoragePath:  viper.GetString("STORAGE_PATH"),
		ReportPath:   viper.GetString("REPORT_PATH"),
		HTTPTimeout:  viper.GetDuration("HTTP_TIMEOUT"),
		Inspect:      inspect,
		Mail: Mail{
			Host:       viper.GetString("SMTP_HOST"),
			Port:       viper.GetInt("SMTP_PORT"),
			Username:   viper.GetString("SMTP_USERNAME"),
			Password:   viper.GetString("SMTP_PASSWORD"),
			Recipient:  viper.GetString("RECIPIENT"),
			Timeout:    viper.GetDuration("SMTP_TIMEOUT"),
			MaxRetries: viper.GetInt("MAIL_MAX_RETRIES"),
			RetryDelay: viper.GetDuration("MAIL_RETRY_DELAY"),
		},
		Tg: Telegram{
			Token:   viper.GetString("TELEGRAM_TOKEN"),
			ChatID:  viper.GetInt64("TELEGRAM_CHAT_ID"),
			Timeout: viper.GetDuration("TELEGRAM_TIMEOUT"),
		},
	}
}
