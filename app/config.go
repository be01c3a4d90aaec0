package kiosk

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/spf13/viper"
)

const (
	DevMode  = "dev"
	ProdMode = "prod"
)

type Config struct {
	// Port is the port number to listen on. The default is 8080.
	Port int `validate:"required,port"`
	// Hostname is the hostname to listen on. The default is 0.0.0.0.
	Hostname string `validate:"required"`
	// Mode is either dev or prod. Prod enforces the pinned TLS config.
	Mode string `validate:"required,oneof=dev prod"`
	Auth struct {
		// Secret is the key used to sign session tokens. It must be a
		// base64 encoded string. The default is a random 32 byte key,
		// which is only suitable for development: sessions do not
		// survive a restart with it.
		Secret Base64Encoded `validate:"required"`
		// TTLMinutes is the session token lifetime in minutes.
		// The default is 30.
		TTLMinutes int `mapstructure:"ttl_minutes" validate:"required,min=1"`
	}
	SQLite struct {
		// File is the path to the SQLite database file.
		File string `validate:"required"`
		// Migrations is the path to the directory holding the
		// migration files.
		Migrations string `validate:"required"`
	}
	// Templates is the path to the directory holding the page templates.
	Templates string `validate:"required"`
	// Static is the path to the directory of static assets. Empty
	// disables static file serving.
	Static string
	TLS    struct {
		Crt string
		Key string
	}
	// AllowedOrigins lists the origins admitted by the CORS layer and by
	// the display channel's websocket handshake. Empty or "*" admits any
	// origin; requests without an Origin header are always admitted.
	AllowedOrigins []string
	valid          bool
}

type Base64Encoded []byte

func (b *Base64Encoded) UnmarshalText(text []byte) error {
	dec, err := base64.StdEncoding.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("base64 decode: %w", err)
	}
	*b = dec
	return nil
}

// LoadConfig loads the configuration from the config file and environment
// variables. Any invalid value is not loaded here; the error is caught in
// the validation step.
func LoadConfig() (*Config, error) {
	config := &Config{}
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("port", 8080)
	viper.SetDefault("hostname", "0.0.0.0")
	viper.SetDefault("mode", DevMode)
	// generate a random signing key for dev setups with no config
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	viper.SetDefault("auth.secret", base64.StdEncoding.EncodeToString(secret))
	viper.SetDefault("auth.ttl_minutes", 30)
	viper.SetDefault("sqlite.file", "./kiosk.db")
	viper.SetDefault("sqlite.migrations", "./migrations")
	viper.SetDefault("templates", "./templates")
	viper.SetDefault("static", "./static")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := viper.Unmarshal(&config,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToSliceHookFunc(",")),
		),
	); err != nil {
		// defer the error to the validation step
		return config, nil
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.valid {
		return nil
	}
	if err := validate.Struct(c); err != nil {
		return err
	}
	c.valid = true
	return nil
}

func FormatValidationErrors(err error) string {
	errors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ""
	}
	trans, _ := uniTrans.GetTranslator("en")
	translated := errors.Translate(trans)

	var sb strings.Builder
	for v := range maps.Values(translated) {
		sb.WriteString(v)
		sb.WriteString("\n")
	}
	return sb.String()
}
