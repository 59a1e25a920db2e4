package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// envBindings maps the conventional deployment variables onto settings keys,
// the remaining keys are reachable through the automatic "A_B" form.
var envBindings = map[string]string{
	"port":              "PORT",
	"environment":       "ENVIRONMENT",
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.name":     "DB_NAME",
	"database.user":     "USER_NAME",
	"database.password": "PASSWORD",
}

func SetDefaults() {
	viper.SetDefault("port", 3000)
	viper.SetDefault("environment", "development")
	viper.SetDefault("database.dialect", "sqlite")
	viper.SetDefault("database.dsn", "conduit.db")
	viper.SetDefault("security.token_ttl", "72h")
}

// Load reads settings.toml from the working directory or its parent, a missing
// file is fine since the environment can carry everything.
func Load() error {
	SetDefaults()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			return err
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return Validate()
}

// Validate rejects settings the server cannot run with.
func Validate() error {
	if len(viper.GetString("security.token_secret")) == 0 {
		return errors.New("security.token_secret is required, set it in settings.toml or SECURITY_TOKEN_SECRET")
	}
	return nil
}
