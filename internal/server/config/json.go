package config

import (
	"encoding/json"
	"os"

	"storefront/internal/flagx"
	"storefront/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "300s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	HTTPAddr              string         `json:"http_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	RedisAddr             string         `json:"redis_addr"`
	RedisPassword         string         `json:"redis_password"`
	RedisDB               int            `json:"redis_db"`
	AMQPUrl               string         `json:"amqp_url"`
	ExchangeName          string         `json:"exchange_name"`
	QueueName             string         `json:"queue_name"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	CacheTTL              timex.Duration `json:"cache_ttl"`
	BcryptCost            int            `json:"bcrypt_cost"`
	ProbeTimeout          timex.Duration `json:"probe_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics; a broken config file should
// stop the process before it serves traffic.
//
// Zero-valued fields in the file are skipped so the file only needs to
// name the settings it overrides.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.HTTPAddr != "" {
		config.HTTPAddr = c.HTTPAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.RedisAddr != "" {
		config.RedisAddr = c.RedisAddr
	}
	if c.RedisPassword != "" {
		config.RedisPassword = c.RedisPassword
	}
	if c.RedisDB != 0 {
		config.RedisDB = c.RedisDB
	}
	if c.AMQPUrl != "" {
		config.AMQPUrl = c.AMQPUrl
	}
	if c.ExchangeName != "" {
		config.ExchangeName = c.ExchangeName
	}
	if c.QueueName != "" {
		config.QueueName = c.QueueName
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.CacheTTL.Duration != 0 {
		config.CacheTTL = c.CacheTTL.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.ProbeTimeout.Duration != 0 {
		config.ProbeTimeout = c.ProbeTimeout.Duration
	}
}
