package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/roomkeeper/internal/flagx"
	"github.com/dmitrijs2005/roomkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations may be given
// as strings such as "6h" or as integer nanoseconds.
type JsonConfig struct {
	HTTPAddr                  string         `json:"http_addr"`
	GRPCAddr                  string         `json:"grpc_addr"`
	StorageDriver             string         `json:"storage"`
	DatabaseDSN               string         `json:"database_dsn"`
	DataDir                   string         `json:"data_dir"`
	RedisAddr                 string         `json:"redis_addr"`
	LiveKitAPIKey             string         `json:"livekit_api_key"`
	LiveKitAPISecret          string         `json:"livekit_api_secret"`
	LiveKitURL                string         `json:"livekit_url"`
	JoinTokenValidityDuration timex.Duration `json:"join_token_validity_duration"`
	DefaultChannel            string         `json:"default_channel"`
	AuditLogCapacity          int            `json:"audit_log_capacity"`
	EncryptionKey             string         `json:"encryption_key"`
	TrustProxyHeaders         *bool          `json:"trust_proxy_headers"`
	S3RootUser                string         `json:"s3_root_user"`
	S3RootPassword            string         `json:"s3_root_password"`
	S3Bucket                  string         `json:"s3_bucket"`
	S3Region                  string         `json:"s3_region"`
	S3BaseEndpoint            string         `json:"s3_base_endpoint"`
	LogLevel                  string         `json:"log_level"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson loads the file named by -c/-config, if any, over config. Keys
// missing from the file keep their current value. A file that cannot be read
// or parsed panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.ConfigFileFlag()

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

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.StorageDriver, c.StorageDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.DataDir, c.DataDir)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.LiveKitAPIKey, c.LiveKitAPIKey)
	setString(&config.LiveKitAPISecret, c.LiveKitAPISecret)
	setString(&config.LiveKitURL, c.LiveKitURL)
	setString(&config.DefaultChannel, c.DefaultChannel)
	setString(&config.EncryptionKey, c.EncryptionKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.JoinTokenValidityDuration.Duration > 0 {
		config.JoinTokenValidityDuration = c.JoinTokenValidityDuration.Duration
	}
	if c.AuditLogCapacity > 0 {
		config.AuditLogCapacity = c.AuditLogCapacity
	}
	if c.TrustProxyHeaders != nil {
		config.TrustProxyHeaders = *c.TrustProxyHeaders
	}
}
