package backend

import (
	"fmt"

	"wallet/internal/config"
	"wallet/internal/sources/gmail"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	sourceType := SourceType(appConfig.MessageSource)
	if !sourceType.IsValid() {
		return Config{}, fmt.Errorf("invalid message source in config: %s", appConfig.MessageSource)
	}

	return Config{
		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		Source: sourceType,
		Gmail: gmail.Config{
			CredentialsFile: appConfig.GmailCredentialsFile,
			CredentialsJSON: appConfig.GmailCredentialsJSON,
			User:            appConfig.GmailUser,
			Query:           appConfig.GmailQuery,
			MaxResults:      int64(appConfig.GmailMaxResults),
		},
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required")
	}
	if !c.Source.IsValid() {
		return fmt.Errorf("invalid message source: %s", c.Source)
	}
	if c.Source == GmailSource && c.Gmail.CredentialsFile == "" && c.Gmail.CredentialsJSON == "" {
		return fmt.Errorf("either a credentials file or inline credentials must be provided for the gmail source")
	}
	if c.RequireAMQP && c.AMQPURL == "" {
		return fmt.Errorf("AMQP URL is required")
	}
	return nil
}

// GetSourceTypes returns all valid message source types
func GetSourceTypes() []SourceType {
	return []SourceType{MockSource, GmailSource}
}

// GetSourceTypeStrings returns all valid message source type strings
func GetSourceTypeStrings() []string {
	types := GetSourceTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
