package backend

import (
	"context"
	"time"

	"wallet/internal/amqp"
	"wallet/internal/sources"
	"wallet/internal/sources/gmail"
	"wallet/internal/storage"
)

// CleanupFunc releases whatever a Result holds.
type CleanupFunc func() error

// Result is the infrastructure one process runs on.
type Result struct {
	Repository *storage.SQLiteRepository
	Source     sources.MessageSource
	// AMQP is nil when no broker is configured or the broker was unreachable.
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Factory builds a Result from configuration.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

type Config struct {
	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	// RequireAMQP turns an unreachable broker into an error instead of a
	// warning. Set by commands that cannot work without it.
	RequireAMQP bool

	Source SourceType
	Gmail  gmail.Config
	// Now is the clock handed to message sources. Nil means time.Now.
	Now func() time.Time
}

type SourceType string

const (
	MockSource  SourceType = "mock"
	GmailSource SourceType = "gmail"
)

func (st SourceType) String() string {
	return string(st)
}

func (st SourceType) IsValid() bool {
	switch st {
	case MockSource, GmailSource:
		return true
	default:
		return false
	}
}
