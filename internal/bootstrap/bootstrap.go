// Package bootstrap wires config into concrete adapters for the binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/image-identifier/internal/config"
	domai "github.com/bryanwahyu/image-identifier/internal/domain/ai"
	"github.com/bryanwahyu/image-identifier/internal/domain/audit"
	openaiclient "github.com/bryanwahyu/image-identifier/internal/infra/ai/openai"
	"github.com/bryanwahyu/image-identifier/internal/infra/ai/stub"
	mysqlp "github.com/bryanwahyu/image-identifier/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/image-identifier/internal/infra/db/postgres"
)

// NewInvoker picks the model adapter named by ai.provider.
func NewInvoker(cfg *config.Config, log zerolog.Logger) (domai.Invoker, error) {
	switch cfg.AI.Provider {
	case "stub":
		log.Warn().Msg("using stub model, results are synthetic")
		return stub.NewClient(), nil
	case "openai":
		if cfg.AI.APIKey == "" && cfg.AI.BaseURL == "" {
			log.Warn().Msg("OPENAI_API_KEY is empty, model calls will fail")
		}
		return openaiclient.NewClient(openaiclient.Options{
			APIKey:    cfg.AI.APIKey,
			BaseURL:   cfg.AI.BaseURL,
			Model:     cfg.AI.Model,
			MaxTokens: cfg.AI.MaxTokens,
			Detail:    cfg.AI.Detail,
		}), nil
	}
	return nil, fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
}

// Audit is an opened audit store.
type Audit struct {
	Repo interface {
		audit.Repository
		Ping(ctx context.Context) error
	}
	DB *sql.DB
}

func (a *Audit) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// OpenAudit connects and migrates the audit database. It returns nil when auditing is disabled.
func OpenAudit(ctx context.Context, cfg *config.Config) (*Audit, error) {
	switch cfg.Database.Driver {
	case "":
		return nil, nil
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, err
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &Audit{Repo: mysqlp.NewEventRepository(db), DB: db}, nil
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		if err := postgresp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &Audit{Repo: postgresp.NewEventRepository(db), DB: db}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}
