package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	appanalysis "github.com/bryanwahyu/image-identifier/internal/application/analysis"
	"github.com/bryanwahyu/image-identifier/internal/bootstrap"
	"github.com/bryanwahyu/image-identifier/internal/client"
	"github.com/bryanwahyu/image-identifier/internal/config"
	"github.com/bryanwahyu/image-identifier/internal/infra/ai/prompt"
	"github.com/bryanwahyu/image-identifier/internal/infra/httpclient"
	"github.com/bryanwahyu/image-identifier/internal/infra/storage"
	"github.com/bryanwahyu/image-identifier/internal/logger"
)

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func mainImpl() error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}
	// log ke stderr, jangan ganggu prompt
	log := logger.New(cfg.Log.Level, "console", os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	analyzer, err := newAnalyzer(cfg, log)
	if err != nil {
		return err
	}

	rl, err := readline.New("identify> ")
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()
	out := rl.Stdout()

	s := &session{
		orch:     client.NewOrchestrator(analyzer, printNotifier(out), client.WithLogger(log)),
		out:      out,
		maxBytes: cfg.Limits.MaxImageBytes,
	}
	if cfg.MinioEnabled() {
		src, err := storage.New(ctx, cfg.Minio.Endpoint, cfg.Minio.Region, cfg.Minio.BucketName,
			cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL, cfg.Limits.MaxImageBytes)
		if err != nil {
			return err
		}
		s.objects = src
	}

	fmt.Fprintln(out, "Image Identifier. Type help for commands.")
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF / ctrl-c
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}
		if !s.exec(ctx, line) {
			return nil
		}
	}
}

// newAnalyzer uses the remote API when client.endpoint is set, else runs the pipeline in-process.
func newAnalyzer(cfg *config.Config, log zerolog.Logger) (client.Analyzer, error) {
	if cfg.Client.Endpoint != "" {
		log.Debug().Str("endpoint", cfg.Client.Endpoint).Msg("using remote analyzer")
		return httpclient.New(httpclient.Options{
			Endpoint: cfg.Client.Endpoint,
			APIKey:   cfg.Client.APIKey,
			Timeout:  cfg.Client.Timeout,
		})
	}
	invoker, err := bootstrap.NewInvoker(cfg, log)
	if err != nil {
		return nil, err
	}
	return appanalysis.NewService(invoker, prompt.Build,
		appanalysis.WithTimeout(cfg.AI.Timeout),
		appanalysis.WithLogger(log),
	), nil
}
