package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/router"
	"github.com/vango-dev/waypoint/pkg/routetable"
)

// env is the state shared by commands once flags are parsed.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
}

func setup(flags *globalFlags) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}
	if flags.routesPath != "" {
		cfg.Routes.File = flags.routesPath
		cfg.Routes.S3Bucket = ""
		cfg.Routes.S3Key = ""
	}
	if flags.s3Bucket != "" || flags.s3Key != "" {
		cfg.Routes.S3Bucket = flags.s3Bucket
		cfg.Routes.S3Key = flags.s3Key
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger := newLogger(cfg, flags.verbose)
	slog.SetDefault(logger)

	e := &env{cfg: cfg, logger: logger}
	if cfg.Metrics.Enabled {
		e.registry = prometheus.NewRegistry()
	}
	return e, nil
}

// loadTable reads the configured route table from S3 or a file.
func (e *env) loadTable(ctx context.Context) (*routetable.Table, error) {
	if e.cfg.UsesS3() {
		e.logger.Debug("loading route table", "bucket", e.cfg.Routes.S3Bucket, "key", e.cfg.Routes.S3Key)
		return routetable.LoadS3(ctx, newS3Client(e.cfg.Routes), e.cfg.Routes.S3Bucket, e.cfg.Routes.S3Key)
	}
	path := e.cfg.RoutesPath()
	if path == "" {
		return nil, errors.New("W301").WithDetail("no route table configured").
			WithSuggestion("Pass --routes or set routes.file in " + config.ConfigFileName)
	}
	e.logger.Debug("loading route table", "file", path)
	return routetable.LoadFile(path)
}

func newS3Client(cfg config.RoutesConfig) *s3.Client {
	opts := s3.Options{
		Region:      cfg.S3Region,
		Credentials: envCredentials(),
	}
	if cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// envCredentials reads static credentials from the standard AWS variables,
// falling back to anonymous access for public buckets.
func envCredentials() aws.CredentialsProvider {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.AnonymousCredentials{}
	}
	creds := aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "Environment",
	}
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return creds, nil
	})
}

// memoryRouter builds a router over an in-memory platform.
func (e *env) memoryRouter(ctx context.Context) (*router.Router, *history.MemoryPlatform, *history.History, error) {
	table, err := e.loadTable(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	base := e.cfg.History.Base
	hashMode := e.cfg.History.Mode == config.ModeHash
	if hashMode && !strings.Contains(base, "#") {
		base += "#"
	}
	platform := history.NewMemoryPlatform(base + e.cfg.History.Initial)

	opt := history.WithLogger(e.logger)
	var h *history.History
	if hashMode {
		h, err = history.NewHashHistory(platform, base, opt)
	} else {
		h, err = history.NewWebHistory(platform, base, opt)
	}
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []router.Option{
		router.WithLogger(e.logger),
		router.WithTracer(otel.Tracer(e.cfg.Tracing.Tracer)),
		router.WithMaxRedirects(e.cfg.Router.MaxRedirects),
		router.WithNamespace(e.cfg.Metrics.Namespace),
	}
	if e.registry != nil {
		opts = append(opts, router.WithRegistry(e.registry))
	}

	r, err := router.New(h, table.Definitions(), opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	return r, platform, h, nil
}
