package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/tasknest/internal/app"
	"github.com/dropDatabas3/tasknest/internal/auth"
	"github.com/dropDatabas3/tasknest/internal/cache"
	"github.com/dropDatabas3/tasknest/internal/config"
	"github.com/dropDatabas3/tasknest/internal/domain/repository"
	"github.com/dropDatabas3/tasknest/internal/email"
	httpx "github.com/dropDatabas3/tasknest/internal/http"
	"github.com/dropDatabas3/tasknest/internal/http/handlers"
	jwtx "github.com/dropDatabas3/tasknest/internal/jwt"
	"github.com/dropDatabas3/tasknest/internal/oauth"
	"github.com/dropDatabas3/tasknest/internal/oauth/github"
	"github.com/dropDatabas3/tasknest/internal/oauth/google"
	"github.com/dropDatabas3/tasknest/internal/security/secretbox"
	"github.com/dropDatabas3/tasknest/internal/store"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "ruta del config.yaml")
	flag.Parse()

	// .env si existe; en prod las vars vienen del entorno real
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf(`{"level":"fatal","msg":"config_load_err","err":"%v"}`, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := store.New(ctx, store.Config{
		Driver:   cfg.Storage.Driver,
		MongoURI: cfg.Storage.Mongo.URI,
		Database: cfg.Storage.Mongo.Database,
	})
	if err != nil {
		log.Fatalf(`{"level":"fatal","msg":"store_init_err","err":"%v"}`, err)
	}
	defer func() {
		if err := repos.Close(context.Background()); err != nil {
			log.Printf(`{"level":"warn","msg":"store_close_err","err":"%v"}`, err)
		}
	}()

	cacheClient, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Driver,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Prefix,
	})
	if err != nil {
		log.Fatalf(`{"level":"fatal","msg":"cache_init_err","err":"%v"}`, err)
	}
	defer cacheClient.Close()

	box, err := secretbox.New(cfg.Security.SecretboxKey)
	if err != nil {
		log.Fatalf(`{"level":"fatal","msg":"secretbox_init_err","err":"%v"}`, err)
	}

	issuer := jwtx.NewIssuer(cfg.JWT.Issuer, []byte(cfg.JWT.Secret))
	issuer.AccessTTL = cfg.AccessTTL()
	issuer.RefreshTTL = cfg.RefreshTTL()

	svc := auth.NewService(repos.Users, repos.RefreshTokens, repos.ResetTokens, issuer, box)
	svc.TOTPIssuer = cfg.Security.TOTPIssuer

	if cfg.OAuth.Google.ClientID != "" {
		svc.Providers[repository.ProviderGoogle] = google.New(cfg.OAuth.Google.ClientID)
	}
	if cfg.OAuth.Github.Enabled {
		svc.Providers[repository.ProviderGithub] = github.New()
	}
	logProviders(svc.Providers)

	if cfg.SMTP.Host != "" {
		svc.Mailer = email.NewMailer(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			From:     cfg.SMTP.From,
			User:     cfg.SMTP.User,
			Pass:     cfg.SMTP.Pass,
			TLSMode:  cfg.SMTP.TLSMode,
			ResetURL: cfg.SMTP.ResetURL,
		})
	}

	container := &app.Container{
		Auth:         svc,
		Users:        repos.Users,
		Projects:     repos.Projects,
		Cache:        cacheClient,
		Issuer:       issuer,
		CookieSecure: cfg.Security.CookieSecure,
	}

	srv := httpx.NewServer(cfg.Server.Addr, handlers.NewRouter(container))
	if err := srv.Run(ctx); err != nil {
		log.Fatalf(`{"level":"fatal","msg":"server_err","err":"%v"}`, err)
	}
}

func logProviders(ps map[repository.Provider]oauth.Verifier) {
	for p := range ps {
		log.Printf(`{"level":"info","msg":"federated_provider_enabled","provider":"%s"}`, p)
	}
}
