package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Kobia22/SmartStock/internal/account"
	"github.com/Kobia22/SmartStock/internal/auth"
	"github.com/Kobia22/SmartStock/internal/httpapi"
	"github.com/Kobia22/SmartStock/internal/ids"
	"github.com/Kobia22/SmartStock/internal/inventory"
	"github.com/Kobia22/SmartStock/internal/obs"
	"github.com/Kobia22/SmartStock/internal/store/memory"
	"github.com/Kobia22/SmartStock/internal/store/pg"
	"github.com/Kobia22/SmartStock/internal/workflow"
)

var version = "0.3.1"

type storeSet interface {
	account.Store
	workflow.Store
	inventory.Store
}

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("SMARTSTOCK_COMMIT"))

	secret := os.Getenv("SMARTSTOCK_AUTH_SECRET")
	if secret == "" {
		log.Fatal("SMARTSTOCK_AUTH_SECRET is required")
	}
	var credOpts []auth.CredentialsOption
	if raw := os.Getenv("SMARTSTOCK_TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("parse SMARTSTOCK_TOKEN_TTL: %v", err)
		}
		credOpts = append(credOpts, auth.WithTTL(ttl))
	}
	creds, err := auth.NewCredentials(secret, credOpts...)
	if err != nil {
		log.Fatalf("credentials: %v", err)
	}

	var (
		st storeSet
		db *sql.DB
	)
	if dsn := os.Getenv("SMARTSTOCK_PG_DSN"); dsn != "" {
		pgStore, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		st = pgStore
		db = pgStore.DB()
	} else {
		log.Println("SMARTSTOCK_PG_DSN not set, using in-memory store")
		st = memory.New()
	}

	accounts := account.NewService(st, creds)
	requests := workflow.NewService(st)
	stock := inventory.NewService(st)

	if err := bootstrapAdmin(context.Background(), st); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, creds, accounts, requests, stock)

	addr := os.Getenv("SMARTSTOCK_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting smartstock-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}

// bootstrapAdmin creates the initial operator account on an empty store so a
// fresh deployment can approve registrations and assign permissions. The
// password comes from SMARTSTOCK_ADMIN_PASSWORD and must be rotated after
// first login.
func bootstrapAdmin(ctx context.Context, st account.Store) error {
	username := strings.TrimSpace(os.Getenv("SMARTSTOCK_ADMIN_USER"))
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("SMARTSTOCK_ADMIN_PASSWORD")
	if password == "" {
		password = workflow.DefaultPassword
	}

	if _, err := st.FindByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, account.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	perms := make([]string, 0, len(auth.BuiltinPermissions))
	for _, p := range auth.BuiltinPermissions {
		perms = append(perms, p.Key)
	}
	now := time.Now().UTC()
	err = st.Create(ctx, &account.Account{
		ID:           ids.New(),
		Username:     username,
		PasswordHash: hash,
		Permissions:  perms,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, account.ErrDuplicateUsername) {
		return nil
	}
	if err == nil {
		log.Printf("Bootstrapped operator account %q", username)
	}
	return err
}
