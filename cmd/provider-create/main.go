package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/goliatone/go-print"
	social "github.com/goliatone/go-social-login"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	var (
		dsn          = flag.String("dsn", "file:social.db?cache=shared", "database DSN")
		code         = flag.String("code", "", "provider code, e.g. github")
		name         = flag.String("name", "", "provider display name")
		clientID     = flag.String("client-id", "", "OAuth2 client id")
		clientSecret = flag.String("client-secret", "", "OAuth2 client secret")
		status       = flag.String("status", social.ProviderStatusActive, "provider status")
		useHashid    = flag.Bool("use-hashid", false, "derive the provider id from its code")
	)
	flag.Parse()

	if *clientSecret == "" {
		*clientSecret = os.Getenv("PROVIDER_CLIENT_SECRET")
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, *dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer sqldb.Close()

	db := bun.NewDB(sqldb, sqlitedialect.New())
	repo := social.NewRepositoryManager(db)
	repo.MustValidate()

	handler := social.NewProviderCreateHandler(repo)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := social.ApplyMigrations(ctx, db); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	provider, err := handler.Execute(ctx, social.ProviderCreateMessage{
		Code:         *code,
		Name:         *name,
		ClientID:     *clientID,
		ClientSecret: *clientSecret,
		Status:       *status,
		UseHashid:    *useHashid,
	})
	if err != nil {
		log.Fatalf("failed to create provider: %v", err)
	}

	fmt.Println(print.MaybeHighlightJSON(provider))
}
