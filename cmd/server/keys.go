package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/divelog/internal/apikey"
	"github.com/kiranshivaraju/divelog/internal/config"
	"github.com/kiranshivaraju/divelog/internal/store"
)

const keysUsage = "usage: divelog keys <create|list|revoke> -user <uuid> [-name <name>] [-id <key id>]"

var errUsage = errors.New(keysUsage)

// runKeys manages API keys from the command line. It is how the first key
// for a diver is issued, since every HTTP key route requires a key.
func runKeys(args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return keysCommand(ctx, store.NewPostgresStore(pool), args, out)
}

func keysCommand(ctx context.Context, s store.Store, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	fs := flag.NewFlagSet("keys "+args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	userFlag := fs.String("user", "", "owning user id")
	name := fs.String("name", "", "key name")
	idFlag := fs.String("id", "", "key id to revoke")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	userID, err := uuid.Parse(*userFlag)
	if err != nil {
		return fmt.Errorf("-user must be a UUID: %w", err)
	}

	switch args[0] {
	case "create":
		raw, key, err := apikey.Issue(ctx, s, userID, *name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "id:     %s\nprefix: %s\nkey:    %s\n", key.ID, key.KeyPrefix, raw)
		fmt.Fprintln(out, "Store this key now; it cannot be shown again.")
		return nil

	case "list":
		keys, err := s.ListAPIKeys(ctx, userID)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPREFIX\tLAST USED")
		for _, k := range keys {
			lastUsed := "never"
			if k.LastUsedAt != nil {
				lastUsed = k.LastUsedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.ID, k.Name, k.KeyPrefix, lastUsed)
		}
		return tw.Flush()

	case "revoke":
		keyID, err := uuid.Parse(*idFlag)
		if err != nil {
			return fmt.Errorf("-id must be a UUID: %w", err)
		}
		if err := s.RevokeAPIKey(ctx, keyID, userID); err != nil {
			return err
		}
		fmt.Fprintf(out, "revoked %s\n", keyID)
		return nil
	}

	return errUsage
}
