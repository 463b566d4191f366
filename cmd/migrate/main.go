package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/hongminglow/student-life-be/internal/storage/postgres"
)

// migrator is the subset of *migrate.Migrate the CLI drives.
type migrator interface {
	Up() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Close() (error, error)
}

func main() {
	_ = godotenv.Load()
	open := func(databaseURL string) (migrator, error) {
		m, err := postgres.NewMigrator(databaseURL)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	if err := run(os.Args[1:], os.Stdout, os.Stderr, open); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer, open func(string) (migrator, error)) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbURL := fs.String("database", os.Getenv("DATABASE_URL"), "Postgres connection URL (defaults to $DATABASE_URL)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(stdout, "Usage: migrate [-database <url>] up | down [N] | version | force <V>")
		return fmt.Errorf("missing command")
	}
	if strings.TrimSpace(*dbURL) == "" {
		return fmt.Errorf("database url is required (-database or DATABASE_URL)")
	}

	m, err := open(*dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	switch cmd := rest[0]; cmd {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate up: %w", err)
		}
	case "down":
		steps := 1
		if len(rest) > 1 {
			if steps, err = strconv.Atoi(rest[1]); err != nil || steps <= 0 {
				return fmt.Errorf("down expects a positive step count, got %q", rest[1])
			}
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate down: %w", err)
		}
	case "force":
		if len(rest) < 2 {
			return fmt.Errorf("force expects a version")
		}
		v, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("invalid version %q", rest[1])
		}
		if err := m.Force(v); err != nil {
			return fmt.Errorf("force version %d: %w", v, err)
		}
	case "version":
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Fprintln(stdout, "version: none")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	fmt.Fprintf(stdout, "version: %d (dirty: %t)\n", version, dirty)
	return nil
}
