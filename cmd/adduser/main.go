package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/hongminglow/student-life-be/internal/events"
	"github.com/hongminglow/student-life-be/internal/models/dto"
	"github.com/hongminglow/student-life-be/internal/service"
	"github.com/hongminglow/student-life-be/internal/storage"
	"github.com/hongminglow/student-life-be/internal/storage/postgres"
)

type opener func(ctx context.Context, databaseURL string) (storage.Store, error)

func main() {
	_ = godotenv.Load()
	open := func(ctx context.Context, databaseURL string) (storage.Store, error) {
		return postgres.NewStore(ctx, databaseURL)
	}
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr, open); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, open opener) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	email := fs.String("email", "", "Email address")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	university := fs.String("university", "", "University (optional)")
	major := fs.String("major", "", "Major (optional)")
	dbURL := fs.String("database", os.Getenv("DATABASE_URL"), "Postgres connection URL (defaults to $DATABASE_URL)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" || *email == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> -email <email> [-password <password>] [-database <url>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user, email")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	store, err := open(ctx, *dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	users := service.NewUserService(store, nil, events.Discard{})
	user, err := users.Register(ctx, dto.RegisterRequest{
		Username:   *username,
		Email:      *email,
		Password:   password,
		RePassword: password,
		University: *university,
		Major:      *major,
	})
	if errors.Is(err, service.ErrDuplicateUsername) {
		return fmt.Errorf("user %s already exists", *username)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s\n", user.Username, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
