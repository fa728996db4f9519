// Command createuser adds a user from the console:
//
//	createuser <email> [password] [--admin]
//
// When the password is omitted it is read from the terminal without echo.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/ovaphlow/pitchfork/service-results-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-results-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-results-go/pkg/utilities"
)

type options struct {
	email    string
	password string
	admin    bool
}

var errUsage = errors.New("usage: createuser <email> [password] [--admin]")

func parseArgs(args []string) (options, error) {
	var o options
	var positional []string
	for _, a := range args {
		switch a {
		case "--admin", "-a":
			o.admin = true
		default:
			if strings.HasPrefix(a, "-") {
				return o, fmt.Errorf("unknown flag %s: %w", a, errUsage)
			}
			positional = append(positional, a)
		}
	}
	if len(positional) < 1 || len(positional) > 2 {
		return o, errUsage
	}
	o.email = positional[0]
	if len(positional) == 2 {
		o.password = positional[1]
	}
	return o, nil
}

// readPassword prompts on a terminal with echo off, otherwise reads a line.
func readPassword(in *os.File, out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	defer fmt.Fprintln(out)
	if term.IsTerminal(int(in.Fd())) {
		b, err := term.ReadPassword(int(in.Fd()))
		return string(b), err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func run(ctx context.Context, args []string) error {
	o, err := parseArgs(args)
	if err != nil {
		return err
	}
	if o.password == "" {
		if o.password, err = readPassword(os.Stdin, os.Stderr); err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}

	cfg := database.ConfigFromEnv()
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := database.Migrate(ctx, db, cfg.Driver); err != nil {
		return err
	}

	in := user.CreateInput{Email: o.email, Password: o.password}
	if o.admin {
		in.Roles = entity.Roles{entity.RoleAdmin}
	}
	svc := user.NewUserService(repo.NewUserRepo(sqlx.NewDb(db, cfg.Driver)), nil)
	u, err := svc.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("created user %d <%s> roles=%s\n", u.ID, u.Email, strings.Join(u.EffectiveRoles(), ","))
	return nil
}

func main() {
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		lg.Sugar().Errorw("create user failed", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
