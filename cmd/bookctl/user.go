package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"bookstore/internal/auth"
	"bookstore/internal/platform/crypto"
	"bookstore/internal/token"
	"bookstore/internal/user"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (c *cli) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var name, email string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user, prompting for the password",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			pool, err := c.openPool(cmd.Context(), cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := auth.NewService(
				user.NewPostgresRepo(pool, cfg.DBTimeout),
				token.NewPostgresRepo(pool, cfg.DBTimeout),
				crypto.NewBcryptHasher(cfg.BcryptCost),
				crypto.NewJWTIssuer(cfg.TokenSecret),
				c.logger,
			)
			return createUser(cmd.Context(), svc, name, email, c.in, c.out)
		},
	}
	create.Flags().StringVar(&name, "name", "", "display name")
	create.Flags().StringVar(&email, "email", "", "login email")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)
	return cmd
}

func createUser(ctx context.Context, svc *auth.Service, name, email string, in io.Reader, out io.Writer) error {
	password, err := readPassword(in, out, fmt.Sprintf("Password for %s: ", email))
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	res, err := svc.Register(ctx, auth.RegisterInput{Name: name, Email: email, Password: password})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created user %d <%s>\nToken: %s\n", res.User.ID, res.User.Email, res.Token)
	return nil
}

// readPassword masks input on a terminal and reads a single line otherwise.
func readPassword(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
