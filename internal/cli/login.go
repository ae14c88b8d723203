package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/localstore"
)

var (
	errNameEmailRequired = errors.New("name and email are required")
	errInvalidEmail      = errors.New("email is not valid")
	errNotLoggedIn       = errors.New("not logged in, run `assessment login` first")
)

// storedUser - запись пользователя в локальном хранилище
type storedUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newLoginCommand(a *app) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as a candidate",
		RunE: func(cmd *cobra.Command, args []string) error {
			name = strings.TrimSpace(name)
			email = strings.TrimSpace(email)
			if name == "" || email == "" {
				return errNameEmailRequired
			}
			if !entity.IsValidEmail(email) {
				return errInvalidEmail
			}

			if err := a.api.Login(cmd.Context(), name, email); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := a.store.Set(localstore.KeyUser, storedUser{Name: name, Email: email}); err != nil {
				return err
			}
			if err := a.store.Set(localstore.KeyUserEmail, email); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", name, email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "your name")
	cmd.Flags().StringVar(&email, "email", "", "your email")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local user and saved answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			// pendingSubmission хранит своего пользователя и переживает выход
			if err := a.store.Remove(localstore.KeyUser, localstore.KeyUserEmail, localstore.KeyTestAnswers); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

// currentEmail возвращает email вошедшего кандидата
func (a *app) currentEmail() (string, error) {
	var email string
	ok, err := a.store.Get(localstore.KeyUserEmail, &email)
	if err != nil {
		return "", err
	}
	if !ok || email == "" {
		return "", errNotLoggedIn
	}
	return email, nil
}
