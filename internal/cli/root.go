// Package cli - терминальный клиент: вход кандидата, прохождение теста с таймером
// и панель администратора.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yourusername/assessment-api/internal/client"
	"github.com/yourusername/assessment-api/internal/config"
	"github.com/yourusername/assessment-api/internal/localstore"
)

// app - зависимости команд. Заполняется в PersistentPreRunE, если не задана заранее.
type app struct {
	configPath string
	cfg        *config.ClientConfig
	api        *client.APIClient
	store      *localstore.Store
}

func (a *app) init() error {
	if a.cfg == nil {
		cfg, err := config.LoadClient(a.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		a.cfg = cfg
	}
	if a.api == nil {
		a.api = client.New(a.cfg.APIURL, a.cfg.Timeout())
	}
	if a.store == nil {
		a.store = localstore.New(a.cfg.StateFile)
	}
	return nil
}

// NewRootCommand собирает дерево команд клиента
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "assessment",
		Short:         "Timed assessment client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to client config file")

	root.AddCommand(
		newLoginCommand(a),
		newLogoutCommand(a),
		newTakeCommand(a),
		newAdminCommand(a),
	)
	return root
}
