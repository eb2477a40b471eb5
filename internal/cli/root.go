// Package cli implements lovectl, the command-line client for the couple API.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loveos/couple-api/pkg/client"
)

const envPrefix = "LOVEOS"

// Setting keys, also used as flag names.
const (
	keyAPIURL    = "api-url"
	keyTokenFile = "token-file"
	keyJSON      = "json"
)

type app struct {
	v *viper.Viper
}

// NewRootCommand builds the lovectl command tree. Settings come from flags,
// LOVEOS_* environment variables and an optional lovectl.yaml in the user
// config directory, in that order of precedence.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "lovectl",
		Short: "Command-line client for the Love OS couple API",
		Long: `lovectl talks to a running couple API server.

Examples:
  lovectl register sam --role boyfriend
  lovectl login sam
  lovectl link alex
  lovectl couple`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.String(keyAPIURL, client.DefaultBaseURL, "base URL of the couple API")
	flags.String(keyTokenFile, defaultTokenFile(), "file holding the session token")
	flags.Bool(keyJSON, false, "print raw JSON")
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		a.registerCommand(),
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.linkCommand(),
		a.unlinkCommand(),
		a.coupleCommand(),
		a.statusCommand(),
	)
	return root
}

func (a *app) loadConfig() error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	a.v.SetConfigName("lovectl")
	a.v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		a.v.AddConfigPath(filepath.Join(dir, "loveos"))
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	return nil
}

func (a *app) client() *client.Client {
	return client.NewClient(a.v.GetString(keyAPIURL),
		client.WithTokenStore(client.NewFileTokenStore(a.v.GetString(keyTokenFile))))
}

func (a *app) jsonOut() bool {
	return a.v.GetBool(keyJSON)
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".lovectl-token"
	}
	return filepath.Join(dir, "loveos", "token")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describeError turns SDK errors into short user-facing messages.
func describeError(err error) error {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrNoToken):
		return errors.New("not logged in, run `lovectl login` first")
	case errors.As(err, &apiErr) && apiErr.IsUnauthorized():
		return fmt.Errorf("%s (session cleared, log in again)", apiErr.Message)
	case errors.As(err, &apiErr):
		return errors.New(apiErr.Message)
	}
	return err
}
