package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danhigham/cometcharm/internal/config"
	"github.com/danhigham/cometcharm/internal/credentials"
	"github.com/danhigham/cometcharm/internal/domain"
)

type credentialStore interface {
	Load(ctx context.Context) (domain.Credentials, error)
	Save(ctx context.Context, c domain.Credentials) error
	Clear(ctx context.Context) error
}

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:           "config",
		Short:         "Show or change the stored app credentials",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective credentials and where each value comes from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return withCredentials(func(s credentialStore) error {
				return showCredentials(commandContext(cmd), cmd.OutOrStdout(), s, cfg.Defaults)
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Store app credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appID, _ := cmd.Flags().GetString("app-id")
			authKey, _ := cmd.Flags().GetString("auth-key")
			region, _ := cmd.Flags().GetString("region")
			return withCredentials(func(s credentialStore) error {
				return setCredentials(commandContext(cmd), cmd.OutOrStdout(), s, domain.Credentials{
					AppID:   appID,
					AuthKey: authKey,
					Region:  region,
				})
			})
		},
	}
	setCmd.Flags().String("app-id", "", "CometChat app ID")
	setCmd.Flags().String("auth-key", "", "CometChat auth key")
	setCmd.Flags().String("region", "", "CometChat region (us, eu, in)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCredentials(func(s credentialStore) error {
				if err := s.Clear(commandContext(cmd)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Stored credentials cleared")
				return nil
			})
		},
	}

	configCmd.AddCommand(showCmd, setCmd, clearCmd)
	return configCmd
}

func withCredentials(fn func(credentialStore) error) error {
	store, closeFn, err := openCredentials()
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(store)
}

func setCredentials(ctx context.Context, w io.Writer, s credentialStore, c domain.Credentials) error {
	c = c.Trimmed()
	if err := credentials.Validate(c); err != nil {
		return fmt.Errorf("please fill in all fields: %w", err)
	}
	if err := s.Save(ctx, c); err != nil {
		return err
	}
	fmt.Fprintln(w, "Credentials saved successfully!")
	return nil
}

func showCredentials(ctx context.Context, w io.Writer, s credentialStore, defaults domain.Credentials) error {
	stored, err := s.Load(ctx)
	if err != nil {
		fmt.Fprintf(w, "warning: %v\n", err)
		stored = domain.Credentials{}
	}
	stored = stored.Trimmed()
	defaults = defaults.Trimmed()
	eff := credentials.Resolve(stored, defaults)

	rows := []struct {
		label, value, stored string
	}{
		{"App ID", eff.AppID, stored.AppID},
		{"Auth Key", credentials.Mask(eff.AuthKey), stored.AuthKey},
		{"Region", eff.Region, stored.Region},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-9s %-24s %s\n", r.label+":", orDash(r.value), source(r.value, r.stored))
	}
	if !credentials.Valid(eff) {
		fmt.Fprintln(w, "\nCredentials are incomplete; the app will open the settings screen.")
	}
	return nil
}

func source(effective, stored string) string {
	switch {
	case effective == "":
		return "(unset)"
	case stored != "":
		return "(stored)"
	default:
		return "(default)"
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
