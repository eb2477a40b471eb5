package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/loveos/couple-api/pkg/client"
)

func (a *app) registerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			role, _ := flags.GetString("role")
			display, _ := flags.GetString("display-name")
			anniversary, _ := flags.GetString("anniversary")
			since, _ := flags.GetString("since")

			user, err := a.client().Register(cmd.Context(), client.RegisterRequest{
				Username:          args[0],
				Password:          pw,
				Role:              role,
				DisplayName:       display,
				AnniversaryDate:   anniversary,
				RelationshipStart: since,
			})
			if err != nil {
				return describeError(err)
			}
			if a.jsonOut() {
				return printJSON(cmd.OutOrStdout(), user)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", user.Username, user.Role)
			return nil
		},
	}
	cmd.Flags().String("password", "", "password (prompted when omitted)")
	cmd.Flags().String("role", "", "boyfriend or girlfriend")
	cmd.Flags().String("display-name", "", "name shown on the dashboard")
	cmd.Flags().String("anniversary", "", "anniversary date, YYYY-MM-DD")
	cmd.Flags().String("since", "", "relationship start date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func (a *app) loginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and store the session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(cmd)
			if err != nil {
				return err
			}
			session, err := a.client().Login(cmd.Context(), args[0], pw)
			var apiErr *client.APIError
			if errors.As(err, &apiErr) {
				return errors.New(apiErr.Message)
			}
			if err != nil {
				return err
			}
			if a.jsonOut() {
				return printJSON(cmd.OutOrStdout(), session)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s, session valid until %s\n",
				session.User.Username, session.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}
	cmd.Flags().String("password", "", "password (prompted when omitted)")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke and forget the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client().CurrentUser(cmd.Context())
			if err != nil {
				return describeError(err)
			}
			if a.jsonOut() {
				return printJSON(cmd.OutOrStdout(), user)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", user.Username, user.Role)
			if user.DisplayName != "" && user.DisplayName != user.Username {
				fmt.Fprintf(out, "  name:    %s\n", user.DisplayName)
			}
			if user.PartnerID != "" {
				fmt.Fprintf(out, "  partner: %s\n", user.PartnerID)
			}
			return nil
		},
	}
}

func (a *app) linkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "link <partner-username>",
		Short: "Link with your partner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partner, err := a.client().LinkPartner(cmd.Context(), args[0])
			if err != nil {
				return describeError(err)
			}
			if a.jsonOut() {
				return printJSON(cmd.OutOrStdout(), partner)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked with %s\n", partner.Username)
			return nil
		},
	}
}

func (a *app) unlinkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink",
		Short: "Remove the partner link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().UnlinkPartner(cmd.Context()); err != nil {
				return describeError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Partner unlinked")
			return nil
		},
	}
}

func (a *app) coupleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "couple",
		Short: "Show the couple dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := a.client().Couple(cmd.Context())
			if err != nil {
				return describeError(err)
			}
			if a.jsonOut() {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s & %s\n", summary.PartnerNames[0], summary.PartnerNames[1])
			if summary.DaysTogether != nil {
				fmt.Fprintf(out, "  together:    %d days\n", *summary.DaysTogether)
			}
			if summary.NextAnniversary != nil && summary.DaysUntilAnniversary != nil {
				fmt.Fprintf(out, "  anniversary: %s (in %d days)\n",
					summary.NextAnniversary.Format("2006-01-02"), *summary.DaysUntilAnniversary)
			}
			return nil
		},
	}
}

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session token is held (no network call)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state := "not logged in"
			if a.client().IsAuthenticated() {
				state = "logged in"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n  api:   %s\n  token: %s\n", state, a.v.GetString(keyAPIURL), a.v.GetString(keyTokenFile))
			return nil
		},
	}
}
