package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"decisiondash/internal/api"
)

func newLoginCommand(opts *globalOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			password, err := readSecret(cmd, "Password: ")
			if err != nil {
				return err
			}

			res, err := a.Client.Login(cmd.Context(), api.Credentials{Email: email, Password: password})
			if err != nil {
				return errors.New(api.Message(err, "Login failed"))
			}
			if err := a.SignIn(res); err != nil {
				return fmt.Errorf("saving session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", res.User.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newRegisterCommand(opts *globalOptions) *cobra.Command {
	var email, business string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			password, err := readNewSecret(cmd, "Password: ")
			if err != nil {
				return err
			}

			res, err := a.Client.Register(cmd.Context(), api.Registration{
				Email:        email,
				Password:     password,
				BusinessName: business,
			})
			if err != nil {
				return errors.New(api.Message(err, "Registration failed"))
			}
			if err := a.SignIn(res); err != nil {
				return fmt.Errorf("saving session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s\n", res.User.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&business, "business", "", "business name shown on the dashboard")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			if err := a.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openSession(cmd, opts)
			if err != nil {
				return err
			}

			user, err := a.Client.Profile(cmd.Context())
			if err != nil {
				return apiError(a, err, "Failed to load profile")
			}
			if err := a.Session.SetUser(user); err != nil {
				return fmt.Errorf("saving profile: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, user.DisplayName())
			if user.BusinessName != "" {
				fmt.Fprintln(out, user.Email)
			}
			fmt.Fprintf(out, "API: %s\n", a.Client.BaseURL())
			return nil
		},
	}
}
