// Package commands implements the dashctl command line.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"decisiondash/internal/api"
	"decisiondash/internal/app"
	"decisiondash/internal/config"
	"decisiondash/internal/version"
)

// errNotSignedIn is returned by commands that need a session when none is stored
var errNotSignedIn = errors.New("not signed in: run `dashctl login` first")

type globalOptions struct {
	apiURL  string
	verbose bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "dashctl",
		Short:   "Small-business finance dashboard in the terminal",
		Version: version.Get().Short(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				log.SetOutput(cmd.ErrOrStderr())
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "API base URL (overrides DASH_API_URL and the config file)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log requests and state changes to stderr")

	rootCmd.AddCommand(
		newLoginCommand(opts),
		newRegisterCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
		newDashboardCommand(opts),
		newWatchCommand(opts),
		newReportCommand(opts),
		newUploadCommand(opts),
		newEncryptCommand(),
		newDecryptCommand(),
		newVersionCommand(),
	)

	return rootCmd
}

func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.APIURL = opts.apiURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// openApp builds the application, asking for the storage passphrase when the
// session file is encrypted and stdin is a terminal.
func openApp(cmd *cobra.Command, opts *globalOptions) (*app.App, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	a, err := app.New(cfg, app.Options{})
	if errors.Is(err, app.ErrPassphraseRequired) && isTerminal(cmd.InOrStdin()) {
		pass, perr := readSecret(cmd, "Storage passphrase: ")
		if perr != nil {
			return nil, perr
		}
		a, err = app.New(cfg, app.Options{Passphrase: pass})
	}
	return a, err
}

// openSession is openApp for commands that need a signed-in user
func openSession(cmd *cobra.Command, opts *globalOptions) (*app.App, error) {
	a, err := openApp(cmd, opts)
	if err != nil {
		return nil, err
	}
	if !a.Session.Authenticated() {
		return nil, errNotSignedIn
	}
	return a, nil
}

// apiError signs out on an auth failure and turns err into a one-line message
func apiError(a *app.App, err error, fallback string) error {
	if api.IsAuth(err) {
		if lerr := a.Logout(); lerr != nil {
			log.Printf("Warning: could not clear session: %v", lerr)
		}
		return fmt.Errorf("session expired: run `dashctl login` to sign in again")
	}
	return errors.New(api.Message(err, fallback))
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Get()
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
			if warning := info.Check(); warning != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), warning)
			}
		},
	}
}
