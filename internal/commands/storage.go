package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"decisiondash/internal/config"
	"decisiondash/internal/services/storage"
)

func openStore() (*storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDirectory)
}

func newEncryptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt the stored session with a passphrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if store.IsEncrypted() {
				return errors.New("session storage is already encrypted")
			}
			pass, err := readNewSecret(cmd, "New passphrase: ")
			if err != nil {
				return err
			}
			if err := store.EnableEncryption(pass); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Encrypted %s\n", store.BaseDir())
			return nil
		},
	}
}

func newDecryptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt",
		Short: "Remove encryption from the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if !store.IsEncrypted() {
				return errors.New("session storage is not encrypted")
			}
			pass, err := readSecret(cmd, "Passphrase: ")
			if err != nil {
				return err
			}
			if err := store.DisableEncryption(pass); err != nil {
				if errors.Is(err, storage.ErrWrongPassphrase) {
					return errors.New("incorrect passphrase")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Decrypted %s\n", store.BaseDir())
			return nil
		},
	}
}
