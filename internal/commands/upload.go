package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"decisiondash/internal/api"
	"decisiondash/internal/models"
)

func uploadTypeNames() string {
	names := make([]string, 0, len(models.UploadTypes))
	for _, t := range models.UploadTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func newUploadCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <type> <file.csv>",
		Short: "Upload a CSV file",
		Long:  "Upload a CSV file. Types: " + uploadTypeNames() + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := models.UploadType(args[0])
			if !t.Valid() {
				return fmt.Errorf("unknown upload type %q: choose one of %s", args[0], uploadTypeNames())
			}

			a, err := openSession(cmd, opts)
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[1], err)
			}
			defer f.Close()

			out, err := a.Uploads.Upload(cmd.Context(), t, filepath.Base(args[1]), f)
			if err != nil {
				if api.IsAuth(err) {
					return apiError(a, err, "")
				}
				return errors.New(out.Result.Message)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, out.Result.Message)
			if n := out.Result.TotalRows; n != nil {
				fmt.Fprintf(w, "%d rows", *n)
				if out.Result.Inserted != nil {
					fmt.Fprintf(w, ", %d inserted", *out.Result.Inserted)
				}
				if out.Result.Skipped != nil {
					fmt.Fprintf(w, ", %d skipped", *out.Result.Skipped)
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}
}
