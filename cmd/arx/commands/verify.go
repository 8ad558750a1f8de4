package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/arx/internal/engine"
	"github.com/thoreinstein/arx/internal/errors"
	"github.com/thoreinstein/arx/internal/logging"
)

var (
	verifyPassword    string
	verifyAskPassword bool
)

func init() {
	verifyCmd.Flags().StringVar(&verifyPassword, "password", "",
		"password for an encrypted archive")
	verifyCmd.Flags().BoolVar(&verifyAskPassword, "ask-password", false,
		"prompt for the password on the terminal")
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify ARCHIVE",
	Short: "Check an archive's integrity without extracting it",
	Long: `Verify that ARCHIVE is authentic and internally consistent: the
authentication tag, the manifest structure, and every recorded file
checksum are checked against the payload. Nothing is written to disk.

Exit code 0 means the archive would restore cleanly with the same
password.`,
	Example: `  arx verify /backups/notes.arx
  arx verify /backups/notes.arx --ask-password`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	return runVerifyWithWriter(cmd, os.Stdout, args[0])
}

func runVerifyWithWriter(cmd *cobra.Command, w io.Writer, src string) error {
	password, err := resolvePassword(verifyPassword, verifyAskPassword)
	if err != nil {
		return err
	}

	eng := engine.New(
		engine.WithPassword(password),
		engine.WithLogger(logging.FromContext(cmd.Context())),
	)
	if err := eng.Verify(src); err != nil {
		if errors.Is(err, errors.ErrAuthenticationFailed) {
			return errors.NewUserError(err, "check the password; if it is correct, the archive has been tampered with")
		}
		return err
	}

	fmt.Fprintf(w, "%s✓ %s: archive is valid%s\n", colorGreen, src, colorReset)
	return nil
}
