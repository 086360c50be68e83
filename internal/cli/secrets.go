package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"codesage/api/internal/crypto"
)

const secretBytes = 32

var secretKeys = []string{"JWT_SECRET", "JWT_REFRESH_SECRET"}

func newSecretsCmd() *cobra.Command {
	var writePath string
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Generate JWT signing secrets",
		Long:  "Prints a fresh JWT_SECRET and JWT_REFRESH_SECRET. With --write the values replace any existing ones in the given env file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := generateSecretLines()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if writePath == "" {
				for _, l := range lines {
					fmt.Fprintln(out, l)
				}
				return nil
			}
			if err := writeSecrets(writePath, lines); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s to %s\n", strings.Join(secretKeys, " and "), writePath)
			return nil
		},
	}
	cmd.Flags().StringVar(&writePath, "write", "", "env file to update instead of printing")
	return cmd
}

func generateSecretLines() ([]string, error) {
	lines := make([]string, 0, len(secretKeys))
	for _, key := range secretKeys {
		secret, err := crypto.NewSecret(secretBytes)
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", key, err)
		}
		lines = append(lines, key+"="+secret)
	}
	return lines, nil
}

// writeSecrets rewrites path keeping every line except earlier secret
// assignments, then appends lines.
func writeSecrets(path string, lines []string) error {
	var kept []string
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		for _, l := range strings.Split(strings.TrimRight(string(existing), "\n"), "\n") {
			if !isSecretLine(l) {
				kept = append(kept, l)
			}
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("reading %s: %w", path, err)
	}

	content := strings.Join(append(kept, lines...), "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func isSecretLine(line string) bool {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "export "))
	for _, key := range secretKeys {
		if strings.HasPrefix(trimmed, key+"=") {
			return true
		}
	}
	return false
}
