package commands

import (
	"fmt"

	"github.com/kektsukuba/stars/secret"
	"github.com/spf13/cobra"
)

var keygenDir string

// NewKeygenCmd returns the command that generates a fresh server
// secret. Grounded on the teacher's cmd/babble/commands/keygen.go,
// repurposed: STARS authenticates with a shared challenge secret, not
// an ECDSA keypair, so this writes one random file instead of a PEM
// keypair (see secret/secret.go).
func NewKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new server secret",
		RunE:  keygen,
	}
	cmd.Flags().StringVar(&keygenDir, "keydir", config.Keydir, "Directory where the secret will be written")
	return cmd
}

func keygen(cmd *cobra.Command, args []string) error {
	if err := secret.Generate(keygenDir); err != nil {
		return err
	}
	fmt.Printf("A new server secret has been saved under: %s\n", keygenDir)
	return nil
}
