package main

import (
	"fmt"
	"os"

	"zkmsg/internal/protocol/zkproof"
	"zkmsg/internal/utils/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "zkmsg-setup",
		Short: "Compile the message circuit and run a development Groth16 setup",
		Long: `zkmsg-setup compiles the message circuit and runs a single-party Groth16
setup, writing circuit.r1cs, proving.key and verification_key.json.

The setup randomness is known to this process only while it runs. Use the
artifacts for development and testing; production deployments load artifacts
from a proper ceremony.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := zkproof.Setup()
			if err != nil {
				return err
			}
			if err := a.Save(out); err != nil {
				return fmt.Errorf("failed to save artifacts: %w", err)
			}
			log.Info("artifacts written",
				zap.String("dir", out),
				zap.Int("constraints", a.CS.GetNbConstraints()),
				zap.Int("publicInputs", a.VK.NPublic))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "artifacts", "directory to write the artifacts to")
	return cmd
}

func main() {
	defer log.Sync()
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
