package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saferent-network/saferent/internal/app/ledger"
	"github.com/saferent-network/saferent/internal/domain"
	"github.com/saferent-network/saferent/internal/infra/signer"
	"github.com/saferent-network/saferent/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().Bool("blocks", false, "Print every block while auditing")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Verify ledger integrity",
	Long: `Walk the whole ledger offline: recompute every block hash, check the
previous-hash linkage, and verify every validator signature. Exits
non-zero at the first corrupted block.`,
	RunE: runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	auth, err := signer.LoadFile(cfg.Validator.KeyFile)
	if err != nil {
		return err
	}
	chain, err := ledger.Open(db, auth, cfg.Validator.Name)
	if err != nil {
		return err
	}

	if showBlocks, _ := cmd.Flags().GetBool("blocks"); showBlocks {
		blocks, err := chain.Blocks()
		if err != nil {
			return err
		}
		for _, b := range blocks {
			fmt.Fprintf(os.Stdout, "#%-4d %-12s score=%-3d band=%-9s hash=%s…\n",
				b.Index, b.StudentID, b.Score, b.Band, b.Hash[:16])
		}
	}

	if err := chain.VerifyChain(); err != nil {
		var corrupt *domain.CorruptionError
		if errors.As(err, &corrupt) {
			return fmt.Errorf("ledger corrupted at block %d: %s", corrupt.Index, corrupt.Reason)
		}
		return err
	}

	length, err := chain.Length()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Ledger intact: %d blocks, validator %q.\n", length, cfg.Validator.Name)
	return nil
}
