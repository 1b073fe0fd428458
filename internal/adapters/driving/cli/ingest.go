package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Add documents to the index",
	Long: `Extracts text from each file, splits it into chunks, embeds them and adds
them to the index. Supported formats depend on the registered normalisers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensureServices(cmd); err != nil {
		return err
	}
	if uploadService == nil {
		return errors.New("upload service not configured")
	}

	var failed int
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failed++
			continue
		}

		result, err := uploadService.Upload(cmd.Context(), filepath.Base(path), content)
		if err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failed++
			continue
		}
		cmd.Printf("  %s: %d chunks (id %s)\n", result.Filename, result.ChunkCount, result.DocumentID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	cmd.Printf("Ingested %d file(s)\n", len(args))
	return nil
}
