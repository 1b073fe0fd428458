package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/watcher"
)

var (
	watchExisting bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Ingest documents dropped into a directory",
	Long: `Watches a directory and ingests every supported file that is created or
rewritten in it. Hidden files and unsupported formats are ignored.

Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also ingest files already in the directory")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period before a file is ingested")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(cmd); err != nil {
		return err
	}
	if uploadService == nil {
		return errors.New("upload service not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := newWatcher(args[0], watchExisting, watchDebounce, func(r watcher.Result) {
		if r.Err != nil {
			cmd.PrintErrf("  %s: %v\n", r.Path, r.Err)
			return
		}
		cmd.Printf("  %s: %d chunks (id %s)\n", r.Upload.Filename, r.Upload.ChunkCount, r.Upload.DocumentID)
	})

	go func() {
		select {
		case <-w.Ready():
			cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
		case <-ctx.Done():
		}
	}()

	return w.Run(ctx)
}
