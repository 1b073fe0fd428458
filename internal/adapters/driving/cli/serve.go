package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docqa/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docqa/internal/adapters/driving/watcher"
)

var (
	serveListen string
	serveWatch  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the document QA HTTP API.

Endpoints:
  POST   /upload           upload a document (multipart field "file")
  POST   /query            ask a question {"question": "...", "top_k": 3}
  GET    /documents        list documents
  GET    /documents/{id}   show a document
  DELETE /documents/{id}   delete a document
  GET    /stats            index statistics
  GET    /metrics          Prometheus metrics

Use --watch to also ingest files dropped into a directory.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "listen address (default from config, :8000)")
	serveCmd.Flags().StringVar(&serveWatch, "watch", "", "inbox directory to watch for new documents")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(cmd); err != nil {
		return err
	}
	if retrievalService == nil || uploadService == nil || qaService == nil {
		return errors.New("services not configured")
	}

	addr := serveListen
	if addr == "" {
		addr = currentSettings.Server.Listen
	}

	server := httpapi.New(httpapi.Services{
		Retrieval: retrievalService,
		Uploads:   uploadService,
		QA:        qaService,
	}, appMetrics, httpapi.Config{
		CORSOrigins:    currentSettings.Server.CORSOrigins,
		RequestTimeout: time.Duration(currentSettings.Server.RequestTimeoutSeconds) * time.Second,
		MaxUploadBytes: int64(currentSettings.Server.MaxUploadMB) * 1024 * 1024,
		Version:        version,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, addr)
	})
	if serveWatch != "" {
		w := newWatcher(serveWatch, false, 0, nil)
		g.Go(func() error {
			return w.Run(ctx)
		})
	}

	cmd.Printf("docqa API listening on %s\n", addr)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newWatcher builds an inbox watcher capped at the configured upload size.
func newWatcher(dir string, existing bool, debounce time.Duration, onResult func(watcher.Result)) *watcher.Watcher {
	return watcher.New(watcher.Config{
		Dir:            dir,
		Debounce:       debounce,
		IngestExisting: existing,
		MaxBytes:       int64(currentSettings.Server.MaxUploadMB) * 1024 * 1024,
	}, uploadService, onResult)
}
