package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc", "documents"},
	Short:   "Manage indexed documents",
	Long:    `List, inspect and delete the documents in the index.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [document-id]",
	Short: "Show document details",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
	rootCmd.AddCommand(statsCmd)
}

func requireRetrieval(cmd *cobra.Command) error {
	if err := ensureServices(cmd); err != nil {
		return err
	}
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if err := requireRetrieval(cmd); err != nil {
		return err
	}

	docs, err := retrievalService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	cmd.Printf("Documents (%d):\n\n", len(docs))
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].Filename)
		cmd.Printf("    ID: %s\n", docs[i].ID)
		cmd.Printf("    Chunks: %d, uploaded %s\n", docs[i].ChunkCount, docs[i].UploadedAt.Format(time.RFC3339))
		cmd.Println()
	}
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if err := requireRetrieval(cmd); err != nil {
		return err
	}

	doc, err := retrievalService.Get(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document not found: %s", args[0])
		}
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Println("Document Details")
	cmd.Println("================")
	cmd.Printf("  ID:              %s\n", doc.ID)
	cmd.Printf("  Filename:        %s\n", doc.Filename)
	cmd.Printf("  Uploaded:        %s\n", doc.UploadedAt.Format(time.RFC3339))
	cmd.Printf("  Chunks:          %d\n", doc.ChunkCount)
	if doc.EmbeddingSpace != "" {
		cmd.Printf("  Embedding space: %s\n", doc.EmbeddingSpace)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if err := requireRetrieval(cmd); err != nil {
		return err
	}

	if err := retrievalService.Delete(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document not found: %s", args[0])
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document %s\n", args[0])
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := requireRetrieval(cmd); err != nil {
		return err
	}

	stats, err := retrievalService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Println("Index Statistics")
	cmd.Println("================")
	cmd.Printf("  Backend:   %s\n", stats.Backend)
	cmd.Printf("  Documents: %d\n", stats.TotalDocuments)
	cmd.Printf("  Chunks:    %d\n", stats.TotalChunks)
	cmd.Printf("  Characters: %d (avg %.2f per chunk)\n", stats.TotalCharacters, stats.AverageChunk)
	return nil
}
