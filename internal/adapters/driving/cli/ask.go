package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	askTopK int
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the indexed documents",
	Long: `Retrieves the chunks nearest to the question and asks the configured LLM
to answer from them. Without an LLM the retrieved sources are still shown.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", domain.DefaultTopK, "number of chunks to retrieve")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

type askOutput struct {
	Question     string               `json:"question"`
	Answer       string               `json:"answer"`
	Sources      []domain.QueryResult `json:"sources"`
	ResponseTime float64              `json:"response_time"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" {
		return errors.New("question is required")
	}
	if askTopK <= 0 {
		return errors.New("--top-k must be positive")
	}

	if err := ensureServices(cmd); err != nil {
		return err
	}
	if qaService == nil {
		return errors.New("qa service not configured")
	}

	answer, err := qaService.Ask(cmd.Context(), question, askTopK)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			cmd.Println("No relevant documents found.")
			return nil
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(askOutput{
			Question:     answer.Question,
			Answer:       answer.Answer,
			Sources:      answer.Sources,
			ResponseTime: math.Round(answer.ResponseTime.Seconds()*100) / 100,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Answer)
	cmd.Println()
	cmd.Println("Sources:")
	for i := range answer.Sources {
		src := answer.Sources[i]
		cmd.Printf("  [Source %d: %s] chunk %d/%d (distance %.3f)\n",
			i+1, sourceName(src), src.Metadata.Position+1, src.Metadata.TotalChunks, src.Distance)
	}
	cmd.Printf("\nAnswered in %.2fs\n", answer.ResponseTime.Seconds())
	return nil
}

func sourceName(r domain.QueryResult) string {
	if r.Metadata.Source == "" {
		return "Unknown"
	}
	return r.Metadata.Source
}
