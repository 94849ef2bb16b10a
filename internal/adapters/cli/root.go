package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
	"github.com/kirillkom/humanlike-coach/internal/core/usecase"
)

// Deps are the services behind the commands. History and ServeMCP may be nil;
// the commands needing them then report that they are not configured.
type Deps struct {
	Analyzer      ports.TextAnalyzer
	Feedback      ports.TransformationService
	Extractor     ports.TextExtractor
	History       ports.ReportHistory
	MaxTextLength int
	ServeMCP      func(ctx context.Context) error
}

func NewRootCommand(version string, deps Deps) *cobra.Command {
	root := &cobra.Command{
		Use:   "humanlike",
		Short: "Score and coach how human-like a text reads",
		Long: `humanlike scores text on five signals (perplexity, machine-authorship
probability, burstiness, lexical diversity and readability variation),
flags the sentences that read as generated and suggests how to fix them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newScoreCommand(deps),
		newCompareCommand(deps),
		newHistoryCommand(deps),
		newMCPCommand(deps),
	)
	return root
}

// readDocument loads text from path, or from stdin when path is empty or "-",
// and builds a validated Document.
func readDocument(cmd *cobra.Command, deps Deps, path, language string) (*domain.Document, error) {
	var (
		name string
		body io.Reader
	)
	if path == "" || path == "-" {
		name, body = "stdin.txt", cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		name, body = filepath.Base(path), f
	}

	text, err := deps.Extractor.Extract(cmd.Context(), name, body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if err := usecase.ValidateText(text, deps.MaxTextLength); err != nil {
		return nil, err
	}
	return domain.NewDocument(text, language)
}

func printJSON(cmd *cobra.Command, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
