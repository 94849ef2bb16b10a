package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

const quoteRunes = 72

func newScoreCommand(deps Deps) *cobra.Command {
	var (
		asJSON   bool
		language string
		noSave   bool
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "score [file]",
		Short: "Score a text file or standard input",
		Long: `Scores a .txt, .md or .pdf file, or standard input when no file or "-" is
given. The report is kept in local history unless --no-save is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Analyzer == nil {
				return errors.New("analyzer not configured")
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			doc, err := readDocument(cmd, deps, path, language)
			if err != nil {
				return err
			}

			report, err := deps.Analyzer.Analyze(cmd.Context(), doc, domain.AnalyzeOptions{})
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}

			if !noSave && deps.History != nil {
				if _, err := deps.History.Save(cmd.Context(), report); err != nil {
					slog.Warn("history_save_failed", "document_id", doc.ID, "error", err)
				}
			}

			if asJSON {
				return printJSON(cmd, report)
			}
			printReport(cmd, report, all)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	cmd.Flags().StringVarP(&language, "language", "l", "en", "document language")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the report in history")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "list every sentence, not only flagged ones")
	return cmd
}

func printReport(cmd *cobra.Command, report *domain.Report, all bool) {
	score := report.Score
	cmd.Printf("Score: %.1f/100 (confidence %s, %.0f%% of signal weight)\n",
		score.Value, score.Confidence.Level, score.Confidence.Coverage*100)
	if score.Degraded {
		cmd.Printf("Degraded: missing %s\n", joinSignals(score.MissingSignals))
	}
	cmd.Println("Signals:")
	for _, name := range domain.CanonicalSignals {
		value := score.Signals.Get(name)
		if !value.Available {
			cmd.Printf("  %-22s unavailable (%s)\n", name, value.Reason)
			continue
		}
		cmd.Printf("  %-22s %.2f\n", name, value.Value)
	}

	flagged := 0
	for _, sentence := range report.Sentences {
		if sentence.Category != domain.CategoryNatural {
			flagged++
		}
	}
	cmd.Printf("Sentences: %d, flagged: %d\n", len(report.Sentences), flagged)
	for _, sentence := range report.Sentences {
		if !all && sentence.Category == domain.CategoryNatural {
			continue
		}
		cmd.Printf("\n  [%d] %s  %q\n", sentence.Span.Index+1, sentence.Category, quote(sentence.Text))
		if sentence.Rationale != "" {
			cmd.Printf("      %s\n", sentence.Rationale)
		}
		if sentence.Suggestion != "" {
			cmd.Printf("      Try: %s\n", sentence.Suggestion)
		}
	}

	for _, issue := range report.SignalIssues {
		cmd.Printf("note: %s unavailable for %d %s(s): %s\n", issue.Signal, issue.Count, issue.Grain, issue.Reason)
	}
}

func joinSignals(names []domain.SignalName) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, string(name))
	}
	return strings.Join(parts, ", ")
}

func quote(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= quoteRunes {
		return text
	}
	return string([]rune(text)[:quoteRunes-1]) + "…"
}
