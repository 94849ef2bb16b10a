package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

func newCompareCommand(deps Deps) *cobra.Command {
	var (
		asJSON   bool
		language string
	)
	cmd := &cobra.Command{
		Use:   "compare <original> <revised>",
		Short: "Compare the scores of an original and a revised text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Feedback == nil {
				return errors.New("feedback service not configured")
			}
			original, err := readDocument(cmd, deps, args[0], language)
			if err != nil {
				return err
			}
			revised, err := readDocument(cmd, deps, args[1], language)
			if err != nil {
				return err
			}

			result, err := deps.Feedback.Compare(cmd.Context(), original, revised, nil, domain.AnalyzeOptions{})
			if err != nil {
				return fmt.Errorf("compare: %w", err)
			}
			if asJSON {
				return printJSON(cmd, result)
			}
			printComparison(cmd, result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full comparison as JSON")
	cmd.Flags().StringVarP(&language, "language", "l", "en", "document language")
	return cmd
}

func printComparison(cmd *cobra.Command, result *domain.TransformationResult) {
	cmd.Printf("Before: %.1f/100 (confidence %s)\n", result.Before.Value, result.Before.Confidence.Level)
	if result.AfterStatus != domain.AfterAvailable || result.After == nil {
		cmd.Printf("After:  unavailable (%s)\n", result.AfterError)
		return
	}
	cmd.Printf("After:  %.1f/100 (confidence %s)\n", result.After.Value, result.After.Confidence.Level)
	if result.Delta != nil {
		cmd.Printf("Delta:  %+.1f\n", *result.Delta)
	}
}
