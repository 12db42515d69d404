package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"provia-quiz-service/internal/bank"
	"provia-quiz-service/internal/domain"
)

// NewCleanupCmd filters a raw bank file and spreads it over the curriculum.
func NewCleanupCmd() *cobra.Command {
	var in, out string
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Drop malformed or duplicate questions and redistribute them over the curriculum days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(in, out, days)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "raw bank JSON file")
	cmd.Flags().StringVar(&out, "out", "", "output file; defaults to overwriting --in")
	cmd.Flags().IntVar(&days, "days", domain.CurriculumDays, "number of curriculum days")
	return cmd
}

func runCleanup(in, out string, days int) error {
	if in == "" {
		return errors.New("--in is required")
	}
	if days < 1 {
		return errors.New("--days must be positive")
	}
	if out == "" {
		out = in
	}
	records, err := bank.ReadFile(in)
	if err != nil {
		return err
	}
	clean, report := bank.Cleanup(records)
	clean = bank.Redistribute(clean, days)
	if err := bank.WriteFile(out, clean); err != nil {
		return err
	}
	slog.Info("question bank cleaned",
		"input", report.Input,
		"kept", report.Kept,
		"no_answer", report.NoAnswer,
		"short_text", report.ShortText,
		"few_options", report.FewOptions,
		"long_option", report.LongOption,
		"duplicates", report.Duplicates,
		"out", out,
	)
	return nil
}
