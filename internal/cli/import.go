package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"provia-quiz-service/internal/bank"
	"provia-quiz-service/internal/domain"
	pgstore "provia-quiz-service/internal/infra/postgres"
)

// NewImportCmd loads a bank JSON file into Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a question bank file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "bank JSON file; empty imports the embedded bank")
	return cmd
}

func runImport(ctx context.Context, configPath, file string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	logger := slog.Default()
	var loader *bank.Loader
	if file != "" {
		loader = bank.NewFileLoader(file, logger)
	} else {
		loader = bank.NewEmbeddedLoader(logger)
	}
	questions, err := loader.LoadQuestions(ctx)
	if err != nil {
		return err
	}
	questions = domain.DedupePrompts(questions)

	db := pgstore.OpenBun(cfg.Postgres.URL)
	defer db.Close()

	n, err := pgstore.NewBankWriter(db).Upsert(ctx, questions)
	if err != nil {
		return fmt.Errorf("import %s: %w", file, err)
	}
	logger.Info("question bank imported", "file", file, "questions", n)
	return nil
}
