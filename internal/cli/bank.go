package cli

import (
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"study-quiz-service/internal/bank"
	"study-quiz-service/internal/config"
	pgstore "study-quiz-service/internal/infra/postgres"
)

// NewBankCmd groups question bank maintenance commands.
func NewBankCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Validate or import question banks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a bank file or directory (default: built-in bank)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			quizzes, err := loadBank(path)
			if err != nil {
				return err
			}
			for _, line := range bank.Topics(quizzes) {
				cmd.Println(line)
			}
			cmd.Printf("%d topics valid\n", len(quizzes))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import [path]",
		Short: "Store a bank in Postgres so it is served without the bank file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			path := cfg.Quiz.BankPath
			if len(args) == 1 {
				path = args[0]
			}
			quizzes, err := loadBank(path)
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(ctx, cfg); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			loader := pgstore.NewQuizLoader(pool)
			for _, quiz := range quizzes {
				if err := loader.SaveQuiz(ctx, quiz); err != nil {
					return fmt.Errorf("import %s: %w", quiz.ID, err)
				}
			}
			cmd.Printf("imported %d topics\n", len(quizzes))
			return nil
		},
	})
	return cmd
}
