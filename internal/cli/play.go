package cli

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/bank"
	"study-quiz-service/internal/config"
	"study-quiz-service/internal/tui"
)

// NewPlayCmd plays one quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		topic     string
		count     string
		userID    string
		timeLimit time.Duration
		noColor   bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}

			st, err := buildStack(ctx, cfg, localHistoryDriver(cfg))
			if err != nil {
				return err
			}
			defer st.Close()

			if topic == "" {
				cmd.Println("Available topics:")
				for _, line := range bank.Topics(st.catalog.Quizzes()) {
					cmd.Println("  " + line)
				}
				return fmt.Errorf("choose a topic with --topic")
			}

			n := cfg.DefaultCount()
			if count != "" {
				if n, err = app.ParseCount(count); err != nil {
					return err
				}
			}

			view, err := st.service.Start(ctx, userID, topic, n)
			if err != nil {
				return err
			}
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				noColor = true
			}
			model := tui.NewModel(ctx, st.service, userID, view, tui.Options{
				NoColor:   noColor,
				TimeLimit: timeLimit,
			})
			final, err := tea.NewProgram(model).Run()
			if err != nil {
				return err
			}
			if result := final.(tui.Model).Result(); result != nil {
				s := result.Summary
				cmd.Printf("%s: %s/%d (%d%%) %s\n", result.Topic,
					strconv.FormatFloat(s.FinalScore, 'f', -1, 64), s.TotalQuestions, s.Percentage, s.Status)
				return nil
			}
			// Program was killed before the session ended.
			if _, err := st.service.Quit(ctx, view.SessionID, userID); err != nil {
				log.Printf("abandon session %s: %v", view.SessionID, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "quiz/topic id to play (omit to list topics)")
	cmd.Flags().StringVar(&count, "count", "", `number of questions or "all" (default quiz.default_count)`)
	cmd.Flags().StringVar(&userID, "user", defaultUser(), "user id the history is recorded under")
	cmd.Flags().DurationVar(&timeLimit, "time-limit", 0, "per-question time limit, 0 disables")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colors")
	return cmd
}

func defaultUser() string {
	if u := strings.TrimSpace(os.Getenv("USER")); u != "" {
		return u
	}
	return "local"
}
