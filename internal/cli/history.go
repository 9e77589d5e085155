package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"study-quiz-service/internal/config"
)

// NewHistoryCmd lists or prunes a user's recorded attempts in the configured store.
func NewHistoryCmd(configPath *string) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List a user's quiz history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openHistoryStack(cmd, *configPath)
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := st.service.History(ctx, userID)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				cmd.Println("no history")
				return nil
			}
			for i, e := range entries {
				cmd.Printf("%3d  %s  %-24s %s/%d (%d%%) %s\n", i, e.Date.Local().Format("2006-01-02 15:04"),
					e.Topic, strconv.FormatFloat(e.Score, 'f', -1, 64), e.Total, e.Percentage, e.Status)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&userID, "user", defaultUser(), "user id")

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <index>",
		Short: "Delete one history entry by its listed index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			st, err := openHistoryStack(cmd, *configPath)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.service.DeleteHistory(cmd.Context(), userID, index); err != nil {
				return err
			}
			cmd.Printf("deleted entry %d\n", index)
			return nil
		},
	})
	return cmd
}

// openHistoryStack wires the same history store the play command writes to.
func openHistoryStack(cmd *cobra.Command, configPath string) (*stack, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	return buildStack(cmd.Context(), cfg, localHistoryDriver(cfg))
}

// localHistoryDriver keeps terminal history on disk unless a shared store is configured.
func localHistoryDriver(cfg config.Config) string {
	if driver := cfg.HistoryDriver(); driver != config.HistoryMemory {
		return driver
	}
	return config.HistorySQLite
}
