package main

import (
	"fmt"

	"Starfish-Go/internal/journal"

	"github.com/spf13/cobra"
)

func newJournalCmd(state *appState) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "查看最近的交易流水",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sink, err := state.journalSink(cmd.Context())
			if err != nil {
				return err
			}
			reader, ok := sink.(journal.Reader)
			if !ok {
				return fmt.Errorf("流水驱动 %T 不支持读取", sink)
			}
			entries, err := reader.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, entries)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "最多返回的条数")
	return cmd
}
