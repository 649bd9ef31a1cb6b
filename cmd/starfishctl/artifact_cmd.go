package main

import (
	"encoding/json"
	"fmt"
	"os"

	"Starfish-Go/internal/artifact"

	"github.com/spf13/cobra"
)

func newArtifactCmd(state *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "合约构件管理",
	}

	var networkName string
	importCmd := &cobra.Command{
		Use:   "import <name> <file>",
		Short: "将构件文件写入配置的构件存储",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("读取构件文件失败: %w", err)
			}
			var rec artifact.Record
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("解析构件文件失败: %w", err)
			}
			if networkName == "" {
				networkName = rec.Network
			}
			if networkName == "" {
				return fmt.Errorf("需要通过 --network 指定构件所属网络")
			}
			if _, err := artifact.Parse(args[0], networkName, rec); err != nil {
				return err
			}

			store, err := state.artifactStore(cmd.Context())
			if err != nil {
				return err
			}
			switch s := store.(type) {
			case *artifact.FileStore:
				err = s.Save(args[0], networkName, rec)
			case *artifact.RedisStore:
				err = s.Save(cmd.Context(), args[0], networkName, rec)
			case *artifact.SQLStore:
				err = s.Save(cmd.Context(), args[0], networkName, rec)
			default:
				err = fmt.Errorf("构件存储 %T 不支持写入", store)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"key": artifact.Key(args[0], networkName)})
		},
	}
	importCmd.Flags().StringVar(&networkName, "network", "", "网络名称，默认读取构件文件中的 network 字段")

	listCmd := &cobra.Command{
		Use:   "list <network>",
		Short: "列出网络上的全部构件",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.artifactStore(cmd.Context())
			if err != nil {
				return err
			}
			bulk, ok := store.(artifact.BulkStore)
			if !ok {
				return fmt.Errorf("构件存储 %T 不支持列举", store)
			}
			recs, err := bulk.LookupAll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := make([]map[string]string, 0, len(recs))
			for _, rec := range recs {
				out = append(out, map[string]string{"name": rec.Name, "address": rec.Address})
			}
			return printJSON(cmd, out)
		},
	}

	cmd.AddCommand(importCmd, listCmd)
	return cmd
}
