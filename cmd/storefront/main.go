// Storefront 主程序
// 功能：商品浏览、搜索、会话购物车与商品管理接口
// 架构：DDD 分层 + Gin HTTP + gRPC 健康检查 + Kafka 领域事件
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wyfcoding/storefront/pkg/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront catalog and session cart service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c",
		config.GetEnv("STOREFRONT_CONFIG", "configs/storefront/config.toml"), "path to config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP and gRPC servers",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.LoadWithDefaults(configPath)
				if err != nil {
					return err
				}
				return runServe(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				return runMigrate(cmd.Context(), cfg)
			},
		},
	)
	return root
}
