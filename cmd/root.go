package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ichaly/ideabase/std"
	"github.com/ichaly/ideabase/utl"
)

const configFlag = "config"

var rootCmd = &cobra.Command{
	Use:     "ideabase",
	Short:   "配置驱动的 GraphQL 服务",
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", std.Version, std.GitCommit, std.BuildTime),
}

func init() {
	rootCmd.PersistentFlags().StringP(configFlag, "c", "", "配置文件路径,默认为 cfg/config.yml")
}

// configFile 读取命令行指定的配置文件,未指定时使用项目根目录下的默认位置
func configFile(cmd *cobra.Command) string {
	file, _ := cmd.Flags().GetString(configFlag)
	if file == "" {
		file = filepath.Join(utl.Root(), "cfg", "config.yml")
	}
	return file
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
