package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/ichaly/ideabase/ioc"
)

var startCmd = &cobra.Command{
	Use:     "start",
	Aliases: []string{"run", "s", "r"},
	Short:   "启动 GraphQL 服务",
	Run: func(cmd *cobra.Command, args []string) {
		fx.New(
			ioc.Get(),
			fx.Supply(configFile(cmd)),
		).Run()
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
