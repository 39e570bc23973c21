package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/ichaly/ideabase/gql"
	"github.com/ichaly/ideabase/gql/renderer"
	"github.com/ichaly/ideabase/ioc"
)

const outputFlag = "output"

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "生成 GraphQL schema 并输出",
	RunE: func(cmd *cobra.Command, args []string) error {
		var engine *gql.Engine
		app := fx.New(
			ioc.Core(),
			fx.Supply(configFile(cmd)),
			fx.NopLogger,
			fx.Populate(&engine),
		)
		if err := app.Err(); err != nil {
			return fmt.Errorf("初始化失败: %w", err)
		}
		s, err := engine.Build(cmd.Context())
		if err != nil {
			return err
		}
		if out, _ := cmd.Flags().GetString(outputFlag); out != "" {
			return renderer.Save(out, s.SDL)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), s.SDL)
		return err
	},
}

func init() {
	schemaCmd.Flags().StringP(outputFlag, "o", "", "写入文件而不是标准输出")
	rootCmd.AddCommand(schemaCmd)
}
