package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anoixa/mozaiek/config"
)

// rootCmd 不带子命令时直接启动服务
var rootCmd = &cobra.Command{
	Use:     "mozaiek",
	Short:   "Memorial mosaics revealed by visitors' memories",
	Version: config.VersionString(),
	Run: func(cmd *cobra.Command, args []string) {
		serveCmd.Run(cmd, args)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (eg: /etc/mozaiek/.env)")
	if err := viper.BindPFlag("config_file_path", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		log.Fatalf("Failed to bind --config flag: %v", err)
	}
}
