package main

import (
	"comfort-exporter/internal/exporter"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/syncromatics/go-kit/v2/log"
)

var (
	rootCmd = cobra.Command{
		Use:           "comfort-exporter",
		Short:         "evaluate thermal comfort of the configured conditions and host a metrics server",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, args []string) error {
			configFile := viper.GetString("config")
			if configFile != "" {
				viper.SetConfigFile(configFile)
				err := viper.ReadInConfig()
				if err != nil {
					return errors.Wrapf(err, "failed to read config file %s", configFile)
				}
			}

			settings := &exporter.Settings{}
			err := viper.Unmarshal(settings)
			if err != nil {
				return errors.Wrap(err, "failed to parse settings")
			}
			log.Info("using settings",
				"settings", settings)

			return exporter.Execute(settings)
		},
	}
)

func init() {
	exporter.ConfigureFlags(rootCmd.Flags())
	rootCmd.Flags().String("config", "", "Path to a YAML, TOML or JSON file of settings")

	viper.SetEnvPrefix("COMFORT")
	replacer := strings.NewReplacer("-", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()
	viper.BindPFlags(rootCmd.Flags())

	rootCmd.AddCommand(newEvaluateCommand(), newBatchCommand())
}

func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Warn("failed to load .env file",
			"err", err)
	}

	err = rootCmd.Execute()
	if err != nil {
		log.Fatal("failed to terminate cleanly",
			"err", err)
	}
}
