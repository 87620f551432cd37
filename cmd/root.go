package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopadmin-cli/shopadmin/internal/utils"
	"github.com/shopadmin-cli/shopadmin/pkg/apierr"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `      _                           _           _
  ___| |__   ___  _ __   __ _  __| |_ __ ___ (_)_ __
 / __| '_ \ / _ \| '_ \ / _' |/ _' | '_ ' _ \| | '_ \
 \__ \ | | | (_) | |_) | (_| | (_| | | | | | | | | | |
 |___/_| |_|\___/| .__/ \__,_|\__,_|_| |_| |_|_|_| |_|
                 |_|
`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shopadmin",
	Short: "Administration tool for Shopify stores.",
	Long: LOGO + `
shopadmin inspects and cleans up Shopify stores from your command line: list
products, catalogs and customers, and reclaim metafields that have no definition.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelString, _ := cmd.Flags().GetString("loglevel")
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			levelString = "debug"
		}
		return utils.SetLogLevel(levelString)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(reportError(err))
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.shopadmin.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("shop", "s", "", "Name of the configured shop to use")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print raw GraphQL requests and responses")
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A local .env may carry SHOPADMIN_* overrides.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		utils.Log.Warnf("Could not load .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".shopadmin")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SHOPADMIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("api_version", "")
	viper.SetDefault("default_shop", "")
	viper.SetDefault("shops", []interface{}{})
	viper.SetDefault("http.rate_limit", 2.0)
	viper.SetDefault("http.retry_max", 3)
	viper.SetDefault("journal.path", "")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.shopadmin.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				utils.Log.Debugf("Could not create config file: %v", err)
			}
		} else {
			utils.Log.Warnf("Could not read config file: %v", err)
		}
	}
}

// reportError prints a classified error and returns the exit code.
// Authentication and rate limit failures get a diagnosis and a suggestion;
// the raw detail is only shown at debug level.
func reportError(err error) int {
	info := apierr.ClassifyError(err, currentShopName)
	switch info.Kind {
	case apierr.Authentication, apierr.RateLimit:
		utils.Log.Error(info.Message)
		if info.Suggestion != "" {
			utils.Log.Info(info.Suggestion)
		}
		if info.Detail != "" {
			utils.Log.Debugf("Details: %s", info.Detail)
		}
	default:
		utils.Log.Error(err)
	}
	return 1
}
