package cmd

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// VERSION is set during build
	VERSION string
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "love-zip",
	Short: "CLI tool to pack and unpack zip archives of save data and game assets",
	Long: `love-zip builds spec-compliant zip archives from directory trees
	(preserving empty directories, symlinks and executable bits) and extracts
	them again, locally or straight from S3.

	example:

		love-zip compress saves/slot1 slot1.zip -i "*.tmp"
		love-zip extract slot1.zip saves/slot1
		love-zip list s3://myBucket/slot1.zip`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(version string) {
	VERSION = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.love-zip.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if verbose || viper.GetBool("verbose") {
		log.SetLevel(log.DebugLevel)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".love-zip" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".love-zip")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Debugf("using config file: %s", viper.ConfigFileUsed())
	}
}
