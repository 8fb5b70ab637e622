package cmd

import (
	"github.com/klauspost/compress/flate"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ellraiser/love-zip/pkg/platform"
	"github.com/ellraiser/love-zip/pkg/zipfile"
)

var (
	ignorePatterns []string
	level          int
)

var compressCmd = &cobra.Command{
	Use:   "compress <sourceDir> <out.zip>",
	Short: "Archive a directory tree into a zip file",
	Long: `Walks the source directory and writes a zip archive containing every
	file, directory (including empty ones) and symlink, skipping entries
	matched by the ignore patterns.

	ex:
	love-zip compress saves/slot1 slot1.zip
	love-zip compress saves/slot1 slot1.zip -i "*.tmp" -i thumbs.db`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ignore := ignorePatterns
		if len(ignore) == 0 {
			ignore = viper.GetStringSlice("ignore")
		}
		if !cmd.Flags().Changed("level") && viper.IsSet("level") {
			level = viper.GetInt("level")
		}
		err := zipfile.Compress(afero.NewOsFs(), platform.Native{}, args[0], args[1],
			ignore, zipfile.WithLevel(level))
		if err != nil {
			log.Errorf("error compressing %s, err: %v", args[0], err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compressCmd)
	compressCmd.PersistentFlags().StringSliceVarP(&ignorePatterns, "ignore", "i", []string{}, "glob pattern(s) to skip (matched against names and archive paths)")
	compressCmd.PersistentFlags().IntVarP(&level, "level", "l", flate.DefaultCompression, "DEFLATE compression level (-2..9)")
}
