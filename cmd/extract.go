package cmd

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ellraiser/love-zip/pkg/platform"
	"github.com/ellraiser/love-zip/pkg/zipfile"
)

var (
	remapPairs []string
	filters    []string
)

var extractCmd = &cobra.Command{
	Use:   "extract <archive|s3://bucket/key> <outputDir>",
	Short: "Extract a zip archive into a directory",
	Long: `Extracts every entry of the archive into the output directory,
	recreating directories, symlinks and executable bits. The archive may
	live on disk or in S3.

	ex:
	love-zip extract slot1.zip saves/slot1
	love-zip extract slot1.zip saves/slot1 -r old/path=new/path
	love-zip extract s3://myBucket/slot1.zip saves/slot1 -f config.lua`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		remaps, err := parseRemaps(remapPairs)
		if err != nil {
			return err
		}
		opts := []zipfile.ExtractorOption{zipfile.WithFilters(filters)}

		fs := afero.NewOsFs()
		osys := platform.Native{}
		var report *zipfile.Report
		if bucket, key, ok := zipfile.ParseS3URL(args[0]); ok {
			remote := zipfile.NewRemoteArchive(bucket, key)
			data, err := remote.Fetch(cmd.Context())
			if err != nil {
				log.Errorf("error fetching archive %s, err: %v", args[0], err)
				return err
			}
			opts = append(opts, zipfile.WithRemaps(remaps))
			report, err = zipfile.NewExtractor(fs, osys, opts...).Extract(data, args[1])
			if err != nil {
				log.Errorf("error extracting archive %s, err: %v", args[0], err)
				return err
			}
		} else {
			report, err = zipfile.Decompress(fs, osys, args[0], args[1], remaps, opts...)
			if err != nil {
				log.Errorf("error extracting archive %s, err: %v", args[0], err)
				return err
			}
		}
		fmt.Printf("extracted %d entries\n", report.Extracted)
		for _, warning := range report.Warnings {
			fmt.Printf("warning: %s\n", warning)
		}
		return nil
	},
}

func parseRemaps(pairs []string) ([]zipfile.Remap, error) {
	var remaps []zipfile.Remap
	for _, pair := range pairs {
		from, to, ok := strings.Cut(pair, "=")
		if !ok || from == "" {
			return nil, fmt.Errorf("invalid remap %q, expected from=to", pair)
		}
		remaps = append(remaps, zipfile.Remap{From: from, To: to})
	}
	return remaps, nil
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.PersistentFlags().StringSliceVarP(&remapPairs, "remap", "r", []string{}, "path remap pair(s), applied in order (from=to)")
	extractCmd.PersistentFlags().StringSliceVarP(&filters, "filter", "f", []string{}, "only extract entries whose path contains one of these terms")
}
