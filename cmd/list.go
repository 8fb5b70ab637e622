package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ellraiser/love-zip/pkg/zip"
	"github.com/ellraiser/love-zip/pkg/zipfile"
)

var listCmd = &cobra.Command{
	Use:   "list <archive|s3://bucket/key>",
	Short: "List the entries of a zip archive",
	Long: `Prints size, compression method, modification time and name for every
	entry in the archive's central directory. For S3 archives only the
	directory records are downloaded, not the payloads.

	ex:
	love-zip list slot1.zip
	love-zip list s3://myBucket/slot1.zip`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var records []*zip.CentralRecord
		if bucket, key, ok := zipfile.ParseS3URL(args[0]); ok {
			remote := zipfile.NewRemoteArchive(bucket, key)
			var err error
			records, err = remote.List(cmd.Context())
			if err != nil {
				log.Errorf("error listing archive %s, err: %v", args[0], err)
				return err
			}
		} else {
			data, err := afero.ReadFile(afero.NewOsFs(), args[0])
			if err != nil {
				log.Errorf("error reading archive %s, err: %v", args[0], err)
				return err
			}
			_, records, err = zip.ReadDirectory(data)
			if err != nil {
				log.Errorf("error parsing archive %s, err: %v", args[0], err)
				return err
			}
		}
		fmt.Printf("%10s  %-8s  %-16s  %s\n", "size", "method", "modified", "name")
		for _, rec := range records {
			method := "store"
			if rec.Method == zip.Deflate {
				method = "deflate"
			}
			modified := zip.DosTime(rec.DosDate, rec.DosTime).Format("2006-01-02 15:04")
			fmt.Printf("%10d  %-8s  %-16s  %s\n", rec.UncompressedSize, method, modified, rec.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
