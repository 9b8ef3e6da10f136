package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "webpify",
	Short: "webpify - batch-convert images to WebP with thumbnails",
	Long:  "webpify converts a folder of images to space-efficient WebP plus a thumbnail per image, many files at a time, and reports the compression achieved.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}
