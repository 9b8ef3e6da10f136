package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"webpify/internal/codec"
	"webpify/internal/config"
	"webpify/internal/convert"
	"webpify/internal/report"
	"webpify/internal/tui"
)

var convertConfigPath string

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert every image in the input folder to WebP plus a thumbnail",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(convertConfigPath)
		if err != nil {
			return err
		}

		log, err := report.NewLogger(cfg.LogFile)
		if err != nil {
			return err
		}
		defer log.Close()

		// Destination directories are ensured once, before any task runs.
		if err := os.MkdirAll(cfg.OutputMainFolder, 0o755); err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.OutputThumbFolder, 0o755); err != nil {
			return err
		}

		files, err := convert.ListSources(cfg.InputFolder)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			log.Info("No images found in %s", cfg.InputFolder)
			fmt.Fprintln(os.Stdout, "No images found. Exiting.")
			return nil
		}

		log.Info("Starting conversion of %d files", len(files))
		log.Info("Input: %s", cfg.InputFolder)
		log.Info("Output WebP: %s", cfg.OutputMainFolder)
		log.Info("Output Thumbs: %s", cfg.OutputThumbFolder)

		updates := make(chan convert.ProgressUpdate, 64)
		uiUpdates := make(chan convert.ProgressUpdate, 64)
		model := tui.NewModel(len(files), uiUpdates)
		program := tea.NewProgram(model)

		uiDone := make(chan struct{})
		go func() {
			_, _ = program.Run()
			close(uiDone)
		}()

		// Relay outcomes to the log file on their way to the renderer.
		relayDone := make(chan struct{})
		go func() {
			defer close(relayDone)
			defer close(uiUpdates)
			for u := range updates {
				if u.Line != "" {
					if u.FailedDelta > 0 {
						log.Warn("%s", u.Line)
					} else {
						log.Info("%s", u.Line)
					}
				}
				uiUpdates <- u
			}
		}()

		rep, runErr := convert.Run(context.Background(), cfg, codec.New(), files, updates)

		close(updates)
		<-relayDone
		<-uiDone
		if runErr != nil {
			return runErr
		}

		fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.RunRows(rep)))
		for _, row := range tui.RunRows(rep) {
			log.Info("%s: %s", row.Label, row.Value)
		}

		if len(rep.Failures) > 0 {
			if err := convert.WriteFailureList(cfg.FailedListFile, rep.Failures); err != nil {
				log.Error("Failed to write failure list: %v", err)
			} else {
				log.Info("Failed files list saved to: %s", cfg.FailedListFile)
				fmt.Fprintf(os.Stdout, "Failed files list saved to: %s\n", cfg.FailedListFile)
			}
		}

		// Per-file failures are reported in the summary, never through the
		// exit status; only configuration and setup errors are fatal.
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVarP(&convertConfigPath, "config", "c", "", "path to settings file (default settings.json)")

	rootCmd.AddCommand(convertCmd)
}
