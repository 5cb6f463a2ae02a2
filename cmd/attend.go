package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
)

var attendCmd = &cobra.Command{
	Use:   "attend [image-or-folder...]",
	Short: "Record attendance from one or more photos",
	Long: `Upload photos to the attendance bucket and ask the backend who is in them.

Folders contribute the image files they contain; use -r to search
subdirectories too. Images are processed one after another. Every recognized student gets a log
line with the recognition confidence; images without a match are reported
as failed. With --out the last processed image is written as PNG with the
recognized faces outlined.
Supported formats: jpg, jpeg, png, gif, bmp, webp

Example:
  face-attendance attend class.jpg
  face-attendance attend a.jpg b.png --out annotated.png
  face-attendance attend -r /path/to/lecture
  face-attendance attend a.jpg --json`,
	Args: cobra.ArbitraryArgs,
	RunE: runAttend,
}

func init() {
	rootCmd.AddCommand(attendCmd)
	attendCmd.Flags().StringP("out", "o", "", "Write the last processed image with overlays to this PNG file")
	attendCmd.Flags().Bool("json", false, "Print the attendance log as JSON")
	attendCmd.Flags().BoolP("recursive", "r", false, "Search folders recursively")
}

func runAttend(cmd *cobra.Command, args []string) error {
	files, err := attendance.CollectImages(args, mustGetBool(cmd, "recursive"))
	if err != nil {
		return err
	}
	payloads, err := attendance.LoadFiles(files)
	if err != nil {
		return err
	}
	return runBatch(cmd.Context(), payloads, mustGetString(cmd, "out"), mustGetBool(cmd, "json"))
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// runBatch stages payloads, submits them and prints the resulting log.
func runBatch(ctx context.Context, payloads []attendance.ImagePayload, out string, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, err := newGatewayClient(cfg, logger)
	if err != nil {
		return err
	}

	var opts []attendance.Option
	var bar *progressbar.ProgressBar
	if len(payloads) > 0 && !asJSON {
		bar = newProgressBar(len(payloads), "Recognizing")
		opts = append(opts, attendance.WithProgress(func(done, _ int) {
			_ = bar.Set(done)
		}))
	}
	wf := newWorkflow(cfg, client, client, logger, opts...)

	if err := wf.Stage(payloads); err != nil && !errors.Is(err, attendance.ErrNoInput) {
		return err
	}

	entries, err := wf.Submit(ctx)
	if err != nil {
		return fmt.Errorf("submit failed: %w", err)
	}
	if bar != nil {
		fmt.Fprintln(os.Stderr)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(wf.Snapshot()); err != nil {
			return err
		}
	} else {
		printEntries(entries)
	}

	if out == "" {
		return nil
	}
	data, err := wf.RenderDisplayed()
	if errors.Is(err, attendance.ErrNoInput) {
		logger.Info("nothing to render", zap.String("out", out))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to render overlay: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	if !asJSON {
		fmt.Printf("\nAnnotated image written to %s\n", out)
	}
	return nil
}

func printEntries(entries []attendance.LogEntry) {
	recognized := 0
	for _, e := range entries {
		mark := "✗"
		if e.Success {
			mark = "✓"
			recognized++
		}
		if e.Image != "" {
			fmt.Printf("%s [%s] %s\n", mark, e.Image, e.Message)
			continue
		}
		fmt.Printf("%s %s\n", mark, e.Message)
	}
	fmt.Printf("\nDone! %d student(s) recorded\n", recognized)
}
