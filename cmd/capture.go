package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Take a camera still and record attendance from it",
	Long: `Grab one still frame from the camera snapshot endpoint and submit it.

The camera URL comes from --snapshot-url or CAMERA_SNAPSHOT_URL.

Example:
  face-attendance capture --snapshot-url http://192.168.1.20/snapshot.jpg
  face-attendance capture --out annotated.png`,
	Args: cobra.NoArgs,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().String("snapshot-url", "", "Camera snapshot URL (defaults to CAMERA_SNAPSHOT_URL)")
	captureCmd.Flags().StringP("out", "o", "", "Write the captured image with overlays to this PNG file")
	captureCmd.Flags().Bool("json", false, "Print the attendance log as JSON")
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	url := mustGetString(cmd, "snapshot-url")
	if url == "" {
		url = cfg.Camera.SnapshotURL
	}
	if url == "" {
		return fmt.Errorf("no camera configured: set --snapshot-url or CAMERA_SNAPSHOT_URL")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := attendance.Capture(ctx, attendance.NewSnapshotCamera(url, cfg.API.Timeout), time.Now())
	if err != nil {
		return err
	}
	return runBatch(ctx, []attendance.ImagePayload{payload}, mustGetString(cmd, "out"), mustGetBool(cmd, "json"))
}
