package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/gateway"
	"github.com/kozaktomas/face-attendance/internal/logging"
)

var captureDir string

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "A CLI client for the facial-recognition attendance system",
	Long: `Face Attendance is a client for a cloud facial-recognition attendance
backend. It uploads classroom photos or camera stills, asks the backend who
is in them, and shows the recognized students with their bounding boxes.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save API responses for testing")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// newGatewayClient connects to the API gateway. The --capture flag wins over
// ATTENDANCE_CAPTURE_DIR.
func newGatewayClient(cfg *config.Config, logger *zap.Logger) (*gateway.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dir := cfg.API.CaptureDir
	if captureDir != "" {
		dir = captureDir
	}
	client, err := gateway.New(cfg.API.URL,
		gateway.WithTimeout(cfg.API.Timeout),
		gateway.WithLogger(logger),
		gateway.WithBuckets(cfg.API.AttendanceBucket, cfg.API.StudentBucket),
		gateway.WithRoutes(cfg.API.RecognizePath, cfg.API.RegisterPath),
		gateway.WithCaptureDir(dir),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway client: %w", err)
	}
	return client, nil
}

// newWorkflow builds the attendance workflow with the configured per-call
// timeout, so ATTENDANCE_HTTP_TIMEOUT bounds uploads and queries alike.
func newWorkflow(cfg *config.Config, u attendance.Uploader, r attendance.Recognizer, logger *zap.Logger, opts ...attendance.Option) *attendance.Workflow {
	base := []attendance.Option{
		attendance.WithLogger(logger),
		attendance.WithCallTimeout(cfg.API.Timeout),
	}
	return attendance.NewWorkflow(u, r, append(base, opts...)...)
}
