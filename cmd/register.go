package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/gateway"
)

var registerCmd = &cobra.Command{
	Use:   "register <image>",
	Short: "Register a student with a reference photo",
	Long: `Upload a reference photo to the student bucket as {first}_{last}.jpeg and
create the student record that points at it.

Example:
  face-attendance register --first Jane --last Doe --email jane@example.com jane.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().String("first", "", "Student first name")
	registerCmd.Flags().String("last", "", "Student last name")
	registerCmd.Flags().String("email", "", "Student email address")
	_ = registerCmd.MarkFlagRequired("first")
	_ = registerCmd.MarkFlagRequired("last")
	_ = registerCmd.MarkFlagRequired("email")
}

func runRegister(cmd *cobra.Command, args []string) error {
	student := gateway.Student{
		FirstName: mustGetString(cmd, "first"),
		LastName:  mustGetString(cmd, "last"),
		Email:     mustGetString(cmd, "email"),
	}
	if err := student.Validate(); err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("cannot open image: %w", err)
	}
	defer f.Close()
	payload, err := attendance.ReadImage(args[0], f)
	if err != nil {
		return err
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

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := client.RegisterStudent(ctx, student, payload.Data)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Printf("Registered %s %s as %s\n", student.FirstName, student.LastName, student.FileName())
	if result.Message != "" {
		fmt.Printf("  Backend: %s\n", result.Message)
	}
	return nil
}
