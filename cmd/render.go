package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/overlay"
)

var renderCmd = &cobra.Command{
	Use:   "render <image>",
	Short: "Draw bounding boxes on an image without contacting the backend",
	Long: `Render labeled bounding boxes on an image and write the result as PNG.

The boxes file holds a JSON array of boxes with normalized coordinates:
  [{"left":0.1,"top":0.2,"width":0.3,"height":0.4,"name":"Jane Doe","confidence":"0.98"}]

Example:
  face-attendance render class.jpg --boxes boxes.json --out class.png`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().String("boxes", "", "JSON file with the boxes to draw")
	renderCmd.Flags().StringP("out", "o", constants.DefaultRenderName, "Output PNG file")
}

func runRender(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read image: %w", err)
	}

	var boxes []overlay.Box
	if path := mustGetString(cmd, "boxes"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("cannot read boxes: %w", err)
		}
		if err := json.Unmarshal(raw, &boxes); err != nil {
			return fmt.Errorf("invalid boxes file: %w", err)
		}
	}

	png, err := overlay.RenderImage(data, boxes)
	if err != nil {
		return err
	}
	out := mustGetString(cmd, "out")
	if err := os.WriteFile(out, png, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Printf("Rendered %d box(es) to %s\n", len(boxes), out)
	return nil
}
