package cmd

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/dicomdesk/dicomdesk/pkg/explorer"
	"github.com/spf13/cobra"
)

// NewThumbnailCmd renders a preview raster to a PNG on disk
func NewThumbnailCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thumbnail",
		Short: "Render a DICOM thumbnail to PNG or JPEG",
		Long:  "Decodes a file's pixel data, applies windowing, and writes an aspect-preserving preview image. The output format follows the --out extension, PNG by default.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, _ := cmd.Flags().GetString("file")
			if filePath == "" && len(args) > 0 {
				filePath = args[0]
			}
			if filePath == "" {
				return fmt.Errorf("file path is required. Use --file flag or provide as argument")
			}
			outPath, _ := cmd.Flags().GetString("out")
			size, _ := cmd.Flags().GetInt("size")

			exp := explorer.New()
			f, err := exp.Load(ctx, filePath)
			if err != nil {
				return fmt.Errorf("load error: %w", err)
			}

			img, err := exp.Thumbnail(ctx, f, image.Point{X: size, Y: size})
			if err != nil {
				return fmt.Errorf("thumbnail unavailable: %w", err)
			}

			if outPath == "" {
				outPath = filePath + ".png"
			}
			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create output: %v", err)
			}
			defer out.Close()
			switch strings.ToLower(filepath.Ext(outPath)) {
			case ".jpg", ".jpeg":
				err = jpeg.Encode(out, img, nil)
			default:
				err = png.Encode(out, img)
			}
			if err != nil {
				return fmt.Errorf("encode %s: %w", outPath, err)
			}

			b := img.Bounds()
			fmt.Printf("wrote %dx%d thumbnail to %s\n", b.Dx(), b.Dy(), outPath)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("file", "f", "", "DICOM file path")
	pf.StringP("out", "o", "", "Output image path, .png or .jpg (default: <file>.png)")
	pf.Int("size", 256, "Maximum thumbnail dimension in pixels")
	return cmd
}
