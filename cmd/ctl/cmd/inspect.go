package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dicomdesk/dicomdesk/pkg/dicom"
	"github.com/spf13/cobra"
)

// NewInspectCmd dumps a file's metadata as a tag table
func NewInspectCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect DICOM file metadata",
		Long:  "Parses a DICOM file and prints every element as (tag, name, VR, value) rows, recursing into sequences.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, _ := cmd.Flags().GetString("file")
			if filePath == "" && len(args) > 0 {
				filePath = args[0]
			}
			if filePath == "" {
				return fmt.Errorf("file path is required. Use --file flag or provide as argument")
			}

			var in io.Reader
			if filePath == "-" {
				in = os.Stdin
			} else {
				f, err := os.Open(filePath)
				if err != nil {
					return fmt.Errorf("failed to open file: %v", err)
				}
				defer f.Close()
				in = f
			}

			ds, err := dicom.Parse(in)
			if err != nil {
				return fmt.Errorf("parse error: %w", err)
			}

			syntax := ds.TransferSyntax()
			fmt.Printf("TransferSyntax: %s (%s)\n", syntax, syntax.Name())
			fmt.Printf("Modality: %s\n", dicom.GetModality(ds))
			if date := dicom.GetStudyDate(ds); date != "" {
				fmt.Printf("StudyDate: %s\n", dicom.FormatStudyDate(date))
			}
			fmt.Printf("Elements: %d\n\n", ds.Len())

			for _, row := range dicom.MetadataRows(ds) {
				printRow(row, 0)
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("file", "f", "", "DICOM file path to inspect, or - for stdin")
	return cmd
}

func printRow(row dicom.MetadataRow, indent int) {
	pad := strings.Repeat("  ", indent)
	fmt.Printf("%s%s %-2s %-34s %s\n", pad, row.Tag, row.VR, row.Name, row.Value)
	for _, sub := range row.Items {
		printRow(sub, indent+1)
	}
}
