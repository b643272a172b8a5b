package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/dicomdesk/dicomdesk/pkg/dicom/tag"
	"github.com/dicomdesk/dicomdesk/pkg/explorer"
	"github.com/spf13/cobra"
)

// NewEditCmd applies tag edits to a file and saves the result
func NewEditCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit DICOM tag values",
		Long:  "Proposes one or more tag edits, commits them atomically, and saves the file. Unedited elements are written back byte-for-byte.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, _ := cmd.Flags().GetString("file")
			if filePath == "" && len(args) > 0 {
				filePath = args[0]
			}
			if filePath == "" {
				return fmt.Errorf("file path is required. Use --file flag or provide as argument")
			}
			sets, _ := cmd.Flags().GetStringArray("set")
			nested, _ := cmd.Flags().GetBool("find")
			if len(sets) == 0 {
				return fmt.Errorf("at least one --set GGGG,EEEE=value is required")
			}
			outPath, _ := cmd.Flags().GetString("out")
			if outPath == "" {
				outPath = filePath
			}

			exp := explorer.New()
			f, err := exp.Load(ctx, filePath)
			if err != nil {
				return fmt.Errorf("load error: %w", err)
			}

			for _, s := range sets {
				key, value, ok := strings.Cut(s, "=")
				if !ok {
					return fmt.Errorf("invalid --set %q, expected GGGG,EEEE=value", s)
				}
				t, err := tag.Parse(key)
				if err != nil {
					return err
				}
				if nested {
					f.Session.ProposeNested(t, value)
				} else {
					f.Session.Propose(t, value)
				}
			}

			if err := exp.Commit(f); err != nil {
				f.Session.Discard()
				return fmt.Errorf("edit rejected: %w", err)
			}
			if err := exp.Save(ctx, f, outPath); err != nil {
				return fmt.Errorf("save error: %w", err)
			}
			fmt.Printf("wrote %s\n", outPath)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("file", "f", "", "DICOM file path to edit")
	pf.StringArray("set", nil, "Tag edit as GGGG,EEEE=value (repeatable)")
	pf.Bool("find", false, "Search nested sequence items for tags absent at the top level")
	pf.StringP("out", "o", "", "Output path (default: edit in place)")
	return cmd
}
