package cmd

import (
	"context"
	"fmt"
	"runtime"

	"github.com/dicomdesk/dicomdesk/pkg/dicom"
	"github.com/dicomdesk/dicomdesk/pkg/explorer"
	"github.com/spf13/cobra"
)

// NewStudiesCmd loads a batch of files and prints the study gallery view
func NewStudiesCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "studies",
		Short: "Group DICOM files by study",
		Long:  "Loads the given files on a worker pool and lists them grouped by StudyInstanceUID, ordered the way the gallery shows them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("at least one file path is required")
			}
			workers, _ := cmd.Flags().GetInt("workers")
			if workers <= 0 {
				workers = runtime.NumCPU()
			}

			exp := explorer.New()
			for _, res := range exp.LoadBatch(ctx, args, workers) {
				if res.Err != nil {
					fmt.Printf("skipped %s: %v\n", res.Path, res.Err)
				}
			}

			for _, uid := range exp.Index.Studies() {
				fmt.Printf("study %s\n", uid)
				for _, f := range exp.Index.Files(uid) {
					ds := f.DataSet
					fmt.Printf("  %-8s series=%s instance=%s %s\n",
						dicom.GetModality(ds),
						dicom.GetSeriesInstanceUID(ds),
						instanceLabel(ds),
						f.Path)
				}
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.IntP("workers", "w", 0, "Worker pool size (default: number of CPUs)")
	return cmd
}

func instanceLabel(ds *dicom.DataSet) string {
	if n, ok := dicom.GetInstanceNumber(ds); ok {
		return fmt.Sprintf("%d", n)
	}
	return "-"
}
