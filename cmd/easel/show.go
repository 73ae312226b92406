package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/pkg/codec"
	"github.com/aretw0/easel/pkg/core"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print the elements of a whiteboard",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openService()
		defer easel.Close(svc)

		wb, err := svc.Get(context.Background(), args[0])
		if errors.Is(err, core.ErrMalformed) {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		} else if err != nil {
			fatal("Error reading whiteboard", err)
		}

		if showJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(codec.FromWhiteboard(wb)); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		fmt.Printf("%s (%d elements)\n", wb.Title, wb.Snapshot.Len())
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		wb.Snapshot.Range(func(i int, e core.Element) bool {
			b := e.Bounds()
			fmt.Fprintf(tw, "%d\t%s\t%s\t(%.0f,%.0f)-(%.0f,%.0f)\t%s\t%s\n",
				i, e.ID, e.Kind, b.Min.X, b.Min.Y, b.Max.X, b.Max.Y, e.Color, e.Content)
			return true
		})
		tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output the stored document as JSON")
}
