package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/easel"
)

var (
	listJSON  bool
	listOwner string
)

type listItem struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner,omitempty"`
	Title        string    `json:"title"`
	LastModified time.Time `json:"lastModified"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List whiteboards, most recently modified first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc := openService()
		defer easel.Close(svc)

		boards, err := svc.List(context.Background(), listOwner)
		if err != nil {
			fatal("Error listing whiteboards", err)
		}

		items := make([]listItem, 0, len(boards))
		for _, wb := range boards {
			items = append(items, listItem{ID: wb.ID, Owner: wb.Owner, Title: wb.Title, LastModified: wb.UpdatedAt})
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(items); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, it := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", it.ID, it.Title, it.LastModified.Local().Format(time.DateTime))
		}
		tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listOwner, "owner", "", "Only list boards of this owner")
}
