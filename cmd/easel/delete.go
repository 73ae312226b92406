package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/easel"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a whiteboard",
	Long:  `Delete permanently removes a whiteboard and, when versioned, commits the removal.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openService()
		defer easel.Close(svc)

		ctx := easel.WithChangeReason(context.Background(),
			easel.FormatChangeReason(easel.CommitTypeChore, "board", "delete "+args[0], ""))

		if err := svc.Delete(ctx, args[0]); err != nil {
			fatal("Error deleting whiteboard", err)
		}
		fmt.Printf("Whiteboard deleted: %s\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
