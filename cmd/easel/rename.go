package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/easel"
)

var renameCmd = &cobra.Command{
	Use:   "rename [id] [title]",
	Short: "Change the title of a whiteboard",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openService()
		defer easel.Close(svc)

		ctx := easel.WithChangeReason(context.Background(),
			easel.FormatChangeReason(easel.CommitTypeFeat, "board", fmt.Sprintf("rename %s to %s", args[0], args[1]), ""))

		if err := svc.Rename(ctx, args[0], args[1]); err != nil {
			fatal("Error renaming whiteboard", err)
		}
		fmt.Printf("Whiteboard renamed: %s\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
