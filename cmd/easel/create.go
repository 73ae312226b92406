package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/easel"
)

var createOwner string

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create an empty whiteboard",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openService()
		defer easel.Close(svc)

		ctx := easel.WithChangeReason(context.Background(),
			easel.FormatChangeReason(easel.CommitTypeFeat, "board", "create "+args[0], ""))

		wb, err := svc.Create(ctx, createOwner, args[0])
		if err != nil {
			fatal("Error creating whiteboard", err)
		}
		fmt.Println(wb.ID)
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVar(&createOwner, "owner", "", "Owner of the new whiteboard")
}
