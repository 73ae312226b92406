package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/easel"
)

var watchCmd = &cobra.Command{
	Use:   "watch [pattern]",
	Short: "Print whiteboard changes as they happen",
	Long:  `Watch reports CREATE, MODIFY and DELETE events for boards whose id matches the glob (default "*"). Only the fs adapter supports watching.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pattern := "*"
		if len(args) == 1 {
			pattern = args[0]
		}

		svc := openService(easel.WithReadOnly(true), easel.WithWatcherErrorHandler(func(err error) {
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		}))
		defer easel.Close(svc)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := svc.Watch(ctx, pattern)
		if err != nil {
			fatal("Error starting watcher", err)
		}
		for e := range events {
			fmt.Println(e)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
