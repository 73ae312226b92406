package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/easel"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a board store",
	Long: `Initialize a new board store in --dir (or the working directory).
For the fs adapter this creates the directory and runs 'git init' unless --no-versioning is set.
For the sqlite adapter it creates easel.db with its schema.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		root := dir
		if root == "" {
			root = "."
		}

		svc, err := easel.New(root, append(baseOptions(), easel.WithAutoInit(true))...)
		if err != nil {
			fatal("Failed to initialize board store", err)
		}
		defer easel.Close(svc)

		fmt.Println("Initialized empty easel store in", root)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
