package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/easel"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export the elements of a whiteboard",
	Long: `Export writes the element array of a whiteboard as JSON or YAML.
With --out pointing to a directory, the file is named after the whiteboard title.
With --out -, the data is written to stdout.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openService()
		defer easel.Close(svc)

		data, filename, err := easel.Export(context.Background(), svc, args[0], exportFormat)
		if err != nil {
			fatal("Error exporting whiteboard", err)
		}

		if exportOut == "-" {
			os.Stdout.Write(data)
			return
		}

		target := exportOut
		if target == "" {
			target = "."
		}
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			target = filepath.Join(target, filename)
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			fatal("Error writing export", err)
		}
		fmt.Println(target)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "as", "json", "Export format: json or yaml")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file or directory (- for stdout)")
}
