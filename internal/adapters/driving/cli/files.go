package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	filesIndexed bool
	filesPending bool
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List tracked files",
	Long: `Lists the files recorded by ingestion, newest first. A file is indexed
once every chunk of it has been stored; pending files are retried on the next
ingest.`,
	Args: cobra.NoArgs,
	RunE: runFiles,
}

func init() {
	filesCmd.Flags().BoolVar(&filesIndexed, "indexed", false, "only indexed files")
	filesCmd.Flags().BoolVar(&filesPending, "pending", false, "only files not yet indexed")
	filesCmd.MarkFlagsMutuallyExclusive("indexed", "pending")
	rootCmd.AddCommand(filesCmd)
}

func runFiles(cmd *cobra.Command, _ []string) error {
	if fileService == nil {
		return notConfigured("file")
	}

	var filter *bool
	switch {
	case filesIndexed:
		v := true
		filter = &v
	case filesPending:
		v := false
		filter = &v
	}

	files, err := fileService.List(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}
	if len(files) == 0 {
		cmd.Println("No files.")
		return nil
	}

	for _, f := range files {
		state := "pending"
		if f.Indexed {
			state = "indexed"
		}
		cmd.Printf("%-8s %s  %s  %s\n", state, f.IngestedAt.Local().Format("2006-01-02 15:04"), shortHash(f.Hash), f.Path)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
