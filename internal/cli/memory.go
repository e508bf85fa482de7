package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mend/internal/bugmemory"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and update the bug memory log",
}

var memoryAddCmd = &cobra.Command{
	Use:   "add [file] [line] [message]",
	Short: "Record an observed failure",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid line number %q: %w", args[1], err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mem, err := openMemory(cfg)
		if err != nil {
			return err
		}

		r := bugmemory.Record{File: args[0], Line: line, Message: args[2]}
		if err := mem.Append(r); err != nil {
			return err
		}

		fp := bugmemory.Fingerprint(args[0], line, args[2])
		fmt.Fprintf(cmd.OutOrStdout(), "recorded %s\n", fp[:12])
		return nil
	},
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded failures",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mem, err := openMemory(cfg)
		if err != nil {
			return err
		}

		records, err := mem.All()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		n := 0
		for _, r := range records {
			if file != "" && r.File != file {
				continue
			}
			n++
			fmt.Fprintf(w, "%s  %s:%d  %s\n", r.Timestamp.Format("2006-01-02 15:04"), r.File, r.Line, r.Message)
		}
		if n == 0 {
			fmt.Fprintln(w, "no records")
		}
		return nil
	},
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Failure counts per file, most frequent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mem, err := openMemory(cfg)
		if err != nil {
			return err
		}

		stats, err := mem.StatsByFile()
		if err != nil {
			return err
		}
		files, err := mem.FilesByFrequency()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(files) == 0 {
			fmt.Fprintln(w, "no records")
			return nil
		}
		for _, f := range files {
			fmt.Fprintf(w, "%4d  %s\n", stats[f], f)
		}
		return nil
	},
}

func init() {
	memoryListCmd.Flags().String("file", "", "only show failures for this file")

	memoryCmd.AddCommand(memoryAddCmd)
	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memoryStatsCmd)
}
