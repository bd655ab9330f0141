package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdf-saas/orchestrator/internal/recovery"
)

var recoverCmd = &cobra.Command{
	Use:   "recover [file]",
	Short: "Run the output recovery parser over raw model output",
	Long:  "Reads raw model output from file, or stdin when no file is given, and prints the persisted form of the recovered document.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		raw, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("reading model output: %w", err)
		}

		out := recovery.Recover(string(raw))
		data, err := out.Result.Encode()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "tier: %s\n", out.Tier)
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}
