package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tankforge/internal/script"
)

// validateCmd runs the admission pipeline over a script file and reports
// the outcome without touching any slot.
var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Run the admission pipeline over a script file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		v := script.NewValidator()
		result := v.Validate(string(raw))

		fmt.Println("--- cleaned script ---")
		fmt.Println(v.CleanedCode())
		fmt.Println("----------------------")

		for _, w := range result.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
		if !result.Valid {
			for _, e := range result.Errors {
				fmt.Printf("error: %s\n", e)
			}
			return fmt.Errorf("script rejected (%d error(s))", len(result.Errors))
		}

		fmt.Println("script accepted")
		return nil
	},
}
