package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tankforge/internal/generator"
	"tankforge/internal/llm"
	"tankforge/internal/store"
)

var (
	genSlot    int
	genRetries int
)

// genCmd turns a strategy description into a validated behavior and stores
// it in the given agent slot.
var genCmd = &cobra.Command{
	Use:   "gen [strategy...]",
	Short: "Generate a tank script from a natural-language strategy",
	Long: `Sends the strategy to the inference backend, cleans and validates the
returned script, and on success stores the behavior in the given slot.

Example:
  tankforge gen --slot 0 "circle the nearest enemy at medium range and fire when lined up"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGen,
}

func init() {
	genCmd.Flags().IntVar(&genSlot, "slot", 0, "agent slot to bind the behavior to")
	genCmd.Flags().IntVar(&genRetries, "retries", -1, "max auto-retry attempts (-1: use config)")
}

func runGen(cmd *cobra.Command, args []string) error {
	strategy := strings.Join(args, " ")

	backend := llm.NewBackend(func(modelID string) (llm.Client, error) {
		return llm.NewGeminiClient(cfg.LLM.APIKey, modelID)
	})
	if err := backend.LoadModel(cmd.Context(), cfg.LLM.Model, func(p llm.Progress) {
		logger.Debug("model load progress",
			zap.Float64("percent", p.Percent),
			zap.String("status", p.Status))
	}); err != nil {
		return err
	}

	retries := genRetries
	if retries < 0 {
		retries = cfg.Generation.MaxRetries
	}

	gen := generator.New(backend)
	result := gen.GenerateWithAutoRetry(cmd.Context(), strategy, retries)

	if result.Behavior != nil {
		fmt.Println("--- generated script ---")
		fmt.Println(result.Behavior.Code)
		fmt.Println("------------------------")
	}

	if !result.Success {
		if result.RawText != "" {
			logger.Debug("raw model output", zap.String("raw", result.RawText))
		}
		return fmt.Errorf("%s", result.Error)
	}

	st, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Save(genSlot, result.Behavior); err != nil {
		return err
	}

	fmt.Printf("behavior %s saved to slot %d\n", result.Behavior.ID, genSlot)
	return nil
}
