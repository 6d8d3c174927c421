package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/gdugdh24/mpit2026-matching/internal/usecase/assessment"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Print the assessment questionnaire as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		version, err := cmd.Flags().GetFloat64("version")
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(assessment.DefaultQuestionnaire(version))
	},
}

func init() {
	rootCmd.AddCommand(questionsCmd)

	questionsCmd.Flags().Float64("version", 1, "questionnaire version to report")
}
