package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/container"
	"github.com/gdugdh24/mpit2026-matching/internal/usecase/matching"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank candidates for a user as a given client would see them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		query, err := matchQueryFromFlags(cmd)
		if err != nil {
			return err
		}
		return withContainer(cmd.Context(), func(c *container.Container) error {
			results, err := c.MatchUseCase.FindMatches(cmd.Context(), query)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		})
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
	addMatchFlags(matchCmd)

	_ = matchCmd.MarkFlagRequired("user")
	_ = matchCmd.MarkFlagRequired("client")
}

func addMatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("user", "u", "", "seed user id")
	cmd.Flags().StringP("client", "c", "", "client id whose consent scope applies")
	cmd.Flags().IntP("limit", "n", 0, "number of results (0 uses the service default)")
	cmd.Flags().StringSlice("gender", nil, "allowed candidate genders")
	cmd.Flags().Int("min-age", 0, "minimum candidate age")
	cmd.Flags().Int("max-age", 0, "maximum candidate age")
	cmd.Flags().Float64("max-distance", 0, "maximum distance in km")
	cmd.Flags().StringToString("weight", nil, "axis weights, e.g. values=0.5,interests=0.5")
}

func matchQueryFromFlags(cmd *cobra.Command) (matching.Query, error) {
	flags := cmd.Flags()
	var q matching.Query
	var err error

	if q.SeedUserID, err = flags.GetString("user"); err != nil {
		return q, err
	}
	if q.ClientID, err = flags.GetString("client"); err != nil {
		return q, err
	}
	if q.Limit, err = flags.GetInt("limit"); err != nil {
		return q, err
	}

	genders, err := flags.GetStringSlice("gender")
	if err != nil {
		return q, err
	}
	for _, g := range genders {
		gender := domain.Gender(g)
		if !gender.Valid() {
			return q, fmt.Errorf("unknown gender %q", g)
		}
		q.Genders = append(q.Genders, gender)
	}

	if flags.Changed("min-age") {
		v, _ := flags.GetInt("min-age")
		q.MinAge = &v
	}
	if flags.Changed("max-age") {
		v, _ := flags.GetInt("max-age")
		q.MaxAge = &v
	}
	if flags.Changed("max-distance") {
		v, _ := flags.GetFloat64("max-distance")
		q.MaxDistanceKm = &v
	}

	raw, err := flags.GetStringToString("weight")
	if err != nil {
		return q, err
	}
	if len(raw) > 0 {
		q.Weights = make(map[string]float64, len(raw))
		for axis, s := range raw {
			w, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return q, fmt.Errorf("weight %s: %w", axis, err)
			}
			q.Weights[axis] = w
		}
	}
	return q, nil
}
