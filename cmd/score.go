package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/scorer"
)

var (
	scorePlatform     string
	scoreLocation     string
	scoreDemographics string
)

var scoreCmd = &cobra.Command{
	Use:   "score [flags] TEXT",
	Short: "Score a piece of content without storing it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		platform, err := model.ParsePlatform(scorePlatform)
		if err != nil {
			return err
		}
		res := scoreContent(scorer.New(cfg.Scoring), strings.Join(args, " "), platform, scoreLocation, scoreDemographics)
		formatScore(os.Stdout, res)
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scorePlatform, "platform", string(model.PlatformReddit), "platform the content came from (reddit, facebook, linkedin)")
	scoreCmd.Flags().StringVar(&scoreLocation, "location", "", "location hint (default: extracted from the text)")
	scoreCmd.Flags().StringVar(&scoreDemographics, "demographics", "", "demographics hint")
	rootCmd.AddCommand(scoreCmd)
}

type scoreResult struct {
	Score    int
	Tags     []string
	Location string
}

func scoreContent(sc *scorer.Scorer, text string, platform model.Platform, location, demographics string) scoreResult {
	if location == "" {
		location = sc.ExtractLocation(text)
	}
	score, tags := sc.Score(text, platform, location, demographics)
	return scoreResult{Score: score, Tags: tags, Location: location}
}

func formatScore(out io.Writer, r scoreResult) {
	tags := "-"
	if len(r.Tags) > 0 {
		tags = strings.Join(r.Tags, ", ")
	}
	_, _ = fmt.Fprintf(out, "Score:    %d\n", r.Score)
	_, _ = fmt.Fprintf(out, "Location: %s\n", r.Location)
	_, _ = fmt.Fprintf(out, "Tags:     %s\n", tags)
}
