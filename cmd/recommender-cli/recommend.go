package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/smarttravel/recommender/internal/recommend"
	"github.com/smarttravel/recommender/pkg/client"
)

func newRecommendCmd() *cobra.Command {
	var (
		limit  int
		server string
	)

	cmd := &cobra.Command{
		Use:   "recommend <message...>",
		Short: "Recommend restaurants for a free-text message",
		Example: `  recommender-cli recommend "tìm quán phở giá rẻ"
  recommender-cli recommend --limit 3 --json com tam quan 1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			if limit == 0 {
				limit = cfg.Recommend.DefaultLimit
			}
			message := strings.Join(args, " ")

			var resp *recommend.Response
			if server != "" {
				remote, err := client.New(client.Config{BaseURL: server}).Recommend(ctx, client.RecommendRequest{
					Message: message,
					Limit:   limit,
				})
				if err != nil {
					return err
				}
				resp = fromRemote(remote)
			} else {
				a, release, err := openApp(ctx)
				if err != nil {
					return err
				}
				defer release()
				resp = a.Engine.Recommend(ctx, message, limit)
			}

			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			printRecommendation(resp)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of restaurants (1-12, default from config)")
	cmd.Flags().StringVar(&server, "server", "", "query a running API at this base URL instead of the local store")
	return cmd
}

func fromRemote(remote *client.RecommendResponse) *recommend.Response {
	resp := &recommend.Response{
		Reply:           remote.Reply,
		NormalizedQuery: remote.NormalizedQuery,
		Restaurants:     make([]recommend.ResultItem, 0, len(remote.Restaurants)),
	}
	for _, r := range remote.Restaurants {
		resp.Restaurants = append(resp.Restaurants, recommend.ResultItem(r))
	}
	return resp
}

func printRecommendation(resp *recommend.Response) {
	ui.KeyValue("Query", resp.NormalizedQuery)
	if len(resp.Restaurants) == 0 {
		ui.Warning("%s", resp.Reply)
		return
	}

	ui.Section(fmt.Sprintf("%d restaurants", len(resp.Restaurants)))
	bold := color.New(color.Bold)
	for i, r := range resp.Restaurants {
		ui.Println(fmt.Sprintf("%2d. %s  %s  %s",
			i+1,
			bold.Sprint(r.Name),
			color.YellowString("%.1f⭐ (%d)", r.Rating, r.ReviewCount),
			color.GreenString(strings.Repeat("$", r.PriceLevel)),
		))
		if r.Cuisine != "" {
			ui.Println("    " + r.Cuisine)
		}
		if r.Address != "" {
			ui.Println("    " + color.HiBlackString(r.Address))
		}
		if r.GoogleMapsURL != "" {
			ui.Println("    " + color.CyanString(r.GoogleMapsURL))
		}
	}
	ui.Println("")
	ui.Info("%s", recommend.FollowUpPrompt)
}
