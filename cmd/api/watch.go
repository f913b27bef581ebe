package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/PaulBabatuyi/skillshub/internal/client"
	"github.com/PaulBabatuyi/skillshub/internal/data"

	"github.com/spf13/cobra"
)

var watchOpts struct {
	api      string
	email    string
	password string
	with     string
	interval time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a conversation, printing new messages as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchOpts.email == "" || watchOpts.password == "" || watchOpts.with == "" {
			return errors.New("--email, --password and --with are required")
		}
		ctx := cmd.Context()

		c := client.New(watchOpts.api)
		me, err := c.Login(ctx, watchOpts.email, watchOpts.password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}

		out := cmd.OutOrStdout()
		p := client.NewPoller(c, watchOpts.with, watchOpts.interval, func(msgs []*data.Message) {
			for _, m := range msgs {
				fmt.Fprintln(out, formatMessage(me.ID.Hex(), m))
			}
		})
		p.OnError = func(err error) {
			fmt.Fprintf(os.Stderr, "poll: %v\n", err)
		}

		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	f := watchCmd.Flags()
	f.StringVar(&watchOpts.api, "api", "http://localhost:5000", "API base URL")
	f.StringVar(&watchOpts.email, "email", os.Getenv("SKILLSHUB_EMAIL"), "account email")
	f.StringVar(&watchOpts.password, "password", os.Getenv("SKILLSHUB_PASSWORD"), "account password")
	f.StringVar(&watchOpts.with, "with", "", "id of the other participant")
	f.DurationVar(&watchOpts.interval, "interval", client.DefaultPollInterval, "poll interval")
}

func formatMessage(selfID string, m *data.Message) string {
	who := "?"
	if m.Sender != nil {
		who = m.Sender.Name
		if m.Sender.ID.Hex() == selfID {
			who = "me"
		}
	}
	line := fmt.Sprintf("[%s] %s: %s", m.CreatedAt.Local().Format("15:04:05"), who, m.Content)
	if m.RelatedSkill != nil {
		line += fmt.Sprintf(" (re: %s)", m.RelatedSkill.Title)
	}
	return line
}
