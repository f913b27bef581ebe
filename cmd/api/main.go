package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skillshub",
	Short: "SkillsHub skill exchange API",
	Long: `SkillsHub lets students post skills they teach or want to learn and
message each other about them. Usage:

	skillshub serve
	skillshub migrate up
	skillshub admin bootstrap
	skillshub watch --with <userId>
`,
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
