package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DevN0mad/cbremote/internal/services"
)

func (a *app) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Measure the throughput of the main remote API queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(ctx context.Context, sess *services.Session) error {
				p := services.NewProfiler(sess, a.out, a.logger)
				fmt.Fprintf(a.out, "Profiling run %s\n", p.RunID())
				_, err := p.Run(ctx)
				return err
			})
		},
	}
}
