package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/DevN0mad/cbremote/internal/services"
)

func (a *app) itemCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "item",
		Short: "Tracker item operations",
	}
	c.AddCommand(a.itemCreateCmd(), a.itemAttachCmd())
	return c
}

func (a *app) itemCreateCmd() *cobra.Command {
	var tracker, summary, description string

	c := &cobra.Command{
		Use:   "create PROJECT",
		Short: "Create a tracker item with a wiki formatted description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, sess *services.Session) error {
				item, err := sess.CreateTrackerItemInProject(ctx, args[0], tracker, summary, description)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Created tracker item %d %q\n", item.ID, item.Name)
				return nil
			})
		},
	}

	f := c.Flags()
	f.StringVar(&tracker, "tracker", "Bug", "tracker name")
	f.StringVar(&summary, "summary", "Hello World", "item summary")
	f.StringVar(&description, "description", "this is my wiki __BOLD__ description", "item description in wiki markup")
	return c
}

func (a *app) itemAttachCmd() *cobra.Command {
	var description string

	c := &cobra.Command{
		Use:   "attach ITEM_ID FILE",
		Short: "Attach a local file to a tracker item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid item id %q: %w", args[0], err)
			}

			return a.withSession(cmd, func(ctx context.Context, sess *services.Session) error {
				item, err := sess.AttachToTrackerItem(ctx, itemID, args[1], description)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Attached %s to tracker item %d\n", args[1], item.ID)
				return nil
			})
		},
	}

	c.Flags().StringVar(&description, "description", "", "attachment description")
	return c
}

func (a *app) associationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "associations",
		Short: "List all associations with their types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(ctx context.Context, sess *services.Session) error {
				lines, err := sess.ListAssociations(ctx)
				if err != nil {
					return err
				}
				for _, line := range lines {
					fmt.Fprintln(a.out, line)
				}
				return nil
			})
		},
	}
}
