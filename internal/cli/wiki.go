package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/DevN0mad/cbremote/internal/services"
)

func (a *app) wikiCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "wiki",
		Short: "Wiki page operations",
	}
	c.AddCommand(a.wikiCreateCmd(), a.wikiAttachCmd())
	return c
}

func (a *app) wikiCreateCmd() *cobra.Command {
	var name, content string

	c := &cobra.Command{
		Use:   "create PROJECT",
		Short: "Create a wiki page under the root page of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, sess *services.Session) error {
				page, err := sess.CreateWikiPageInProject(ctx, args[0], name, content)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Created wiki page %d %q\n", page.ID, page.Name)
				return nil
			})
		},
	}

	f := c.Flags()
	f.StringVar(&name, "name", "TestPage", "page name")
	f.StringVar(&content, "content", "This is the content of the page", "page content in wiki markup")
	return c
}

func (a *app) wikiAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach PAGE_ID DIR",
		Short: "Attach every .jpg, .gif and .png file of DIR to a wiki page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid page id %q: %w", args[0], err)
			}

			return a.withSession(cmd, func(ctx context.Context, sess *services.Session) error {
				n, err := sess.AttachImages(ctx, pageID, args[1], func(index, total int, path string, size int64) {
					fmt.Fprintf(a.out, "Uploading file %d/%d %s (%s)...\n", index, total, filepath.Base(path), humanize.Bytes(uint64(size)))
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Attached %d images to wiki page %d\n", n, pageID)
				return nil
			})
		},
	}
}
