package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/DevN0mad/cbremote/internal/services"
)

func (a *app) downloadCmd() *cobra.Command {
	var dir string

	c := &cobra.Command{
		Use:   "download PROJECT ARTIFACT",
		Short: "Find an artifact by name and save its content to a local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, artifact := args[0], args[1]
			return a.withSession(cmd, func(ctx context.Context, sess *services.Session) error {
				fmt.Fprintf(a.out, "Searching for artifact %q in project %q...\n", artifact, project)
				res, err := sess.DownloadArtifact(ctx, project, artifact, dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Saved %s (%s)\n", res.Path, humanize.Bytes(uint64(res.Size)))
				return nil
			})
		},
	}

	c.Flags().StringVarP(&dir, "dir", "d", ".", "directory to save the file to")
	return c
}

func (a *app) uploadCmd() *cobra.Command {
	var parentID int

	c := &cobra.Command{
		Use:   "upload PROJECT [FILE]",
		Short: "Upload a local file, or a sample document with two revisions when FILE is omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			project := args[0]
			return a.withSession(cmd, func(ctx context.Context, sess *services.Session) error {
				if len(args) == 2 {
					artifact, err := sess.UploadFile(ctx, project, parentID, args[1])
					if err != nil {
						return err
					}
					var size uint64
					if artifact.FileSize != nil {
						size = uint64(*artifact.FileSize)
					}
					fmt.Fprintf(a.out, "Uploaded %q as artifact %d (%s, %s)\n", artifact.Name, artifact.ID, artifact.MimeType, humanize.Bytes(size))
					return nil
				}

				res, err := sess.UploadSample(ctx, project, a.now())
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Created directory %q (id %d)\n", res.Directory.Name, res.Directory.ID)
				fmt.Fprintf(a.out, "Uploaded %q (id %d) with a second revision\n", res.Document.Name, res.Document.ID)
				return nil
			})
		},
	}

	c.Flags().IntVar(&parentID, "parent", 0, "id of the directory to upload FILE into (project root when 0)")
	return c
}
