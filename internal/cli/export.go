package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/DevN0mad/cbremote/internal/services"
)

// table одна таблица выгрузки или импорта и путь к ее файлу.
type table struct {
	name string
	path string
}

func (a *app) exportCmd() *cobra.Command {
	var users, projects, artifacts, trackers, items, userItems, xlsx string

	c := &cobra.Command{
		Use:   "export",
		Short: "Export users, projects, artifacts, trackers and tracker items to CSV files or an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if users+projects+artifacts+trackers+items+userItems+xlsx == "" {
				return errors.New("nothing to export: set at least one output path")
			}

			return a.withSession(cmd, func(ctx context.Context, sess *services.Session) error {
				ex := services.NewExporter(sess, a.logger)
				steps := []struct {
					table
					fn func(context.Context, io.Writer) (int, error)
				}{
					{table{"users", users}, ex.ExportUsers},
					{table{"projects", projects}, ex.ExportProjects},
					{table{"artifacts", artifacts}, ex.ExportArtifacts},
					{table{"trackers", trackers}, ex.ExportTrackers},
					{table{"tracker items", items}, ex.ExportTrackerItems},
					{table{"user tracker items", userItems}, ex.ExportUserTrackerItems},
				}

				var errs []error
				for _, step := range steps {
					if step.path == "" {
						continue
					}
					fmt.Fprintf(a.out, "Exporting %s...", step.name)
					n, err := exportFile(ctx, step.path, step.fn)
					fmt.Fprintf(a.out, " %d\n", n)
					if err != nil {
						if ctx.Err() != nil {
							return ctx.Err()
						}
						a.logger.Error("Export failed", "table", step.name, "error", err)
						errs = append(errs, fmt.Errorf("export %s: %w", step.name, err))
					}
				}

				if xlsx != "" {
					fmt.Fprintf(a.out, "Exporting workbook %s...\n", xlsx)
					summary, err := ex.SaveWorkbook(ctx, xlsx)
					if err != nil {
						errs = append(errs, fmt.Errorf("export workbook: %w", err))
					}
					for _, sheet := range []string{
						services.SheetUsers, services.SheetProjects, services.SheetArtifacts,
						services.SheetTrackers, services.SheetTrackerItems, services.SheetUserTrackerItems,
					} {
						if n, ok := summary[sheet]; ok {
							fmt.Fprintf(a.out, "  %s: %d\n", sheet, n)
						}
					}
				}
				return errors.Join(errs...)
			})
		},
	}

	f := c.Flags()
	f.StringVar(&users, "users", "", "users CSV path")
	f.StringVar(&projects, "projects", "", "projects CSV path")
	f.StringVar(&artifacts, "artifacts", "", "artifacts CSV path")
	f.StringVar(&trackers, "trackers", "", "trackers CSV path")
	f.StringVar(&items, "items", "", "tracker items CSV path")
	f.StringVar(&userItems, "user-items", "", "tracker items of the signed in user CSV path")
	f.StringVar(&xlsx, "xlsx", "", "XLSX workbook path with every table as a sheet")
	return c
}

func exportFile(ctx context.Context, path string, fn func(context.Context, io.Writer) (int, error)) (int, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %q: %w", path, err)
	}

	n, err := fn(ctx, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %q: %w", path, cerr)
	}
	return n, err
}

func (a *app) importCmd() *cobra.Command {
	var users, projects, artifacts, trackers, items, password string

	c := &cobra.Command{
		Use:   "import",
		Short: "Create users, projects, artifacts, trackers and tracker items from exported CSV files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if users+projects+artifacts+trackers+items == "" {
				return errors.New("nothing to import: set at least one input path")
			}

			return a.withSession(cmd, func(ctx context.Context, sess *services.Session) error {
				im := services.NewImporter(sess, a.logger)
				im.DefaultPassword = password

				steps := []struct {
					table
					fn func(context.Context, io.Reader) (int, error)
				}{
					{table{"users", users}, im.ImportUsers},
					{table{"projects", projects}, im.ImportProjects},
					{table{"artifacts", artifacts}, im.ImportArtifacts},
					{table{"trackers", trackers}, im.ImportTrackers},
					{table{"tracker items", items}, im.ImportTrackerItems},
				}

				var errs []error
				for _, step := range steps {
					if step.path == "" {
						continue
					}
					fmt.Fprintf(a.out, "Importing %s (IDs ignored)...", step.name)
					n, err := importFile(ctx, step.path, step.fn)
					fmt.Fprintf(a.out, " %d\n", n)
					if err != nil {
						if ctx.Err() != nil {
							return ctx.Err()
						}
						errs = append(errs, fmt.Errorf("import %s: %w", step.name, err))
					}
				}
				return errors.Join(errs...)
			})
		},
	}

	f := c.Flags()
	f.StringVar(&users, "users", "", "users CSV path")
	f.StringVar(&projects, "projects", "", "projects CSV path")
	f.StringVar(&artifacts, "artifacts", "", "artifacts CSV path")
	f.StringVar(&trackers, "trackers", "", "trackers CSV path")
	f.StringVar(&items, "items", "", "tracker items CSV path")
	f.StringVar(&password, "default-password", "", "password of imported accounts")
	return c
}

func importFile(ctx context.Context, path string, fn func(context.Context, io.Reader) (int, error)) (int, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %q: %w", path, err)
	}
	defer in.Close()

	return fn(ctx, in)
}
