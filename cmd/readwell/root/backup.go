package root

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"readwell/internal/service"
	"readwell/internal/ui"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or import the whole database as JSON",
	}
	cmd.AddCommand(newBackupExportCmd(), newBackupImportCmd())
	return cmd
}

func newBackupExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the database to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
			}
			if dir := filepath.Dir(output); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			return withApp(func(ctx context.Context, a *app) error {
				b, err := a.svc.Backup.Export(ctx, output)
				if err != nil {
					return fmt.Errorf("export failed: %w", err)
				}
				out := cmd.OutOrStdout()
				return render(out, backupSummary(b, output), func() {
					size := "?"
					if fi, err := os.Stat(output); err == nil {
						size = fmt.Sprintf("%.2f MB", float64(fi.Size())/1024/1024)
					}
					fmt.Fprintf(out, "%s Exported to %s %s\n", ui.IconBox, ui.Key.Render(output), ui.Muted.Render(size))
					printBackupCounts(cmd, b)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	return cmd
}

func newBackupImportCmd() *cobra.Command {
	var input string
	var clearData, yes bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the database from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(input); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("input file does not exist: %s", input)
			}

			if clearData && !yes {
				fmt.Fprint(cmd.OutOrStdout(), ui.Warn.Render("WARNING: This will delete all existing data. Type 'yes' to confirm: "))
				var confirmation string
				_, _ = fmt.Fscanln(cmd.InOrStdin(), &confirmation)
				if confirmation != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("Import cancelled"))
					return nil
				}
			}

			return withApp(func(ctx context.Context, a *app) error {
				a.log.Info("importing database", zap.String("path", input), zap.Bool("clear", clearData))
				b, err := a.svc.Backup.Import(ctx, input, clearData)
				if err != nil {
					return fmt.Errorf("import failed: %w", err)
				}
				out := cmd.OutOrStdout()
				return render(out, backupSummary(b, input), func() {
					fmt.Fprintf(out, "%s Import complete %s\n", ui.IconDone, ui.Muted.Render(b.BackupID))
					printBackupCounts(cmd, b)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input file path")
	cmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before import (WARNING: destructive)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt for --clear")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func backupSummary(b *service.BackupData, path string) map[string]any {
	return map[string]any{
		"path":          path,
		"backup_id":     b.BackupID,
		"version":       b.Version,
		"exported_at":   b.ExportedAt,
		"users":         len(b.Users),
		"stories":       len(b.Stories),
		"pre_readings":  len(b.PreReadings),
		"practices":     len(b.Practices),
		"notifications": len(b.Notifications),
	}
}

func printBackupCounts(cmd *cobra.Command, b *service.BackupData) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.LabelValue("Users", len(b.Users)))
	fmt.Fprintln(out, ui.LabelValue("Stories", len(b.Stories)))
	fmt.Fprintln(out, ui.LabelValue("Readings", len(b.PreReadings)+len(b.Practices)))
	fmt.Fprintln(out, ui.LabelValue("Notifications", len(b.Notifications)))
	fmt.Fprintln(out, ui.LabelValue("Assignments", len(b.Assignments)))
}
