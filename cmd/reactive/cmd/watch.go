package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var debounce time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch TEMPLATE MODEL",
	Short: "watch prints a template again whenever its model file changes.",
	Long: `
		Watch binds the HTML template to the model, prints it, then reloads
		the model file on every change. Reloaded values are applied to the
		live binding: lists are patched so that unchanged items keep their
		markup. Interrupt to stop.
	`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open(args[0], args[1])
		if err != nil {
			return err
		}
		defer s.close()

		out := cmd.OutOrStdout()
		if err := s.print(out); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return s.watch(ctx, out)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&debounce, "debounce", 100*time.Millisecond, "delay between a change and the reload")
	watchCmd.Flags().BoolVar(&raw, "raw", false, "print the markup without indentation")
}

// watch reloads the model after each burst of writes to its file. The
// binding is only touched from this goroutine.
func (s *session) watch(ctx context.Context, out io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors often replace the file instead of writing it: watch the
	// directory and filter on the name.
	if err := watcher.Add(filepath.Dir(s.modelPath)); err != nil {
		return err
	}
	name := filepath.Clean(s.modelPath)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("model changed", slog.String("op", event.Op.String()))
			pending = time.After(debounce)

		case <-pending:
			pending = nil
			if err := s.reload(); err != nil {
				logger.Warn("reload failed", slog.Any("err", err))
				continue
			}
			if err := s.print(out); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", slog.Any("err", err))
		}
	}
}
