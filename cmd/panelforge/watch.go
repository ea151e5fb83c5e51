package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"panelforge/internal/manifest"
)

func newWatchCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the export whenever the manifest or a mesh changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(flags)
		},
	}
	addExportFlags(cmd, &flags)
	return cmd
}

func runWatch(flags exportFlags) error {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dirs, err := watchDirs(flags.manifestPath)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	log.Info("watching", "dirs", dirs)

	export := func() {
		res, err := runExport(flags)
		if err != nil {
			log.Error("export failed", "error", err)
			return
		}
		log.Info("export complete", "path", res.Path,
			"elements", res.Elements, "containers", res.Containers)
	}
	export()

	// Editors fire bursts of events per save; debounce before re-running.
	const debounce = 300 * time.Millisecond
	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("watch error", "error", err)
		case <-pending:
			// Inputs may have changed; directories can appear with new
			// mesh references.
			if newDirs, err := watchDirs(flags.manifestPath); err == nil {
				for _, d := range newDirs {
					watcher.Add(d)
				}
			}
			export()
		}
	}
}

// watchDirs returns the directories containing the manifest and every mesh
// it references.
func watchDirs(manifestPath string) ([]string, error) {
	f, err := os.Open(manifestPath)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Load(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(manifestPath)
	seen := map[string]bool{baseDir: true}
	dirs := []string{baseDir}
	for _, mesh := range m.MeshFiles() {
		d := filepath.Join(baseDir, filepath.Dir(mesh))
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs, nil
}
