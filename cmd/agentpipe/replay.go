package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/codetide/agentpipe/acp"
	"github.com/codetide/agentpipe/claude"
	"github.com/codetide/agentpipe/cursor"
	"github.com/codetide/agentpipe/entry"
	"github.com/codetide/agentpipe/jsonl"
)

func newReplayCmd() *cobra.Command {
	var (
		dialect string
		cwd     string
		asJSON  bool
		follow  bool
	)

	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Render a recorded agent stream as a normalized transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			norm, err := newNormalizer(dialect, cwd)
			if err != nil {
				return err
			}
			r := &replay{
				out:    cmd.OutOrStdout(),
				norm:   norm,
				asJSON: asJSON,
			}
			if follow {
				return r.follow(cmd.Context().Done(), args[0])
			}
			return r.once(args[0])
		},
	}

	cmd.Flags().StringVar(&dialect, "dialect", "claude", "Stream dialect: claude, cursor, or acp")
	cmd.Flags().StringVar(&cwd, "cwd", "", "Working directory file paths are relativized against")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit normalized entries as JSON lines")
	cmd.Flags().BoolVar(&follow, "follow", false, "Keep watching the file and render appended lines")
	return cmd
}

func newNormalizer(dialect, cwd string) (entry.Normalizer, error) {
	switch dialect {
	case "claude":
		return claude.NewNormalizer(claude.WithWorkdir(cwd)), nil
	case "cursor":
		return cursor.NewNormalizer(cursor.WithWorkdir(cwd)), nil
	case "acp":
		return acp.NewNormalizer(acp.WithWorkdir(cwd)), nil
	default:
		return nil, fmt.Errorf("unknown dialect %q (want claude, cursor, or acp)", dialect)
	}
}

type replay struct {
	out    io.Writer
	norm   entry.Normalizer
	asJSON bool
}

// once replays the whole file, folding re-emissions into their final
// entries before rendering.
func (r *replay) once(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var emissions []entry.Normalized
	scanner := jsonl.NewScanner(f)
	for {
		line, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		emissions = append(emissions, r.norm.Handle([]byte(line.Raw))...)
	}

	for _, e := range entry.Reduce(emissions) {
		r.render(e)
	}
	return nil
}

// follow renders emissions as they arrive, re-printing an entry whenever a
// later line updates it, and keeps reading as the file grows.
func (r *replay) follow(done <-chan struct{}, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return err
	}

	var pending []byte
	drain := func() {
		buf := make([]byte, 64*1024)
		for {
			n, err := f.Read(buf)
			if n > 0 {
				pending = append(pending, buf[:n]...)
				for {
					i := bytes.IndexByte(pending, '\n')
					if i < 0 {
						break
					}
					line := pending[:i]
					pending = pending[i+1:]
					if len(bytes.TrimSpace(line)) == 0 {
						continue
					}
					for _, e := range r.norm.Handle(line) {
						r.render(e)
					}
				}
			}
			if err != nil {
				return
			}
		}
	}

	drain()
	for {
		select {
		case <-done:
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Write != 0 {
				drain()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "path", path, "err", err)
		}
	}
}

func (r *replay) render(e entry.Normalized) {
	if r.asJSON {
		renderJSON(r.out, e)
		return
	}
	renderEntry(r.out, e)
}
