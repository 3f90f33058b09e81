package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Neumenon/rdl2/rdl"
	"github.com/Neumenon/rdl2/rdla"
	"github.com/Neumenon/rdl2/rdlb"
)

type format int

const (
	formatText format = iota
	formatBinary
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rdla":
		return formatText, nil
	case ".rdlb":
		return formatBinary, nil
	default:
		return 0, fmt.Errorf("%s: unknown scene format (want .rdla or .rdlb)", path)
	}
}

// codecOptions holds the per-invocation overrides of the config defaults.
type codecOptions struct {
	text   []rdla.WriterOption
	binary []rdlb.WriterOption
}

// readScene loads path into a fresh context and reports the number of
// warnings on stderr.
func (a *app) readScene(ctx context.Context, path string, strict bool, stderr io.Writer) (*rdl.SceneContext, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	sc, err := a.newContext(ctx)
	if err != nil {
		return nil, err
	}

	var warnings int
	switch f {
	case formatText:
		opts := append(a.cfg.TextReaderOptions(), rdla.WarningsAsErrors(strict || a.cfg.Text.WarningsAsErrors))
		res, err := rdla.NewReader(sc, opts...).ReadFile(path)
		if err != nil {
			return nil, err
		}
		warnings = len(res.Warnings)
	case formatBinary:
		opts := append(a.cfg.BinaryReaderOptions(), rdlb.WarningsAsErrors(strict || a.cfg.Binary.WarningsAsErrors))
		res, err := rdlb.NewReader(sc, opts...).ReadFile(path)
		if err != nil {
			return nil, err
		}
		warnings = len(res.Warnings)
	}
	if warnings > 0 {
		fmt.Fprintln(stderr, warnStyle.Render(fmt.Sprintf("%s: %d warning(s)", path, warnings)))
	}
	return sc, nil
}

// writeScene writes sc to path in the format its extension names. The
// config defaults apply first, so overrides win.
func (a *app) writeScene(sc *rdl.SceneContext, path string, over codecOptions) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}
	switch f {
	case formatText:
		return rdla.NewWriter(sc, append(a.cfg.TextWriterOptions(), over.text...)...).WriteFile(path)
	default:
		return rdlb.NewWriter(sc, append(a.cfg.BinaryWriterOptions(), over.binary...)...).WriteFile(path)
	}
}
