package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgallion1/pagelens/internal/config"
	"github.com/dgallion1/pagelens/internal/docview"
	"github.com/dgallion1/pagelens/internal/loader"
)

// sourceOptions controls how a command-line source is turned into a document.
type sourceOptions struct {
	Render     bool
	ReaderMode bool
}

// loadSource reads src as a local file when one exists at that path, and
// fetches it as a URL otherwise.
func loadSource(ctx context.Context, cfg config.Config, src string, opts sourceOptions) (*docview.HTMLDocument, error) {
	if info, err := os.Stat(src); err == nil && !info.IsDir() {
		if !loader.IsSupportedExtension(src) {
			return nil, fmt.Errorf("unsupported file type: %s", src)
		}
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return loader.FromFile(f, src, "")
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if opts.Render {
		return loader.FromBrowser(ctx, src, cfg.BrowserTimeout, opts.ReaderMode)
	}
	return loader.FromURL(ctx, src, loader.FetchOptions{
		Timeout:    cfg.FetchTimeout,
		MaxBytes:   cfg.MaxDocumentBytes,
		ReaderMode: opts.ReaderMode,
	})
}
