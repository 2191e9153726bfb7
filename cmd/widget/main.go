// Command widget selects a local file, extracts its text and/or uploads it to
// the filedrop server, printing status and progress as it goes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/filedrop/backend/internal/client"
	"github.com/filedrop/backend/internal/extract"
	"github.com/filedrop/backend/internal/extract/tesseract"
	"github.com/filedrop/backend/internal/logger"
	"github.com/filedrop/backend/internal/widget"
	"go.uber.org/zap"
)

func main() {
	server := flag.String("server", "http://localhost:8000", "upload service base URL")
	mode := flag.String("mode", "extract", "action: extract, upload or both")
	lang := flag.String("lang", tesseract.DefaultLanguage, "OCR languages, joined with +")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] FILE\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	action, err := parseMode(*mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New(*logLevel, "development")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ocr := tesseract.New(strings.Split(*lang, "+")...)
	session := widget.NewSession(extract.New(ocr), client.New(*server, nil), log)
	session.OnChange(printState())

	if err := session.SelectPath(flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := session.Run(ctx, action); err != nil {
		log.Error("action failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	st := session.State()
	if st.Text != "" {
		fmt.Println(strings.TrimSpace(st.Text))
	}
	if st.Record != nil {
		fmt.Printf("stored %s as %s (%d bytes)\n", st.Record.OriginalName, st.Record.Path, st.Record.Size)
	}
}

func parseMode(mode string) (widget.Action, error) {
	switch mode {
	case "extract":
		return widget.ActionExtract, nil
	case "upload":
		return widget.ActionUpload, nil
	case "both":
		return widget.ActionExtract | widget.ActionUpload, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", mode)
	}
}

func printState() func(widget.State) {
	var last widget.State
	return func(st widget.State) {
		if st.Status != last.Status {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", st.Status, st.FileName)
		}
		if st.Status == widget.StatusUploading && st.Progress != last.Progress {
			fmt.Fprintf(os.Stderr, "\ruploading %3d%%", st.Progress)
			if st.Progress == 100 {
				fmt.Fprintln(os.Stderr)
			}
		}
		last = st
	}
}
