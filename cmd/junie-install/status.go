package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/ZebulonRouseFrantzich/junie/internal/binary"
	"github.com/ZebulonRouseFrantzich/junie/internal/config"
	"github.com/ZebulonRouseFrantzich/junie/internal/launcher"
	"github.com/ZebulonRouseFrantzich/junie/internal/layout"
	"github.com/ZebulonRouseFrantzich/junie/internal/transaction"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *installOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what is installed and how the launcher resolves it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts.root, os.Environ(), cmd.OutOrStdout())
		},
	}
}

// runStatus prints the marker, the resolved binary, the receipt and the last
// install journal. It fails only when the package root cannot be determined.
func runStatus(rootFlag string, environ []string, w io.Writer) error {
	root, err := packageRoot(rootFlag, environ)
	if err != nil {
		return err
	}
	l, err := layout.New(root)
	if err != nil {
		return err
	}
	cfg, err := config.LoadEnv(root, environ)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Package root: %s\n", l.Root)

	marker, status := l.ReadMarker()
	if status == layout.MarkerPresent {
		fmt.Fprintf(w, "Marker:       %s (%s)\n", status, marker)
	} else {
		fmt.Fprintf(w, "Marker:       %s\n", status)
	}

	res, err := launcher.Resolve(launcher.ResolveOptions{
		Layout:  l,
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
		EnvPath: cfg.EnvBinaryPath(),
	})
	if err != nil {
		fmt.Fprintf(w, "Binary:       not found\n")
	} else {
		fmt.Fprintf(w, "Binary:       %s (from %s)\n", res.Path, res.Source)
	}

	receipt, err := binary.ReadReceipt(l.ReceiptFile)
	switch {
	case err == nil:
		verification := "none"
		if len(receipt.Verification) > 0 {
			verification = strings.Join(receipt.Verification, ", ")
		}
		fmt.Fprintf(w, "Installed:    %s on %s-%s at %s\n", orDash(receipt.Version), receipt.OS, receipt.Arch, receipt.InstalledAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(w, "Source:       %s\n", receipt.URL)
		fmt.Fprintf(w, "Extractor:    %s, verification: %s\n", receipt.Extractor, verification)
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintf(w, "Installed:    no receipt\n")
	default:
		fmt.Fprintf(w, "Installed:    unreadable receipt: %v\n", err)
	}

	txn, err := transaction.Load(l.LockDir)
	switch {
	case err == nil:
		if stage, failed := txn.FailedStage(); failed {
			fmt.Fprintf(w, "Last install: %s failed during %s: %s\n", txn.ID, stage.Name, stage.LastError)
		} else if txn.Completed() {
			fmt.Fprintf(w, "Last install: %s completed\n", txn.ID)
		} else {
			fmt.Fprintf(w, "Last install: %s did not finish\n", txn.ID)
		}
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintf(w, "Last install: none recorded\n")
	default:
		fmt.Fprintf(w, "Last install: unreadable journal: %v\n", err)
	}

	return nil
}

// lookupEnv returns the last value of key in environ.
func lookupEnv(environ []string, key string) string {
	value := ""
	for _, kv := range environ {
		if v, ok := strings.CutPrefix(kv, key+"="); ok {
			value = v
		}
	}
	return value
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
