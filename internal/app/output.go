package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/dmitrijs2005/leakvault/internal/leak"
	"github.com/dmitrijs2005/leakvault/internal/models"
	"github.com/dmitrijs2005/leakvault/internal/vault"
)

// isTerminal is a seam for tests.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printer renders results as aligned text on a terminal and as JSON when
// the output is piped.
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, json: !isTerminal(w)}
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) message(v any, format string, args ...any) error {
	if p.json {
		return p.encode(v)
	}
	_, err := fmt.Fprintf(p.w, format+"\n", args...)
	return err
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func (p *printer) files(files []vault.FileInfo) error {
	if p.json {
		return p.encode(files)
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILENAME\tUPLOADED\tLAST SCAN\tIMAGE")
	for _, f := range files {
		image := "no"
		if f.PerceptualDigest != "" {
			image = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", f.ID, f.Filename, formatTime(&f.UploadedAt), formatTime(f.LastScannedAt), image)
	}
	return tw.Flush()
}

func (p *printer) file(f *vault.FileInfo) error {
	if p.json {
		return p.encode(f)
	}

	pd := f.PerceptualDigest
	if pd == "" {
		pd = "-"
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%d\n", f.ID)
	fmt.Fprintf(tw, "filename:\t%s\n", f.Filename)
	fmt.Fprintf(tw, "sha256:\t%s\n", f.ContentDigest)
	fmt.Fprintf(tw, "dhash:\t%s\n", pd)
	fmt.Fprintf(tw, "uploaded:\t%s\n", formatTime(&f.UploadedAt))
	fmt.Fprintf(tw, "last scan:\t%s\n", formatTime(f.LastScannedAt))
	return tw.Flush()
}

func (p *printer) report(r *leak.Report, threshold int) error {
	if p.json {
		return p.encode(r)
	}

	fmt.Fprintf(p.w, "#%d: checked %d, matched %d within %d bits, skipped %d\n",
		r.FileID, r.Checked, len(r.Matches), threshold, len(r.Skipped))
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, m := range r.Matches {
		fmt.Fprintf(tw, "  match\t%d\t%s\n", m.Distance, m.URL)
	}
	return tw.Flush()
}

func (p *printer) scanResults(res []*models.ScanResult) error {
	if p.json {
		if res == nil {
			res = []*models.ScanResult{}
		}
		return p.encode(res)
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FOUND\tDISTANCE\tURL")
	for _, r := range res {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", formatTime(&r.FoundAt), r.SimilarityScore, r.URL)
	}
	return tw.Flush()
}
