package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/lattice-substrate/exactcf/cferr"
	"github.com/lattice-substrate/exactcf/rounding"
)

// Write renders v as canonical JSON ("json") or text ("text"), followed by
// a newline.
func Write(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		out, err := Encode(v)
		if err != nil {
			return err
		}
		out = append(out, '\n')
		if _, err := w.Write(out); err != nil {
			return cferr.Wrap(cferr.InternalIO, -1, "write report", err)
		}
		return nil
	case "text":
		return WriteText(w, v)
	}
	return cferr.Newf(cferr.CLIUsage, "unknown output format %q", format)
}

// WriteText renders a report as aligned key/value lines. An unknown report
// type fails with INTERNAL_ERROR before anything is written; a failing w
// with INTERNAL_IO.
func WriteText(w io.Writer, v any) error {
	var buf bytes.Buffer
	if err := renderText(&buf, v); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return cferr.Wrap(cferr.InternalIO, -1, "write report", err)
	}
	return nil
}

func renderText(buf *bytes.Buffer, v any) error {
	tw := tabwriter.NewWriter(buf, 0, 4, 2, ' ', 0)
	switch r := v.(type) {
	case *Evaluation:
		fmt.Fprintf(tw, "expression\t%s\n", r.Expression)
		fmt.Fprintf(tw, "value\t%s\n", r.Value)
		if r.Exact != "" {
			fmt.Fprintf(tw, "exact\t%s\n", r.Exact)
		}
		q := "[" + strings.Join(r.Quotients, " ")
		if !r.Complete {
			q += " ..."
		}
		fmt.Fprintf(tw, "quotients\t%s]\n", q)
		fmt.Fprintf(tw, "convergents\t%s\n", strings.Join(r.Convergents, " "))
		for _, m := range rounding.Modes {
			x := r.Rounding[m.String()]
			fmt.Fprintf(tw, "%s\tfloat64=%s float32=%s int64=%s int32=%s int16=%s int8=%s bigint=%s\n",
				m, x.Float64, x.Float32, x.Int64, x.Int32, x.Int16, x.Int8, x.BigInt)
		}
	case *Round:
		exact := "inexact"
		if r.Exact {
			exact = "exact"
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t(%s)\n", r.Expression, r.Mode, r.Kind, r.Result, exact)
	case *Comparison:
		fmt.Fprintf(tw, "%s %s %s\n", r.Left, r.Relation, r.Right)
	case *Listing:
		items := strings.Join(r.Items, " ")
		if !r.Complete {
			items += " ..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Expression, r.Of, items)
	default:
		return cferr.Newf(cferr.InternalError, "cannot render %T as text", v)
	}
	return tw.Flush()
}
