package report

import (
	"io"
	"snapshot-compare/internal/diff"
	"strconv"

	"github.com/nao1215/markdown"
	"golang.org/x/xerrors"
)

// WriteMarkdown renders a summary table followed by one section per
// entry. Images are referenced by path.
func (r *Report) WriteMarkdown(w io.Writer) error {
	md := markdown.NewMarkdown(w)

	md.H1("Snapshot Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + r.RunID + "`"},
			{"Generated", r.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Images", strconv.Itoa(r.Len())},
		},
	})
	md.PlainText("")

	rows := make([][]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		rows = append(rows, []string{e.Title, e.Stats.Description, markdownDetail(e)})
	}
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Image", "Status", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, e := range r.Entries {
		if e.Kind == diff.KindNone {
			continue
		}
		md.H2(e.Title)
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{r.LeftTitle, r.RightTitle},
			Rows: [][]string{
				{markdownSide(e.Left), markdownSide(e.Right)},
			},
		})
		md.PlainText("")
		if len(e.Regions) > 0 {
			regions := make([]string, 0, len(e.Regions))
			for _, region := range e.Regions {
				regions = append(regions, region.String())
			}
			md.PlainText("Changed regions:")
			md.PlainText("")
			md.BulletList(regions...)
			md.PlainText("")
		}
	}

	if err := md.Build(); err != nil {
		return xerrors.Errorf("failed to render Markdown report: %w", err)
	}
	return nil
}

func markdownDetail(e Entry) string {
	switch e.Stats.Status {
	case StatusWarning:
		return e.Stats.DifferentPixelsText() + ", distance " + e.Stats.ColorDistanceText()
	case StatusError:
		if e.Stats.LeftSize != "" {
			return e.Stats.LeftSize + " vs " + e.Stats.RightSize
		}
	}
	return ""
}

func markdownSide(s Side) string {
	switch {
	case s.loaded:
		return "![" + s.Info + "](" + s.Path + ")"
	case s.Error != "":
		return "Error: " + s.Error
	default:
		return "File is missing"
	}
}
