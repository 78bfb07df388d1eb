package report

import (
	"encoding/base64"
	"html/template"
	"io"
	"os"

	"golang.org/x/xerrors"
)

const imageSizeLimit = 400

func embedPNG(data []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(data))
}

type htmlImage struct {
	Src    template.URL
	Width  uint32
	Height uint32
}

// htmlSize bounds the longer side of the image by limit and leaves the
// other side to the browser.
func htmlSize(width, height, limit uint32) (uint32, uint32) {
	if width > height {
		return min(width, limit), 0
	}
	return 0, min(height, limit)
}

func (r *Report) sideImage(s Side) (*htmlImage, error) {
	if !s.loaded {
		return nil, nil
	}
	src := template.URL(s.Path)
	if r.config.EmbedImages {
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, xerrors.Errorf("failed to embed %s: %w", s.Path, err)
		}
		src = embedPNG(data)
	}
	w, h := htmlSize(s.width, s.height, imageSizeLimit)
	return &htmlImage{Src: src, Width: w, Height: h}, nil
}

type htmlSide struct {
	Side
	Image *htmlImage
}

type htmlEntry struct {
	Entry
	Left, Right htmlSide
	Diff        *htmlImage
}

type htmlReport struct {
	*Report
	Entries []htmlEntry
}

func (r *Report) htmlView() (*htmlReport, error) {
	view := &htmlReport{
		Report:  r,
		Entries: make([]htmlEntry, 0, len(r.Entries)),
	}
	for _, e := range r.Entries {
		left, err := r.sideImage(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := r.sideImage(e.Right)
		if err != nil {
			return nil, err
		}
		he := htmlEntry{
			Entry: e,
			Left:  htmlSide{Side: e.Left, Image: left},
			Right: htmlSide{Side: e.Right, Image: right},
		}
		if e.diff != nil {
			b := e.diff.Bounds()
			w, h := htmlSize(uint32(b.Dx()), uint32(b.Dy()), imageSizeLimit)
			he.Diff = &htmlImage{Src: embedPNG(e.DiffPNG), Width: w, Height: h}
		}
		view.Entries = append(view.Entries, he)
	}
	return view, nil
}

// WriteHTML renders a self-contained page. Difference images are always
// embedded.
func (r *Report) WriteHTML(w io.Writer) error {
	view, err := r.htmlView()
	if err != nil {
		return err
	}
	if err := htmlTemplate.Execute(w, view); err != nil {
		return xerrors.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"list": func(v ...string) []string { return v },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Image diff</title>
<style>` + cssStyle + `</style>
</head>
<body>
<div class="header">
<h1>Snapshot Report</h1>
<p>Generated on {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}} ({{.RunID}})</p>
</div>
<dialog id="imageDialog"><img id="zoomedImage" class="zoomed-image" src="" alt="Zoomed Image"></dialog>
<script>` + jsCode + `</script>
{{- define "image"}}{{if .}}<img class="zoom" src="{{.Src}}"{{if .Width}} width="{{.Width}}"{{end}}{{if .Height}} height="{{.Height}}"{{end}} onclick="openImageDialog(this)">{{end}}{{end}}
{{- define "side"}}{{if .Image}}{{template "image" .Image}}{{else if .Error}}Error: {{.Error}}{{else}}File is missing{{end}}{{end}}
{{- define "stat"}}<div class="stat-item"><div class="stat-label">{{index . 0}}</div><div class="stat-value {{index . 1}}">{{index . 2}}</div></div>{{end}}
{{- $left := .LeftTitle}}{{$right := .RightTitle}}
{{- range .Entries}}
<div class="diff-entry">
<h2>{{.Title}}</h2>
<div class="comparison-container">
<div class="image-container">
<div class="stats-container">
{{- if eq .Kind "content"}}
{{template "stat" (list "Different pixels" "warning" .Stats.DifferentPixelsText)}}
{{template "stat" (list "Color distance" "" .Stats.ColorDistanceText)}}
{{template "stat" (list "Avg. color distance" "" .Stats.AvgColorDistanceText)}}
{{- else}}
{{template "stat" (list "Status" (print .Stats.Status) .Stats.Description)}}
{{- if eq .Kind "size-mismatch"}}
{{template "stat" (list (print $left " size") "" .Stats.LeftSize)}}
{{template "stat" (list (print $right " size") "" .Stats.RightSize)}}
{{- end}}
{{- end}}
</div>
<div class="image-box"><h3>{{$left}}</h3>{{template "side" .Left}}</div>
<div class="image-box"><h3>{{$right}}</h3>{{template "side" .Right}}</div>
<div class="image-box"><h3>Difference</h3>{{if .Diff}}{{template "image" .Diff}}{{else}}N/A{{end}}</div>
</div>
</div>
</div>
{{- end}}
</body>
</html>
`))

const cssStyle = `
body { font-family: Roboto, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; color: #333; }
.header, .diff-entry { background: #fff; padding: 20px; border-radius: 8px; margin-bottom: 20px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
.header h1 { margin: 0; color: #2d3748; }
.diff-entry h2 { margin-top: 0; color: #2d3748; border-bottom: 2px solid #edf2f7; padding-bottom: 10px; }
.comparison-container { display: flex; gap: 20px; margin-top: 15px; }
.image-container { display: flex; gap: 20px; flex-wrap: wrap; flex: 1; }
.image-box { flex: 1; min-width: 250px; max-width: 400px; }
.image-box h3 { margin: 0 0 10px 0; color: #4a5568; font-size: 1rem; }
.image-box img { max-width: 100%; border: 1px solid #e2e8f0; border-radius: 4px; }
.stats-container { width: 200px; flex-shrink: 0; background: #f8fafc; padding: 15px; border-radius: 6px; border: 1px solid #e2e8f0; }
.stat-item { margin-bottom: 15px; }
.stat-label { font-size: 0.875rem; color: #64748b; margin-bottom: 4px; }
.stat-value { font-size: 1.25rem; font-weight: 600; color: #2d3748; }
.stat-value.ok { color: #77d906; }
.stat-value.warning { color: #d97706; }
.stat-value.error { color: #dc2626; }
@media (max-width: 1200px) {
  .comparison-container { flex-direction: column-reverse; }
  .stats-container { width: auto; display: flex; flex-wrap: wrap; gap: 20px; }
  .stat-item { flex: 1; min-width: 150px; margin-bottom: 0; }
}
@media (max-width: 768px) { .image-box { min-width: 100%; } }
img.zoom:hover { transform: scale(1.05); }
dialog { width: 80%; height: 80%; max-width: 800px; max-height: 820px; padding: 0; border: none; border-radius: 10px; box-shadow: 0 0 15px rgba(0, 0, 0, 0.3); }
.zoomed-image { object-fit: contain; image-rendering: pixelated; }
`

const jsCode = `
function openImageDialog(img) {
  const dialog = document.getElementById('imageDialog');
  const zoomed = document.getElementById('zoomedImage');
  zoomed.src = img.src;
  if (img.width < img.height) {
    zoomed.style.width = "100%";
    zoomed.style.height = "auto";
  } else {
    zoomed.style.width = "auto";
    zoomed.style.height = "100%";
  }
  dialog.showModal();
}
document.getElementById('imageDialog').addEventListener('click', function() {
  document.getElementById('imageDialog').close();
});
`
