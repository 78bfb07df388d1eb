package routes

import (
	"net/http"
	"snapshot-compare/internal/myhttp"
	"snapshot-compare/internal/report"
)

// ReportSource hands out the report of the last scheduled comparison.
type ReportSource interface {
	Latest() (*report.Report, bool)
}

func latest(w http.ResponseWriter, source ReportSource) (*report.Report, bool) {
	rep, ok := source.Latest()
	if !ok {
		http.Error(w, "no comparison has finished yet", http.StatusServiceUnavailable)
		return nil, false
	}
	return rep, true
}

func Results(source ReportSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, ok := latest(w, source)
		if !ok {
			return
		}
		myhttp.WriteJSON(w, http.StatusOK, rep)
	}
}

func DiffImage(source ReportSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, ok := latest(w, source)
		if !ok {
			return
		}
		entry, found := rep.Find(r.PathValue("title"))
		if !found || len(entry.DiffPNG) == 0 {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(entry.DiffPNG)
	}
}

func Report(source ReportSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, ok := latest(w, source)
		if !ok {
			return
		}
		format, err := report.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			myhttp.Error(w, http.StatusBadRequest, err)
			return
		}
		switch format {
		case report.FormatMarkdown:
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		case report.FormatJSON:
			w.Header().Set("Content-Type", "application/json")
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		if err := rep.Write(w, format); err != nil {
			myhttp.Error(w, http.StatusInternalServerError, err)
		}
	}
}
