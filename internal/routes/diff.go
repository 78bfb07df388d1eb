package routes

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"snapshot-compare/internal/diff"
	diffimage "snapshot-compare/internal/diff/image"
	"snapshot-compare/internal/myhttp"
	"snapshot-compare/internal/report"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/xerrors"
)

const maxUploadSize = 32 << 20

type DiffResponse struct {
	Kind            diff.Kind             `json:"kind"`
	LeftInfo        string                `json:"leftInfo"`
	RightInfo       string                `json:"rightInfo"`
	DifferentPixels uint64                `json:"differentPixels"`
	DistanceSum     uint64                `json:"distanceSum"`
	Stats           report.Stats          `json:"stats"`
	DiffData        string                `json:"diffData,omitempty"`
	Regions         []diffimage.Rectangle `json:"regions,omitempty"`
}

// Diff classifies the multipart images "left" and "right". A part that is
// absent is treated as a missing file and one that does not decode as a
// load error, so every well-formed request gets a classification.
func Diff(engine *diff.Engine, differences metric.Int64Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			myhttp.Error(w, http.StatusBadRequest, err)
			return
		}

		left, leftInfo, err := formImage(r.MultipartForm, "left")
		if err != nil {
			myhttp.Error(w, http.StatusBadRequest, err)
			return
		}
		right, rightInfo, err := formImage(r.MultipartForm, "right")
		if err != nil {
			myhttp.Error(w, http.StatusBadRequest, err)
			return
		}

		d := engine.ComputeImageDiff(left, leftInfo, right, rightInfo)
		differences.Add(r.Context(), 1, metric.WithAttributes(
			attribute.Key("kind").String(string(d.Kind())),
			attribute.Key("source").String("upload"),
		))

		response := DiffResponse{
			Kind:      d.Kind(),
			LeftInfo:  infoText(leftInfo),
			RightInfo: infoText(rightInfo),
			Stats: report.NewStats(diff.PairResult{
				Difference: d,
				LeftInfo:   leftInfo,
				RightInfo:  rightInfo,
			}),
		}
		if content, ok := d.(diff.Content); ok {
			var buffer bytes.Buffer
			if err := png.Encode(&buffer, content.Image); err != nil {
				myhttp.Error(w, http.StatusInternalServerError, err)
				return
			}
			response.DifferentPixels = content.DifferentPixels
			response.DistanceSum = content.DistanceSum
			response.DiffData = base64.StdEncoding.EncodeToString(buffer.Bytes())
			response.Regions = diffimage.FindRegions(content.Image, report.RegionMergeDistance)
		}

		myhttp.WriteJSON(w, http.StatusOK, response)
	}
}

// formImage reads and decodes the named part. Only a failure to read the
// request is an error.
func formImage(form *multipart.Form, name string) (image.Image, diff.ImageInfoResult, error) {
	headers := form.File[name]
	if len(headers) == 0 {
		return nil, diff.InfoMissing{}, nil
	}
	file, err := headers[0].Open()
	if err != nil {
		return nil, nil, xerrors.Errorf("failed to open %s: %w", name, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, xerrors.Errorf("failed to read %s: %w", name, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, diff.InfoError{Message: err.Error()}, nil
	}
	b := img.Bounds()
	return img, diff.InfoLoaded{Info: diff.ImageInfo{Width: uint32(b.Dx()), Height: uint32(b.Dy())}}, nil
}

func infoText(r diff.ImageInfoResult) string {
	switch v := r.(type) {
	case diff.InfoLoaded:
		return v.Info.String()
	case diff.InfoMissing:
		return "missing"
	case diff.InfoError:
		return "error: " + v.Message
	default:
		return ""
	}
}
