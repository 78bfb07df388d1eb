package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"snapshot-compare/internal/config"
	"snapshot-compare/internal/diff"
	diffimage "snapshot-compare/internal/diff/image"
	"snapshot-compare/internal/pair"
	"snapshot-compare/internal/report"
	"snapshot-compare/internal/storage"
	"time"
)

type DiffOutput struct {
	Kind     diff.Kind    `json:"kind"`
	Stats    report.Stats `json:"stats"`
	DiffPath string       `json:"diffPath,omitempty"`
	Regions  []string     `json:"regions,omitempty"`
}

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	var backend string
	var directory string
	var bucket string
	var prefix string
	flag.StringVar(&backend, "storage", config.EnvOrDefault("STORAGE", "file"), "Storage backend of the diff image (file or s3)")
	flag.StringVar(&directory, "directory", config.EnvOrDefault("DIRECTORY", "/tmp"), "Output directory")
	flag.StringVar(&bucket, "bucket", config.EnvOrDefault("BUCKET", ""), "Bucket of the s3 storage backend")
	flag.StringVar(&prefix, "prefix", config.EnvOrDefault("PREFIX", ""), "Key prefix of the s3 storage backend")

	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		log.Fatalf("left, right not specified")
	}

	ctx := context.Background()
	s, err := storage.New(ctx, storage.Config{
		Backend:   backend,
		Directory: directory,
		Bucket:    bucket,
		Prefix:    prefix,
	})
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	p := pair.Pair{
		Title: filepath.Base(args[1]),
		Left:  args[0],
		Right: args[1],
	}
	difference, leftInfo, rightInfo := diff.NewEngine().ComputePairDiff(p)
	output := DiffOutput{
		Kind: difference.Kind(),
		Stats: report.NewStats(diff.PairResult{
			Pair:       p,
			Difference: difference,
			LeftInfo:   leftInfo,
			RightInfo:  rightInfo,
		}),
	}

	if content, ok := difference.(diff.Content); ok {
		var buffer bytes.Buffer
		if err := png.Encode(&buffer, content.Image); err != nil {
			log.Fatalf("Failed to encode diff image: %v", err)
		}

		timestamp := time.Now().Format("20060102150405")
		h := sha256.New()
		h.Write([]byte(p.Left + p.Right))
		hash := fmt.Sprintf("%x", h.Sum(nil))[:16]

		key := fmt.Sprintf("diff/%s/%s.png", hash, timestamp)
		output.DiffPath, err = s.Put(ctx, key, buffer.Bytes())
		if err != nil {
			log.Fatalf("Failed to save diff image: %v", err)
		}
		for _, r := range diffimage.FindRegions(content.Image, report.RegionMergeDistance) {
			output.Regions = append(output.Regions, r.String())
		}
	}

	if err := json.NewEncoder(os.Stdout).Encode(output); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	if difference.Kind() != diff.KindNone {
		os.Exit(1)
	}
}
