package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/pkg/errors"

	"guardcam/internal/coco"
	"guardcam/internal/config"
	"guardcam/internal/logger"
	"guardcam/internal/service/download"
)

// BuildDataset filters the annotation file down to the target categories,
// writes the filtered document and downloads its images. Progress goes to out.
// Nothing is written and nothing is fetched when no category or image matches.
func BuildDataset(ctx context.Context, cfg *config.Config, logger *logger.Logger, client *http.Client, out io.Writer) error {
	logger.Info("Loading annotations from %s", cfg.AnnotationFile)
	idx, err := coco.LoadIndex(cfg.AnnotationFile)
	if err != nil {
		return err
	}

	ds, report, err := coco.Filter(idx, cfg.TargetCategories)
	switch {
	case errors.Is(err, coco.ErrNoCategories):
		fmt.Fprintf(out, "No categories match %v.\n", cfg.TargetCategories)
		return err
	case errors.Is(err, coco.ErrNoImages):
		printReport(out, report)
		fmt.Fprintf(out, "No images for the selected categories: %v\n", cfg.TargetCategories)
		return err
	case err != nil:
		return err
	}

	printReport(out, report)
	fmt.Fprintf(out, "Found %d unique images across all categories.\n", report.UniqueImages)

	output := cfg.AnnotationOutput()
	if err := coco.WriteDataset(output, ds); err != nil {
		return err
	}
	fmt.Fprintf(out, "Annotation filtering done. Result saved to %s\n", output)
	logger.Info("Wrote %d images, %d annotations, %d categories to %s",
		len(ds.Images), len(ds.Annotations), len(ds.Categories), output)

	var progress io.Writer
	if cfg.ShowProgress {
		progress = os.Stderr
	}

	imagesDir := cfg.ImagesOutput()
	downloaded, err := download.NewDownloader(client, logger, progress).Download(ctx, ds.Images, imagesDir)
	fmt.Fprintf(out, "Downloaded %d images to %s\n", downloaded, imagesDir)
	return err
}

func printReport(out io.Writer, report *coco.Report) {
	if report == nil {
		return
	}
	fmt.Fprintf(out, "Found categories: %v\n", report.Categories)
	fmt.Fprintf(out, "Category IDs: %v\n", report.CategoryIDs)
	fmt.Fprintln(out, "Images per category:")
	for _, c := range report.ImageCounts {
		fmt.Fprintf(out, "%s: %d images\n", c.Name, c.Images)
	}
}
