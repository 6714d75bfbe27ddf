package coco

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var (
	// ErrNoCategories means none of the requested names is a category of the file.
	ErrNoCategories = errors.New("no categories match the requested names")
	// ErrNoImages means the matched categories have no annotated images.
	ErrNoImages = errors.New("no images for the requested categories")
)

// CategoryCount is the number of distinct images of one category.
type CategoryCount struct {
	Name   string
	Images int
}

// Report describes what Filter selected.
type Report struct {
	Categories   []string
	CategoryIDs  []int64
	ImageCounts  []CategoryCount
	UniqueImages int
	Annotations  int
}

// Filter keeps the images that show any of the target categories and the
// annotations of those categories on them. The returned document references
// only images and categories it contains; annotations pointing at image ids
// missing from the index are dropped.
func Filter(idx *Index, targets []string) (*Document, *Report, error) {
	catIDs := idx.CatIDs(targets)
	if len(catIDs) == 0 {
		return nil, nil, ErrNoCategories
	}

	cats := idx.LoadCats(catIDs)
	report := &Report{
		Categories:  lo.Map(cats, func(c Category, _ int) string { return c.Name }),
		CategoryIDs: catIDs,
	}

	var union []int64
	for _, cat := range cats {
		imgIDs := idx.ImgIDs(cat.ID)
		report.ImageCounts = append(report.ImageCounts, CategoryCount{Name: cat.Name, Images: len(imgIDs)})
		union = append(union, imgIDs...)
	}

	union = lo.Filter(lo.Uniq(union), func(id int64, _ int) bool {
		_, ok := idx.imgs[id]
		return ok
	})
	if len(union) == 0 {
		return nil, report, ErrNoImages
	}
	slices.Sort(union)
	report.UniqueImages = len(union)

	anns := idx.LoadAnns(idx.AnnIDs(union, catIDs))
	report.Annotations = len(anns)

	doc := idx.Document()
	return &Document{
		Info:        doc.Info,
		Licenses:    doc.Licenses,
		Images:      idx.LoadImgs(union),
		Annotations: anns,
		Categories:  cats,
	}, report, nil
}
