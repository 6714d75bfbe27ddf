package coco

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Index gives id lookups over a loaded Document.
type Index struct {
	doc *Document

	imgs      map[int64]Image
	anns      map[int64]Annotation
	cats      map[int64]Category
	imgToAnns map[int64][]int64
	catToImgs map[int64][]int64
}

// LoadIndex decodes the annotation file at path and indexes it.
func LoadIndex(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open annotation file %s", path)
	}
	defer f.Close()

	return ReadIndex(f)
}

// ReadIndex decodes a COCO document from r and indexes it.
func ReadIndex(r io.Reader) (*Index, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode annotation file")
	}
	return NewIndex(&doc), nil
}

// NewIndex indexes an already decoded document.
func NewIndex(doc *Document) *Index {
	idx := &Index{
		doc:       doc,
		imgs:      make(map[int64]Image, len(doc.Images)),
		anns:      make(map[int64]Annotation, len(doc.Annotations)),
		cats:      make(map[int64]Category, len(doc.Categories)),
		imgToAnns: make(map[int64][]int64),
		catToImgs: make(map[int64][]int64),
	}

	for _, img := range doc.Images {
		idx.imgs[img.ID] = img
	}
	for _, cat := range doc.Categories {
		idx.cats[cat.ID] = cat
	}
	for _, ann := range doc.Annotations {
		idx.anns[ann.ID] = ann
		idx.imgToAnns[ann.ImageID] = append(idx.imgToAnns[ann.ImageID], ann.ID)
		idx.catToImgs[ann.CategoryID] = append(idx.catToImgs[ann.CategoryID], ann.ImageID)
	}

	return idx
}

// Document returns the indexed document.
func (idx *Index) Document() *Document {
	return idx.doc
}

// CatIDs returns the ids of categories whose name is in names, in document
// order. Unknown names are ignored.
func (idx *Index) CatIDs(names []string) []int64 {
	wanted := lo.Keyify(names)

	var ids []int64
	for _, cat := range idx.doc.Categories {
		if _, ok := wanted[cat.Name]; ok {
			ids = append(ids, cat.ID)
		}
	}
	return ids
}

// ImgIDs returns the distinct images holding at least one annotation of
// catID, in first-seen order.
func (idx *Index) ImgIDs(catID int64) []int64 {
	return lo.Uniq(idx.catToImgs[catID])
}

// AnnIDs returns the annotations on imgIDs whose category is in catIDs,
// grouped by image in imgIDs order.
func (idx *Index) AnnIDs(imgIDs, catIDs []int64) []int64 {
	cats := lo.Keyify(catIDs)

	var ids []int64
	for _, imgID := range imgIDs {
		for _, annID := range idx.imgToAnns[imgID] {
			if _, ok := cats[idx.anns[annID].CategoryID]; ok {
				ids = append(ids, annID)
			}
		}
	}
	return ids
}

// LoadImgs returns the images with the given ids; unknown ids are skipped.
func (idx *Index) LoadImgs(ids []int64) []Image {
	imgs := make([]Image, 0, len(ids))
	for _, id := range ids {
		if img, ok := idx.imgs[id]; ok {
			imgs = append(imgs, img)
		}
	}
	return imgs
}

func (idx *Index) LoadAnns(ids []int64) []Annotation {
	anns := make([]Annotation, 0, len(ids))
	for _, id := range ids {
		if ann, ok := idx.anns[id]; ok {
			anns = append(anns, ann)
		}
	}
	return anns
}

func (idx *Index) LoadCats(ids []int64) []Category {
	cats := make([]Category, 0, len(ids))
	for _, id := range ids {
		if cat, ok := idx.cats[id]; ok {
			cats = append(cats, cat)
		}
	}
	return cats
}
