// Package coco reads COCO instance annotation files and writes category
// subsets of them.
package coco

import jsoniter "github.com/json-iterator/go"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is a COCO instances file. Info and Licenses are carried through
// untouched.
type Document struct {
	Info        jsoniter.RawMessage `json:"info"`
	Licenses    jsoniter.RawMessage `json:"licenses"`
	Images      []Image             `json:"images"`
	Annotations []Annotation        `json:"annotations"`
	Categories  []Category          `json:"categories"`
}

type Image struct {
	ID           int64  `json:"id"`
	License      int    `json:"license"`
	FileName     string `json:"file_name"`
	CocoURL      string `json:"coco_url"`
	Height       int    `json:"height"`
	Width        int    `json:"width"`
	DateCaptured string `json:"date_captured"`
	FlickrURL    string `json:"flickr_url"`
}

// Annotation keeps segmentation raw since it is either a polygon list or RLE.
type Annotation struct {
	ID           int64               `json:"id"`
	ImageID      int64               `json:"image_id"`
	CategoryID   int64               `json:"category_id"`
	Segmentation jsoniter.RawMessage `json:"segmentation"`
	Area         float64             `json:"area"`
	BBox         []float64           `json:"bbox"`
	IsCrowd      int                 `json:"iscrowd"`
}

type Category struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Supercategory string `json:"supercategory"`
}
