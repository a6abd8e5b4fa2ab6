package models

import "github.com/shopspring/decimal"

type ItemKind string

const (
	KindBook     ItemKind = "book"
	KindMagazine ItemKind = "magazine"
	KindFigure   ItemKind = "figure"
)

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type BookDetails struct {
	Author    string `json:"author"`
	Genre     string `json:"genre"`
	Publisher string `json:"publisher"`
	Language  string `json:"language"`
}

type MagazineDetails struct {
	Issue    int    `json:"issue"`
	Language string `json:"language"`
}

type FigureDetails struct {
	Brand string `json:"brand"`
	Size  string `json:"size"`
}

type Item struct {
	ID             int64           `json:"id"`
	Kind           ItemKind        `json:"type"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Slug           string          `json:"slug"`
	Photo          string          `json:"photo,omitempty"`
	Price          decimal.Decimal `json:"price"`
	CountAvailable int             `json:"count_available"`
	Categories     []Category      `json:"categories,omitempty"`

	Book     *BookDetails     `json:"book,omitempty"`
	Magazine *MagazineDetails `json:"magazine,omitempty"`
	Figure   *FigureDetails   `json:"figure,omitempty"`
}

// ItemFilter narrows catalog listings. Zero values mean "no restriction".
type ItemFilter struct {
	Kind     ItemKind
	Search   string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}
