package models

import "time"

type CategoryType string

const (
	CategoryProduct CategoryType = "product"
	CategoryBlog    CategoryType = "blog"
	CategoryBrand   CategoryType = "brand"
)

func (t CategoryType) Valid() bool {
	switch t {
	case CategoryProduct, CategoryBlog, CategoryBrand:
		return true
	}
	return false
}

type Category struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     CategoryType `json:"type"`
	ParentID *string      `json:"parentId"`
}

type CategoryNode struct {
	Category
	SubCategories []CategoryNode `json:"subCategories"`
}

// BuildCategoryTree nests categories under their parents. Categories whose
// parent is absent from the slice become roots. Input order is preserved.
func BuildCategoryTree(categories []Category) []CategoryNode {
	present := make(map[string]struct{}, len(categories))
	children := make(map[string][]Category, len(categories))
	for _, c := range categories {
		present[c.ID] = struct{}{}
	}

	var roots []Category
	for _, c := range categories {
		if c.ParentID != nil {
			if _, ok := present[*c.ParentID]; ok {
				children[*c.ParentID] = append(children[*c.ParentID], c)
				continue
			}
		}
		roots = append(roots, c)
	}

	var build func(c Category) CategoryNode
	build = func(c Category) CategoryNode {
		node := CategoryNode{Category: c, SubCategories: []CategoryNode{}}
		for _, child := range children[c.ID] {
			node.SubCategories = append(node.SubCategories, build(child))
		}
		return node
	}

	tree := make([]CategoryNode, 0, len(roots))
	for _, root := range roots {
		tree = append(tree, build(root))
	}
	return tree
}

type VariantType string

const (
	VariantColor VariantType = "color"
	VariantSize  VariantType = "size"
)

// Variant prices are in minor currency units.
type Variant struct {
	ID            string `json:"id"`
	Color         string `json:"color,omitempty"`
	Size          string `json:"size,omitempty"`
	StockQuantity int    `json:"stockQuantity"`
	Price         int64  `json:"price"`
}

type Product struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	BrandID      string      `json:"brandId"`
	CategoryID   string      `json:"categoryId"`
	VariantType  VariantType `json:"variantType"`
	Variants     []Variant   `json:"variants"`
	Images       []Media     `json:"images"`
	IsNewArrival bool        `json:"isNewArrival"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (p Product) Variant(id string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

type ProductSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BrandID      string `json:"brandId"`
	CategoryID   string `json:"categoryId"`
	FromPrice    int64  `json:"fromPrice"`
	Image        *Media `json:"image"`
	IsNewArrival bool   `json:"isNewArrival"`
}

func (p Product) Summary() ProductSummary {
	s := ProductSummary{
		ID:           p.ID,
		Name:         p.Name,
		BrandID:      p.BrandID,
		CategoryID:   p.CategoryID,
		IsNewArrival: p.IsNewArrival,
	}
	for i, v := range p.Variants {
		if i == 0 || v.Price < s.FromPrice {
			s.FromPrice = v.Price
		}
	}
	if len(p.Images) > 0 {
		img := p.Images[0]
		s.Image = &img
	}
	return s
}

type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	AccountID string    `json:"accountId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type Blog struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  string    `json:"categoryId"`
	Image       string    `json:"image"`
	Author      string    `json:"author"`
	ViewCount   int64     `json:"viewCount"`
	Likes       []string  `json:"likes"`
	Dislikes    []string  `json:"dislikes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// React toggles accountID's reaction. Reacting removes the opposite reaction;
// repeating the same reaction withdraws it.
func (b *Blog) React(accountID string, reaction Reaction) {
	same, opposite := &b.Likes, &b.Dislikes
	if reaction == ReactionDislike {
		same, opposite = &b.Dislikes, &b.Likes
	}

	*opposite = without(*opposite, accountID)
	if contains(*same, accountID) {
		*same = without(*same, accountID)
		return
	}
	*same = append(*same, accountID)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func without(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
