package domain

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Product is a catalog entry with its ordered sub-products.
type Product struct {
	Name        string   `yaml:"name" json:"name"`
	SubProducts []string `yaml:"subProducts" json:"subProducts"`
}

// Catalog is the static product to sub-product mapping. It is read-only after construction.
type Catalog struct {
	products []Product
	index    map[string]map[string]struct{}
}

type catalogFile struct {
	Products []Product `yaml:"products"`
}

// NewCatalog builds a catalog, rejecting empty or duplicated names.
func NewCatalog(products []Product) (*Catalog, error) {
	c := &Catalog{index: make(map[string]map[string]struct{}, len(products))}
	for _, p := range products {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("catalog: product with empty name")
		}
		if _, dup := c.index[name]; dup {
			return nil, fmt.Errorf("catalog: duplicate product %q", name)
		}
		subs := make(map[string]struct{}, len(p.SubProducts))
		ordered := make([]string, 0, len(p.SubProducts))
		for _, sub := range p.SubProducts {
			sub = strings.TrimSpace(sub)
			if sub == "" {
				return nil, fmt.Errorf("catalog: product %q has an empty sub-product", name)
			}
			if _, dup := subs[sub]; dup {
				continue
			}
			subs[sub] = struct{}{}
			ordered = append(ordered, sub)
		}
		c.index[name] = subs
		c.products = append(c.products, Product{Name: name, SubProducts: ordered})
	}
	return c, nil
}

// LoadCatalog reads a YAML catalog file. An empty path yields the default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Products) == 0 {
		return nil, fmt.Errorf("catalog %s defines no products", path)
	}
	return NewCatalog(file.Products)
}

// Products returns a copy of the entries in declaration order.
func (c *Catalog) Products() []Product {
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, Product{Name: p.Name, SubProducts: append([]string(nil), p.SubProducts...)})
	}
	return out
}

// HasProduct reports whether the product exists.
func (c *Catalog) HasProduct(product string) bool {
	if c == nil {
		return false
	}
	_, ok := c.index[product]
	return ok
}

// Contains reports whether subProduct belongs to product.
func (c *Catalog) Contains(product, subProduct string) bool {
	if c == nil {
		return false
	}
	subs, ok := c.index[product]
	if !ok {
		return false
	}
	_, ok = subs[subProduct]
	return ok
}

// DefaultCatalog is the product list shipped with the application.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Product{
		{Name: "About", SubProducts: []string{"President’s Message", "Code of Conduct", "Policies", "Bylaws", "Sponsors", "Handbook", "Contact"}},
		{Name: "News", SubProducts: []string{"Announcement", "KSEA Letters", "KSEA e-Letters", "Job Opportunities", "Media"}},
		{Name: "Organization", SubProducts: []string{"Leadership", "Committee", "Technical Group", "Former Presidents", "Local Chapters", "KSEA Councilors", "YG Group", "Affiliated Professional Societies"}},
		{Name: "Activity", SubProducts: []string{"SEED", "UKC", "NMSC", "Katalyst", "IMPACTs", "SET-UP"}},
		{Name: "Award", SubProducts: []string{"Scholarship", "Honors and Awards", "Young Investigator Grants"}},
		{Name: "Membership", SubProducts: []string{"About Membership", "Lifetime Members", "Join Ksea"}},
	})
	if err != nil {
		panic(err)
	}
	return c
}
