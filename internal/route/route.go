// Package route maps URL paths to the pages of the storefront.
package route

import (
	"strconv"
	"strings"
)

// Chi patterns for the routed pages.
const (
	HomePattern          = "/"
	ProductDetailPattern = "/products/{id:[0-9]+}"
)

const productPrefix = "/products/"

// Route is a parsed page location. The only implementations are
// ProductDetail and HomePage.
type Route interface {
	Path() string
	route()
}

// ProductDetail is the page of a single product.
type ProductDetail struct {
	ID int64
}

// HomePage is the landing page.
type HomePage struct{}

// Path returns the URL path of the product page.
func (r ProductDetail) Path() string {
	return productPrefix + strconv.FormatInt(r.ID, 10)
}

// Path returns the URL path of the home page.
func (HomePage) Path() string {
	return "/"
}

func (ProductDetail) route() {}
func (HomePage) route()      {}

// Parse maps path to a Route. Unmatched paths, including ids that do not
// parse as a base-10 integer, yield false.
func Parse(path string) (Route, bool) {
	if path == "/" {
		return HomePage{}, true
	}
	raw, ok := strings.CutPrefix(path, productPrefix)
	if !ok || raw == "" {
		return nil, false
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return nil, false
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return ProductDetail{ID: id}, true
}
