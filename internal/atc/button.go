// Package atc renders the add-to-cart control shown on product pages.
package atc

import (
	"html/template"

	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/view"
)

// Button is a stateless control bound to one product and a callback.
type Button struct {
	Product     catalog.Product
	OnAddToCart func(catalog.Product)
	// Action is the URL the control posts to when activated.
	Action    string
	CSRFToken string
}

// Activate hands a copy of the product to the callback.
func (b Button) Activate() {
	if b.OnAddToCart == nil {
		return
	}
	b.OnAddToCart(b.Product)
}

// View renders the control.
func (b Button) View(engine *view.Engine) (template.HTML, error) {
	return engine.Fragment("partials/atc_button.html", map[string]any{
		"Action":    b.Action,
		"CSRFToken": b.CSRFToken,
		"ProductID": b.Product.ID,
	})
}
