// Package productdetail implements the product page view: it fetches one
// product when mounted and renders loading, success or failure.
package productdetail

import (
	"context"
	"html/template"

	"github.com/odyssey-erp/storefront/internal/atc"
	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/component"
	"github.com/odyssey-erp/storefront/internal/view"
)

// ImagePrefix is prepended to a product's image field.
const ImagePrefix = "/products/"

// Fetcher issues product requests.
type Fetcher interface {
	GetProduct(id int64, handler catalog.Handler) *catalog.Task
}

// Props are fixed at mount.
type Props struct {
	ID          int64
	OnAddToCart func(catalog.Product)
	// Action is where the add-to-cart control posts.
	Action    string
	CSRFToken string
}

// Phase is the rendered branch of the fetch lifecycle.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseFailure Phase = "failure"
)

// State is the fetch lifecycle of one mounted view. At most one of Product
// and Err is set, and Loaded flips to true once, on the first response.
type State struct {
	Product *catalog.Product
	Err     error
	Loaded  bool
}

// Phase derives the render branch. A loaded state without a product renders
// as failure.
func (s State) Phase() Phase {
	switch {
	case s.Product != nil:
		return PhaseSuccess
	case !s.Loaded:
		return PhaseLoading
	default:
		return PhaseFailure
	}
}

// Msg is a message understood by View.
type Msg interface {
	isMsg()
}

// GetProduct asks the view to fetch its product.
type GetProduct struct{}

// GetProductSuccess delivers the fetched product.
type GetProductSuccess struct {
	Product catalog.Product
}

// GetProductError delivers a failed fetch.
type GetProductError struct {
	Err error
}

// AddToCart activates the add-to-cart control.
type AddToCart struct{}

func (GetProduct) isMsg()        {}
func (GetProductSuccess) isMsg() {}
func (GetProductError) isMsg()   {}
func (AddToCart) isMsg()         {}

// View is the product detail component.
type View struct {
	props   Props
	state   State
	link    component.Link[Msg]
	task    *catalog.Task
	fetcher Fetcher
	engine  *view.Engine
}

func create(fetcher Fetcher, engine *view.Engine, props Props, link component.Link[Msg]) *View {
	link.SendMessage(GetProduct{})
	return &View{
		props:   props,
		link:    link,
		fetcher: fetcher,
		engine:  engine,
	}
}

// Update applies one message.
func (v *View) Update(msg Msg) bool {
	switch m := msg.(type) {
	case GetProduct:
		if v.task != nil || v.state.Loaded {
			return false
		}
		link := v.link
		v.task = v.fetcher.GetProduct(v.props.ID, func(p catalog.Product, err error) {
			if err != nil {
				link.SendMessage(GetProductError{Err: err})
				return
			}
			link.SendMessage(GetProductSuccess{Product: p})
		})
		return true
	case GetProductSuccess:
		if v.state.Loaded {
			return false
		}
		product := m.Product
		v.state.Product = &product
		v.state.Loaded = true
		v.task = nil
		return true
	case GetProductError:
		if v.state.Loaded {
			return false
		}
		v.state.Err = m.Err
		v.state.Loaded = true
		v.task = nil
		return true
	case AddToCart:
		if v.state.Product != nil {
			v.button(*v.state.Product).Activate()
		}
		return false
	}
	return false
}

// Change ignores new props: the view keeps the id it was mounted with.
func (v *View) Change(Props) bool {
	return false
}

// View renders the current state.
func (v *View) View() (template.HTML, error) {
	data := struct {
		Phase     Phase
		Product   *catalog.Product
		ImagePath string
		Button    template.HTML
	}{Phase: v.state.Phase()}

	if p := v.state.Product; p != nil {
		button, err := v.button(*p).View(v.engine)
		if err != nil {
			return "", err
		}
		data.Product = p
		data.ImagePath = ImagePrefix + p.Image
		data.Button = button
	}
	return v.engine.Fragment("partials/product_detail.html", data)
}

// Destroy releases the outstanding request, if any.
func (v *View) Destroy() {
	v.task.Release()
	v.task = nil
}

func (v *View) button(p catalog.Product) atc.Button {
	return atc.Button{
		Product:     p,
		OnAddToCart: v.props.OnAddToCart,
		Action:      v.props.Action,
		CSRFToken:   v.props.CSRFToken,
	}
}

// Handle is a mounted product detail view.
type Handle struct {
	scope *component.Scope[Msg, *View]
}

// Mount constructs the view and schedules its fetch.
func Mount(fetcher Fetcher, engine *view.Engine, props Props) *Handle {
	scope := component.Mount(func(link component.Link[Msg]) *View {
		return create(fetcher, engine, props, link)
	})
	return &Handle{scope: scope}
}

// Render returns the current markup.
func (h *Handle) Render(ctx context.Context) (template.HTML, error) {
	return h.scope.Render(ctx)
}

// Revision counts state changes that asked for a re-render.
func (h *Handle) Revision() uint64 {
	return h.scope.Renders()
}

// State returns a snapshot of the lifecycle state.
func (h *Handle) State(ctx context.Context) (State, error) {
	var st State
	if err := h.scope.Do(ctx, func(v *View) {
		st = v.state
	}); err != nil {
		return State{}, err
	}
	return st, nil
}

// SetProps offers new props to the view. The mounted id and callback are
// kept, so no new fetch is issued.
func (h *Handle) SetProps(ctx context.Context, props Props) error {
	return h.scope.Do(ctx, func(v *View) {
		v.Change(props)
	})
}

// AddToCart activates the control and waits until the callback has run.
func (h *Handle) AddToCart(ctx context.Context) (bool, error) {
	h.scope.Send(AddToCart{})
	var added bool
	if err := h.scope.Do(ctx, func(v *View) {
		added = v.state.Product != nil
	}); err != nil {
		return false, err
	}
	return added, nil
}

// Unmount stops the view and releases its request.
func (h *Handle) Unmount() {
	h.scope.Unmount()
}

// Done is closed once the view has been torn down.
func (h *Handle) Done() <-chan struct{} {
	return h.scope.Done()
}
