package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	domcategory "example.com/product-catalog/internal/domain/category"
	domproduct "example.com/product-catalog/internal/domain/product"
)

const maxBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	products, err := a.productSvc.List(r.Context(), filter)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	resp := make([]map[string]any, 0, len(products))
	for _, p := range products {
		resp = append(resp, p.Serialize())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusNotFound, notFound(chi.URLParam(r, "id")))
		return
	}
	p, err := a.productSvc.GetByID(r.Context(), id)
	if err != nil {
		a.handleDomainError(w, r, withID(err, id))
		return
	}
	writeJSON(w, http.StatusOK, p.Serialize())
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	p, err := decodeProduct(w, r)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	created, err := a.productSvc.Create(r.Context(), p)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", productURL(r, created.ID))
	writeJSON(w, http.StatusCreated, created.Serialize())
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusNotFound, notFound(chi.URLParam(r, "id")))
		return
	}
	p, err := decodeProduct(w, r)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	updated, err := a.productSvc.Update(r.Context(), id, p)
	if err != nil {
		a.handleDomainError(w, r, withID(err, id))
		return
	}
	writeJSON(w, http.StatusOK, updated.Serialize())
}

func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusNotFound, notFound(chi.URLParam(r, "id")))
		return
	}
	if err := a.productSvc.Delete(r.Context(), id); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRaiseException(w http.ResponseWriter, r *http.Request) {
	panic("fault probe triggered")
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (*domproduct.Product, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: %v", domproduct.ErrMalformedJSON, err)
	}
	return domproduct.DecodeJSON(body)
}

// parseListFilter reads name, category, available and price from the query
// string. Empty values are treated as absent.
func parseListFilter(r *http.Request) (domproduct.ListFilter, error) {
	var filter domproduct.ListFilter
	q := r.URL.Query()

	if name := q.Get("name"); name != "" {
		filter.Name = &name
	}
	if v := q.Get("category"); v != "" {
		c, err := domcategory.Parse(v)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	if v := q.Get("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("invalid value for available: %q", v)
		}
		filter.Available = &available
	}
	if v := q.Get("price"); v != "" {
		price, err := domproduct.ParsePrice(v)
		if err != nil {
			return filter, err
		}
		filter.Price = &price
	}
	return filter, nil
}

func productURL(r *http.Request, id int64) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/products/%d", scheme, r.Host, id)
}

func notFound(id string) error {
	return fmt.Errorf("%w: id '%s'", domproduct.ErrProductNotFound, id)
}

func withID(err error, id int64) error {
	if errors.Is(err, domproduct.ErrProductNotFound) {
		return notFound(strconv.FormatInt(id, 10))
	}
	return err
}
