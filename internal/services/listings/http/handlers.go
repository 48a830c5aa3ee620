// Package http provides http transport for listings
package http

import (
	"context"
	stdhttp "net/http"
	"strconv"
	"strings"

	"marketfeed/internal/modkit/httpkit"
	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/net/middleware"
	"marketfeed/internal/services/listings/domain"
	svc "marketfeed/internal/services/listings/service"
)

// Register mounts listing endpoints. Reads are public; writes need a bearer token
func Register(r httpkit.Router, s svc.Service, auth middleware.AuthPort) {
	h := &handlers{svc: s}

	r.Group(func(pub httpkit.Router) {
		pub.Use(httpkit.OptionalAuth(auth))
		httpkit.Get(pub, "/", h.feed)
		httpkit.Get(pub, "/{id}", h.view)
	})

	httpkit.Protected(r, auth, func(pr httpkit.Router) {
		httpkit.Get(pr, "/archived", h.archived)
		httpkit.PostJSON[domain.NewListing](pr, "/", h.create)
		httpkit.PutJSON[domain.ListingPatch](pr, "/{id}", h.update)
		httpkit.Delete(pr, "/{id}", h.remove)

		// the original clients archive with PUT
		httpkit.Post(pr, "/{id}/archive", h.archive)
		httpkit.Put(pr, "/{id}/archive", h.archive)
		httpkit.Post(pr, "/{id}/relist", h.relist)

		httpkit.PostJSON[domain.BulkRequest](pr, "/bulk", h.bulk)
	})
}

type handlers struct{ svc svc.Service }

// swagger:route GET /listings Listings listingsFeed
// @Summary Public feed of active listings
// @Tags Listings
// @Produce json
// @Param category query string false "Category"
// @Param condition query string false "Condition"
// @Param q query string false "Free text over title and description"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param userId query string false "Seller id"
// @Param postalCode query string false "5 digit postal code"
// @Param radius query number false "Radius in miles, needs postalCode"
// @Param sort query string false "random, newest, price_asc, price_desc, popularity, distance"
// @Param seed query string false "Random order seed"
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size"
// @Success 200 {array} domain.Listing "ok"
// @Failure 422 {object} httpkit.Envelope "bad filter"
// @Failure 503 {object} httpkit.Envelope "store unavailable"
// @Router /listings [get]
func (h *handlers) feed(r *stdhttp.Request) (any, error) {
	f, err := FeedSpec(r)
	if err != nil {
		return nil, err
	}
	f.Scope = domain.ScopePublic
	return h.page(r, f)
}

// swagger:route GET /listings/archived Listings listingsArchived
// @Summary The caller's archived listings
// @Tags Listings
// @Produce json
// @Security bearerAuth
// @Success 200 {array} domain.Listing "ok"
// @Failure 401 {object} httpkit.Envelope "unauthorized"
// @Router /listings/archived [get]
func (h *handlers) archived(r *stdhttp.Request) (any, error) {
	a, err := actor(r)
	if err != nil {
		return nil, err
	}
	f, err := FeedSpec(r)
	if err != nil {
		return nil, err
	}
	f.Scope, f.Actor = domain.ScopeArchive, a.UserID
	return h.page(r, f)
}

func (h *handlers) page(r *stdhttp.Request, f domain.FilterSortSpec) (any, error) {
	p, err := h.svc.Feed(r.Context(), f)
	if err != nil {
		return nil, err
	}
	resp := httpkit.List(p.Items, p.Page, p.PageSize, p.HasMore)
	if p.Seed != "" {
		resp.Header = stdhttp.Header{"X-Feed-Seed": []string{p.Seed}}
	}
	return resp, nil
}

// swagger:route GET /listings/{id} Listings listingView
// @Summary Listing detail; counts a view
// @Tags Listings
// @Produce json
// @Param id path string true "Listing id"
// @Success 200 {object} domain.Listing "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /listings/{id} [get]
func (h *handlers) view(r *stdhttp.Request) (any, error) {
	return h.svc.View(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route POST /listings Listings listingCreate
// @Summary Publish a listing
// @Tags Listings
// @Accept json
// @Produce json
// @Security bearerAuth
// @Param payload body domain.NewListing true "Listing"
// @Success 201 {object} domain.Listing "created"
// @Failure 400 {object} httpkit.Envelope "invalid body"
// @Router /listings [post]
func (h *handlers) create(r *stdhttp.Request, in domain.NewListing) (any, error) {
	a, err := actor(r)
	if err != nil {
		return nil, err
	}
	l, err := h.svc.Create(r.Context(), a, in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(l), nil
}

// swagger:route PUT /listings/{id} Listings listingUpdate
// @Summary Edit listing content
// @Tags Listings
// @Accept json
// @Produce json
// @Security bearerAuth
// @Param id path string true "Listing id"
// @Param payload body domain.ListingPatch true "Changed fields"
// @Success 200 {object} domain.Listing "ok"
// @Failure 403 {object} httpkit.Envelope "not the seller"
// @Failure 409 {object} httpkit.Envelope "listing deleted"
// @Router /listings/{id} [put]
func (h *handlers) update(r *stdhttp.Request, in domain.ListingPatch) (any, error) {
	a, err := actor(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Update(r.Context(), httpkit.Param(r, "id"), a, in)
}

// swagger:route POST /listings/{id}/archive Listings listingArchive
// @Summary Archive an active listing
// @Tags Listings
// @Produce json
// @Security bearerAuth
// @Param id path string true "Listing id"
// @Success 200 {object} domain.Listing "ok"
// @Failure 403 {object} httpkit.Envelope "not the seller"
// @Failure 409 {object} httpkit.Envelope "invalid transition"
// @Router /listings/{id}/archive [post]
func (h *handlers) archive(r *stdhttp.Request) (any, error) {
	return h.transition(r, h.svc.Archive)
}

// swagger:route POST /listings/{id}/relist Listings listingRelist
// @Summary Relist an archived listing for another retention window
// @Tags Listings
// @Produce json
// @Security bearerAuth
// @Param id path string true "Listing id"
// @Success 200 {object} domain.Listing "ok"
// @Failure 409 {object} httpkit.Envelope "invalid transition"
// @Router /listings/{id}/relist [post]
func (h *handlers) relist(r *stdhttp.Request) (any, error) {
	return h.transition(r, h.svc.Relist)
}

// swagger:route DELETE /listings/{id} Listings listingDelete
// @Summary Delete a listing
// @Tags Listings
// @Produce json
// @Security bearerAuth
// @Param id path string true "Listing id"
// @Success 200 {object} domain.Listing "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /listings/{id} [delete]
func (h *handlers) remove(r *stdhttp.Request) (any, error) {
	return h.transition(r, h.svc.Delete)
}

type transitionFunc func(ctx context.Context, id string, a domain.Actor) (domain.Listing, error)

func (h *handlers) transition(r *stdhttp.Request, op transitionFunc) (any, error) {
	a, err := actor(r)
	if err != nil {
		return nil, err
	}
	return op(r.Context(), httpkit.Param(r, "id"), a)
}

// swagger:route POST /listings/bulk Listings listingsBulk
// @Summary Archive, relist or delete many listings
// @Tags Listings
// @Accept json
// @Produce json
// @Security bearerAuth
// @Param payload body domain.BulkRequest true "Selection"
// @Success 200 {object} domain.BulkResult "per listing outcomes"
// @Failure 422 {object} httpkit.Envelope "empty selection"
// @Router /listings/bulk [post]
func (h *handlers) bulk(r *stdhttp.Request, in domain.BulkRequest) (any, error) {
	a, err := actor(r)
	if err != nil {
		return nil, err
	}
	return h.svc.ApplySelection(r.Context(), in.Selection(), in.Transition, a)
}

func actor(r *stdhttp.Request) (domain.Actor, error) {
	p, err := httpkit.User(r)
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.Actor{UserID: p.UserID, Admin: p.Admin}, nil
}

// FeedSpec reads feed filters from the query string, accepting the legacy
// aliases q/search, postalCode/zipCode and random=true
func FeedSpec(r *stdhttp.Request) (domain.FilterSortSpec, error) {
	q := r.URL.Query()
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(q.Get(k)); v != "" {
				return v
			}
		}
		return ""
	}
	f := domain.FilterSortSpec{
		Category:   first("category"),
		Condition:  first("condition"),
		Query:      first("q", "search"),
		SellerID:   first("userId", "sellerId"),
		PostalCode: first("postalCode", "zipCode"),
		Sort:       domain.Sort(first("sort")),
		Seed:       first("seed"),
	}
	if b, _ := strconv.ParseBool(first("random")); b {
		f.Sort = domain.SortRandom
	}

	var err error
	if f.MinPrice, err = optFloat(first("minPrice"), "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = optFloat(first("maxPrice"), "maxPrice"); err != nil {
		return f, err
	}
	if radius, err := optFloat(first("radius"), "radius"); err != nil {
		return f, err
	} else if radius != nil {
		f.RadiusMiles = *radius
	}
	if f.Page, err = optInt(first("page"), "page"); err != nil {
		return f, err
	}
	if f.PageSize, err = optInt(first("limit", "pageSize"), "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func optFloat(raw, field string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, perr.WithField(perr.InvalidArgf("%s must be a number", field), field)
	}
	return &v, nil
}

func optInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, perr.WithField(perr.InvalidArgf("%s must be an integer", field), field)
	}
	return v, nil
}
