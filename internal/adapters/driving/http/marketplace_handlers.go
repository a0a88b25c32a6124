package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/shopgate/internal/core/domain"
	"github.com/custodia-labs/shopgate/internal/core/ports/driven"
)

// draftListingFields are the only request fields forwarded when creating a
// draft listing.
var draftListingFields = []string{
	"title",
	"description",
	"price",
	"quantity",
	"who_made",
	"when_made",
	"is_supply",
	"taxonomy_id",
	"shipping_profile_id",
}

// handleListMyShops godoc
// @Summary      List the connected account's shops
// @Tags         Marketplace
// @Produce      json
// @Success      200  {object}  object
// @Failure      401  {object}  ErrorResponse  "Not authenticated with marketplace"
// @Failure      500  {object}  ErrorResponse  "Failed to load shops"
// @Router       /api/me/shops [get]
func (s *Server) handleListMyShops(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r.Context())
	accountID := sess.TokenRecord.AccountID
	if accountID == "" {
		s.logger.Error("access token carries no account id")
		writeError(w, http.StatusInternalServerError, "Failed to load shops")
		return
	}

	s.proxyGet(w, r, "application/users/"+accountID+"/shops", "Failed to load shops")
}

// handleListActiveListings godoc
// @Summary      List a shop's active listings
// @Tags         Marketplace
// @Produce      json
// @Param        shopId  path  string  true  "Shop ID"
// @Success      200  {object}  object
// @Failure      400  {object}  ErrorResponse  "Invalid shop id"
// @Failure      401  {object}  ErrorResponse  "Not authenticated with marketplace"
// @Failure      500  {object}  ErrorResponse  "Failed to load listings"
// @Router       /api/shops/{shopId}/listings/active [get]
func (s *Server) handleListActiveListings(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopIDParam(w, r)
	if !ok {
		return
	}
	s.proxyGet(w, r, "application/shops/"+shopID+"/listings/active?limit=25", "Failed to load listings")
}

// handleListReceipts godoc
// @Summary      List a shop's paid receipts
// @Tags         Marketplace
// @Produce      json
// @Param        shopId  path  string  true  "Shop ID"
// @Success      200  {object}  object
// @Failure      400  {object}  ErrorResponse  "Invalid shop id"
// @Failure      401  {object}  ErrorResponse  "Not authenticated with marketplace"
// @Failure      500  {object}  ErrorResponse  "Failed to load receipts"
// @Router       /api/shops/{shopId}/receipts [get]
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopIDParam(w, r)
	if !ok {
		return
	}
	s.proxyGet(w, r, "application/shops/"+shopID+"/receipts?limit=25&was_paid=true", "Failed to load receipts")
}

// handleCreateDraftListing godoc
// @Summary      Create a draft listing
// @Description  Forwards a whitelisted subset of fields with state=DRAFT
// @Tags         Marketplace
// @Accept       json
// @Produce      json
// @Param        shopId   path  string  true  "Shop ID"
// @Param        request  body  object  true  "Listing fields"
// @Success      200  {object}  object
// @Failure      400  {object}  ErrorResponse  "Failed to create draft listing"
// @Failure      401  {object}  ErrorResponse  "Not authenticated with marketplace"
// @Router       /api/shops/{shopId}/listings/draft [post]
func (s *Server) handleCreateDraftListing(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopIDParam(w, r)
	if !ok {
		return
	}

	var req map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload := make(map[string]any, len(draftListingFields)+1)
	for _, field := range draftListingFields {
		if v, ok := req[field]; ok {
			payload[field] = v
		}
	}
	payload["state"] = "DRAFT"

	client, err := s.authService.AuthorizedClient(GetSession(r.Context()))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not authenticated with marketplace")
		return
	}

	var out json.RawMessage
	if err := client.Post(r.Context(), "application/shops/"+shopID+"/listings", payload, &out); err != nil {
		s.writeAPIError(w, err, http.StatusBadRequest, "Failed to create draft listing")
		return
	}
	writeRaw(w, out)
}

// proxyGet relays a GET against the marketplace API for the session.
func (s *Server) proxyGet(w http.ResponseWriter, r *http.Request, path, failMessage string) {
	client, err := s.authService.AuthorizedClient(GetSession(r.Context()))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not authenticated with marketplace")
		return
	}

	var out json.RawMessage
	if err := client.Get(r.Context(), path, &out); err != nil {
		s.writeAPIError(w, err, http.StatusInternalServerError, failMessage)
		return
	}
	writeRaw(w, out)
}

// writeAPIError logs the remote failure and answers with a generic message.
// Remote bodies are never returned to the browser.
func (s *Server) writeAPIError(w http.ResponseWriter, err error, status int, message string) {
	var apiErr *driven.APIError
	switch {
	case errors.As(err, &apiErr):
		s.logger.Error(message, "remote_status", apiErr.StatusCode, "body", apiErr.Body)
	case errors.Is(err, domain.ErrServiceUnavailable):
		s.logger.Warn(message, "error", err)
		status = http.StatusServiceUnavailable
	default:
		s.logger.Error(message, "error", err)
	}
	writeError(w, status, message)
}

// shopIDParam extracts a numeric shop ID from the path.
func shopIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("shopId")
	if !isDigits(id) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid shop id %q", id))
		return "", false
	}
	return id, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func writeRaw(w http.ResponseWriter, body json.RawMessage) {
	if len(body) == 0 {
		body = json.RawMessage("{}")
	}
	writeJSON(w, http.StatusOK, body)
}
