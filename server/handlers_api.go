package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-client/users"
	"github.com/rs/zerolog/log"
)

const maxRecordBody = 1 << 20

// ProfileHandler returns the signed-in user.
func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": user.Payload()})
	}
}

// ListHandler lists the records of a resource the caller may view. Students
// only see their own rows of owned resources.
func (s *Server) ListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resource := users.Resource(r.PathValue("resource"))
		if !users.IsKnownResource(resource) {
			writeJSONError(w, "not_found", "Unknown resource", http.StatusNotFound)
			return
		}
		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}
		identity := user.Identity()
		if !users.Can(identity.Role, resource, users.ActionView) {
			writeJSONError(w, "forbidden", "Not allowed to view "+string(resource), http.StatusForbidden)
			return
		}

		visible := make([]Record, 0)
		for _, record := range s.records.List(resource) {
			if users.CanViewRecord(identity, resource, record.Owner) {
				visible = append(visible, record)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": visible})
	}
}

// ViewHandler returns one record.
func (s *Server) ViewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resource := users.Resource(r.PathValue("resource"))
		record, found := s.records.Get(resource, r.PathValue("id"))
		if !found {
			writeJSONError(w, "not_found", "Record not found", http.StatusNotFound)
			return
		}
		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}
		if !users.CanViewRecord(user.Identity(), resource, record.Owner) {
			writeJSONError(w, "forbidden", "Not allowed to view this record", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": record})
	}
}

// recordWrite is the body of the add and update routes.
type recordWrite struct {
	ID    string         `json:"id"`
	Owner string         `json:"owner"`
	Data  map[string]any `json:"data"`
}

// AddHandler creates a record. Only roles granted create on the resource may
// call it.
func (s *Server) AddHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resource, ok := s.authorizeWrite(w, r, users.ActionCreate)
		if !ok {
			return
		}
		var body recordWrite
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecordBody)).Decode(&body); err != nil || strings.TrimSpace(body.ID) == "" {
			writeJSONError(w, "invalid_request", "Record id is required", http.StatusBadRequest)
			return
		}

		record := Record{ID: strings.TrimSpace(body.ID), Owner: body.Owner, Data: body.Data}
		if err := s.records.Add(resource, record); err != nil {
			writeJSONError(w, "conflict", "Record already exists", http.StatusConflict)
			return
		}
		log.Info().Str("resource", string(resource)).Str("id", record.ID).Msg("Record added")
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": record})
	}
}

// UpdateHandler replaces the data of a record.
func (s *Server) UpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resource, ok := s.authorizeWrite(w, r, users.ActionEdit)
		if !ok {
			return
		}
		var body recordWrite
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecordBody)).Decode(&body); err != nil {
			writeJSONError(w, "invalid_request", "Malformed record", http.StatusBadRequest)
			return
		}

		record, err := s.records.Update(resource, r.PathValue("id"), body.Data)
		if err != nil {
			writeJSONError(w, "not_found", "Record not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": record})
	}
}

// DeleteHandler removes a record.
func (s *Server) DeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resource, ok := s.authorizeWrite(w, r, users.ActionDelete)
		if !ok {
			return
		}
		id := r.PathValue("id")
		if err := s.records.Delete(resource, id); err != nil {
			writeJSONError(w, "not_found", "Record not found", http.StatusNotFound)
			return
		}
		log.Info().Str("resource", string(resource)).Str("id", id).Msg("Record deleted")
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

// authorizeWrite resolves the resource of the route and checks that the
// caller's role may perform action on it.
func (s *Server) authorizeWrite(w http.ResponseWriter, r *http.Request, action users.Action) (users.Resource, bool) {
	resource := users.Resource(r.PathValue("resource"))
	if !users.IsKnownResource(resource) {
		writeJSONError(w, "not_found", "Unknown resource", http.StatusNotFound)
		return "", false
	}
	user, ok := s.currentUser(w, r)
	if !ok {
		return "", false
	}
	if !users.Can(user.Identity().Role, resource, action) {
		writeJSONError(w, "forbidden", "Not allowed to "+string(action)+" "+string(resource), http.StatusForbidden)
		return "", false
	}
	return resource, true
}

// JWKS returns the JSON Web Key Set used to validate tokens
func (s *Server) JWKS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		if err := json.NewEncoder(w).Encode(s.signer.GetJWKS()); err != nil {
			log.Err(err).Msg("Failed to encode JWKS")
		}
	}
}

// currentUser loads the account behind the verified claims, writing a 401
// if it is gone or blocked.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthorized", "Not authenticated", http.StatusUnauthorized)
		return nil, false
	}
	user, err := s.users.GetByID(claims.Subject)
	if err != nil || user.Blocked {
		writeJSONError(w, "invalid_token", "Account unavailable", http.StatusUnauthorized)
		return nil, false
	}
	return user, true
}
