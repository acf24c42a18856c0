package sim

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/indcloud/console/data"
)

type claimsKey struct{}

func claimsFrom(req *http.Request) *Claims {
	c, _ := req.Context().Value(claimsKey{}).(*Claims)
	return c
}

func (s *Server) auth(role string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			claims, ok := s.key.RequestClaims(req)
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if role != "" && !claims.HasRole(role) {
				writeError(w, http.StatusForbidden, "access denied")
				return
			}
			next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), claimsKey{}, claims)))
		})
	}
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/v1/version", s.version).Methods("GET")
	r.HandleFunc("/api/v1/auth/login", s.login).Methods("POST")
	r.HandleFunc("/oauth2/authorization/{provider}", s.oauth).Methods("GET")
	r.Handle("/ws/logs", s.logs)
	r.HandleFunc("/ws/telemetry", s.serveTelemetry)

	// admin routes first: the /api/v1 prefix would match them too
	admin := r.PathPrefix("/api/v1/admin").Subrouter()
	admin.Use(s.auth(RoleAdmin))
	admin.HandleFunc("/devices", s.listDevices).Methods("GET")
	admin.HandleFunc("/devices/{id}", s.getDevice).Methods("GET")
	admin.HandleFunc("/devices/{id}", s.updateDevice).Methods("PUT")
	admin.HandleFunc("/devices/{id}/enable", s.setDeviceActive(true)).Methods("PUT")
	admin.HandleFunc("/devices/{id}/disable", s.setDeviceActive(false)).Methods("PUT")
	admin.HandleFunc("/devices/{id}", s.deleteDevice).Methods("DELETE")

	admin.HandleFunc("/organizations", s.listOrgs).Methods("GET")
	admin.HandleFunc("/organizations/{id:[0-9]+}", s.getOrg).Methods("GET")
	admin.HandleFunc("/organizations/{id:[0-9]+}", s.updateOrg).Methods("PUT")
	admin.HandleFunc("/organizations/{id:[0-9]+}/enable", s.setOrgEnabled(true)).Methods("PUT")
	admin.HandleFunc("/organizations/{id:[0-9]+}/disable", s.setOrgEnabled(false)).Methods("PUT")
	admin.HandleFunc("/organizations/{id:[0-9]+}", s.deleteOrg).Methods("DELETE")

	admin.HandleFunc("/trash", s.listTrash).Methods("GET")
	admin.HandleFunc("/trash/{id:[0-9]+}/restore", s.restore).Methods("POST")

	admin.HandleFunc("/support/issues", s.listIssues).Methods("GET")
	admin.HandleFunc("/support/issues/{id:[0-9]+}", s.getIssue).Methods("GET")
	admin.HandleFunc("/support/issues/{id:[0-9]+}/status", s.setIssueStatus).Methods("PATCH")
	admin.HandleFunc("/support/issues/{id:[0-9]+}/comments", s.listComments).Methods("GET")
	admin.HandleFunc("/support/issues/{id:[0-9]+}/comments", s.addComment).Methods("POST")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.auth(""))
	api.HandleFunc("/analytics/aggregate", s.aggregate).Methods("GET")
	api.HandleFunc("/export/csv/{id}", s.exportCSV).Methods("GET")
	api.HandleFunc("/export/json/{id}", s.exportJSON).Methods("GET")
	api.HandleFunc("/sms-settings", s.getSms).Methods("GET")
	api.HandleFunc("/sms-settings", s.putSms).Methods("PUT")
	api.HandleFunc("/sms-settings/reset-monthly-counters", s.resetSms).Methods("POST")
	api.HandleFunc("/webhook-tests", s.postWebhookTest).Methods("POST")
	api.HandleFunc("/webhook-tests", s.listWebhookTests).Methods("GET")
	api.HandleFunc("/webhook-tests/{id:[0-9]+}", s.getWebhookTest).Methods("GET")
	api.HandleFunc("/webhook-tests/{id:[0-9]+}", s.deleteWebhookTest).Methods("DELETE")

	return r
}

func idVar(req *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	return id
}

func (s *Server) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, data.Version{Version: Version})
}

func (s *Server) login(w http.ResponseWriter, req *http.Request) {
	var l data.Login
	if err := decode(req.Body, &l); err != nil {
		writeError(w, http.StatusBadRequest, "invalid login request")
		return
	}
	admin, ok := s.store.CheckUser(l.Email, l.Password)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	token, err := s.key.NewToken(l.Email, admin)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, data.Auth{Token: token, Email: l.Email, IsAdmin: admin})
}

// oauth skips the provider and redirects straight back with an admin token
func (s *Server) oauth(w http.ResponseWriter, req *http.Request) {
	redirect := req.URL.Query().Get("redirect_uri")
	if redirect == "" {
		writeError(w, http.StatusBadRequest, "redirect_uri is required")
		return
	}
	u, err := url.Parse(redirect)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid redirect_uri")
		return
	}
	token, err := s.Token()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	http.Redirect(w, req, u.String(), http.StatusFound)
}

func (s *Server) listDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Devices())
}

func (s *Server) getDevice(w http.ResponseWriter, req *http.Request) {
	d, err := s.store.Device(mux.Vars(req)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) updateDevice(w http.ResponseWriter, req *http.Request) {
	var u data.DeviceUpdate
	if err := decode(req.Body, &u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid device update")
		return
	}
	d, err := s.store.UpdateDevice(mux.Vars(req)["id"], u)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeOK(w, "Device updated successfully", d)
}

func (s *Server) setDeviceActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		d, err := s.store.SetDeviceActive(mux.Vars(req)["id"], active)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		msg := "Device disabled successfully"
		if active {
			msg = "Device enabled successfully"
		}
		writeOK(w, msg, d)
	}
}

func (s *Server) deleteDevice(w http.ResponseWriter, req *http.Request) {
	r, err := s.store.DeleteDevice(mux.Vars(req)["id"], req.URL.Query().Get("reason"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeOK(w, "Device moved to trash", r)
}

func (s *Server) listOrgs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Organizations())
}

func (s *Server) getOrg(w http.ResponseWriter, req *http.Request) {
	o, err := s.store.Organization(idVar(req))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) updateOrg(w http.ResponseWriter, req *http.Request) {
	var u data.OrganizationUpdate
	if err := decode(req.Body, &u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid organization update")
		return
	}
	o, err := s.store.UpdateOrganization(idVar(req), u)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeOK(w, "Organization updated successfully", o)
}

func (s *Server) setOrgEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		o, err := s.store.SetOrganizationEnabled(idVar(req), enabled)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		msg := "Organization disabled successfully"
		if enabled {
			msg = "Organization enabled successfully"
		}
		writeOK(w, msg, o)
	}
}

func (s *Server) deleteOrg(w http.ResponseWriter, req *http.Request) {
	r, err := s.store.DeleteOrganization(idVar(req), req.URL.Query().Get("reason"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeOK(w, "Organization moved to trash", r)
}

func (s *Server) listTrash(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Trash())
}

func (s *Server) restore(w http.ResponseWriter, req *http.Request) {
	if err := s.store.Restore(idVar(req)); err != nil {
		writeStoreError(w, err)
		return
	}
	writeOK(w, "Item restored successfully", nil)
}

func (s *Server) listIssues(w http.ResponseWriter, req *http.Request) {
	var status data.IssueStatus
	if q := req.URL.Query().Get("status"); q != "" {
		st, err := data.ParseIssueStatus(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = st
	}
	ret := s.store.Issues(status)
	if ret == nil {
		ret = []data.Issue{}
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) getIssue(w http.ResponseWriter, req *http.Request) {
	i, err := s.store.Issue(idVar(req))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, i)
}

func (s *Server) setIssueStatus(w http.ResponseWriter, req *http.Request) {
	var u data.IssueStatusUpdate
	if err := decode(req.Body, &u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid status update")
		return
	}
	i, err := s.store.SetIssueStatus(idVar(req), u.Status)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, i)
}

func (s *Server) listComments(w http.ResponseWriter, req *http.Request) {
	c, err := s.store.Comments(idVar(req))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) addComment(w http.ResponseWriter, req *http.Request) {
	var c data.NewIssueComment
	if err := decode(req.Body, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment")
		return
	}
	author := "admin"
	if claims := claimsFrom(req); claims != nil {
		author = claims.Email
	}
	ret, err := s.store.AddComment(idVar(req), author, c)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ret)
}

func (s *Server) getSms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.SmsSettings())
}

func (s *Server) putSms(w http.ResponseWriter, req *http.Request) {
	var u data.SmsSettingsUpdate
	if err := decode(req.Body, &u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings")
		return
	}
	ret, err := s.store.UpdateSmsSettings(u)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) resetSms(w http.ResponseWriter, _ *http.Request) {
	s.store.ResetSmsCounters()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) postWebhookTest(w http.ResponseWriter, req *http.Request) {
	var r data.WebhookTestRequest
	if err := decode(req.Body, &r); err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook test")
		return
	}
	if r.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	result := runWebhookTest(req.Context(), s.webhookClient, r)
	writeJSON(w, http.StatusOK, s.store.AddWebhookTest(result))
}

func (s *Server) listWebhookTests(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	writeJSON(w, http.StatusOK, s.store.WebhookTests(page, size))
}

func (s *Server) getWebhookTest(w http.ResponseWriter, req *http.Request) {
	t, err := s.store.WebhookTest(idVar(req))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteWebhookTest(w http.ResponseWriter, req *http.Request) {
	if err := s.store.DeleteWebhookTest(idVar(req)); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
