package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"prepvault/internal/auth"
	"prepvault/internal/models"
	"prepvault/internal/services/activity"
	"prepvault/internal/services/companies"
	"prepvault/internal/services/ratelimit"
	"prepvault/internal/uploads"
)

const maxLogoBytes = 5 << 20

func ListCompanies(dir *companies.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, err := dir.List(r.Context(), r.URL.Query().Get("search"), queryInt(r, "limit", 50))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, cs)
	}
}

func GetCompany(dir *companies.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := dir.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, c)
	}
}

func GetBranchLists() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string][]string{
			"ug":  models.UGBranches,
			"pg":  models.PGBranches,
			"phd": models.PhDBranches,
		})
	}
}

// CreateCompany accepts multipart form data: a name field and an optional
// logo file relayed to the image host. A failed logo upload does not fail
// company creation.
func CreateCompany(dir *companies.Directory, uploader uploads.Uploader, limiter *ratelimit.Limiter, audit *activity.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())

		st, err := limiter.CheckAndConsume(r.Context(), u.ID, u.Role, ratelimit.ActionCompanies)
		setRateLimitHeaders(w, st)
		if err != nil {
			respondError(w, err)
			return
		}

		if err := r.ParseMultipartForm(maxLogoBytes); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		name := r.FormValue("name")

		var logoURL *string
		if file, header, err := r.FormFile("logo"); err == nil {
			defer file.Close()
			data, err := io.ReadAll(io.LimitReader(file, maxLogoBytes))
			if err == nil && uploader != nil {
				if url, err := uploader.Upload(r.Context(), header.Filename, data); err == nil {
					logoURL = &url
				} else {
					lg.Warnw("logo upload failed, creating company without logo", "error", err)
				}
			}
		}

		c, err := dir.Create(r.Context(), name, u.ID, logoURL)
		if err != nil {
			respondError(w, err)
			return
		}
		audit.Record(activity.Entry{
			Actor:       u,
			Action:      activity.ActionCompanyCreate,
			TargetType:  "company",
			TargetID:    c.ID,
			TargetInfo:  map[string]string{"name": c.Name},
			Description: u.FullName + " created company " + c.Name,
		}.FromRequest(r))
		respondStatusJSON(w, http.StatusCreated, c)
	}
}

func UpdateCompanyLogo(dir *companies.Directory, uploader uploads.Uploader, audit *activity.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())
		if err := r.ParseMultipartForm(maxLogoBytes); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("logo")
		if err != nil {
			http.Error(w, "no file uploaded", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxLogoBytes))
		if err != nil {
			http.Error(w, "could not read file", http.StatusBadRequest)
			return
		}
		if uploader == nil {
			http.Error(w, "image hosting not configured", http.StatusServiceUnavailable)
			return
		}
		url, err := uploader.Upload(r.Context(), header.Filename, data)
		if err != nil {
			lg.Warnw("logo upload failed", "error", err)
			http.Error(w, "logo upload failed", http.StatusBadGateway)
			return
		}
		c, err := dir.UpdateLogo(r.Context(), chi.URLParam(r, "id"), url)
		if err != nil {
			respondError(w, err)
			return
		}
		audit.Record(activity.Entry{
			Actor:       u,
			Action:      activity.ActionCompanyUpdate,
			TargetType:  "company",
			TargetID:    c.ID,
			Description: u.FullName + " updated logo for " + c.Name,
		}.FromRequest(r))
		respondJSON(w, c)
	}
}

func UpdateCompanyDetails(dir *companies.Directory, audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		in := companies.DetailsInput{}
		decodeField(raw, "description", &in.Description)
		if msg, ok := raw["roles"]; ok {
			in.RolesSet = true
			if err := json.Unmarshal(msg, &in.Roles); err != nil {
				http.Error(w, "invalid roles payload", http.StatusBadRequest)
				return
			}
		}
		c, err := dir.UpdateDetails(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			respondError(w, err)
			return
		}
		audit.Record(activity.Entry{
			Actor:       u,
			Action:      activity.ActionCompanyUpdate,
			TargetType:  "company",
			TargetID:    c.ID,
			Description: u.FullName + " updated details for " + c.Name,
		}.FromRequest(r))
		respondJSON(w, c)
	}
}
