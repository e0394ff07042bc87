package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"hireline/internal/content"
	"hireline/internal/models"
)

const defaultPageSize = 20

// FreelancerListItem is a discovery row: the profile plus the bits of the
// owning account worth showing in a listing.
type FreelancerListItem struct {
	models.FreelancerProfile
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

type FreelancerListResponse struct {
	Freelancers []FreelancerListItem `json:"freelancers"`
	Total       int                  `json:"total"`
	Page        int                  `json:"page"`
	Size        int                  `json:"size"`
}

type freelancerFilters struct {
	minRate       float64
	maxRate       float64
	minExperience int
	maxExperience int
	skills        []string
	search        string
	availableOnly bool
}

func parseFreelancerFilters(r *http.Request) freelancerFilters {
	q := r.URL.Query()
	f := freelancerFilters{
		minRate:       parseFloat(q.Get("min_rate"), 0),
		maxRate:       parseFloat(q.Get("max_rate"), 0),
		minExperience: parseInt(q.Get("min_experience"), 0),
		maxExperience: parseInt(q.Get("max_experience"), 0),
		search:        strings.ToLower(strings.TrimSpace(q.Get("q"))),
		availableOnly: q.Get("available") == "true",
	}
	for _, s := range strings.Split(q.Get("skills"), ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			f.skills = append(f.skills, s)
		}
	}
	return f
}

func (f freelancerFilters) matches(p models.FreelancerProfile, owner models.User) bool {
	if f.availableOnly && !p.IsAvailable {
		return false
	}
	if f.minRate > 0 && p.HourlyRate < f.minRate {
		return false
	}
	if f.maxRate > 0 && p.HourlyRate > f.maxRate {
		return false
	}
	if f.minExperience > 0 && p.YearsOfExperience < f.minExperience {
		return false
	}
	if f.maxExperience > 0 && p.YearsOfExperience > f.maxExperience {
		return false
	}
	for _, want := range f.skills {
		if !containsFold(p.Skills, want) && !containsFold(p.Technologies, want) {
			return false
		}
	}
	if f.search != "" {
		haystack := strings.ToLower(strings.Join([]string{
			p.Title, p.Bio, owner.FirstName, owner.LastName,
			strings.Join(p.Skills, " "), strings.Join(p.Technologies, " "),
		}, " "))
		if !strings.Contains(haystack, f.search) {
			return false
		}
	}
	return true
}

func containsFold(values []string, want string) bool {
	return slices.ContainsFunc(values, func(v string) bool {
		return strings.EqualFold(v, want)
	})
}

func parseFloat(s string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return fallback
}

func parseInt(s string, fallback int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return fallback
}

func parsePage(r *http.Request) (page, size int) {
	page = parseInt(r.URL.Query().Get("page"), 1)
	size = parseInt(r.URL.Query().Get("size"), defaultPageSize)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = defaultPageSize
	}
	return page, size
}

func (a *API) ListFreelancersHandler(w http.ResponseWriter, r *http.Request) {
	profiles, err := a.store.ListFreelancers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list freelancers")
		return
	}

	filters := parseFreelancerFilters(r)
	var matched []FreelancerListItem
	for _, p := range profiles {
		owner, ok := a.auth.GetUser(p.UserID)
		if !ok || !owner.IsActive {
			continue
		}
		if !filters.matches(p, owner) {
			continue
		}
		matched = append(matched, FreelancerListItem{
			FreelancerProfile: p,
			FirstName:         owner.FirstName,
			LastName:          owner.LastName,
			ProfilePicture:    owner.ProfilePicture,
		})
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Rating != matched[j].Rating {
			return matched[i].Rating > matched[j].Rating
		}
		return matched[i].ID < matched[j].ID
	})

	page, size := parsePage(r)
	total := len(matched)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, FreelancerListResponse{
		Freelancers: matched[start:end],
		Total:       total,
		Page:        page,
		Size:        size,
	})
}

// FreelancerDetail adds the markdown-rendered bio and the portfolio to the
// listing row.
type FreelancerDetail struct {
	FreelancerListItem
	BioHTML  string           `json:"bio_html,omitempty"`
	Projects []models.Project `json:"projects"`
}

func (a *API) GetFreelancerHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := a.store.GetFreelancer(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Freelancer not found")
		return
	}

	owner, ok := a.auth.GetUser(profile.UserID)
	if !ok {
		writeError(w, http.StatusNotFound, "Freelancer not found")
		return
	}

	bioHTML := ""
	if profile.Bio != "" {
		if html, err := content.RenderMarkdown(profile.Bio); err == nil {
			bioHTML = html
		}
	}

	projects, err := a.store.ListProjects(profile.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects")
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}

	writeJSON(w, http.StatusOK, FreelancerDetail{
		FreelancerListItem: FreelancerListItem{
			FreelancerProfile: profile,
			FirstName:         owner.FirstName,
			LastName:          owner.LastName,
			ProfilePicture:    owner.ProfilePicture,
		},
		BioHTML:  bioHTML,
		Projects: projects,
	})
}

// myProfile loads the freelancer profile owned by the authenticated user.
func (a *API) myProfile(r *http.Request) (models.FreelancerProfile, error) {
	user, ok := a.auth.GetUser(requestUserID(r))
	if !ok || user.UserType != models.UserTypeFreelancer {
		return models.FreelancerProfile{}, errors.New("not a freelancer account")
	}
	return a.store.GetFreelancerByUser(user.ID)
}

func (a *API) UpdateMyFreelancerHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := a.myProfile(r)
	if err != nil {
		writeError(w, http.StatusForbidden, "Freelancer profile required")
		return
	}

	var req models.FreelancerProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile.Title = content.Sanitize(req.Title)
	profile.Bio = content.Sanitize(req.Bio)
	profile.HourlyRate = req.HourlyRate
	profile.DailyRate = req.DailyRate
	profile.YearsOfExperience = req.YearsOfExperience
	profile.Skills = sanitizeList(req.Skills)
	profile.Technologies = sanitizeList(req.Technologies)
	profile.PortfolioURL = req.PortfolioURL
	profile.GithubURL = req.GithubURL
	profile.LinkedinURL = req.LinkedinURL
	profile.IsAvailable = req.IsAvailable
	profile.PreferredWorkType = sanitizeList(req.PreferredWorkType)
	profile.Timezone = content.Sanitize(req.Timezone)

	if err := a.store.UpsertFreelancer(profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func sanitizeList(values []string) []string {
	var out []string
	for _, v := range values {
		if v = content.Sanitize(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (a *API) ToggleAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := a.myProfile(r)
	if err != nil {
		writeError(w, http.StatusForbidden, "Freelancer profile required")
		return
	}

	profile.IsAvailable = !profile.IsAvailable
	if err := a.store.UpsertFreelancer(profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type FilterOptions struct {
	Skills        []string `json:"skills"`
	Technologies  []string `json:"technologies"`
	MinHourlyRate float64  `json:"min_hourly_rate"`
	MaxHourlyRate float64  `json:"max_hourly_rate"`
	MaxExperience int      `json:"max_experience"`
}

func (a *API) FilterOptionsHandler(w http.ResponseWriter, r *http.Request) {
	profiles, err := a.store.ListFreelancers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list freelancers")
		return
	}

	skills := map[string]struct{}{}
	techs := map[string]struct{}{}
	opts := FilterOptions{}
	for i, p := range profiles {
		for _, s := range p.Skills {
			skills[s] = struct{}{}
		}
		for _, t := range p.Technologies {
			techs[t] = struct{}{}
		}
		if i == 0 || p.HourlyRate < opts.MinHourlyRate {
			opts.MinHourlyRate = p.HourlyRate
		}
		if p.HourlyRate > opts.MaxHourlyRate {
			opts.MaxHourlyRate = p.HourlyRate
		}
		if p.YearsOfExperience > opts.MaxExperience {
			opts.MaxExperience = p.YearsOfExperience
		}
	}
	opts.Skills = sortedKeys(skills)
	opts.Technologies = sortedKeys(techs)

	writeJSON(w, http.StatusOK, opts)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type FreelancerStats struct {
	Total             int     `json:"total"`
	Available         int     `json:"available"`
	AverageHourlyRate float64 `json:"average_hourly_rate"`
}

func (a *API) FreelancerStatsHandler(w http.ResponseWriter, r *http.Request) {
	profiles, err := a.store.ListFreelancers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list freelancers")
		return
	}

	stats := FreelancerStats{Total: len(profiles)}
	var rateSum float64
	for _, p := range profiles {
		if p.IsAvailable {
			stats.Available++
		}
		rateSum += p.HourlyRate
	}
	if stats.Total > 0 {
		stats.AverageHourlyRate = rateSum / float64(stats.Total)
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	projects, err := a.store.ListProjects(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects")
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (a *API) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := a.myProfile(r)
	if err != nil {
		writeError(w, http.StatusForbidden, "Freelancer profile required")
		return
	}

	var req models.Project
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Project title is required")
		return
	}

	project := models.Project{
		ID:           uuid.NewString(),
		FreelancerID: profile.ID,
		Title:        content.Sanitize(req.Title),
		Description:  content.Sanitize(req.Description),
		URL:          req.URL,
		CoverImage:   req.CoverImage,
		Earned:       req.Earned,
		TimeTaken:    content.Sanitize(req.TimeTaken),
	}
	if err := a.store.UpsertProject(project); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create project")
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (a *API) UpdateProjectHandler(w http.ResponseWriter, r *http.Request) {
	project, ok := a.ownProject(w, r)
	if !ok {
		return
	}

	var req models.Project
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Title) != "" {
		project.Title = content.Sanitize(req.Title)
	}
	project.Description = content.Sanitize(req.Description)
	project.URL = req.URL
	project.CoverImage = req.CoverImage
	project.Earned = req.Earned
	project.TimeTaken = content.Sanitize(req.TimeTaken)

	if err := a.store.UpsertProject(project); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update project")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (a *API) DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	project, ok := a.ownProject(w, r)
	if !ok {
		return
	}
	if err := a.store.DeleteProject(project.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete project")
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{Success: true})
}

// ownProject resolves {id} and checks the project belongs to the caller's
// freelancer profile. Writes the error response itself on failure.
func (a *API) ownProject(w http.ResponseWriter, r *http.Request) (models.Project, bool) {
	profile, err := a.myProfile(r)
	if err != nil {
		writeError(w, http.StatusForbidden, "Freelancer profile required")
		return models.Project{}, false
	}

	projects, err := a.store.ListProjects(profile.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects")
		return models.Project{}, false
	}

	id := r.PathValue("id")
	for _, p := range projects {
		if p.ID == id {
			return p, true
		}
	}
	writeError(w, http.StatusNotFound, "Project not found")
	return models.Project{}, false
}
