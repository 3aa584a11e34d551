package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/spotatlas/spot-directory/internal/config"
	"github.com/spotatlas/spot-directory/internal/media"
	"github.com/spotatlas/spot-directory/internal/model"
	"github.com/spotatlas/spot-directory/internal/repository"
	"github.com/spotatlas/spot-directory/internal/utils"
)

// SpotHandler bundles dependencies for spot CRUD, browsing, search,
// hearts and the aggregate views.
type SpotHandler struct {
	Cfg     config.Config
	Spots   *repository.SpotRepo
	Reviews *repository.ReviewRepo
	Users   *repository.UserRepo
	Hearts  *repository.HeartRepo
	Photos  *media.Store
}

func NewSpotHandler(cfg config.Config, s *repository.SpotRepo, rev *repository.ReviewRepo, u *repository.UserRepo, hr *repository.HeartRepo, ph *media.Store) *SpotHandler {
	return &SpotHandler{Cfg: cfg, Spots: s, Reviews: rev, Users: u, Hearts: hr, Photos: ph}
}

// listPageSize is how many spots one list page carries.
const listPageSize = 4

// parseSpotForm reads the multipart fields shared by create and update.
// It returns a field-level error message when a required field is missing
// or malformed; an empty message means the form is good.
func parseSpotForm(c echo.Context, s *model.Spot) string {
	s.Name = strings.TrimSpace(c.FormValue("name"))
	if s.Name == "" {
		return "please enter a spot name"
	}
	s.Description = strings.TrimSpace(c.FormValue("description"))
	s.Address = strings.TrimSpace(c.FormValue("address"))
	if s.Address == "" {
		return "please enter an address"
	}
	lng, errLng := strconv.ParseFloat(c.FormValue("lng"), 64)
	lat, errLat := strconv.ParseFloat(c.FormValue("lat"), 64)
	if errLng != nil || errLat != nil {
		return "please enter the coordinates"
	}
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return "coordinates out of range"
	}
	s.Lng, s.Lat = lng, lat

	s.Tags = nil
	if form, err := c.MultipartForm(); err == nil && form != nil {
		s.Tags = form.Value["tags"]
	}
	return ""
}

// readPhoto pulls the optional photo part out of the request and returns
// its bytes, or nil when the client sent no file.
func readPhoto(c echo.Context) ([]byte, error) {
	fh, err := c.FormFile("photo")
	if err != nil {
		return nil, nil // no file part
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func(f multipart.File) { _ = f.Close() }(f)
	return io.ReadAll(f)
}

// Create stores a new spot. The photo, when present, is decoded, resized
// and written to disk before the database insert; a bad upload therefore
// aborts the request with no spot row. The reverse failure (file written,
// insert fails) leaves an orphaned upload behind, which is accepted.
func (h *SpotHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var s model.Spot
	if msg := parseSpotForm(c, &s); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	s.AuthorID = uid

	data, err := readPhoto(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read uploaded photo"})
	}
	if data != nil {
		name, err := h.Photos.Save(data)
		if err != nil {
			if errors.Is(err, media.ErrNotImage) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "that filetype isn't allowed"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store photo failed"})
		}
		s.Photo = &name
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Spots.Create(ctx, &s); err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidName):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "please enter a spot name"})
		case errors.Is(err, repository.ErrSlugTaken):
			return c.JSON(http.StatusConflict, echo.Map{"error": "a spot with that name was just created, please retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create spot failed"})
	}
	return c.JSON(http.StatusCreated, toSpotResp(s, nil))
}

// Update rewrites a spot the caller owns. When no new photo is uploaded
// the existing filename is kept; the slug only changes when the name
// does.
func (h *SpotHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid spot id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	current, err := h.Spots.GetByID(ctx, id)
	if err != nil {
		return errStatus(c, err, "load spot failed")
	}

	var s model.Spot
	s.ID = id
	if msg := parseSpotForm(c, &s); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	s.Photo = current.Photo
	data, err := readPhoto(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read uploaded photo"})
	}
	if data != nil {
		name, err := h.Photos.Save(data)
		if err != nil {
			if errors.Is(err, media.ErrNotImage) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "that filetype isn't allowed"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store photo failed"})
		}
		s.Photo = &name
	}

	if err := h.Spots.Update(ctx, uid, &s); err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidName):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "please enter a spot name"})
		case errors.Is(err, repository.ErrSlugTaken):
			return c.JSON(http.StatusConflict, echo.Map{"error": "a spot with that name already exists, please retry"})
		}
		return errStatus(c, err, "update spot failed")
	}
	return c.JSON(http.StatusOK, toSpotResp(s, nil))
}

// List returns one page of spots, newest first, each populated with its
// reviews. Asking for a page past the end returns the last page along
// with its corrected number so clients can fix their pagination state.
func (h *SpotHandler) List(c echo.Context) error {
	page := 1
	if p := c.QueryParam("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	spots, total, err := h.Spots.List(ctx, page, listPageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list spots failed"})
	}
	pages := int((total + listPageSize - 1) / listPageSize)
	if len(spots) == 0 && page > 1 && total > 0 {
		page = pages
		spots, _, err = h.Spots.List(ctx, page, listPageSize)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list spots failed"})
		}
	}

	resp, err := h.withReviews(ctx, spots)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reviews failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"spots": resp,
		"page":  page,
		"pages": pages,
		"count": total,
	})
}

// GetBySlug returns one spot with its author and reviews populated.
func (h *SpotHandler) GetBySlug(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Spots.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		return errStatus(c, err, "load spot failed")
	}
	reviews, err := h.Reviews.ListForSpot(ctx, s.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reviews failed"})
	}
	resp := toSpotResp(s, reviews)

	author, err := h.Users.GetByID(ctx, s.AuthorID)
	if err == nil {
		resp.Author = &authorPart{Name: author.Name, Gravatar: utils.Gravatar(author.Email)}
	}
	return c.JSON(http.StatusOK, resp)
}

// Tags serves the tag browse view: the full descending tag-count list
// and, when a tag is selected, the spots carrying it. Without a tag the
// spot list covers every tagged spot.
func (h *SpotHandler) Tags(c echo.Context) error {
	tag := c.Param("tag")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	counts, err := h.Spots.TagCounts(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "aggregate tags failed"})
	}

	var spots []model.Spot
	if tag != "" {
		spots, err = h.Spots.ListByTag(ctx, tag)
	} else {
		spots, err = h.Spots.ListTagged(ctx)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list spots failed"})
	}

	resp := make([]spotResp, 0, len(spots))
	for _, s := range spots {
		resp = append(resp, toSpotResp(s, nil))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tag":   tag,
		"tags":  counts,
		"spots": resp,
	})
}

// Top serves the top-rated view: spots with more than one review, ranked
// by mean rating, at most ten.
func (h *SpotHandler) Top(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	top, err := h.Spots.TopRated(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "aggregate top spots failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"spots": top})
}

// withReviews converts spots to responses with their reviews attached,
// fetching all reviews for the set in one query.
func (h *SpotHandler) withReviews(ctx context.Context, spots []model.Spot) ([]spotResp, error) {
	ids := make([]uint64, len(spots))
	for i, s := range spots {
		ids[i] = s.ID
	}
	byspot, err := h.Reviews.ListForSpots(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]spotResp, 0, len(spots))
	for _, s := range spots {
		out = append(out, toSpotResp(s, byspot[s.ID]))
	}
	return out, nil
}
