package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/realestate-platform/property-service/internal/entity"
	"github.com/realestate-platform/property-service/internal/usecase"
)

type PropertyHandler struct {
	propertyUC    *usecase.PropertyUsecase
	maxUploadSize int64
	logger        *zap.Logger
}

func NewPropertyHandler(propertyUC *usecase.PropertyUsecase, maxUploadSize int64, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{
		propertyUC:    propertyUC,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

type catalogResponse struct {
	TotalCount int64                      `json:"totalCount"`
	Properties []*entity.PropertyListItem `json:"properties"`
}

type createPropertyResponse struct {
	IDProperty string `json:"idProperty"`
}

func (h *PropertyHandler) HandleListProperties(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCatalogFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.propertyUC.ListCatalog(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list properties", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to list properties")
		return
	}

	respondJSON(w, http.StatusOK, catalogResponse{
		TotalCount: page.TotalCount,
		Properties: page.Properties,
	})
}

func (h *PropertyHandler) HandleGetPropertyByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.propertyUC.GetPropertyByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrPropertyNotFound) {
			respondError(w, http.StatusNotFound, "Property not found")
			return
		}
		h.logger.Error("Failed to get property", zap.Error(err), zap.String("property_id", id))
		respondError(w, http.StatusInternalServerError, "Failed to get property")
		return
	}

	respondJSON(w, http.StatusOK, item)
}

func (h *PropertyHandler) HandleCreateProperty(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid or missing owner information")
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	name := r.FormValue("name")
	address := r.FormValue("address")
	if name == "" || address == "" {
		respondError(w, http.StatusBadRequest, "Fields 'name' and 'address' are required")
		return
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price < 0 {
		respondError(w, http.StatusBadRequest, "Field 'price' must be a non-negative number")
		return
	}

	year, err := strconv.Atoi(r.FormValue("year"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Field 'year' must be an integer")
		return
	}

	image, err := readFormImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read image file")
		return
	}
	if image == nil {
		respondError(w, http.StatusBadRequest, "Field 'image' is required")
		return
	}

	input := usecase.CreatePropertyInput{
		OwnerID: ownerID,
		Name:    name,
		Address: address,
		Price:   price,
		Year:    year,
		Image:   image,
	}

	newID, err := h.propertyUC.CreateProperty(r.Context(), input)
	if err != nil {
		if errors.Is(err, usecase.ErrOwnerNotFound) {
			respondError(w, http.StatusBadRequest, "Owner does not exist")
			return
		}
		h.logger.Error("Failed to create property", zap.Error(err), zap.String("owner_id", ownerID))
		respondError(w, http.StatusInternalServerError, "Failed to create property")
		return
	}

	respondJSON(w, http.StatusCreated, createPropertyResponse{IDProperty: newID})
}

func (h *PropertyHandler) HandleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid or missing owner information")
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	input := usecase.UpdatePropertyInput{
		PropertyID: chi.URLParam(r, "id"),
		OwnerID:    ownerID,
	}

	if v, present := formValue(r, "name"); present {
		input.Name = &v
	}
	if v, present := formValue(r, "address"); present {
		input.Address = &v
	}
	if v, present := formValue(r, "price"); present {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil || price < 0 {
			respondError(w, http.StatusBadRequest, "Field 'price' must be a non-negative number")
			return
		}
		input.Price = &price
	}
	if v, present := formValue(r, "year"); present {
		year, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Field 'year' must be an integer")
			return
		}
		input.Year = &year
	}

	image, err := readFormImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read image file")
		return
	}
	input.Image = image

	if err := h.propertyUC.UpdateProperty(r.Context(), input); err != nil {
		if errors.Is(err, usecase.ErrPropertyNotFound) {
			respondError(w, http.StatusNotFound, "Property not found or not updated")
			return
		}
		h.logger.Error("Failed to update property", zap.Error(err), zap.String("property_id", input.PropertyID))
		respondError(w, http.StatusInternalServerError, "Failed to update property")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PropertyHandler) HandleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid or missing owner information")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.propertyUC.DeleteProperty(r.Context(), id, ownerID); err != nil {
		if errors.Is(err, usecase.ErrPropertyNotFound) {
			respondError(w, http.StatusNotFound, "Property not found or not deleted")
			return
		}
		h.logger.Error("Failed to delete property", zap.Error(err), zap.String("property_id", id))
		respondError(w, http.StatusInternalServerError, "Failed to delete property")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseCatalogFilter(r *http.Request) (entity.PropertyFilter, error) {
	q := r.URL.Query()

	filter := entity.PropertyFilter{
		Name:    q.Get("name"),
		Address: q.Get("address"),
	}

	if v := q.Get("minPrice"); v != "" {
		minPrice, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return entity.PropertyFilter{}, errors.New("query parameter 'minPrice' must be a number")
		}
		filter.MinPrice = &minPrice
	}
	if v := q.Get("maxPrice"); v != "" {
		maxPrice, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return entity.PropertyFilter{}, errors.New("query parameter 'maxPrice' must be a number")
		}
		filter.MaxPrice = &maxPrice
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return entity.PropertyFilter{}, errors.New("query parameter 'page' must be a positive integer")
		}
		filter.Page = page
	}
	if v := q.Get("pageSize"); v != "" {
		pageSize, err := strconv.Atoi(v)
		if err != nil || pageSize < 1 {
			return entity.PropertyFilter{}, errors.New("query parameter 'pageSize' must be a positive integer")
		}
		filter.PageSize = pageSize
	}

	return filter, nil
}

// formValue distinguishes an absent multipart field from a supplied one so the
// usecase can apply a true partial update.
func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, present := r.MultipartForm.Value[key]
	if !present || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func readFormImage(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}
