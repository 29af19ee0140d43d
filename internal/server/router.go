package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kurofune-app/bakumap/backend/internal/catalog"
	"github.com/kurofune-app/bakumap/backend/internal/pins"
)

var errMissingStore = errors.New("pin store dependency required")

type Dependencies struct {
	Store  *pins.Store
	Logger *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Store == nil {
		return nil, errMissingStore
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		store:  deps.Store,
		logger: logger,
	}

	router.GET("/health", handler.handleHealth)

	router.GET("/catalog/persons", handler.handleListPersons)
	router.GET("/catalog/factions", handler.handleListFactions)

	router.GET("/events", handler.handleListEvents)
	router.GET("/events/years", handler.handleListYears)
	router.GET("/events/:id", handler.handleGetEvent)

	router.GET("/selection", handler.handleGetSelection)
	router.PUT("/selection/year", handler.handleSetYear)
	router.PUT("/selection/persons", handler.handleSetPersons)
	router.POST("/selection/persons/:id/toggle", handler.handleTogglePerson)
	router.POST("/selection/year/prev", handler.handlePrevYear)
	router.POST("/selection/year/next", handler.handleNextYear)

	router.GET("/pins/:eventId", handler.handleGetRecord)
	router.PATCH("/pins/:eventId", handler.handleUpdateRecord)
	router.POST("/pins/:eventId/photos", handler.handleAddPhoto)
	router.DELETE("/pins/:eventId/photos", handler.handleRemovePhoto)

	router.POST("/custom/persons", handler.handleAddCustomPerson)
	router.DELETE("/custom/persons/:id", handler.handleRemoveCustomPerson)

	router.POST("/custom/events", handler.handleAddCustomEvent)
	router.PATCH("/custom/events/:id", handler.handleUpdateCustomEvent)
	router.DELETE("/custom/events/:id", handler.handleRemoveCustomEvent)
	router.POST("/custom/events/undo", handler.handleUndoDelete)
	router.POST("/custom/events/undo/dismiss", handler.handleDismissUndo)

	router.GET("/realtime", handler.handleRealtime)

	return router, nil
}

type httpHandler struct {
	store  *pins.Store
	logger *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type personsResponsePayload struct {
	Persons map[string]catalog.Person    `json:"persons"`
	Custom  map[string]pins.CustomPerson `json:"customPersons"`
}

func (h *httpHandler) handleListPersons(c *gin.Context) {
	response := personsResponsePayload{
		Persons: h.store.AllPersons(),
		Custom:  h.store.CustomPersons(),
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleListFactions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"factions": catalog.Factions()})
}

type eventsResponsePayload struct {
	SelectedYear int             `json:"selectedYear"`
	Events       []catalog.Event `json:"events"`
}

func (h *httpHandler) handleListEvents(c *gin.Context) {
	response := eventsResponsePayload{
		SelectedYear: h.store.SelectedYear(),
		Events:       h.store.FilteredEvents(),
	}
	if c.Query("all") == "true" {
		response.Events = h.store.EventsForYear()
	}
	if response.Events == nil {
		response.Events = []catalog.Event{}
	}
	c.JSON(http.StatusOK, response)
}

type yearsResponsePayload struct {
	Years    []int `json:"years"`
	AllYears []int `json:"allYears"`
}

func (h *httpHandler) handleListYears(c *gin.Context) {
	response := yearsResponsePayload{
		Years:    h.store.YearsWithEvents(),
		AllYears: h.store.AllYearsWithEvents(),
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleGetEvent(c *gin.Context) {
	event, found := h.store.EventByID(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "event_not_found"})
		return
	}
	c.JSON(http.StatusOK, event)
}

type selectionResponsePayload struct {
	SelectedYear    int      `json:"selectedYear"`
	SelectedPersons []string `json:"selectedPersons"`
}

func (h *httpHandler) selectionPayload() selectionResponsePayload {
	return selectionResponsePayload{
		SelectedYear:    h.store.SelectedYear(),
		SelectedPersons: h.store.SelectedPersons(),
	}
}

func (h *httpHandler) handleGetSelection(c *gin.Context) {
	c.JSON(http.StatusOK, h.selectionPayload())
}

type setYearRequestPayload struct {
	Year *int `json:"year"`
}

func (h *httpHandler) handleSetYear(c *gin.Context) {
	var request setYearRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.Year == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	h.store.SetSelectedYear(*request.Year)
	c.JSON(http.StatusOK, h.selectionPayload())
}

type setPersonsRequestPayload struct {
	PersonIDs []string `json:"personIds"`
}

func (h *httpHandler) handleSetPersons(c *gin.Context) {
	var request setPersonsRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	h.store.SetSelectedPersons(request.PersonIDs)
	c.JSON(http.StatusOK, h.selectionPayload())
}

func (h *httpHandler) handleTogglePerson(c *gin.Context) {
	personID := strings.TrimSpace(c.Param("id"))
	if personID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	h.store.TogglePerson(personID)
	c.JSON(http.StatusOK, h.selectionPayload())
}

func (h *httpHandler) handlePrevYear(c *gin.Context) {
	h.store.GoToPrevYear()
	c.JSON(http.StatusOK, h.selectionPayload())
}

func (h *httpHandler) handleNextYear(c *gin.Context) {
	h.store.GoToNextYear()
	c.JSON(http.StatusOK, h.selectionPayload())
}

func (h *httpHandler) handleGetRecord(c *gin.Context) {
	record, found := h.store.Record(c.Param("eventId"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "record_not_found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

type recordUpdateRequestPayload struct {
	Note           *string   `json:"note"`
	Rank           *int      `json:"rank"`
	ClearRank      bool      `json:"clearRank"`
	Photos         *[]string `json:"photos"`
	CoverImage     *string   `json:"coverImage"`
	MainBackground *string   `json:"mainBackground"`
}

func (h *httpHandler) handleUpdateRecord(c *gin.Context) {
	eventID := c.Param("eventId")
	var request recordUpdateRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	update := pins.RecordUpdate{
		Photos:         request.Photos,
		Note:           request.Note,
		RankClear:      request.ClearRank,
		CoverImage:     request.CoverImage,
		MainBackground: request.MainBackground,
	}
	if request.Rank != nil {
		rank := pins.Rank(*request.Rank)
		if !rank.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_rank"})
			return
		}
		update.Rank = &rank
	}

	h.store.UpsertRecord(eventID, update)
	record, _ := h.store.Record(eventID)
	c.JSON(http.StatusOK, record)
}

type photoRequestPayload struct {
	URI string `json:"uri"`
}

func (h *httpHandler) handleAddPhoto(c *gin.Context) {
	eventID := c.Param("eventId")
	var request photoRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.URI) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	h.store.AddPhoto(eventID, request.URI)
	record, _ := h.store.Record(eventID)
	c.JSON(http.StatusOK, record)
}

func (h *httpHandler) handleRemovePhoto(c *gin.Context) {
	eventID := c.Param("eventId")
	var request photoRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.URI) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	h.store.RemovePhoto(eventID, request.URI)
	record, found := h.store.Record(eventID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "record_not_found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *httpHandler) handleAddCustomPerson(c *gin.Context) {
	var person catalog.Person
	if err := c.ShouldBindJSON(&person); err != nil || strings.TrimSpace(person.ID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	h.store.AddCustomPerson(person)
	c.JSON(http.StatusOK, gin.H{"customPersons": h.store.CustomPersons()})
}

func (h *httpHandler) handleRemoveCustomPerson(c *gin.Context) {
	h.store.RemoveCustomPerson(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"customPersons": h.store.CustomPersons()})
}

type customEventRequestPayload struct {
	Year      int      `json:"year"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	PlaceName string   `json:"placeName"`
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"lng"`
	PersonIDs []string `json:"persons"`
}

func (h *httpHandler) handleAddCustomEvent(c *gin.Context) {
	var request customEventRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	created := h.store.AddCustomEvent(catalog.Event{
		Year:      request.Year,
		Title:     request.Title,
		Summary:   request.Summary,
		PlaceName: request.PlaceName,
		Latitude:  request.Latitude,
		Longitude: request.Longitude,
		PersonIDs: request.PersonIDs,
	})
	c.JSON(http.StatusCreated, created)
}

type customEventUpdateRequestPayload struct {
	Year      *int      `json:"year"`
	Title     *string   `json:"title"`
	Summary   *string   `json:"summary"`
	PlaceName *string   `json:"placeName"`
	Latitude  *float64  `json:"lat"`
	Longitude *float64  `json:"lng"`
	PersonIDs *[]string `json:"persons"`
}

func (h *httpHandler) handleUpdateCustomEvent(c *gin.Context) {
	eventID := c.Param("id")
	if _, found := h.store.EventByID(eventID); !found || !pins.IsCustomEventID(eventID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "event_not_found"})
		return
	}

	var request customEventUpdateRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	h.store.UpdateCustomEvent(eventID, pins.EventUpdate{
		Year:      request.Year,
		Title:     request.Title,
		Summary:   request.Summary,
		PlaceName: request.PlaceName,
		Latitude:  request.Latitude,
		Longitude: request.Longitude,
		PersonIDs: request.PersonIDs,
	})
	event, _ := h.store.EventByID(eventID)
	c.JSON(http.StatusOK, event)
}

func (h *httpHandler) handleRemoveCustomEvent(c *gin.Context) {
	eventID := c.Param("id")
	if _, found := h.store.EventByID(eventID); !found || !pins.IsCustomEventID(eventID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "event_not_found"})
		return
	}
	h.store.RemoveCustomEvent(eventID)
	deleted, _ := h.store.PendingDeletion()
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *httpHandler) handleUndoDelete(c *gin.Context) {
	if !h.store.UndoDeleteEvent() {
		c.JSON(http.StatusConflict, gin.H{"error": "nothing_to_undo"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customEvents": h.store.CustomEvents()})
}

func (h *httpHandler) handleDismissUndo(c *gin.Context) {
	h.store.ClearDeletedBuffer()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
