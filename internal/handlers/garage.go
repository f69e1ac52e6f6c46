package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/google/uuid"

	"github.com/ukydev/carlog/internal/garage"
	"github.com/ukydev/carlog/internal/ledger"
	"github.com/ukydev/carlog/internal/middleware"
	"github.com/ukydev/carlog/internal/models"
	"github.com/ukydev/carlog/internal/reminder"
	"github.com/ukydev/carlog/internal/simulation"
	"github.com/ukydev/carlog/internal/store"
	"github.com/ukydev/carlog/internal/transfer"
)

// GarageHandler exposes the vehicle collection over HTTP: car CRUD, the
// maintenance ledger, reminders, known issues, backup/restore and the
// simulation endpoints.
type GarageHandler struct {
	garage     *garage.Garage
	simulation *simulation.Service
	now        func() time.Time
}

// NewGarageHandler creates the handler. A nil now defaults to time.Now.
func NewGarageHandler(g *garage.Garage, sim *simulation.Service, now func() time.Time) *GarageHandler {
	if now == nil {
		now = time.Now
	}
	return &GarageHandler{garage: g, simulation: sim, now: now}
}

// Routes registers all garage endpoints on the mux.
func (h *GarageHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/client/cars", h.ListCars)
	mux.HandleFunc("POST /api/v1/client/cars", h.CreateCar)
	mux.HandleFunc("GET /api/v1/client/cars/{id}", h.GetCar)
	mux.HandleFunc("PUT /api/v1/client/cars/{id}", h.UpdateCar)
	mux.HandleFunc("DELETE /api/v1/client/cars/{id}", h.DeleteCar)

	mux.HandleFunc("GET /api/v1/client/cars/{id}/maintenance", h.ListMaintenance)
	mux.HandleFunc("POST /api/v1/client/cars/{id}/maintenance", h.AddMaintenance)
	mux.HandleFunc("DELETE /api/v1/client/cars/{id}/maintenance/{recordID}", h.DeleteMaintenance)

	mux.HandleFunc("GET /api/v1/client/cars/{id}/reminders", h.ListReminders)
	mux.HandleFunc("POST /api/v1/client/cars/{id}/reminders", h.AddReminder)
	mux.HandleFunc("POST /api/v1/client/cars/{id}/reminders/{reminderID}/pay", h.PayReminder)
	mux.HandleFunc("DELETE /api/v1/client/cars/{id}/reminders/{reminderID}", h.DeleteReminder)

	mux.HandleFunc("POST /api/v1/client/cars/{id}/issues", h.AddIssue)
	mux.HandleFunc("POST /api/v1/client/cars/{id}/issues/{issueID}/toggle", h.ToggleIssue)
	mux.HandleFunc("DELETE /api/v1/client/cars/{id}/issues/{issueID}", h.DeleteIssue)

	mux.HandleFunc("GET /api/v1/client/export", h.Export)
	mux.HandleFunc("POST /api/v1/client/import", h.Import)

	mux.HandleFunc("POST /api/v1/client/simulate", h.Simulate)
	mux.HandleFunc("POST /api/v1/client/simulate/accept", h.AcceptSimulation)
}

// WorkshopRoutes registers the shop-side surface: the full garage across all
// owners. gate is the mechanic role middleware; clients get 403 here instead
// of the owner-scoped view the client routes give them.
func (h *GarageHandler) WorkshopRoutes(mux *http.ServeMux, gate func(http.Handler) http.Handler) {
	mux.Handle("GET /api/v1/workshop/cars", gate(http.HandlerFunc(h.ListCars)))
	mux.Handle("GET /api/v1/workshop/cars/{id}", gate(http.HandlerFunc(h.GetCar)))
}

// canAccess reports whether the caller may touch the vehicle. Clients see
// their own cars; mechanics and admins see everything.
func canAccess(claims *models.Claims, v models.Vehicle) bool {
	if claims.Role == models.RoleAdmin || claims.Role == models.RoleMechanic {
		return true
	}
	return v.OwnerID == claims.UserID
}

// ownVehicle resolves the {id} path value to a vehicle the caller may access,
// writing the error response itself when it cannot.
func (h *GarageHandler) ownVehicle(w http.ResponseWriter, r *http.Request) (models.Vehicle, *models.Claims, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return models.Vehicle{}, nil, false
	}

	v, err := h.garage.Vehicle(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Vehicle not found", http.StatusNotFound)
		return models.Vehicle{}, nil, false
	}
	if !canAccess(claims, v) {
		http.Error(w, "Vehicle not found", http.StatusNotFound)
		return models.Vehicle{}, nil, false
	}
	return v, claims, true
}

// commitUpdate persists a transformed vehicle and writes it back as JSON.
func (h *GarageHandler) commitUpdate(w http.ResponseWriter, r *http.Request, v models.Vehicle) {
	if err := h.garage.Update(r.Context(), v); err != nil {
		writeGarageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func writeGarageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, garage.ErrVehicleNotFound):
		http.Error(w, "Vehicle not found", http.StatusNotFound)
	case errors.Is(err, store.ErrStorageUnavailable):
		http.Error(w, "Storage unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Failed to save changes", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// ListCars returns the vehicles visible to the caller.
func (h *GarageHandler) ListCars(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	visible := []models.Vehicle{}
	for _, v := range h.garage.Vehicles() {
		if canAccess(claims, v) {
			visible = append(visible, v)
		}
	}
	writeJSON(w, http.StatusOK, visible)
}

type createCarRequest struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	LicensePlate string `json:"license_plate"`
	Odometer     int    `json:"odometer"`
}

// CreateCar adds a vehicle to the garage with the baseline marker as its first
// maintenance record.
func (h *GarageHandler) CreateCar(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var req createCarRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Make == "" || req.Model == "" {
		http.Error(w, "Make and model are required", http.StatusBadRequest)
		return
	}
	if req.Year < 1900 || req.Year > h.now().Year()+1 {
		http.Error(w, "Invalid year", http.StatusBadRequest)
		return
	}
	if req.Odometer < 0 {
		http.Error(w, "Odometer cannot be negative", http.StatusBadRequest)
		return
	}

	now := h.now()
	v := models.Vehicle{
		ID:           uuid.NewString(),
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		LicensePlate: req.LicensePlate,
		OwnerID:      claims.UserID,
		Odometer:     req.Odometer,
		Maintenance:  []models.MaintenanceRecord{ledger.NewVehicleAddedRecord(req.Odometer, now)},
		KnownIssues:  []models.KnownIssue{},
		Reminders:    []models.Reminder{},
		CreatedAt:    now,
	}

	if err := h.garage.Add(r.Context(), v); err != nil {
		writeGarageError(w, err)
		return
	}

	log.WithFields(log.Fields{"vehicle_id": v.ID, "make": v.Make, "model": v.Model}).Info("Vehicle added")
	writeJSON(w, http.StatusCreated, v)
}

// GetCar returns a single vehicle.
func (h *GarageHandler) GetCar(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.ownVehicle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateCar updates the vehicle's basic fields. The maintenance ledger,
// reminders and issues have their own endpoints.
func (h *GarageHandler) UpdateCar(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.ownVehicle(w, r)
	if !ok {
		return
	}

	var req createCarRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Make != "" {
		v.Make = req.Make
	}
	if req.Model != "" {
		v.Model = req.Model
	}
	if req.Year != 0 {
		v.Year = req.Year
	}
	if req.LicensePlate != "" {
		v.LicensePlate = req.LicensePlate
	}
	if req.Odometer > 0 {
		v.Odometer = req.Odometer
	}

	h.commitUpdate(w, r, v)
}

// DeleteCar removes a vehicle and everything it owns.
func (h *GarageHandler) DeleteCar(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.ownVehicle(w, r)
	if !ok {
		return
	}

	if err := h.garage.Delete(r.Context(), v.ID); err != nil {
		writeGarageError(w, err)
		return
	}
	log.WithField("vehicle_id", v.ID).Info("Vehicle deleted")
	w.WriteHeader(http.StatusNoContent)
}

// maintenanceGroup is one description group of the grouped ledger view.
type maintenanceGroup struct {
	Description    string                     `json:"description"`
	Recommendation *models.MaintenanceRecord  `json:"recommendation,omitempty"`
	History        []models.MaintenanceRecord `json:"history"`
}

// ListMaintenance returns the vehicle's ledger grouped by description, each
// group split into its pending recommendation and completed history.
func (h *GarageHandler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.ownVehicle(w, r)
	if !ok {
		return
	}

	groups := []maintenanceGroup{}
	for description, records := range ledger.GroupByDescription(v) {
		recommendation, history := ledger.SplitGroup(records)
		groups = append(groups, maintenanceGroup{
			Description:    description,
			Recommendation: recommendation,
			History:        history,
		})
	}
	writeJSON(w, http.StatusOK, groups)
}

type addMaintenanceRequest struct {
	Date        string  `json:"date"`
	Odometer    int     `json:"odometer"`
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
	Notes       string  `json:"notes"`
}

// AddMaintenance appends a service record to the vehicle's ledger.
func (h *GarageHandler) AddMaintenance(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.ownVehicle(w, r)
	if !ok {
		return
	}

	var req addMaintenanceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Description == "" {
		http.Error(w, "Description is required", http.StatusBadRequest)
		return
	}
	if req.Odometer < 0 {
		http.Error(w, "Odometer cannot be negative", http.StatusBadRequest)
		return
	}
	if req.Date == "" {
		req.Date = models.DateNotAvailable
	}

	v = ledger.AddRecord(v, models.MaintenanceRecord{
		Date:        req.Date,
		Odometer:    req.Odometer,
		Description: req.Description,
		Cost:        req.Cost,
		Notes:       req.Notes,
	})
	h.commitUpdate(w, r, v)
}

// DeleteMaintenance removes a record from the ledger.
func (h *GarageHandler) DeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.ownVehicle(w, r)
	if !ok {
		return
	}

	v, err := ledger.DeleteRecord(v, r.PathValue("recordID"))
	if err != nil {
		http.Error(w, "Maintenance record not found", http.StatusNotFound)
		return
	}
	h.commitUpdate(w, r, v)
}

// reminderView decorates a reminder with its derived overdue flag.
type reminderView struct {
	models.Reminder
	Overdue bool `json:"overdue"`
}

// ListReminders returns the vehicle's reminders sorted by due date.
func (h *GarageHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.ownVehicle(w, r)
	if !ok {
		return
	}

	now := h.now()
	views := []reminderView{}
	for _, rem := range reminder.SortByDueDate(v.Reminders) {
		views = append(views, reminderView{Reminder: rem, Overdue: reminder.IsOverdue(rem, now)})
	}
	writeJSON(w, http.StatusOK, views)
}

type addReminderRequest struct {
	Description string  `json:"description"`
	NextDueDate string  `json:"next_due_date"` // "2006-01-02"
	Amount      float64 `json:"amount"`
	Frequency   string  `json:"frequency"`
}

// AddReminder creates a recurring obligation on the vehicle.
func (h *GarageHandler) AddReminder(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.ownVehicle(w, r)
	if !ok {
		return
	}

	var req addReminderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Description == "" {
		http.Error(w, "Description is required", http.StatusBadRequest)
		return
	}
	due, err := time.Parse("2006-01-02", req.NextDueDate)
	if err != nil {
		http.Error(w, "Invalid due date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	rem, err := reminder.New(req.Description, due, req.Amount, req.Frequency)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.commitUpdate(w, r, reminder.Add(v, rem))
}

type payReminderRequest struct {
	Amount float64 `json:"amount"`
}

// PayReminder records a payment and advances the due date by one period.
func (h *GarageHandler) PayReminder(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.ownVehicle(w, r)
	if !ok {
		return
	}

	var req payReminderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reminderID := r.PathValue("reminderID")
	if req.Amount == 0 {
		// Default to the reminder's own amount.
		for _, rem := range v.Reminders {
			if rem.ID == reminderID {
				req.Amount = rem.Amount
				break
			}
		}
	}

	v, err := reminder.Pay(v, reminderID, req.Amount, h.now())
	if err != nil {
		http.Error(w, "Reminder not found", http.StatusNotFound)
		return
	}
	h.commitUpdate(w, r, v)
}

// DeleteReminder removes a reminder and its payment history.
func (h *GarageHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.ownVehicle(w, r)
	if !ok {
		return
	}

	v, err := reminder.Remove(v, r.PathValue("reminderID"))
	if err != nil {
		http.Error(w, "Reminder not found", http.StatusNotFound)
		return
	}
	h.commitUpdate(w, r, v)
}

type addIssueRequest struct {
	Description string `json:"description"`
}

// AddIssue reports a new known issue on the vehicle.
func (h *GarageHandler) AddIssue(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.ownVehicle(w, r)
	if !ok {
		return
	}

	var req addIssueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Description == "" {
		http.Error(w, "Description is required", http.StatusBadRequest)
		return
	}

	h.commitUpdate(w, r, ledger.AddIssue(v, req.Description, h.now()))
}

// ToggleIssue flips an issue between resolved and unresolved.
func (h *GarageHandler) ToggleIssue(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.ownVehicle(w, r)
	if !ok {
		return
	}

	v, err := ledger.ToggleIssue(v, r.PathValue("issueID"))
	if err != nil {
		http.Error(w, "Issue not found", http.StatusNotFound)
		return
	}
	h.commitUpdate(w, r, v)
}

// DeleteIssue removes an issue.
func (h *GarageHandler) DeleteIssue(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.ownVehicle(w, r)
	if !ok {
		return
	}

	v, err := ledger.RemoveIssue(v, r.PathValue("issueID"))
	if err != nil {
		http.Error(w, "Issue not found", http.StatusNotFound)
		return
	}
	h.commitUpdate(w, r, v)
}

// Export serves the caller's vehicles as a downloadable JSON backup.
func (h *GarageHandler) Export(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	visible := []models.Vehicle{}
	for _, v := range h.garage.Vehicles() {
		if canAccess(claims, v) {
			visible = append(visible, v)
		}
	}

	data, err := transfer.ExportJSON(visible)
	if err != nil {
		if errors.Is(err, transfer.ErrNothingToExport) {
			http.Error(w, "Nothing to export", http.StatusNotFound)
			return
		}
		http.Error(w, "Export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", transfer.ExportFilename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import restores the caller's vehicles from a backup document, replacing
// their current set. Vehicles belonging to other users are untouched.
func (h *GarageHandler) Import(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	imported, err := transfer.ImportJSON(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	next := []models.Vehicle{}
	for _, v := range h.garage.Vehicles() {
		if !canAccess(claims, v) {
			next = append(next, v)
		}
	}
	for i := range imported {
		imported[i].OwnerID = claims.UserID
		next = append(next, imported[i])
	}

	if err := h.garage.Replace(r.Context(), next); err != nil {
		writeGarageError(w, err)
		return
	}

	log.WithFields(log.Fields{"vehicles": len(imported), "user_id": claims.UserID}).Info("Garage imported")
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(imported)})
}

type simulateRequest struct {
	CarID         string `json:"car_id"`
	Make          string `json:"make"`
	Model         string `json:"model"`
	Year          int    `json:"year"`
	Odometer      int    `json:"odometer"`
	TargetMileage int    `json:"target_mileage"`
}

// Simulate projects the maintenance schedule for an existing car or a
// hypothetical one, up to the target mileage. Nothing is persisted.
func (h *GarageHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var req simulateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TargetMileage <= 0 {
		http.Error(w, "Target mileage must be positive", http.StatusBadRequest)
		return
	}

	var v models.Vehicle
	if req.CarID != "" {
		existing, err := h.garage.Vehicle(req.CarID)
		if err != nil || !canAccess(claims, existing) {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		v = existing
	} else {
		if req.Make == "" || req.Model == "" {
			http.Error(w, "Make and model are required", http.StatusBadRequest)
			return
		}
		v = models.Vehicle{
			Make:     req.Make,
			Model:    req.Model,
			Year:     req.Year,
			Odometer: req.Odometer,
		}
	}

	result, err := h.simulation.Generate(r.Context(), v, req.TargetMileage)
	if err != nil {
		http.Error(w, "Simulation failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AcceptSimulation materializes a previously returned simulation result into a
// real vehicle owned by the caller.
func (h *GarageHandler) AcceptSimulation(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var result simulation.Result
	if !decodeBody(w, r, &result) {
		return
	}
	if result.Vehicle.Make == "" || result.Vehicle.Model == "" {
		http.Error(w, "Make and model are required", http.StatusBadRequest)
		return
	}

	v := simulation.Accept(&result, h.now())
	v.OwnerID = claims.UserID

	if err := h.garage.Add(r.Context(), v); err != nil {
		writeGarageError(w, err)
		return
	}

	log.WithFields(log.Fields{"vehicle_id": v.ID, "records": len(v.Maintenance)}).Info("Simulation accepted")
	writeJSON(w, http.StatusCreated, v)
}

// decodeBody reads and unmarshals the request body, writing the error response
// itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}
