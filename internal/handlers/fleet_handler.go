package handlers

import (
	"net/http"

	"logistics-backend/internal/models"
	"logistics-backend/internal/services"
	"logistics-backend/pkg/utils"
)

// FleetHandler serves carriers, trucks and drivers. Ownership checks live in
// the service; every route here requires a session.
type FleetHandler struct {
	Service *services.FleetService
}

func NewFleetHandler(s *services.FleetService) *FleetHandler {
	return &FleetHandler{Service: s}
}

func (h *FleetHandler) ListCarriers(w http.ResponseWriter, r *http.Request) {
	if !listAccess(w, r) {
		return
	}
	carriers, err := h.Service.ListCarriers(r.Context(), session(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, carriers)
}

func (h *FleetHandler) CreateCarrier(w http.ResponseWriter, r *http.Request) {
	var req models.CarrierRequest
	if !decode(w, r, &req) {
		return
	}
	carrier, err := h.Service.CreateCarrier(r.Context(), session(r), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, carrier)
}

func (h *FleetHandler) GetCarrier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	carrier, err := h.Service.GetCarrier(r.Context(), session(r), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, carrier)
}

func (h *FleetHandler) UpdateCarrier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req models.CarrierRequest
	if !decode(w, r, &req) {
		return
	}
	carrier, err := h.Service.UpdateCarrier(r.Context(), session(r), id, &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, carrier)
}

func (h *FleetHandler) ToggleCarrier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	carrier, err := h.Service.ToggleCarrierActive(r.Context(), session(r), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, carrier)
}

func (h *FleetHandler) DeleteCarrier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteCarrier(r.Context(), session(r), id); err != nil {
		utils.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FleetHandler) ListTrucks(w http.ResponseWriter, r *http.Request) {
	if !listAccess(w, r) {
		return
	}
	trucks, err := h.Service.ListTrucks(r.Context(), session(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, trucks)
}

func (h *FleetHandler) CreateTruck(w http.ResponseWriter, r *http.Request) {
	var req models.TruckRequest
	if !decode(w, r, &req) {
		return
	}
	truck, err := h.Service.CreateTruck(r.Context(), session(r), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, truck)
}

func (h *FleetHandler) GetTruck(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	truck, err := h.Service.GetTruck(r.Context(), session(r), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, truck)
}

func (h *FleetHandler) UpdateTruck(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req models.TruckRequest
	if !decode(w, r, &req) {
		return
	}
	truck, err := h.Service.UpdateTruck(r.Context(), session(r), id, &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, truck)
}

func (h *FleetHandler) ToggleTruck(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	truck, err := h.Service.ToggleTruckActive(r.Context(), session(r), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, truck)
}

func (h *FleetHandler) DeleteTruck(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteTruck(r.Context(), session(r), id); err != nil {
		utils.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FleetHandler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	if !listAccess(w, r) {
		return
	}
	drivers, err := h.Service.ListDrivers(r.Context(), session(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, drivers)
}

func (h *FleetHandler) CreateDriver(w http.ResponseWriter, r *http.Request) {
	var req models.DriverRequest
	if !decode(w, r, &req) {
		return
	}
	driver, err := h.Service.CreateDriver(r.Context(), session(r), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, driver)
}

func (h *FleetHandler) GetDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	driver, err := h.Service.GetDriver(r.Context(), session(r), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, driver)
}

func (h *FleetHandler) UpdateDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req models.DriverRequest
	if !decode(w, r, &req) {
		return
	}
	driver, err := h.Service.UpdateDriver(r.Context(), session(r), id, &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, driver)
}

func (h *FleetHandler) ToggleDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	driver, err := h.Service.ToggleDriverActive(r.Context(), session(r), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, driver)
}

func (h *FleetHandler) DeleteDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteDriver(r.Context(), session(r), id); err != nil {
		utils.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
