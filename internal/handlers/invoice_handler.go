package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"logistics-backend/internal/models"
	"logistics-backend/internal/services"
	"logistics-backend/pkg/utils"
)

type InvoiceHandler struct {
	Service *services.InvoiceService
}

func NewInvoiceHandler(s *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{Service: s}
}

func (h *InvoiceHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	if !listAccess(w, r, staffRoles...) {
		return
	}
	q := r.URL.Query()
	invoices, err := h.Service.List(r.Context(), models.InvoiceFilter{
		Client: q.Get("client"),
		Status: models.InvoiceStatus(q.Get("status")),
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req models.InvoiceRequest
	if !decode(w, r, &req) {
		return
	}
	invoice, err := h.Service.Create(r.Context(), session(r), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, invoice)
}

// GetInvoice retrieves an invoice by ID
func (h *InvoiceHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	invoice, err := h.Service.Get(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req models.InvoiceRequest
	if !decode(w, r, &req) {
		return
	}
	invoice, err := h.Service.Update(r.Context(), id, &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		utils.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InvoiceHandler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	invoice, pdf, err := h.Service.InvoicePDF(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.File(w, contentTypePDF, invoice.InvoiceNumber+".pdf", pdf)
}

// ApplyPayment records a payment and returns the generated receipt.
func (h *InvoiceHandler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req models.PaymentRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.Service.ApplyPayment(r.Context(), session(r), id, &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, http.StatusCreated, map[string]interface{}{
		"receipt": result.Receipt,
		"invoice": result.Invoice,
	})
}

func (h *InvoiceHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	if !listAccess(w, r, staffRoles...) {
		return
	}
	receipts, err := h.Service.ListReceipts(r.Context(), queryInt(r, "invoice_id", 0))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, receipts)
}

func (h *InvoiceHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.Service.GetReceipt(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, receipt)
}

func (h *InvoiceHandler) ReceiptPDF(w http.ResponseWriter, r *http.Request) {
	receipt, pdf, err := h.Service.ReceiptPDF(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.File(w, contentTypePDF, receipt.ReceiptNumber+".pdf", pdf)
}
