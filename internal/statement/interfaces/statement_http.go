package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stayledger/internal/audit"
	"stayledger/internal/auth"
	"stayledger/internal/observability/metrics"
	"stayledger/internal/statement/application"
	statement "stayledger/internal/statement/domain"
)

const dayLayout = "2006-01-02"

// StatementHandler handles owner statement APIs.
type StatementHandler struct {
	service     *application.StatementService
	accessCheck auth.StatementAccessChecker
	auditLogger audit.Logger
}

// NewStatementHandler constructs a handler.
func NewStatementHandler(service *application.StatementService, accessCheck auth.StatementAccessChecker, auditLogger audit.Logger) (*StatementHandler, error) {
	if service == nil {
		return nil, errors.New("statement handler: nil service")
	}
	return &StatementHandler{service: service, accessCheck: accessCheck, auditLogger: auditLogger}, nil
}

// ServeHTTP handles statement routes under /api/v1/statements.
func (h *StatementHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/statements/generate" && r.Method == http.MethodPost {
		h.handleGenerate(w, r)
		return
	}
	if path == "/api/v1/statements" && r.Method == http.MethodGet {
		h.handleList(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/statements/") {
		rest := strings.TrimPrefix(path, "/api/v1/statements/")
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *StatementHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerRef    string  `json:"owner_ref"`
		PropertyIDs []int64 `json:"property_ids"`
		PeriodStart string  `json:"period_start"`
		PeriodEnd   string  `json:"period_end"`
		Calculation string  `json:"calculation"`
		Adjustments string  `json:"adjustments"`
		Regenerate  bool    `json:"regenerate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	start, err := statement.ParseDay(req.PeriodStart)
	if err != nil {
		http.Error(w, "period_start must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := statement.ParseDay(req.PeriodEnd)
	if err != nil {
		http.Error(w, "period_end must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	adjustments := decimal.Zero
	if req.Adjustments != "" {
		adjustments, err = decimal.NewFromString(req.Adjustments)
		if err != nil {
			http.Error(w, "adjustments must be a decimal amount", http.StatusBadRequest)
			return
		}
	}
	ownerRef := req.OwnerRef
	if callerRef := auth.OwnerRefFromContext(r.Context()); callerRef != "" && auth.RoleFromContext(r.Context()) == auth.RoleOwner {
		ownerRef = callerRef
	}

	rec, err := h.service.Generate(r.Context(), application.GenerateRequest{
		OwnerRef:    ownerRef,
		PropertyIDs: req.PropertyIDs,
		PeriodStart: start,
		PeriodEnd:   end,
		Calculation: statement.CalculationType(req.Calculation),
		Adjustments: adjustments,
		Regenerate:  req.Regenerate,
	})
	if errors.Is(err, statement.ErrNoActivity) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"skipped": true,
			"reason":  "no reservations or expenses in period",
		})
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toStatementResponse(rec))
	action := "statement.generate"
	if req.Regenerate {
		action = "statement.regenerate"
	}
	h.logAudit(r, rec, action, map[string]any{
		"period_start": req.PeriodStart,
		"calculation":  string(rec.Calculation),
		"regenerate":   req.Regenerate,
	})
}

func (h *StatementHandler) handleList(w http.ResponseWriter, r *http.Request) {
	propertyIDs, err := parsePropertyIDs(r.URL.Query().Get("property_ids"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	periodStart, err := statement.ParseDay(r.URL.Query().Get("period_start"))
	if err != nil {
		http.Error(w, "period_start must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	calc := statement.CalculationType(r.URL.Query().Get("calculation"))

	records, err := h.service.List(r.Context(), propertyIDs, periodStart, calc)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := make([]statementResponse, 0, len(records))
	for i := range records {
		resp = append(resp, toStatementResponse(&records[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *StatementHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if err := h.ensureAccess(r, id); err != nil {
		respondAccessError(w, err)
		return
	}
	if len(parts) == 1 && r.Method == http.MethodGet {
		h.handleGet(w, r, id)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "void":
			if r.Method == http.MethodPost {
				h.handleVoid(w, r, id)
				return
			}
		case "export.pdf":
			if r.Method == http.MethodGet {
				h.handleExport(w, r, id, "pdf")
				return
			}
		case "export.xlsx":
			if r.Method == http.MethodGet {
				h.handleExport(w, r, id, "xlsx")
				return
			}
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *StatementHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	rec, lines, costs, upsells, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := struct {
		Statement statementResponse   `json:"statement"`
		Lines     []statement.Line    `json:"lines"`
		Costs     []statement.Expense `json:"costs"`
		Upsells   []statement.Expense `json:"upsells"`
	}{Statement: toStatementResponse(rec), Lines: lines, Costs: costs, Upsells: upsells}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *StatementHandler) handleVoid(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	rec, err := h.service.Void(r.Context(), id, req.Reason)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	metrics.IncStatementVoid(metrics.ResultSuccess)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toStatementResponse(rec))
	h.logAudit(r, rec, "statement.void", map[string]any{"reason": req.Reason})
}

func (h *StatementHandler) handleExport(w http.ResponseWriter, r *http.Request, id, format string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveStatementExport(format, result, time.Since(start))
	}()

	rec, lines, costs, upsells, err := h.service.Get(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}

	var data []byte
	var contentType string
	switch format {
	case "pdf":
		data, err = BuildStatementPDF(rec, lines, costs, upsells)
		contentType = "application/pdf"
	case "xlsx":
		data, err = BuildStatementXLSX(rec, lines, costs, upsells)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export "+format+" error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, rec, "statement.export", map[string]any{"format": format})
}

func (h *StatementHandler) ensureAccess(r *http.Request, statementID string) error {
	if h.accessCheck == nil {
		return nil
	}
	if auth.RoleFromContext(r.Context()) != auth.RoleOwner {
		return nil
	}
	return h.accessCheck.EnsureStatementOwner(r.Context(), auth.OwnerRefFromContext(r.Context()), statementID)
}

func (h *StatementHandler) logAudit(r *http.Request, rec *application.StatementRecord, action string, meta map[string]any) {
	if h.auditLogger == nil || rec == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		OwnerID:      rec.OwnerID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "statement",
		ResourceID:   rec.ID,
		PropertySet:  rec.PropertySetKey,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

type statementResponse struct {
	ID             string  `json:"statement_id"`
	OwnerID        string  `json:"owner_id"`
	PropertyIDs    []int64 `json:"property_ids"`
	PropertySetKey string  `json:"property_set_key"`
	Combined       bool    `json:"combined"`
	PeriodStart    string  `json:"period_start"`
	PeriodEnd      string  `json:"period_end"`
	Calculation    string  `json:"calculation"`
	Status         string  `json:"status"`
	Version        int     `json:"version"`
	VoidReason     string  `json:"void_reason,omitempty"`
	TotalRevenue   string  `json:"total_revenue"`
	TotalExpenses  string  `json:"total_expenses"`
	PMCommission   string  `json:"pm_commission"`
	TechFees       string  `json:"tech_fees"`
	InsuranceFees  string  `json:"insurance_fees"`
	Adjustments    string  `json:"adjustments"`
	OwnerPayout    string  `json:"owner_payout"`
	ResortFeeTotal string  `json:"resort_fee_total,omitempty"`
	Notice         string  `json:"conversion_notice,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func toStatementResponse(rec *application.StatementRecord) statementResponse {
	resp := statementResponse{
		ID:             rec.ID,
		OwnerID:        rec.OwnerID,
		PropertyIDs:    rec.PropertyIDs,
		PropertySetKey: rec.PropertySetKey,
		Combined:       rec.Combined,
		PeriodStart:    rec.PeriodStart.Format(dayLayout),
		PeriodEnd:      rec.PeriodEnd.Format(dayLayout),
		Calculation:    string(rec.Calculation),
		Status:         rec.Status,
		Version:        rec.Version,
		VoidReason:     rec.VoidReason,
		TotalRevenue:   rec.TotalRevenue.StringFixed(2),
		TotalExpenses:  rec.TotalExpenses.StringFixed(2),
		PMCommission:   rec.PMCommission.StringFixed(2),
		TechFees:       rec.TechFees.StringFixed(2),
		InsuranceFees:  rec.InsuranceFees.StringFixed(2),
		Adjustments:    rec.Adjustments.StringFixed(2),
		OwnerPayout:    rec.OwnerPayout.StringFixed(2),
		Notice:         rec.ConversionNotice,
		CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.ShowResortFee {
		resp.ResortFeeTotal = rec.ResortFeeTotal.StringFixed(2)
	}
	return resp
}

func parsePropertyIDs(value string) ([]int64, error) {
	if strings.TrimSpace(value) == "" {
		return nil, errors.New("property_ids is required")
	}
	parts := strings.Split(value, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, errors.New("property_ids must be a comma-separated list of ids")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func respondAccessError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, auth.ErrOwnerMismatch) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if errors.Is(err, auth.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "access check failed", http.StatusInternalServerError)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, statement.ErrStatementNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, statement.ErrInvalidPeriod), errors.Is(err, statement.ErrNoProperties):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
