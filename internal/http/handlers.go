package http

import (
	"bytes"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/report"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard(r.Context())
	if err != nil {
		ServiceError(err).Write(w, r)
		return
	}
	NewJSONResponse().Body(toDashboardResponse(d)).Write(w, r)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w, r)
		return
	}

	tx, err := s.svc.AddEntry(r.Context(), sessionID(r.Context()), req.toInput())
	if err != nil {
		ServiceError(err).Write(w, r)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(toTransactionResponse(tx)).Write(w, r)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(ctx)

	income, err := s.svc.Categories(ctx, sid, core.KindIncome)
	if err != nil {
		ServiceError(err).Write(w, r)
		return
	}
	expense, err := s.svc.Categories(ctx, sid, core.KindExpense)
	if err != nil {
		ServiceError(err).Write(w, r)
		return
	}
	NewJSONResponse().Body(categoriesResponse{Income: nonNil(income), Expense: nonNil(expense)}).Write(w, r)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		ServiceError(err).Write(w, r)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w, r)
		return
	}

	list, err := s.svc.AddCategory(r.Context(), sessionID(r.Context()), kind, sanitizeInput(req.Label))
	if err != nil {
		ServiceError(err).Write(w, r)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Body(categoryListResponse{Kind: kind, Categories: nonNil(list)}).
		Write(w, r)
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		ServiceError(err).Write(w, r)
		return
	}
	idx, err := parseIndex(r)
	if err != nil {
		ServiceError(err).Write(w, r)
		return
	}

	list, err := s.svc.RemoveCategory(r.Context(), sessionID(r.Context()), kind, idx)
	if err != nil {
		ServiceError(err).Write(w, r)
		return
	}
	NewJSONResponse().Body(categoryListResponse{Kind: kind, Categories: nonNil(list)}).Write(w, r)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	opts, err := parseFilterOptions(r.URL.Query())
	if err != nil {
		ServiceError(err).Write(w, r)
		return
	}

	view, err := s.svc.Transactions(r.Context(), opts)
	if err != nil {
		ServiceError(err).Write(w, r)
		return
	}
	NewJSONResponse().Body(transactionsResponse{
		Transactions: toTransactionList(view.Rows),
		Categories:   nonNil(view.Categories),
	}).Write(w, r)
}

func (s *Server) handleReportYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.svc.Years(r.Context())
	if err != nil {
		ServiceError(err).Write(w, r)
		return
	}
	NewJSONResponse().Body(yearsResponse{Years: years}).Write(w, r)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		ServiceError(err).Write(w, r)
		return
	}

	pdf, err := s.svc.Report(r.Context(), year, month)
	if err != nil {
		ServiceError(err).Write(w, r)
		return
	}
	NewFileResponse(contentTypePDF, report.Filename(year, month), pdf).Write(w, r)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.svc.ExportCSV(r.Context(), &buf); err != nil {
		ServiceError(err).Write(w, r)
		return
	}
	NewFileResponse(contentTypeCSV, export.CSVFilename, buf.Bytes()).Write(w, r)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.svc.ExportXLSX(r.Context(), &buf); err != nil {
		ServiceError(err).Write(w, r)
		return
	}
	NewFileResponse(contentTypeXLSX, export.XLSXFilename, buf.Bytes()).Write(w, r)
}

// handleImport replaces the ledger with the CSV export sent as the body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportBody)
	n, err := s.svc.Import(r.Context(), body)
	if err != nil {
		ServiceError(err).Write(w, r)
		return
	}
	NewJSONResponse().Body(importResponse{Rows: n}).Write(w, r)
}
