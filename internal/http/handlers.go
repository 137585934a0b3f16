package http

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"ledger/internal/analytics"
	"ledger/internal/log"
	"ledger/internal/report"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Expense Tracker API"})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Scan(r.Context())
	if err != nil {
		writeError(r.Context(), w, err, log.OpList)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionList(snap.Transactions))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err, log.OpCreate)
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(ctx, w, err, log.OpCreate)
		return
	}

	t, err := s.store.Create(ctx, in)
	if err != nil {
		writeError(ctx, w, err, log.OpCreate)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResponse(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeError(r.Context(), w, err, log.OpDelete)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Transaction deleted successfully"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Scan(r.Context())
	if err != nil {
		writeError(r.Context(), w, err, log.OpSummary)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(analytics.Summarize(snap.Transactions)))
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Scan(r.Context())
	if err != nil {
		writeError(r.Context(), w, err, log.OpAnalyze)
		return
	}
	writeJSON(w, http.StatusOK, newAnalyticsResponse(analytics.Analyze(snap.Transactions)))
}

// handleReportPDF renders the ledger as a PDF. The request body is ignored.
// Documents are cached per ledger revision and calendar day, which is all
// the rendered output depends on.
func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, _ = io.Copy(io.Discard, http.MaxBytesReader(w, r.Body, maxBodyBytes))

	snap, err := s.store.Scan(ctx)
	if err != nil {
		writeError(ctx, w, err, log.OpRender)
		return
	}

	// Key, filename and document all use the UTC day.
	now := s.now().UTC()
	key := fmt.Sprintf("%d:%s", snap.Revision, now.Format("20060102"))
	pdf, cached, err := s.reports.GetOrLoad(key, func() ([]byte, error) {
		a := analytics.Analyze(snap.Transactions)
		return s.render(report.Input{
			GeneratedAt:  now,
			Transactions: snap.Transactions,
			Summary:      analytics.Summarize(snap.Transactions),
			Income:       a.IncomeByCategory,
			Expense:      a.ExpenseByCategory,
		})
	})
	if err != nil {
		writeError(ctx, w, err, log.OpRender)
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "Report generated",
		log.FieldRevision, snap.Revision,
		log.FieldReportBytes, len(pdf),
		"cached", cached)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+report.Filename(now))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
