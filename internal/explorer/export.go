package explorer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/openaudit/openaudit-visualizer/internal/analytics/export"
	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
	"github.com/openaudit/openaudit-visualizer/internal/query"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// handleExport downloads the rows the explorer table shows for the same
// filters. It shares the table's cache entry and waits for it without the
// render budget.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		h.templates.RenderError(w, r, h.logger, http.StatusBadRequest, "Invalid format")
		return
	}
	filters, err := ParseFilters(r.URL.Query())
	if err == nil {
		err = filters.Validate(h.validator)
	}
	if err != nil {
		h.handleFilterError(w, r, err)
		return
	}

	params := filters.Params()
	rows := query.Load(r.Context(), h.cache, TransactionsKey(filters), func(ctx context.Context) ([]openaudit.UnliquidatedTransaction, error) {
		return h.transactions.List(ctx, params)
	})
	if !rows.Ready() {
		h.logger.Warn("export transactions", slog.Any("error", rows.Err), slog.String("status", rows.Status.String()))
		h.templates.RenderError(w, r, h.logger, http.StatusBadGateway, "Failed to load transactions.")
		return
	}

	var (
		buf         bytes.Buffer
		contentType = contentTypeCSV
	)
	switch format {
	case "xlsx":
		data, err := export.TransactionsXLSX(rows.Data)
		if err != nil {
			h.logger.Error("export transactions xlsx", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		buf.Write(data)
		contentType = contentTypeXLSX
	default:
		if err := export.WriteTransactionsCSV(&buf, rows.Data); err != nil {
			h.logger.Error("export transactions csv", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, exportName(filters), format))
	_, _ = w.Write(buf.Bytes())
}

func exportName(f Filters) string {
	parts := []string{"unliquidated"}
	if f.Year != nil {
		parts = append(parts, fmt.Sprint(*f.Year))
	}
	if f.Province != nil {
		parts = append(parts, slug(*f.Province))
	}
	return strings.Join(parts, "-")
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "_"):
			b.WriteByte('_')
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
