package exports

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/uptrace/bun"

	"boxscan/infrastructure/sqlite"
)

type logFilter struct {
	Action string
	UserID int64
	Limit  int
}

type logRow struct {
	ID        int64  `bun:"id" json:"id"`
	Username  string `bun:"username" json:"username"`
	Action    string `bun:"action" json:"action"`
	TargetID  string `bun:"target_id" json:"targetID"`
	Requested string `bun:"requested_json" json:"requested"`
	Succeeded string `bun:"succeeded_json" json:"succeeded"`
	Failed    string `bun:"failed_json" json:"failed"`
	ErrorText string `bun:"error_text" json:"error,omitempty"`
	CreatedAt string `bun:"created_at" json:"createdAt"`
}

func listActionLogs(ctx context.Context, db *sqlite.DB, filter logFilter) ([]logRow, error) {
	if filter.Limit <= 0 || filter.Limit > 1000 {
		filter.Limit = 200
	}

	rows := make([]logRow, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := `
SELECT al.id, COALESCE(u.username, '') AS username, al.action,
       COALESCE(al.target_id, '') AS target_id,
       COALESCE(al.requested_json, '[]') AS requested_json,
       COALESCE(al.succeeded_json, '[]') AS succeeded_json,
       COALESCE(al.failed_json, '[]') AS failed_json,
       COALESCE(al.error_text, '') AS error_text,
       strftime('%d/%m/%Y %H:%M', al.created_at) AS created_at
FROM action_logs al
LEFT JOIN users u ON u.id = al.user_id`
		args := make([]any, 0)
		where := ""
		if filter.Action != "" {
			where = " WHERE al.action = ?"
			args = append(args, filter.Action)
		}
		if filter.UserID > 0 {
			if where == "" {
				where = " WHERE al.user_id = ?"
			} else {
				where += " AND al.user_id = ?"
			}
			args = append(args, filter.UserID)
		}
		q += where + " ORDER BY al.id DESC LIMIT ?"
		args = append(args, filter.Limit)
		return tx.NewRaw(q, args...).Scan(ctx, &rows)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func writeActionLogCSV(ctx context.Context, db *sqlite.DB, w io.Writer, filter logFilter) error {
	rows, err := listActionLogs(ctx, db, filter)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"id", "username", "action", "target_id", "requested", "succeeded", "failed", "error", "created_at"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.ID, 10),
			r.Username,
			r.Action,
			r.TargetID,
			r.Requested,
			r.Succeeded,
			r.Failed,
			r.ErrorText,
			r.CreatedAt,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}
