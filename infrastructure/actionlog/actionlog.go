package actionlog

import (
	"context"
	"encoding/json"

	"github.com/uptrace/bun"

	"boxscan/infrastructure/sqlite"
	"boxscan/models"
)

// Actions recorded against the log.
const (
	ActionMoveBoxes        = "move_boxes"
	ActionTagBoxes         = "tag_boxes"
	ActionAssignToShipment = "assign_to_shipment"
	ActionReceiveBox       = "receive_box"
	ActionMarkNotDelivered = "mark_not_delivered"
)

// Service records bulk-action and reconciliation outcomes.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Entry is one recorded outcome with its per-box partition.
type Entry struct {
	UserID    int64
	Action    string
	TargetID  string
	Requested []string
	Succeeded []string
	Failed    []string
	Err       error
}

// Record persists the entry in its own write transaction.
func (s *Service) Record(ctx context.Context, db *sqlite.DB, e Entry) error {
	if s == nil || db == nil {
		return nil
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return s.write(ctx, tx, e)
	})
}

// RecordTx persists the entry inside the caller's transaction.
func (s *Service) RecordTx(ctx context.Context, tx bun.Tx, e Entry) error {
	if s == nil {
		return nil
	}
	return s.write(ctx, tx, e)
}

func (s *Service) write(ctx context.Context, tx bun.Tx, e Entry) error {
	errText := ""
	if e.Err != nil {
		errText = e.Err.Error()
	}
	row := &models.ActionLog{
		UserID:        e.UserID,
		Action:        e.Action,
		TargetID:      e.TargetID,
		RequestedJSON: marshalIDs(e.Requested),
		SucceededJSON: marshalIDs(e.Succeeded),
		FailedJSON:    marshalIDs(e.Failed),
		ErrorText:     errText,
	}
	_, err := tx.NewInsert().Model(row).Exec(ctx)
	return err
}

func marshalIDs(ids []string) string {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(b)
}
