package sqlite

import (
	"github.com/pkg/errors"

	"guardcam/internal/model"
)

// DetectionRepository implements repository.DetectionRepository for SQLite.
type DetectionRepository struct {
	db *DB
}

// NewDetectionRepository creates a new SQLite detection repository.
func NewDetectionRepository(db *DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

// InsertBatch adds multiple detections in a single transaction.
func (r *DetectionRepository) InsertBatch(detections []model.AlarmDetection) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO alarm_detections (alarm_id, label, x1, y1, x2, y2, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare statement")
	}
	defer stmt.Close()

	for _, det := range detections {
		if _, err := stmt.Exec(det.AlarmID, det.Label, det.X1, det.Y1, det.X2, det.Y2, det.Confidence); err != nil {
			return errors.Wrap(err, "failed to insert detection")
		}
	}

	return tx.Commit()
}

// GetByAlarmID retrieves all detections recorded with an alarm.
func (r *DetectionRepository) GetByAlarmID(alarmID int64) ([]model.AlarmDetection, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, alarm_id, label, x1, y1, x2, y2, confidence
		FROM alarm_detections WHERE alarm_id = ?
		ORDER BY id
	`, alarmID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query detections")
	}
	defer rows.Close()

	var detections []model.AlarmDetection
	for rows.Next() {
		var det model.AlarmDetection
		if err := rows.Scan(&det.ID, &det.AlarmID, &det.Label, &det.X1, &det.Y1, &det.X2, &det.Y2, &det.Confidence); err != nil {
			return nil, errors.Wrap(err, "failed to scan detection")
		}
		detections = append(detections, det)
	}

	return detections, rows.Err()
}

// GetLabelsByAlarmID returns the distinct labels of an alarm.
func (r *DetectionRepository) GetLabelsByAlarmID(alarmID int64) ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT DISTINCT label FROM alarm_detections WHERE alarm_id = ? ORDER BY label`, alarmID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query labels")
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, errors.Wrap(err, "failed to scan label")
		}
		labels = append(labels, label)
	}

	return labels, rows.Err()
}
