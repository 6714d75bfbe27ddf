package sqlite

import (
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"guardcam/internal/dto"
	"guardcam/internal/model"
)

// AlarmRepository implements repository.AlarmRepository for SQLite.
type AlarmRepository struct {
	db *DB
}

// NewAlarmRepository creates a new SQLite alarm repository.
func NewAlarmRepository(db *DB) *AlarmRepository {
	return &AlarmRepository{db: db}
}

const alarmColumns = `a.id, a.event_id, a.camera, a.frame, a.timestamp, a.filename, a.filepath, a.filesize`

// Insert adds a new alarm record to the database.
func (r *AlarmRepository) Insert(alarm *model.Alarm) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO alarms (event_id, camera, frame, timestamp, filename, filepath, filesize)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, alarm.EventID, alarm.Camera, alarm.Frame, alarm.Timestamp, alarm.Filename, alarm.FilePath, alarm.FileSize)
	if err != nil {
		return 0, errors.Wrap(err, "failed to insert alarm")
	}

	return result.LastInsertId()
}

// GetByID retrieves an alarm by its ID. A missing row yields (nil, nil).
func (r *AlarmRepository) GetByID(id int64) (*model.Alarm, error) {
	return r.getOne(`SELECT `+alarmColumns+` FROM alarms a WHERE a.id = ?`, id)
}

// GetByEventID retrieves an alarm by the ID of the event that produced it.
func (r *AlarmRepository) GetByEventID(eventID string) (*model.Alarm, error) {
	return r.getOne(`SELECT `+alarmColumns+` FROM alarms a WHERE a.event_id = ?`, eventID)
}

func (r *AlarmRepository) getOne(query string, arg interface{}) (*model.Alarm, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var alarm model.Alarm
	err := r.db.Conn().QueryRow(query, arg).Scan(&alarm.ID, &alarm.EventID, &alarm.Camera, &alarm.Frame,
		&alarm.Timestamp, &alarm.Filename, &alarm.FilePath, &alarm.FileSize)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get alarm")
	}
	return &alarm, nil
}

// filterClause builds the WHERE part shared by GetAll and GetTotalCount.
func filterClause(filter *dto.AlarmFilters) (string, []interface{}) {
	var sb strings.Builder
	args := []interface{}{}

	sb.WriteString(" WHERE 1=1")
	if filter == nil {
		return sb.String(), args
	}

	if filter.Camera != "" {
		sb.WriteString(" AND a.camera = ?")
		args = append(args, filter.Camera)
	}

	if filter.Label != "" {
		sb.WriteString(" AND d.label = ?")
		args = append(args, filter.Label)
	}

	if !filter.After.IsZero() {
		sb.WriteString(" AND a.timestamp >= ?")
		args = append(args, filter.After)
	}

	if !filter.Before.IsZero() {
		sb.WriteString(" AND a.timestamp <= ?")
		args = append(args, filter.Before)
	}

	return sb.String(), args
}

// GetAll retrieves alarms matching the filter, newest first.
func (r *AlarmRepository) GetAll(filter *dto.AlarmFilters) ([]model.Alarm, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := filterClause(filter)
	query := `SELECT DISTINCT ` + alarmColumns + `
		FROM alarms a
		LEFT JOIN alarm_detections d ON a.id = d.alarm_id` + where + `
		ORDER BY a.timestamp DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query alarms")
	}
	defer rows.Close()

	var alarms []model.Alarm
	for rows.Next() {
		var alarm model.Alarm
		if err := rows.Scan(&alarm.ID, &alarm.EventID, &alarm.Camera, &alarm.Frame,
			&alarm.Timestamp, &alarm.Filename, &alarm.FilePath, &alarm.FileSize); err != nil {
			return nil, errors.Wrap(err, "failed to scan alarm")
		}
		alarms = append(alarms, alarm)
	}

	return alarms, rows.Err()
}

// GetTotalCount returns the number of alarms matching the filter.
func (r *AlarmRepository) GetTotalCount(filter *dto.AlarmFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := filterClause(filter)
	query := `SELECT COUNT(DISTINCT a.id)
		FROM alarms a
		LEFT JOIN alarm_detections d ON a.id = d.alarm_id` + where

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count alarms")
	}

	return count, nil
}

// GetStats returns alarm counts per camera and the most frequent dangerous labels.
func (r *AlarmRepository) GetStats() (*model.AlarmStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.AlarmStats{
		PerCamera:   make(map[string]int),
		LabelCounts: make(map[string]int),
	}

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM alarms`).Scan(&stats.TotalAlarms); err != nil {
		return nil, errors.Wrap(err, "failed to count alarms")
	}

	rows, err := r.db.Conn().Query(`SELECT camera, COUNT(*) FROM alarms GROUP BY camera`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query cameras")
	}
	defer rows.Close()

	for rows.Next() {
		var camera string
		var count int
		if err := rows.Scan(&camera, &count); err != nil {
			return nil, err
		}
		stats.PerCamera[camera] = count
	}

	labelRows, err := r.db.Conn().Query(`
		SELECT label, COUNT(*) as cnt
		FROM alarm_detections
		GROUP BY label
		ORDER BY cnt DESC
		LIMIT 10
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query labels")
	}
	defer labelRows.Close()

	for labelRows.Next() {
		var label string
		var count int
		if err := labelRows.Scan(&label, &count); err != nil {
			return nil, err
		}
		stats.LabelCounts[label] = count
	}

	return stats, nil
}

// Delete removes an alarm and its detections.
func (r *AlarmRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM alarm_detections WHERE alarm_id = ?`, id); err != nil {
		return errors.Wrap(err, "failed to delete alarm detections")
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM alarms WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "failed to delete alarm")
	}
	return nil
}
