package model

import (
	"database/sql"
	"fmt"

	"github.com/username/dealfolio/backend/src/models"
)

func CreateMileageEntry(db *sql.DB, entry *models.MileageEntry) error {
	result, err := db.Exec(`
		INSERT INTO mileage_entries (user_id, date, from_address, to_address, purpose, distance_miles, distance_looked_up)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.UserID, entry.Date, entry.FromAddress, entry.ToAddress,
		entry.Purpose, entry.DistanceMiles, entry.DistanceLookedUp,
	)
	if err != nil {
		return fmt.Errorf("inserting mileage entry: %w", err)
	}
	entry.ID, err = result.LastInsertId()
	return err
}

func ListMileageEntries(db *sql.DB, userID int64) ([]models.MileageEntry, error) {
	rows, err := db.Query(`
		SELECT id, user_id, date, from_address, to_address, purpose, distance_miles, distance_looked_up, created_at
		FROM mileage_entries WHERE user_id = ?
		ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying mileage entries: %w", err)
	}
	defer rows.Close()

	var entries []models.MileageEntry
	for rows.Next() {
		var e models.MileageEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.FromAddress, &e.ToAddress,
			&e.Purpose, &e.DistanceMiles, &e.DistanceLookedUp, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning mileage row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func UpdateMileageEntry(db *sql.DB, entry *models.MileageEntry) error {
	result, err := db.Exec(`
		UPDATE mileage_entries
		SET date = ?, from_address = ?, to_address = ?, purpose = ?, distance_miles = ?, distance_looked_up = ?
		WHERE id = ? AND user_id = ?`,
		entry.Date, entry.FromAddress, entry.ToAddress, entry.Purpose,
		entry.DistanceMiles, entry.DistanceLookedUp, entry.ID, entry.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating mileage entry: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func DeleteMileageEntry(db *sql.DB, userID, entryID int64) error {
	result, err := db.Exec(`DELETE FROM mileage_entries WHERE id = ? AND user_id = ?`, entryID, userID)
	if err != nil {
		return fmt.Errorf("deleting mileage entry: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
