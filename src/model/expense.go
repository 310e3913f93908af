package model

import (
	"database/sql"
	"fmt"

	"github.com/username/dealfolio/backend/src/models"
)

func CreateExpense(db *sql.DB, expense *models.Expense) error {
	result, err := db.Exec(`
		INSERT INTO expenses (user_id, date, category, description, amount, deductible, receipt_path)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		expense.UserID, expense.Date, expense.Category, expense.Description,
		expense.Amount, expense.Deductible, expense.ReceiptPath,
	)
	if err != nil {
		return fmt.Errorf("inserting expense: %w", err)
	}
	expense.ID, err = result.LastInsertId()
	return err
}

func GetExpenseByID(db *sql.DB, userID, expenseID int64) (*models.Expense, error) {
	row := db.QueryRow(`
		SELECT id, user_id, date, category, description, amount, deductible,
			COALESCE(receipt_path, ''), created_at
		FROM expenses WHERE id = ? AND user_id = ?`, expenseID, userID)

	var e models.Expense
	err := row.Scan(&e.ID, &e.UserID, &e.Date, &e.Category, &e.Description,
		&e.Amount, &e.Deductible, &e.ReceiptPath, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func ListExpenses(db *sql.DB, userID int64) ([]models.Expense, error) {
	rows, err := db.Query(`
		SELECT id, user_id, date, category, description, amount, deductible,
			COALESCE(receipt_path, ''), created_at
		FROM expenses WHERE user_id = ?
		ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Category, &e.Description,
			&e.Amount, &e.Deductible, &e.ReceiptPath, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning expense row: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func UpdateExpense(db *sql.DB, expense *models.Expense) error {
	result, err := db.Exec(`
		UPDATE expenses
		SET date = ?, category = ?, description = ?, amount = ?, deductible = ?
		WHERE id = ? AND user_id = ?`,
		expense.Date, expense.Category, expense.Description, expense.Amount,
		expense.Deductible, expense.ID, expense.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating expense: %w", err)
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

func SetExpenseReceiptPath(db *sql.DB, userID, expenseID int64, receiptPath string) error {
	result, err := db.Exec(`
		UPDATE expenses SET receipt_path = ? WHERE id = ? AND user_id = ?`,
		receiptPath, expenseID, userID,
	)
	if err != nil {
		return fmt.Errorf("updating expense receipt path: %w", err)
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

func DeleteExpense(db *sql.DB, userID, expenseID int64) error {
	result, err := db.Exec(`DELETE FROM expenses WHERE id = ? AND user_id = ?`, expenseID, userID)
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
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
