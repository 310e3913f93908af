package models

// Expense is a business expense tracked for tax purposes. ReceiptPath points
// at a stored receipt file when one has been uploaded.
type Expense struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Date        string  `json:"date"` // ISO date
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Deductible  bool    `json:"deductible"`
	ReceiptPath string  `json:"receipt_path,omitempty"`
	CreatedAt   string  `json:"created_at"`
}
