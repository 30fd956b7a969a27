package dto

// CreateAccountRequest provisions a student or staff account.
type CreateAccountRequest struct {
	NSHEID    string `json:"nshe_id" validate:"required,len=10,numeric"`
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=100"`
	Password  string `json:"password" validate:"required,min=8"`
	IsStaff   bool   `json:"is_staff"`
}
