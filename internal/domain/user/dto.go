package user

// UserResponse represents user data in API responses
type UserResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	ReportsTo    *string `json:"reports_to,omitempty"`
	IsTechnician bool    `json:"is_technician"`
}

func ToResponse(u User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role.Label(),
		ReportsTo:    u.ReportsTo,
		IsTechnician: u.IsTechnician,
	}
}

// OrgChartNode is one user in the nested org chart.
type OrgChartNode struct {
	UserResponse
	Children []OrgChartNode `json:"children"`
}

type AssignManagerRequest struct {
	UserID    string  `json:"-" validate:"required"`
	ManagerID *string `json:"manager_id"`
}
