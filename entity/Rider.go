package entity

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleMotoboy Role = "MOTOBOY"
)

// Rider is stored as one element of the riders collection.
// Password is kept in clear text; this service is not an identity provider.
type Rider struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	Password     string `json:"password,omitempty"`
	Role         Role   `json:"role"`
	VehiclePlate string `json:"vehiclePlate"`
	VehicleModel string `json:"vehicleModel,omitempty"`
	ClientName   string `json:"clientName,omitempty"`
}
