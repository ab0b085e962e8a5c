package services

import (
	"errors"
	"strings"
	"time"

	"github.com/luiz3283/HELP-PRO/entity"
	"github.com/luiz3283/HELP-PRO/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RiderService manages rider records and sessions.
type RiderService struct {
	Riders    RiderStore
	JWTSecret string
	JWTTTL    time.Duration
}

func NewRiderService(riders RiderStore, secret string, ttl time.Duration) *RiderService {
	return &RiderService{Riders: riders, JWTSecret: secret, JWTTTL: ttl}
}

type RiderInput struct {
	Name         string
	Username     string
	Password     string
	VehiclePlate string
	VehicleModel string
	ClientName   string
	Role         entity.Role
}

// usernameFrom lower-cases the name and drops whitespace: "João Silva" -> "joãosilva".
func usernameFrom(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

func (s *RiderService) normalize(in RiderInput) (RiderInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.VehiclePlate = strings.ToUpper(strings.TrimSpace(in.VehiclePlate))
	in.VehicleModel = strings.ToUpper(strings.TrimSpace(in.VehicleModel))
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.Username = strings.TrimSpace(in.Username)
	if in.Name == "" || in.VehiclePlate == "" {
		return in, validationf("name and vehicle plate are required")
	}
	if in.Username == "" {
		in.Username = usernameFrom(in.Name)
	}
	if in.Role == "" {
		in.Role = entity.RoleMotoboy
	}
	if in.Role != entity.RoleMotoboy && in.Role != entity.RoleAdmin {
		return in, validationf("invalid role %q", in.Role)
	}
	return in, nil
}

func (s *RiderService) usernameTaken(username, exceptID string) (bool, error) {
	rd, err := s.Riders.FindRiderByUsername(username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, persistence("load riders", err)
	}
	return rd.ID != exceptID, nil
}

// Register creates a rider record.
func (s *RiderService) Register(in RiderInput) (*entity.Rider, error) {
	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	taken, err := s.usernameTaken(in.Username, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, validationf("username %q already taken", in.Username)
	}

	rd := entity.Rider{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Username:     in.Username,
		Password:     in.Password,
		Role:         in.Role,
		VehiclePlate: in.VehiclePlate,
		VehicleModel: in.VehicleModel,
		ClientName:   in.ClientName,
	}
	if err := s.Riders.UpsertRider(rd); err != nil {
		return nil, persistence("save rider", err)
	}
	return &rd, nil
}

// Update is the administrative edit. Existing logs keep the name they were created with.
// An empty password leaves the stored one unchanged.
func (s *RiderService) Update(id string, in RiderInput) (*entity.Rider, error) {
	cur, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	in, err = s.normalize(in)
	if err != nil {
		return nil, err
	}
	taken, err := s.usernameTaken(in.Username, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, validationf("username %q already taken", in.Username)
	}

	cur.Name = in.Name
	cur.Username = in.Username
	cur.VehiclePlate = in.VehiclePlate
	cur.VehicleModel = in.VehicleModel
	cur.ClientName = in.ClientName
	cur.Role = in.Role
	if in.Password != "" {
		cur.Password = in.Password
	}
	if err := s.Riders.UpsertRider(*cur); err != nil {
		return nil, persistence("save rider", err)
	}
	return cur, nil
}

// Delete removes the rider record only; the rider's logs are kept as history.
func (s *RiderService) Delete(id string) error {
	err := s.Riders.DeleteRider(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRiderNotFound
	}
	if err != nil {
		return persistence("delete rider", err)
	}
	return nil
}

func (s *RiderService) Get(id string) (*entity.Rider, error) {
	rd, err := s.Riders.FindRider(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRiderNotFound
	}
	if err != nil {
		return nil, persistence("load rider", err)
	}
	return rd, nil
}

func (s *RiderService) List() ([]entity.Rider, error) {
	riders, err := s.Riders.ListRiders()
	if err != nil {
		return nil, persistence("load riders", err)
	}
	return riders, nil
}

// Login compares the password as stored.
func (s *RiderService) Login(username, password string) (string, *entity.Rider, error) {
	rd, err := s.Riders.FindRiderByUsername(strings.TrimSpace(username))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, persistence("load rider", err)
	}
	if rd.Password != password {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.IssueToken(rd)
	if err != nil {
		return "", nil, err
	}
	return token, rd, nil
}

func (s *RiderService) IssueToken(rd *entity.Rider) (string, error) {
	return utils.GenerateToken(rd.ID, string(rd.Role), s.JWTSecret, s.JWTTTL)
}
