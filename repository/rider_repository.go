package repository

import (
	"strings"

	"github.com/luiz3283/HELP-PRO/entity"

	"gorm.io/gorm"
)

type RiderRepository struct{ KV *KVRepository }

func NewRiderRepository(kv *KVRepository) *RiderRepository { return &RiderRepository{KV: kv} }

func (r *RiderRepository) ListRiders() ([]entity.Rider, error) {
	return readList[entity.Rider](r.KV, RidersKey)
}

func (r *RiderRepository) FindRider(id string) (*entity.Rider, error) {
	riders, err := r.ListRiders()
	if err != nil {
		return nil, err
	}
	for i := range riders {
		if riders[i].ID == id {
			return &riders[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// FindRiderByUsername matches case-insensitively.
func (r *RiderRepository) FindRiderByUsername(username string) (*entity.Rider, error) {
	riders, err := r.ListRiders()
	if err != nil {
		return nil, err
	}
	for i := range riders {
		if strings.EqualFold(riders[i].Username, username) {
			return &riders[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *RiderRepository) UpsertRider(rd entity.Rider) error {
	return updateList(r.KV, RidersKey, func(riders []entity.Rider) ([]entity.Rider, error) {
		for i := range riders {
			if riders[i].ID == rd.ID {
				riders[i] = rd
				return riders, nil
			}
		}
		return append(riders, rd), nil
	})
}

// DeleteRider removes only the rider record; the rider's logs stay as history.
func (r *RiderRepository) DeleteRider(id string) error {
	return updateList(r.KV, RidersKey, func(riders []entity.Rider) ([]entity.Rider, error) {
		for i := range riders {
			if riders[i].ID == id {
				return append(riders[:i], riders[i+1:]...), nil
			}
		}
		return nil, gorm.ErrRecordNotFound
	})
}
