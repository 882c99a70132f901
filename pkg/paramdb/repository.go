package paramdb

import (
	"errors"
	"fmt"
	"time"

	"github.com/roffe/canmux/pkg/signal"
	"gorm.io/gorm"
)

var ErrOutOfRange = errors.New("parameter value out of range")

// ParamSetter receives loaded parameter values.
type ParamSetter interface {
	SetParam(signal.Param, uint32)
}

// Value is a parameter with its current value.
type Value struct {
	signal.ParamInfo
	Value     uint32
	UpdatedAt time.Time
}

// Repository provides parameter reads and validated writes. Parameters
// never written read as 0.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) get(tx *gorm.DB, name string) (Param, error) {
	var p Param
	err := tx.Where("name = ?", name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Param{Name: name}, nil
	}
	return p, err
}

// Get returns the stored value of p.
func (r *Repository) Get(p signal.Param) (uint32, error) {
	info, err := p.Info()
	if err != nil {
		return 0, err
	}
	row, err := r.get(r.db, info.Name)
	if err != nil {
		return 0, err
	}
	return row.Value, nil
}

// Set validates and stores v, recording the change.
func (r *Repository) Set(p signal.Param, v uint32) (*ParamChange, error) {
	info, err := p.Info()
	if err != nil {
		return nil, err
	}
	if v > info.Max {
		return nil, fmt.Errorf("%w: %s=%d, max %d", ErrOutOfRange, info.Name, v, info.Max)
	}

	var change *ParamChange
	err = r.db.Transaction(func(tx *gorm.DB) error {
		row, err := r.get(tx, info.Name)
		if err != nil {
			return err
		}
		change = &ParamChange{
			ID:       newID(),
			Name:     info.Name,
			OldValue: row.Value,
			NewValue: v,
		}
		row.Value = v
		row.UpdatedAt = time.Now()
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		return tx.Create(change).Error
	})
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", info.Name, err)
	}
	return change, nil
}

// All returns every known parameter in declaration order.
func (r *Repository) All() ([]Value, error) {
	var rows []Param
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	stored := make(map[string]Param, len(rows))
	for _, row := range rows {
		stored[row.Name] = row
	}
	params := signal.Params()
	out := make([]Value, len(params))
	for i, info := range params {
		row := stored[info.Name]
		out[i] = Value{ParamInfo: info, Value: row.Value, UpdatedAt: row.UpdatedAt}
	}
	return out, nil
}

// History returns the most recent changes of p, newest first. limit <= 0
// returns all of them.
func (r *Repository) History(p signal.Param, limit int) ([]ParamChange, error) {
	info, err := p.Info()
	if err != nil {
		return nil, err
	}
	q := r.db.Where("name = ?", info.Name).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var changes []ParamChange
	if err := q.Find(&changes).Error; err != nil {
		return nil, err
	}
	return changes, nil
}

// Load copies every parameter into s.
func (r *Repository) Load(s ParamSetter) error {
	values, err := r.All()
	if err != nil {
		return err
	}
	for _, v := range values {
		s.SetParam(v.Param, v.Value)
	}
	return nil
}
