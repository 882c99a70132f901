package paramdb

import "time"

// Param is the stored value of one parameter.
type Param struct {
	Name      string    `gorm:"primarykey;size:32" json:"name"`
	Value     uint32    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Param) TableName() string {
	return "params"
}

// ParamChange records one accepted Set.
type ParamChange struct {
	ID        string    `gorm:"primarykey;size:26" json:"id"`
	Name      string    `gorm:"index;size:32" json:"name"`
	OldValue  uint32    `json:"old_value"`
	NewValue  uint32    `json:"new_value"`
	CreatedAt time.Time `json:"created_at"`
}

func (ParamChange) TableName() string {
	return "param_changes"
}
